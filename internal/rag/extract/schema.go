package extract

import (
	"regexp"
	"strconv"
	"strings"

	"propertyrag/internal/models"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindInt
	kindBool
	kindStringList
	kindObject
	kindObjectList
)

type fieldSpec struct {
	Name string
	Kind fieldKind
}

// schemas lists every field an extraction prompt asks for, per document
// type. Repair and confidence scoring both walk these lists.
var schemas = map[models.DocumentType][]fieldSpec{
	models.DocumentTypeMietvertrag: {
		{"vermieter", kindObject},
		{"mieter", kindObject},
		{"objekt_adresse", kindString},
		{"objekt_typ", kindString},
		{"flaeche_qm", kindNumber},
		{"nettomiete_eur", kindNumber},
		{"nebenkosten_eur", kindNumber},
		{"bruttomiete_eur", kindNumber},
		{"mietbeginn", kindString},
		{"mietende", kindString},
		{"befristet", kindBool},
		{"kuendigungsfrist_monate", kindInt},
		{"indexierung", kindString},
		{"kaution_eur", kindNumber},
		{"sondervereinbarungen", kindStringList},
	},
	models.DocumentTypeGutachten: {
		{"gutachter", kindString},
		{"bewertungsstichtag", kindString},
		{"verkehrswert_eur", kindNumber},
		{"ertragswert_eur", kindNumber},
		{"sachwert_eur", kindNumber},
		{"nutzungsart", kindString},
		{"baujahr", kindInt},
		{"wohnflaeche_qm", kindNumber},
		{"grundstuecksflaeche_qm", kindNumber},
		{"adresse", kindString},
	},
	models.DocumentTypeGrundbuchauszug: {
		{"grundbuchamt", kindString},
		{"blatt_nummer", kindString},
		{"flurnummer", kindString},
		{"gemarkung", kindString},
		{"grundstuecksgroesse_qm", kindNumber},
		{"eigentuemer", kindStringList},
		{"belastungen", kindObjectList},
		{"stand_datum", kindString},
	},
	models.DocumentTypeNebenkostenabrechnung: {
		{"abrechnungszeitraum_von", kindString},
		{"abrechnungszeitraum_bis", kindString},
		{"objekt_adresse", kindString},
		{"mieter", kindString},
		{"gesamtkosten_eur", kindNumber},
		{"vorauszahlungen_eur", kindNumber},
		{"nachzahlung_eur", kindNumber},
		{"guthaben_eur", kindNumber},
		{"positionen", kindObjectList},
	},
}

var numberRun = regexp.MustCompile(`-?\d+\.?\d*`)

// parseNumber normalizes German-formatted amounts like "1.234,56 €" or
// "85 qm" into a plain float. Returns nil when no numeric run is present.
func parseNumber(s string) *float64 {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	for _, sym := range []string{"€", "$", "%", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}
	match := numberRun.FindString(s)
	if match == "" {
		return nil
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &n
}

// repair rebuilds the raw model output around the schema: unknown keys are
// dropped, numeric fields given as strings are parsed, blatt_nummer-style
// identifiers given as numbers are stringified, and bare names where a
// party object is expected are wrapped.
func repair(data map[string]interface{}, schema []fieldSpec) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(schema))
	for _, f := range schema {
		v, ok := data[f.Name]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case kindNumber, kindInt:
			if s, ok := v.(string); ok {
				n := parseNumber(s)
				if n == nil {
					continue
				}
				v = *n
			}
		case kindString:
			if n, ok := v.(float64); ok {
				v = strconv.FormatFloat(n, 'f', -1, 64)
			}
		case kindBool:
			if s, ok := v.(string); ok {
				switch strings.ToLower(strings.TrimSpace(s)) {
				case "true", "ja":
					v = true
				case "false", "nein":
					v = false
				default:
					continue
				}
			}
		case kindObject:
			if s, ok := v.(string); ok {
				v = map[string]interface{}{"name": s}
			}
		}
		cleaned[f.Name] = v
	}
	return cleaned
}

// scoreConfidence is the share of schema fields the model actually filled.
// Null values, absent keys and empty lists all count as unfilled.
func scoreConfidence(data map[string]interface{}, schema []fieldSpec) float64 {
	if len(schema) == 0 {
		return 0
	}
	filled := 0
	for _, f := range schema {
		v, ok := data[f.Name]
		if !ok || v == nil {
			continue
		}
		if list, isList := v.([]interface{}); isList && len(list) == 0 {
			continue
		}
		filled++
	}
	return float64(filled) / float64(len(schema))
}
