package models

// Typed payloads for structured extraction. JSON keys are the German field
// names the extraction prompts ask for, so a validated model response
// round-trips into these without renaming.

// Partei is a contract party (landlord or tenant).
type Partei struct {
	Name    string  `json:"name"`
	Adresse *string `json:"adresse,omitempty"`
	Typ     *string `json:"typ,omitempty"` // "Vermieter", "Mieter"
}

// MietvertragData holds fields extracted from a rental contract.
type MietvertragData struct {
	Vermieter             *Partei  `json:"vermieter"`
	Mieter                *Partei  `json:"mieter"`
	ObjektAdresse         *string  `json:"objekt_adresse"`
	ObjektTyp             *string  `json:"objekt_typ"` // "Wohnung", "Gewerbe", ...
	FlaecheQm             *float64 `json:"flaeche_qm"`
	NettomieteEur         *float64 `json:"nettomiete_eur"`
	NebenkostenEur        *float64 `json:"nebenkosten_eur"`
	BruttomieteEur        *float64 `json:"bruttomiete_eur"`
	Mietbeginn            *string  `json:"mietbeginn"` // YYYY-MM-DD
	Mietende              *string  `json:"mietende"`
	Befristet             *bool    `json:"befristet"`
	KuendigungsfristMonate *int    `json:"kuendigungsfrist_monate"`
	Indexierung           *string  `json:"indexierung"`
	KautionEur            *float64 `json:"kaution_eur"`
	Sondervereinbarungen  []string `json:"sondervereinbarungen"`
}

// GutachtenData holds fields extracted from a property valuation report.
type GutachtenData struct {
	Gutachter             *string  `json:"gutachter"`
	Bewertungsstichtag    *string  `json:"bewertungsstichtag"` // YYYY-MM-DD
	VerkehrswertEur       *float64 `json:"verkehrswert_eur"`
	ErtragswertEur        *float64 `json:"ertragswert_eur"`
	SachwertEur           *float64 `json:"sachwert_eur"`
	Nutzungsart           *string  `json:"nutzungsart"`
	Baujahr               *int     `json:"baujahr"`
	WohnflaecheQm         *float64 `json:"wohnflaeche_qm"`
	GrundstuecksflaecheQm *float64 `json:"grundstuecksflaeche_qm"`
	Adresse               *string  `json:"adresse"`
}

// Belastung is an encumbrance listed in a land register extract.
type Belastung struct {
	Typ          string   `json:"typ"` // "Grundschuld", "Hypothek", ...
	BetragEur    *float64 `json:"betrag_eur,omitempty"`
	Glaeubiger   *string  `json:"glaeubiger,omitempty"`
	Beschreibung *string  `json:"beschreibung,omitempty"`
}

// GrundbuchauszugData holds fields extracted from a land register extract.
type GrundbuchauszugData struct {
	Grundbuchamt          *string     `json:"grundbuchamt"`
	BlattNummer           *string     `json:"blatt_nummer"`
	Flurnummer            *string     `json:"flurnummer"`
	Gemarkung             *string     `json:"gemarkung"`
	GrundstuecksgroesseQm *float64    `json:"grundstuecksgroesse_qm"`
	Eigentuemer           []string    `json:"eigentuemer"`
	Belastungen           []Belastung `json:"belastungen"`
	StandDatum            *string     `json:"stand_datum"` // YYYY-MM-DD
}

// NebenkostenPosition is one line item of a utility statement.
type NebenkostenPosition struct {
	Bezeichnung     string   `json:"bezeichnung"`
	BetragEur       float64  `json:"betrag_eur"`
	Umlageschluessel *string `json:"umlageschluessel,omitempty"`
}

// NebenkostenabrechnungData holds fields extracted from a utility statement.
type NebenkostenabrechnungData struct {
	AbrechnungszeitraumVon *string               `json:"abrechnungszeitraum_von"` // YYYY-MM-DD
	AbrechnungszeitraumBis *string               `json:"abrechnungszeitraum_bis"`
	ObjektAdresse          *string               `json:"objekt_adresse"`
	Mieter                 *string               `json:"mieter"`
	GesamtkostenEur        *float64              `json:"gesamtkosten_eur"`
	VorauszahlungenEur     *float64              `json:"vorauszahlungen_eur"`
	NachzahlungEur         *float64              `json:"nachzahlung_eur"`
	GuthabenEur            *float64              `json:"guthaben_eur"`
	Positionen             []NebenkostenPosition `json:"positionen"`
}
