// Package splitter turns page-segmented text into ordered, token-bounded
// chunks with overlap.
package splitter

import (
	"strings"
	"unicode"

	"propertyrag/internal/rag/interfaces"
	"propertyrag/internal/rag/schema"
)

// TextSplitter splits documents page by page, preferring paragraph
// boundaries, then sentence boundaries, and only force-splitting by raw
// token count when a single sentence exceeds the chunk budget. It is a
// pure function of (pages, config); chunk indexes run continuously across
// the whole document.
type TextSplitter struct {
	chunkSize    int
	chunkOverlap int
	tok          interfaces.Tokenizer
}

// New creates a TextSplitter. chunkSize is the maximum tokens per chunk,
// chunkOverlap the number of tokens repeated between adjacent chunks.
func New(chunkSize, chunkOverlap int, tok interfaces.Tokenizer) *TextSplitter {
	return &TextSplitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		tok:          tok,
	}
}

// Split chunks a parsed document. Pages with only whitespace yield no
// chunks; every non-blank page contributes at least one.
func (s *TextSplitter) Split(doc *schema.ParsedDocument) []schema.TextChunk {
	var chunks []schema.TextChunk
	for _, page := range doc.Pages {
		chunks = append(chunks, s.splitPage(page, len(chunks))...)
	}
	return chunks
}

func (s *TextSplitter) splitPage(page schema.Page, startIndex int) []schema.TextChunk {
	if strings.TrimSpace(page.Text) == "" {
		return nil
	}

	pageNumber := page.PageNumber
	paragraphs := splitParagraphs(page.Text)

	var chunks []schema.TextChunk
	currentText := ""
	currentTokens := 0
	chunkIndex := startIndex

	for _, paragraph := range paragraphs {
		paraTokens := s.tok.Count(paragraph)

		switch {
		// A paragraph that alone exceeds the budget is split further on
		// sentence boundaries; any pending buffer is flushed first.
		case paraTokens > s.chunkSize:
			if strings.TrimSpace(currentText) != "" {
				chunks = append(chunks, s.newChunk(currentText, &pageNumber, chunkIndex))
				chunkIndex++
				currentText = ""
				currentTokens = 0
			}
			paraChunks := s.splitLargeText(paragraph, &pageNumber, chunkIndex)
			chunks = append(chunks, paraChunks...)
			chunkIndex += len(paraChunks)

		// Appending would exceed the budget: flush, then seed the next
		// buffer with the overlap tail of the flushed chunk.
		case currentTokens+paraTokens > s.chunkSize:
			if strings.TrimSpace(currentText) != "" {
				chunks = append(chunks, s.newChunk(currentText, &pageNumber, chunkIndex))
				chunkIndex++
				currentText = s.overlapTail(currentText) + "\n\n" + paragraph
				currentTokens = s.tok.Count(currentText)
			} else {
				currentText = paragraph
				currentTokens = paraTokens
			}

		default:
			if currentText != "" {
				currentText += "\n\n" + paragraph
			} else {
				currentText = paragraph
			}
			currentTokens = s.tok.Count(currentText)
		}
	}

	if strings.TrimSpace(currentText) != "" {
		chunks = append(chunks, s.newChunk(currentText, &pageNumber, chunkIndex))
	}

	return chunks
}

// splitLargeText handles a paragraph over the chunk budget: sentence
// boundaries first, forced token windows as the last resort.
func (s *TextSplitter) splitLargeText(text string, pageNumber *int, startIndex int) []schema.TextChunk {
	sentences := splitSentences(text)

	var chunks []schema.TextChunk
	currentText := ""
	currentTokens := 0
	chunkIndex := startIndex

	for _, sentence := range sentences {
		sentenceTokens := s.tok.Count(sentence)

		switch {
		case sentenceTokens > s.chunkSize:
			if strings.TrimSpace(currentText) != "" {
				chunks = append(chunks, s.newChunk(currentText, pageNumber, chunkIndex))
				chunkIndex++
				currentText = ""
				currentTokens = 0
			}
			tokenChunks := s.forceSplitByTokens(sentence, pageNumber, chunkIndex)
			chunks = append(chunks, tokenChunks...)
			chunkIndex += len(tokenChunks)

		case currentTokens+sentenceTokens > s.chunkSize:
			if strings.TrimSpace(currentText) != "" {
				chunks = append(chunks, s.newChunk(currentText, pageNumber, chunkIndex))
				chunkIndex++
				currentText = s.overlapTail(currentText) + " " + sentence
				currentTokens = s.tok.Count(currentText)
			} else {
				currentText = sentence
				currentTokens = sentenceTokens
			}

		default:
			if currentText != "" {
				currentText += " " + sentence
			} else {
				currentText = sentence
			}
			currentTokens = s.tok.Count(currentText)
		}
	}

	if strings.TrimSpace(currentText) != "" {
		chunks = append(chunks, s.newChunk(currentText, pageNumber, chunkIndex))
	}

	return chunks
}

// forceSplitByTokens slides a fixed window of chunkSize tokens, advancing
// chunkSize-chunkOverlap per step. The only place chunk boundaries ignore
// linguistic structure.
func (s *TextSplitter) forceSplitByTokens(text string, pageNumber *int, startIndex int) []schema.TextChunk {
	tokens := s.tok.Encode(text)

	var chunks []schema.TextChunk
	chunkIndex := startIndex

	for i := 0; i < len(tokens); {
		end := i + s.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		window := tokens[i:end]
		chunks = append(chunks, schema.TextChunk{
			Content:    s.tok.Decode(window),
			PageNumber: pageNumber,
			ChunkIndex: chunkIndex,
			TokenCount: len(window),
		})
		chunkIndex++

		if end < len(tokens) {
			i = end - s.chunkOverlap
		} else {
			i = end
		}
	}

	return chunks
}

// newChunk trims the buffer and recounts so TokenCount always matches the
// stored content exactly.
func (s *TextSplitter) newChunk(text string, pageNumber *int, index int) schema.TextChunk {
	content := strings.TrimSpace(text)
	return schema.TextChunk{
		Content:    content,
		PageNumber: pageNumber,
		ChunkIndex: index,
		TokenCount: s.tok.Count(content),
	}
}

// overlapTail returns the last chunkOverlap tokens of text, decoded.
func (s *TextSplitter) overlapTail(text string) string {
	tokens := s.tok.Encode(text)
	if len(tokens) <= s.chunkOverlap {
		return text
	}
	return s.tok.Decode(tokens[len(tokens)-s.chunkOverlap:])
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// splitSentences splits after '.', '!' or '?' followed by whitespace and
// an uppercase letter, or at end of string. A punctuation heuristic, not a
// grammar: abbreviations may mis-split.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string
	start := 0

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && unicode.IsUpper(runes[j]) {
				if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
					sentences = append(sentences, s)
				}
				start = j
				i = j - 1
			}
		}
	}

	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

var _ interfaces.Splitter = (*TextSplitter)(nil)
