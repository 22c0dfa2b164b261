package splitter

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"propertyrag/internal/rag/schema"
)

// wordTokenizer treats each whitespace-separated word as one token. It is
// deterministic and needs no encoding data, which keeps these tests
// offline; the splitting logic only depends on the Tokenizer contract.
type wordTokenizer struct {
	ids   map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) []int {
	fields := strings.Fields(text)
	tokens := make([]int, len(fields))
	for i, w := range fields {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		tokens[i] = id
	}
	return tokens
}

func (t *wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, id := range tokens {
		words[i] = t.words[id]
	}
	return strings.Join(words, " ")
}

func (t *wordTokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(parts, " ")
}

func doc(pages ...string) *schema.ParsedDocument {
	d := &schema.ParsedDocument{Filename: "test.pdf", PageCount: len(pages)}
	for i, text := range pages {
		d.Pages = append(d.Pages, schema.Page{PageNumber: i + 1, Text: text})
	}
	return d
}

func TestSplitOneChunkPerShortPage(t *testing.T) {
	s := New(512, 50, newWordTokenizer())

	chunks := s.Split(doc(words("a", 40), words("b", 40), words("c", 40)))

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.ChunkIndex)
		}
		if c.PageNumber == nil || *c.PageNumber != i+1 {
			t.Errorf("chunk %d: expected page %d, got %v", i, i+1, c.PageNumber)
		}
		if c.TokenCount != 40 {
			t.Errorf("chunk %d: expected 40 tokens, got %d", i, c.TokenCount)
		}
	}
}

func TestSplitBlankPagesYieldNoChunks(t *testing.T) {
	s := New(512, 50, newWordTokenizer())

	chunks := s.Split(doc("", "   \n\n \t ", words("a", 10)))

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].ChunkIndex)
	}
	if chunks[0].PageNumber == nil || *chunks[0].PageNumber != 3 {
		t.Errorf("expected page 3, got %v", chunks[0].PageNumber)
	}
}

func TestSplitParagraphOverflowSeedsOverlap(t *testing.T) {
	tok := newWordTokenizer()
	s := New(10, 3, tok)

	page := words("a", 6) + "\n\n" + words("b", 6)
	chunks := s.Split(doc(page))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	first := tok.Encode(chunks[0].Content)
	second := tok.Encode(chunks[1].Content)
	if len(first) != 6 {
		t.Fatalf("expected 6 tokens in first chunk, got %d", len(first))
	}
	// Overlap invariant: the tail of the first chunk is a prefix of the
	// second.
	tail := first[len(first)-3:]
	if !reflect.DeepEqual(tail, second[:3]) {
		t.Errorf("overlap tail %v is not a prefix of second chunk %v", tail, second[:6])
	}
}

func TestSplitLargeParagraphOnSentences(t *testing.T) {
	tok := newWordTokenizer()
	s := New(8, 2, tok)

	// One paragraph of 3 sentences, 5 words each: 15 tokens, over the
	// budget, but every sentence fits.
	para := "Aa bb cc dd ee. Ff gg hh ii jj. Kk ll mm nn oo."
	chunks := s.Split(doc(para))

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.ChunkIndex)
		}
		if c.TokenCount > 8 {
			t.Errorf("chunk %d: %d tokens exceeds budget", i, c.TokenCount)
		}
	}
}

func TestSplitForcedTokenWindows(t *testing.T) {
	tok := newWordTokenizer()
	s := New(10, 2, tok)

	// A single 25-word "sentence" with no boundaries anywhere.
	chunks := s.Split(doc(words("w", 25)))

	// Windows advance by chunkSize-chunkOverlap = 8: [0,10) [8,18) [16,25).
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantCounts := []int{10, 10, 9}
	for i, c := range chunks {
		if c.TokenCount != wantCounts[i] {
			t.Errorf("chunk %d: expected %d tokens, got %d", i, wantCounts[i], c.TokenCount)
		}
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.ChunkIndex)
		}
	}

	// Adjacent windows share the configured overlap.
	first := tok.Encode(chunks[0].Content)
	second := tok.Encode(chunks[1].Content)
	if !reflect.DeepEqual(first[8:], second[:2]) {
		t.Errorf("expected forced windows to overlap by 2 tokens")
	}
}

func TestSplitTokenCountMatchesContent(t *testing.T) {
	tok := newWordTokenizer()
	s := New(12, 4, tok)

	page1 := words("a", 9) + "\n\n" + words("b", 9) + "\n\n" + words("c", 5)
	page2 := "Kurz. " + words("d", 20)
	chunks := s.Split(doc(page1, page2))

	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d: index %d breaks continuity", i, c.ChunkIndex)
		}
		if got := tok.Count(c.Content); got != c.TokenCount {
			t.Errorf("chunk %d: TokenCount %d != tokenizer count %d", i, c.TokenCount, got)
		}
	}
}

func TestSplitSentencesHeuristic(t *testing.T) {
	got := splitSentences("Das Haus ist alt. Es wurde 1950 gebaut! Wer wohnt dort? niemand weiß es.")
	want := []string{
		"Das Haus ist alt.",
		"Es wurde 1950 gebaut!",
		"Wer wohnt dort? niemand weiß es.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitSentences() = %q, want %q", got, want)
	}
}
