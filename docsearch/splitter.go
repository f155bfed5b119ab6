package docsearch

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts a document into overlapping chunks. Separators are tried in
// priority order; text that no separator can break is cut at the chunk
// boundary. Overlap seeds each chunk with the tail of the previous one so
// sentences crossing a boundary survive in at least one chunk.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

// NewSplitter returns the default splitter: 500 character chunks with 50
// character overlap, breaking on paragraphs, lines, sentences, words.
func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:  500,
		Overlap:    50,
		Separators: []string{"\n\n", "\n", ". ", " ", ""},
	}
}

// Split returns the chunks of text, in document order.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.merge(s.pieces(text, s.Separators))
}

// pieces recursively breaks text into fragments no longer than ChunkSize.
func (s *Splitter) pieces(text string, seps []string) []string {
	if utf8.RuneCountInString(text) <= s.ChunkSize {
		return []string{text}
	}

	sep := ""
	rest := seps
	for i, candidate := range seps {
		if candidate == "" {
			rest = nil
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	if sep == "" {
		// No separator applies: hard cut at the chunk boundary.
		var out []string
		runes := []rune(text)
		for start := 0; start < len(runes); start += s.ChunkSize {
			end := start + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}
			out = append(out, string(runes[start:end]))
		}
		return out
	}

	var out []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) > s.ChunkSize {
			out = append(out, s.pieces(piece, rest)...)
			continue
		}
		out = append(out, piece)
	}
	return out
}

// merge greedily packs fragments into chunks up to ChunkSize, seeding each
// new chunk with the overlap tail of the one it follows. All lengths are
// counted in runes so multibyte documents fill chunks to the same capacity
// as ASCII ones.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0
	seeded := 0

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		if curLen > seeded && curLen+pieceLen > s.ChunkSize {
			chunk := strings.TrimSpace(cur.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			cur.Reset()
			tail := overlapTail(chunk, s.Overlap)
			cur.WriteString(tail)
			curLen = utf8.RuneCountInString(tail)
			seeded = curLen
		}
		cur.WriteString(piece)
		curLen += pieceLen
	}
	// A buffer holding only the seeded overlap carries no new content.
	if curLen > seeded {
		if chunk := strings.TrimSpace(cur.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func overlapTail(chunk string, overlap int) string {
	if overlap <= 0 || chunk == "" {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= overlap {
		return chunk
	}
	return string(runes[len(runes)-overlap:])
}
