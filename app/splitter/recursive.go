package splitter

import (
	"strings"
	"unicode/utf8"
)

var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Recursive splits on the coarsest separator first and falls back to finer
// ones for pieces that are still too long. Sizes are counted in runes.
type Recursive struct {
	chunkSize  int
	overlap    int
	separators []string
}

func NewRecursive(chunkSize, overlap int) (*Recursive, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &Recursive{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}, nil
}

func (r *Recursive) Split(text string) []string {
	return textsOf(text, r.Spans(text))
}

// Spans returns the chunk ranges. Each span starts at or before the end of
// the previous one, so the spans cover the text without gaps.
func (r *Recursive) Spans(text string) []Span {
	if text == "" {
		return nil
	}
	pieces := r.pieces(text, Span{0, len(text)}, r.separators)
	return r.merge(text, pieces)
}

func (r *Recursive) pieces(text string, in Span, separators []string) []Span {
	segment := text[in.Start:in.End]
	if runeLen(segment) <= r.chunkSize {
		return []Span{in}
	}

	sep, rest := "", []string(nil)
	for i, s := range separators {
		if s == "" || strings.Contains(segment, s) {
			sep, rest = s, separators[i+1:]
			break
		}
	}

	var out []Span
	for _, part := range splitKeep(segment, sep) {
		part = Span{in.Start + part.Start, in.Start + part.End}
		if runeLen(text[part.Start:part.End]) <= r.chunkSize || len(rest) == 0 {
			out = append(out, part)
			continue
		}
		out = append(out, r.pieces(text, part, rest)...)
	}
	return out
}

// splitKeep cuts s after every occurrence of sep. An empty sep cuts after
// every rune.
func splitKeep(s, sep string) []Span {
	var out []Span
	if sep == "" {
		for i := 0; i < len(s); {
			_, size := utf8.DecodeRuneInString(s[i:])
			out = append(out, Span{i, i + size})
			i += size
		}
		return out
	}
	start := 0
	for start < len(s) {
		idx := strings.Index(s[start:], sep)
		if idx < 0 {
			out = append(out, Span{start, len(s)})
			break
		}
		end := start + idx + len(sep)
		out = append(out, Span{start, end})
		start = end
	}
	return out
}

func (r *Recursive) merge(text string, pieces []Span) []Span {
	var (
		chunks  []Span
		current []Span
		total   int
	)
	size := func(s Span) int { return runeLen(text[s.Start:s.End]) }

	for _, p := range pieces {
		n := size(p)
		if total+n > r.chunkSize && len(current) > 0 {
			chunks = append(chunks, Span{current[0].Start, current[len(current)-1].End})
			for len(current) > 0 && (total > r.overlap || total+n > r.chunkSize) {
				total -= size(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if len(current) > 0 {
		chunks = append(chunks, Span{current[0].Start, current[len(current)-1].End})
	}
	return chunks
}
