package splitter

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

type sentenceTokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// Sentence packs whole sentences into chunks of at most maxRunes runes.
// A sentence longer than maxRunes is cut with a Window.
type Sentence struct {
	maxRunes  int
	tokenizer sentenceTokenizer
	fallback  *Window
}

func NewSentence(maxRunes int) (*Sentence, error) {
	fallback, err := NewWindow(maxRunes, 0)
	if err != nil {
		return nil, err
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}
	return &Sentence{maxRunes: maxRunes, tokenizer: tokenizer, fallback: fallback}, nil
}

func (s *Sentence) Split(text string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, sent := range s.tokenizer.Tokenize(text) {
		t := strings.TrimSpace(sent.Text)
		if t == "" {
			continue
		}
		n := runeLen(t)
		if n > s.maxRunes {
			flush()
			chunks = append(chunks, s.fallback.Split(t)...)
			continue
		}
		sepLen := 0
		if size > 0 {
			sepLen = 1
		}
		if size+sepLen+n > s.maxRunes {
			flush()
			sepLen = 0
		}
		if sepLen > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(t)
		size += sepLen + n
	}
	flush()
	return chunks
}
