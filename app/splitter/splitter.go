// Package splitter cuts document text into ordered chunks for embedding.
package splitter

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	TypeRecursive = "recursive"
	TypeWindow    = "window"
	TypeSentence  = "sentence"

	DefaultChunkSize = 200
	DefaultOverlap   = 20
)

var (
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrInvalidOverlap   = errors.New("overlap must be >= 0 and smaller than the chunk size")
)

type Interface interface {
	Split(text string) []string
}

// Span is a byte range [Start, End) of the source text.
type Span struct {
	Start int
	End   int
}

type Config struct {
	Type      string `yaml:"type" validate:"omitempty,oneof=recursive window sentence"`
	ChunkSize int    `yaml:"chunk_size" validate:"gte=0"`
	Overlap   int    `yaml:"overlap" validate:"gte=0"`
}

func New(cfg Config) (Interface, error) {
	size := cfg.ChunkSize
	if size == 0 {
		size = DefaultChunkSize
	}
	switch cfg.Type {
	case "", TypeRecursive:
		return NewRecursive(size, cfg.Overlap)
	case TypeWindow:
		return NewWindow(size, cfg.Overlap)
	case TypeSentence:
		return NewSentence(size)
	default:
		return nil, fmt.Errorf("unknown splitter type: %s", cfg.Type)
	}
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap=%d chunk_size=%d", ErrInvalidOverlap, overlap, chunkSize)
	}
	return nil
}

func textsOf(text string, spans []Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, text[s.Start:s.End])
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
