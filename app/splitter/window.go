package splitter

// Window cuts fixed-size rune windows that advance by chunkSize-overlap.
type Window struct {
	chunkSize int
	overlap   int
}

func NewWindow(chunkSize, overlap int) (*Window, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &Window{chunkSize: chunkSize, overlap: overlap}, nil
}

func (w *Window) Split(text string) []string {
	return textsOf(text, w.Spans(text))
}

func (w *Window) Spans(text string) []Span {
	// byte offset of every rune, plus the end of the text
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	runes := len(offsets)
	offsets = append(offsets, len(text))

	var spans []Span
	for start := 0; start < runes; start += w.chunkSize - w.overlap {
		end := start + w.chunkSize
		if end > runes {
			end = runes
		}
		spans = append(spans, Span{offsets[start], offsets[end]})
		if end == runes {
			break
		}
	}
	return spans
}
