package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Station reads a keyboard-wedge scanner stream into a Debouncer
type Station struct {
	debouncer *Debouncer
	report    func(Result)
}

// NewStation creates a station; report is called for every non-blank scan
func NewStation(debouncer *Debouncer, report func(Result)) *Station {
	if report == nil {
		report = func(Result) {}
	}
	return &Station{debouncer: debouncer, report: report}
}

// Run consumes r until EOF or ctx is done. A trailing code without a
// terminator is submitted at EOF.
func (s *Station) Run(ctx context.Context, r io.Reader) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(chunks)
		buf := make([]byte, 512)
		var pending []byte
		for {
			n, err := r.Read(buf)
			pending = append(pending, buf[:n]...)
			cut := len(pending)
			if err == nil {
				// hold back a rune split across reads
				cut = completeRunes(pending)
			}
			if cut > 0 {
				chunk := make([]byte, cut)
				copy(chunk, pending[:cut])
				pending = append(pending[:0], pending[cut:]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return s.finish(ctx, readErr)
			}
			for _, res := range s.debouncer.Feed(ctx, string(chunk)) {
				s.report(res)
			}
		}
	}
}

func (s *Station) finish(ctx context.Context, readErr <-chan error) error {
	var err error
	select {
	case err = <-readErr:
	default:
	}
	if res := s.debouncer.Flush(ctx); res.Outcome != OutcomeIgnored {
		s.report(res)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("scanner input: %w", err)
	}
	return nil
}

// completeRunes returns the length of the longest prefix of b that does not
// end inside a multi-byte UTF-8 sequence.
func completeRunes(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}
