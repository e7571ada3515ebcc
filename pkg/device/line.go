// Package device provides scan.Reader implementations for the readers the
// console can drive without a browser: keyboard-wedge and serial readers that
// emit one line per tap, and scripted readers for demos and tests.
package device

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/ariyeh/bagtag/pkg/scan"
)

// Line prefixes understood by LineReader. Anything else is a serial number,
// which is what keyboard-wedge readers type.
const (
	prefixText  = "text:"
	prefixNDEF  = "ndef:"
	prefixError = "error:"
)

// LineReader turns newline-delimited input into readings. One pump goroutine
// reads the input for the reader's whole life. A line goes to the newest Scan
// whose context is still alive; a line read while nobody is scanning is
// dropped, like a tap on an idle reader.
type LineReader struct {
	src  io.Reader
	once sync.Once

	mu   sync.Mutex // guards eof and subs; held while a line is handed over
	eof  bool
	subs []*lineSub
}

type lineSub struct {
	ctx context.Context
	ch  chan scan.Reading
}

// NewLineReader creates a LineReader over src.
func NewLineReader(src io.Reader) *LineReader {
	return &LineReader{src: src}
}

// Available reports whether the input is still open.
func (r *LineReader) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.eof
}

// Scan implements scan.Reader. The stream closes when ctx is done or the
// input ends.
func (r *LineReader) Scan(ctx context.Context) (<-chan scan.Reading, error) {
	sub := &lineSub{ctx: ctx, ch: make(chan scan.Reading)}

	r.mu.Lock()
	if r.eof {
		r.mu.Unlock()
		return nil, errors.New("reader input is closed")
	}
	r.subs = append(r.subs, sub)
	r.mu.Unlock()

	r.once.Do(func() { go r.pump() })
	go func() {
		<-ctx.Done()
		r.unsubscribe(sub)
	}()
	return sub.ch, nil
}

func (r *LineReader) unsubscribe(sub *lineSub) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s == sub {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// deliver hands rd to the newest live subscriber, or drops it.
func (r *LineReader) deliver(rd scan.Reading) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.subs) - 1; i >= 0; i-- {
		sub := r.subs[i]
		if sub.ctx.Err() != nil {
			continue
		}
		select {
		case sub.ch <- rd:
			return true
		case <-sub.ctx.Done():
		}
	}
	return false
}

func (r *LineReader) pump() {
	defer func() {
		r.mu.Lock()
		r.eof = true
		for _, sub := range r.subs {
			close(sub.ch)
		}
		r.subs = nil
		r.mu.Unlock()
	}()

	sc := bufio.NewScanner(r.src)
	for sc.Scan() {
		r.deliver(ParseLine(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		r.deliver(scan.Reading{Err: err})
	}
}

// ParseLine converts one input line into a reading.
func ParseLine(line string) scan.Reading {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return scan.Reading{}
	case strings.HasPrefix(line, prefixText):
		return scan.Reading{Records: []scan.Record{{
			RecordType: scan.RecordTypeText,
			Encoding:   "utf-8",
			Data:       []byte(strings.TrimPrefix(line, prefixText)),
		}}}
	case strings.HasPrefix(line, prefixNDEF):
		payload, err := hex.DecodeString(strings.TrimPrefix(line, prefixNDEF))
		if err != nil {
			return scan.Reading{Err: err}
		}
		rec, err := scan.ParseTextPayload(payload)
		if err != nil {
			return scan.Reading{Err: err}
		}
		return scan.Reading{Records: []scan.Record{rec}}
	case strings.HasPrefix(line, prefixError):
		return scan.Reading{Err: errors.New(strings.TrimSpace(strings.TrimPrefix(line, prefixError)))}
	default:
		return scan.Reading{SerialNumber: line}
	}
}
