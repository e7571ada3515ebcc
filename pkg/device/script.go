package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ariyeh/bagtag/pkg/scan"
)

// Script is a recorded sequence of taps replayed by ScriptReader.
type Script struct {
	Readings []ScriptEntry `yaml:"readings"`
}

// ScriptEntry is one replayed event.
type ScriptEntry struct {
	Delay        string `yaml:"delay,omitempty"`
	SerialNumber string `yaml:"serialNumber,omitempty"`
	Text         string `yaml:"text,omitempty"`
	Encoding     string `yaml:"encoding,omitempty"`
	Lang         string `yaml:"lang,omitempty"`
	Error        string `yaml:"error,omitempty"`
	// StartError makes Scan itself fail, as a busy device would.
	StartError string `yaml:"startError,omitempty"`
}

// ScriptReader replays a Script on every Scan call.
type ScriptReader struct {
	script Script
}

// NewScriptReader validates script and returns a reader for it.
func NewScriptReader(script Script) (*ScriptReader, error) {
	for i, e := range script.Readings {
		if e.Delay == "" {
			continue
		}
		if _, err := time.ParseDuration(e.Delay); err != nil {
			return nil, fmt.Errorf("reading %d: invalid delay %q: %w", i, e.Delay, err)
		}
	}
	return &ScriptReader{script: script}, nil
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*ScriptReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan script: %w", err)
	}
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse scan script: %w", err)
	}
	return NewScriptReader(script)
}

// Scan implements scan.Reader.
func (r *ScriptReader) Scan(ctx context.Context) (<-chan scan.Reading, error) {
	entries := r.script.Readings
	if len(entries) > 0 && entries[0].StartError != "" {
		return nil, errors.New(entries[0].StartError)
	}

	out := make(chan scan.Reading)
	go func() {
		defer close(out)
		for _, e := range entries {
			if e.StartError != "" {
				continue
			}
			if e.Delay != "" {
				d, _ := time.ParseDuration(e.Delay)
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			select {
			case out <- e.reading():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (e ScriptEntry) reading() scan.Reading {
	if e.Error != "" {
		return scan.Reading{Err: errors.New(e.Error)}
	}
	r := scan.Reading{SerialNumber: e.SerialNumber}
	if e.Text != "" {
		r.Records = []scan.Record{{
			RecordType: scan.RecordTypeText,
			Encoding:   e.Encoding,
			Lang:       e.Lang,
			Data:       []byte(e.Text),
		}}
	}
	return r
}
