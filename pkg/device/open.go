package device

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariyeh/bagtag/pkg/scan"
)

// Config selects a reader implementation.
type Config struct {
	Type string `yaml:"type"` // "none", "stdin", "serial", "script"
	Path string `yaml:"path"` // device node or script file
}

// ParseSpec turns the --reader flag value into a Config. Accepted forms are
// "none", "stdin", "script:<file>" and a device path such as /dev/ttyACM0.
func ParseSpec(spec string) Config {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "" || spec == "none":
		return Config{Type: "none"}
	case spec == "stdin" || spec == "-":
		return Config{Type: "stdin"}
	case strings.HasPrefix(spec, "script:"):
		return Config{Type: "script", Path: strings.TrimPrefix(spec, "script:")}
	default:
		return Config{Type: "serial", Path: spec}
	}
}

// Handle is an opened reader. Reader is nil for type "none".
type Handle struct {
	Reader scan.Reader
	closer io.Closer
}

// Available reports whether the reader can currently scan.
func (h *Handle) Available() bool {
	if h == nil || h.Reader == nil {
		return false
	}
	if lr, ok := h.Reader.(*LineReader); ok {
		return lr.Available()
	}
	return true
}

// Close releases the underlying device file, if any.
func (h *Handle) Close() error {
	if h == nil || h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

// Open creates the reader described by cfg. stdin is used for type "stdin".
func Open(cfg Config, stdin io.Reader) (*Handle, error) {
	switch cfg.Type {
	case "none", "":
		return &Handle{}, nil
	case "stdin":
		return &Handle{Reader: NewLineReader(stdin)}, nil
	case "script":
		r, err := LoadScript(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Handle{Reader: r}, nil
	case "serial":
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open reader device: %w", err)
		}
		return &Handle{Reader: NewLineReader(f), closer: f}, nil
	default:
		return nil, fmt.Errorf("unknown reader type %q", cfg.Type)
	}
}
