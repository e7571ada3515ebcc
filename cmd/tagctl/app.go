package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/api"
	"github.com/ariyeh/bagtag/pkg/capability"
	"github.com/ariyeh/bagtag/pkg/config"
	"github.com/ariyeh/bagtag/pkg/console"
	"github.com/ariyeh/bagtag/pkg/device"
	"github.com/ariyeh/bagtag/pkg/journal"
	"github.com/ariyeh/bagtag/pkg/scan"
)

// startupError marks failures that happen before any command runs.
type startupError struct{ err error }

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }

var (
	errJournalDisabled = errors.New("journal is disabled; set --journal-path or BAGTAG_JOURNAL_PATH")
	errNoTagRead       = errors.New("scan ended before a tag was read")
)

type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfgFile string
	envFile string

	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	journal *journal.Store
	reader  *device.Handle
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	defer a.close()
	return root.ExecuteContext(ctx)
}

// setup resolves configuration and builds the shared clients.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), config.LoadOptions{EnvFile: a.envFile, ConfigFile: a.cfgFile})
	if err != nil {
		return &startupError{err: err}
	}
	a.cfg = cfg

	lvl, _ := cfg.SlogLevel()
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: lvl}))

	opts := []api.Option{api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(a.logger)}
	if jc := cfg.JournalConfig(); jc.Enabled() {
		store, err := journal.Open(jc.Path)
		if err != nil {
			return &startupError{err: err}
		}
		a.journal = store
		opts = append(opts, api.WithTransport(journal.Wrap(store, jc, a.logger)))
	}
	a.client = api.NewClient(cfg.APIBase, opts...)
	return nil
}

func (a *app) close() {
	if a.reader != nil {
		_ = a.reader.Close()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil && a.logger != nil {
			a.logger.Warn("closing journal failed", "error", err)
		}
	}
}

// openReader opens the configured tag reader once.
func (a *app) openReader() (*device.Handle, error) {
	if a.reader != nil {
		return a.reader, nil
	}
	h, err := device.Open(device.ParseSpec(a.cfg.Reader), a.in)
	if err != nil {
		return nil, err
	}
	a.reader = h
	return h, nil
}

func (a *app) environment(h *device.Handle) (capability.Environment, error) {
	origin, err := a.cfg.OriginURL()
	if err != nil {
		return nil, fmt.Errorf("invalid origin: %w", err)
	}
	return capability.EnvironmentFunc{
		OriginFn:    func() *url.URL { return origin },
		HasReaderFn: h.Available,
	}, nil
}

// newConsole builds a console; the reader is only opened when withReader is set.
func (a *app) newConsole(withReader bool) (*console.Console, error) {
	opts := console.Options{
		Scan:      a.cfg.ScanConfig(),
		Inventory: a.cfg.InventoryConfig(),
		Logger:    a.logger,
	}
	if withReader {
		h, err := a.openReader()
		if err != nil {
			return nil, err
		}
		env, err := a.environment(h)
		if err != nil {
			return nil, err
		}
		opts.Env = env
		opts.Reader = h.Reader
	}
	return console.New(a.client, opts), nil
}

// awaitListening waits until the reader is listening for sess. It returns
// false when the session ended first or ctx is done.
func awaitListening(ctx context.Context, sess *scan.Session) bool {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		switch sess.State() {
		case scan.StateListening, scan.StateReading:
			return true
		}
		select {
		case <-sess.Done():
			return false
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// awaitScan waits until sess delivers a value, ends, or ctx is done.
func awaitScan(ctx context.Context, sess *scan.Session) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if sess.Values() > 0 {
			return nil
		}
		select {
		case <-sess.Done():
			if sess.Values() > 0 {
				return nil
			}
			if err := sess.Err(); err != nil {
				return err
			}
			return errNoTagRead
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
