// Package console is the operator workflow: fill the bag form (by hand or by
// scanning a tag), create the bag, attach an authentication record to it and
// look tags up.
package console

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/ariyeh/bagtag/pkg/binding"
	"github.com/ariyeh/bagtag/pkg/capability"
	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/inventory"
	"github.com/ariyeh/bagtag/pkg/models"
	"github.com/ariyeh/bagtag/pkg/scan"
)

// ErrEmptyTagCode is returned by Lookup when no tag code was entered or scanned.
var ErrEmptyTagCode = errors.New("enter or scan a tag code first")

// Backend is the server surface the console uses.
type Backend interface {
	CreateBag(ctx context.Context, req models.BagCreateRequest) (*models.BagWithTag, error)
	ListBags(ctx context.Context) ([]models.InventoryRow, error)
	UpsertEntrupy(ctx context.Context, req models.EntrupyCreateRequest) (*models.EntrupyRecord, error)
	LookupTag(ctx context.Context, code string) (*models.TagLookup, error)
}

// Page identifies a console view with its own status line.
type Page string

const (
	PageBag     Page = "bag"
	PageEntrupy Page = "entrupy"
	PageLookup  Page = "lookup"
)

// PageState is what a page shows besides its form.
type PageState struct {
	Status string
	Err    error
	Result any
}

// ErrorMessage returns the page error text, or "".
func (p PageState) ErrorMessage() string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}

// Options configures a Console.
type Options struct {
	Env       capability.Environment
	Reader    scan.Reader
	Scan      *scan.Config
	Inventory *inventory.Config
	Logger    *slog.Logger
}

// Console owns the forms, scanners, inventory and binding of one operator session.
type Console struct {
	backend Backend
	logger  *slog.Logger

	BagForm     *form.State
	EntrupyForm *form.State
	LookupForm  *form.State

	inventory   *inventory.Cache
	coordinator *binding.Coordinator
	bagScanner  *scan.Scanner
	tagScanner  *scan.Scanner

	mu    sync.Mutex
	pages map[Page]PageState
}

// New builds a Console talking to backend.
func New(backend Backend, opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Console{
		backend:     backend,
		logger:      logger,
		BagForm:     form.NewBagForm(),
		EntrupyForm: form.NewEntrupyForm(),
		LookupForm:  form.NewLookupForm(),
		pages:       make(map[Page]PageState),
	}
	c.inventory = inventory.NewCache(opts.Inventory, logger)
	c.coordinator = binding.NewCoordinator(c.EntrupyForm, c.inventory, logger)
	c.bagScanner = scan.NewScanner(opts.Env, opts.Reader, opts.Scan, logger.With("form", string(PageBag)))
	c.tagScanner = scan.NewScanner(opts.Env, opts.Reader, opts.Scan, logger.With("form", string(PageLookup)))
	return c
}

// Inventory returns the inventory cache.
func (c *Console) Inventory() *inventory.Cache { return c.inventory }

// Coordinator returns the binding coordinator.
func (c *Console) Coordinator() *binding.Coordinator { return c.coordinator }

// Page returns the current state of page p.
func (c *Console) Page(p Page) PageState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[p]
}

func (c *Console) update(p Page, fn func(*PageState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.pages[p]
	fn(&st)
	c.pages[p] = st
}

func (c *Console) reset(p Page) {
	c.update(p, func(st *PageState) {
		st.Err = nil
		st.Status = ""
	})
}

func (c *Console) fail(p Page, err error) error {
	c.update(p, func(st *PageState) {
		st.Err = err
		st.Status = ""
	})
	return err
}

// StartBagTagScan scans a tag into the bag form's tag_code field.
func (c *Console) StartBagTagScan(ctx context.Context) *scan.Session {
	c.reset(PageBag)
	return c.bagScanner.Start(ctx, c.scanInto(PageBag, c.BagForm, form.FieldTagCode))
}

// StartLookupScan scans a tag into the lookup form.
func (c *Console) StartLookupScan(ctx context.Context) *scan.Session {
	c.reset(PageLookup)
	return c.tagScanner.Start(ctx, c.scanInto(PageLookup, c.LookupForm, form.FieldTagCode))
}

// ScanState returns the state of the page's scanner.
func (c *Console) ScanState(p Page) scan.State {
	switch p {
	case PageBag:
		return c.bagScanner.State()
	case PageLookup:
		return c.tagScanner.State()
	}
	return scan.StateIdle
}

func (c *Console) scanInto(p Page, st *form.State, field string) scan.Callbacks {
	return scan.Callbacks{
		OnValue: func(v string) { st.SetField(field, v) },
		OnStatus: func(s string) {
			c.update(p, func(ps *PageState) { ps.Status = s })
		},
		OnError: func(err error) { _ = c.fail(p, err) },
	}
}

// SubmitBag creates the bag described by the bag form and binds the result
// to the Entrupy form and the inventory.
func (c *Console) SubmitBag(ctx context.Context) (*models.BagWithTag, error) {
	c.reset(PageBag)
	if err := c.BagForm.Validate(); err != nil {
		return nil, c.fail(PageBag, err)
	}

	created, err := c.backend.CreateBag(ctx, form.BagRequest(c.BagForm))
	if err != nil {
		c.logger.Warn("bag creation failed", "error", err)
		return nil, c.fail(PageBag, err)
	}

	c.update(PageBag, func(st *PageState) { st.Result = created })
	c.coordinator.OnBagCreated(*created)
	return created, nil
}

// SubmitEntrupy saves the Entrupy form. It refuses while a structured field
// holds text that did not parse.
func (c *Console) SubmitEntrupy(ctx context.Context) (*models.EntrupyRecord, error) {
	c.reset(PageEntrupy)
	if err := c.EntrupyForm.Validate(); err != nil {
		return nil, c.fail(PageEntrupy, err)
	}

	rec, err := c.backend.UpsertEntrupy(ctx, form.EntrupyRequest(c.EntrupyForm))
	if err != nil {
		c.logger.Warn("entrupy save failed", "error", err)
		return nil, c.fail(PageEntrupy, err)
	}

	c.update(PageEntrupy, func(st *PageState) { st.Result = rec })
	c.logger.Info("entrupy saved", "bagID", models.Value(rec.BagID))
	return rec, nil
}

// Lookup resolves the tag code in the lookup form. Forms are never modified.
func (c *Console) Lookup(ctx context.Context) (*models.TagLookup, error) {
	c.reset(PageLookup)
	code := strings.TrimSpace(c.LookupForm.String(form.FieldTagCode))
	if code == "" {
		return nil, c.fail(PageLookup, ErrEmptyTagCode)
	}

	found, err := c.backend.LookupTag(ctx, code)
	if err != nil {
		return nil, c.fail(PageLookup, err)
	}
	c.update(PageLookup, func(st *PageState) { st.Result = found })
	return found, nil
}

// RefreshInventory reloads the inventory from the server.
func (c *Console) RefreshInventory(ctx context.Context) error {
	return c.inventory.Refresh(ctx, c.backend)
}
