package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/console"
	"github.com/ariyeh/bagtag/pkg/device"
	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/journal"
)

const replHelp = `Commands:
  show bag|entrupy|lookup           print a form and its page status
  set <form> <field> <value>        set a field (JSON object for dimensions, catalog_raw)
  clear <form> <field>              empty a field
  scan bag|lookup                   read a tag into the form's tag_code
  create                            create the bag from the bag form
  save                              save the Entrupy form
  lookup [code]                     look up the lookup form's tag code
  inventory [refresh]               show (or reload) the inventory
  status                            show every page's status and error
  help                              this text
  quit                              leave the console`

func (a *app) consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive tagging session",
		Long: `Start an interactive session holding the bag, Entrupy and lookup forms.
Creating a bag points the Entrupy form at the new bag and adds it to the
inventory. With --reader stdin the line typed after "scan" is the tap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := &repl{app: a, in: bufio.NewScanner(a.in)}

			if device.ParseSpec(a.cfg.Reader).Type == "stdin" {
				pr, pw := io.Pipe()
				defer pw.Close()
				r.feed = pw
				a.reader = &device.Handle{Reader: device.NewLineReader(pr)}
			}
			c, err := a.newConsole(true)
			if err != nil {
				return err
			}
			r.c = c

			if a.journal != nil {
				wctx, cancel := context.WithCancel(ctx)
				defer cancel()
				go journal.NewRetentionWorker(a.journal, a.cfg.JournalRetentionDays, a.logger).Run(wctx)
			}
			return r.run(ctx)
		},
	}
}

type repl struct {
	app  *app
	c    *console.Console
	in   *bufio.Scanner
	feed io.Writer
}

func (r *repl) run(ctx context.Context) error {
	out := r.app.out
	fmt.Fprintln(out, "tagctl console. Type 'help' for commands.")
	for {
		fmt.Fprint(out, "tagctl> ")
		if !r.in.Scan() {
			fmt.Fprintln(out)
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		quit, err := r.exec(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// splitWord splits off the first whitespace-delimited word.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func (r *repl) form(name string) (*form.State, console.Page, error) {
	switch name {
	case "bag":
		return r.c.BagForm, console.PageBag, nil
	case "entrupy":
		return r.c.EntrupyForm, console.PageEntrupy, nil
	case "lookup":
		return r.c.LookupForm, console.PageLookup, nil
	}
	return nil, "", fmt.Errorf("unknown form %q (use bag, entrupy or lookup)", name)
}

func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	out := r.app.out
	verb, rest := splitWord(line)
	switch verb {
	case "help", "?":
		fmt.Fprintln(out, replHelp)
	case "quit", "exit":
		return true, nil
	case "show":
		st, page, err := r.form(rest)
		if err != nil {
			return false, err
		}
		printForm(out, st)
		r.printPage(page)
	case "set", "clear":
		name, rest := splitWord(rest)
		field, value := splitWord(rest)
		st, _, err := r.form(name)
		if err != nil {
			return false, err
		}
		if field == "" {
			return false, fmt.Errorf("usage: %s <form> <field> [value]", verb)
		}
		if verb == "clear" {
			value = ""
		}
		return false, st.SetFieldFromText(field, value)
	case "scan":
		return false, r.scan(ctx, rest)
	case "create":
		created, err := r.c.SubmitBag(ctx)
		if err != nil {
			return false, err
		}
		if err := r.app.printCreated(created); err != nil {
			return false, err
		}
		if id, ok := r.c.EntrupyForm.Int(form.FieldBagID); ok {
			fmt.Fprintf(out, "Entrupy form now targets bag %d.\n", id)
		}
	case "save":
		rec, err := r.c.SubmitEntrupy(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Saved Entrupy record %s for bag %s.\n", idString(rec.ID), idString(rec.BagID))
	case "lookup":
		if rest != "" {
			r.c.LookupForm.SetField(form.FieldTagCode, rest)
		}
		found, err := r.c.Lookup(ctx)
		if err != nil {
			return false, err
		}
		return false, r.app.printLookup(found)
	case "inventory":
		inv := r.c.Inventory()
		if rest == "refresh" {
			if err := r.c.RefreshInventory(ctx); err != nil {
				return false, fmt.Errorf("unable to load inventory: %w", err)
			}
		}
		return false, r.app.printInventory(inv.Rows())
	case "status":
		for _, p := range []console.Page{console.PageBag, console.PageEntrupy, console.PageLookup} {
			fmt.Fprintf(out, "[%s] ", p)
			r.printPage(p)
		}
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", verb)
	}
	return false, nil
}

func (r *repl) printPage(p console.Page) {
	st := r.c.Page(p)
	status := st.Status
	if status == "" {
		status = "-"
	}
	fmt.Fprintf(r.app.out, "status: %s  scan: %s", status, r.c.ScanState(p))
	if msg := st.ErrorMessage(); msg != "" {
		fmt.Fprintf(r.app.out, "  error: %s", msg)
	}
	fmt.Fprintln(r.app.out)
}

func (r *repl) scan(ctx context.Context, target string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var page console.Page
	switch target {
	case "bag":
		page = console.PageBag
	case "lookup":
		page = console.PageLookup
	default:
		return fmt.Errorf("usage: scan bag|lookup")
	}

	start := r.c.StartBagTagScan
	if page == console.PageLookup {
		start = r.c.StartLookupScan
	}
	sess := start(ctx)

	// capability and start failures end the session before any read
	if awaitListening(ctx, sess) {
		fmt.Fprintln(r.app.out, r.c.Page(page).Status)
		if r.feed != nil {
			fmt.Fprint(r.app.out, "tap> ")
			if !r.in.Scan() {
				return errNoTagRead
			}
			if _, err := io.WriteString(r.feed, r.in.Text()+"\n"); err != nil {
				return err
			}
		}
	}

	if err := awaitScan(ctx, sess); err != nil {
		if perr := r.c.Page(page).Err; perr != nil {
			return perr
		}
		return err
	}
	fmt.Fprintln(r.app.out, r.c.Page(page).Status)
	return nil
}

func idString(p *int64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatInt(*p, 10)
}
