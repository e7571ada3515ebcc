package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ariyeh/bagtag/pkg/form"
)

// structured reports whether the configured output is json or yaml.
func (a *app) structured() bool {
	return a.cfg.Output == "json" || a.cfg.Output == "yaml"
}

func (a *app) printOutput(v any) error {
	switch a.cfg.Output {
	case "json":
		return printJSON(a.out, v)
	case "yaml":
		return printYAML(a.out, v)
	default:
		return fmt.Errorf("unsupported output format for structured data: %s (use json or yaml)", a.cfg.Output)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	// Round-trip through JSON so keys follow the json tags.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(m)
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	upper := make([]string, len(headers))
	for i, h := range headers {
		upper[i] = strings.ToUpper(h)
	}
	fmt.Fprintln(tw, strings.Join(upper, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// printFields renders a value with json tags as a two column table.
func printFields(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, cell(m[k])})
	}
	printTable(w, []string{"Field", "Value"}, rows)
	return nil
}

// printForm renders a form with the text the operator sees and any field error.
func printForm(w io.Writer, st *form.State) {
	var rows [][]string
	for _, f := range st.Fields() {
		text := st.Text(f.Name)
		if f.Kind == form.KindStructured {
			text = compact(text)
		}
		errText := ""
		if err := st.Err(f.Name); err != nil {
			errText = err.Error()
		}
		rows = append(rows, []string{f.Name, truncate(text, 60), errText})
	}
	printTable(w, []string{"Field", "Value", "Error"}, rows)
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case map[string]any, []any:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

func compact(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate shortens a string to max length, appending "..." if truncated.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func orDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}
