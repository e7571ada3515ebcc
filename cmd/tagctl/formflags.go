package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/form"
)

func flagFor(field string) string { return strings.ReplaceAll(field, "_", "-") }

// bindFormFlags adds one string flag per form field.
func bindFormFlags(cmd *cobra.Command, st *form.State) {
	for _, f := range st.Fields() {
		cmd.Flags().String(flagFor(f.Name), "", f.Label)
	}
}

// applyFormFlags copies the flags that were set on the command line into st.
// Unset flags keep the form's defaults.
func applyFormFlags(cmd *cobra.Command, st *form.State) error {
	for _, f := range st.Fields() {
		name := flagFor(f.Name)
		if !cmd.Flags().Changed(name) {
			continue
		}
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return err
		}
		if err := st.SetFieldFromText(f.Name, v); err != nil {
			return err
		}
	}
	return nil
}
