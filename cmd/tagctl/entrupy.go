package main

import (
	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/form"
)

func (a *app) entrupyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entrupy",
		Short: "Manage authentication records",
	}
	cmd.AddCommand(a.entrupySaveCmd())
	return cmd
}

func (a *app) entrupySaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or replace the authentication record of a bag",
		Long: `Save an authentication record. Fields not given on the command line keep the
console defaults (customer item CUST-001, status pending, sample catalog data).
--dimensions and --catalog-raw take a JSON object; an empty string omits them.`,
		Example: `  tagctl entrupy save --bag-id 7 --dimensions '{"width_cm":30,"height_cm":20,"depth_cm":10}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConsole(false)
			if err != nil {
				return err
			}
			if err := applyFormFlags(cmd, c.EntrupyForm); err != nil {
				return err
			}
			rec, err := c.SubmitEntrupy(cmd.Context())
			if err != nil {
				return err
			}
			if a.structured() {
				return a.printOutput(rec)
			}
			return printFields(a.out, rec)
		},
	}
	bindFormFlags(cmd, form.NewEntrupyForm())
	return cmd
}
