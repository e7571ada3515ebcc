package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/console"
	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/models"
)

func (a *app) tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Look up tags",
	}
	cmd.AddCommand(a.tagsLookupCmd())
	return cmd
}

func (a *app) tagsLookupCmd() *cobra.Command {
	var useScan bool
	cmd := &cobra.Command{
		Use:   "lookup [TAG_CODE]",
		Short: "Show the bag and authentication record bound to a tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConsole(useScan)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				c.LookupForm.SetField(form.FieldTagCode, args[0])
			}
			if useScan {
				if err := a.scanInto(cmd.Context(), c, console.PageLookup); err != nil {
					return err
				}
			}
			found, err := c.Lookup(cmd.Context())
			if err != nil {
				return err
			}
			return a.printLookup(found)
		},
	}
	cmd.Flags().BoolVar(&useScan, "scan", false, "Read the tag code from the configured reader")
	return cmd
}

func (a *app) printLookup(found *models.TagLookup) error {
	if a.structured() {
		return a.printOutput(found)
	}
	if found.Tag != nil {
		fmt.Fprintln(a.out, "Tag")
		if err := printFields(a.out, found.Tag); err != nil {
			return err
		}
	}
	if found.Bag != nil {
		fmt.Fprintln(a.out, "\nBag")
		if err := printFields(a.out, found.Bag); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(a.out, "\nNo bag bound to this tag.")
	}
	if found.Entrupy != nil {
		fmt.Fprintln(a.out, "\nEntrupy")
		return printFields(a.out, found.Entrupy)
	}
	return nil
}
