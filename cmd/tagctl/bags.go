package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/console"
	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/models"
)

func (a *app) bagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bags",
		Short: "Create and list bags",
	}
	cmd.AddCommand(a.bagsCreateCmd())
	cmd.AddCommand(a.bagsListCmd())
	return cmd
}

func (a *app) bagsCreateCmd() *cobra.Command {
	var useScan bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bag and bind its tag",
		Example: `  tagctl bags create --display-name "Tote A" --brand Acme --tag-code TAG-1
  tagctl bags create --display-name "Tote A" --brand Acme --scan --reader stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConsole(useScan)
			if err != nil {
				return err
			}
			if err := applyFormFlags(cmd, c.BagForm); err != nil {
				return err
			}
			if useScan {
				if err := a.scanInto(cmd.Context(), c, console.PageBag); err != nil {
					return err
				}
			}
			created, err := c.SubmitBag(cmd.Context())
			if err != nil {
				return err
			}
			return a.printCreated(created)
		},
	}
	bindFormFlags(cmd, form.NewBagForm())
	cmd.Flags().BoolVar(&useScan, "scan", false, "Read the tag code from the configured reader")
	return cmd
}

// scanInto runs one scan for page and waits for its first value.
func (a *app) scanInto(ctx context.Context, c *console.Console, page console.Page) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.errOut, "Hold tag near the reader...")
	start := c.StartBagTagScan
	if page == console.PageLookup {
		start = c.StartLookupScan
	}
	sess := start(ctx)
	if err := awaitScan(ctx, sess); err != nil {
		return err
	}
	fmt.Fprintln(a.errOut, c.Page(page).Status)
	return nil
}

func (a *app) printCreated(created *models.BagWithTag) error {
	if a.structured() {
		return a.printOutput(created)
	}
	id := "-"
	if v, ok := created.Bag.BagID(); ok {
		id = strconv.FormatInt(v, 10)
	}
	var name, tagCode, status *string
	if created.Bag != nil {
		name = created.Bag.DisplayName
	}
	if created.Tag != nil {
		tagCode, status = created.Tag.TagCode, created.Tag.Status
	}
	printTable(a.out, []string{"ID", "Display Name", "Tag Code", "Tag Status"}, [][]string{
		{id, orDash(name), orDash(tagCode), orDash(status)},
	})
	return nil
}

func (a *app) bagsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bags, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newConsole(false)
			if err != nil {
				return err
			}
			if err := c.RefreshInventory(cmd.Context()); err != nil {
				return err
			}
			return a.printInventory(c.Inventory().Rows())
		},
	}
}

func (a *app) printInventory(rows []models.InventoryRow) error {
	if a.structured() {
		if rows == nil {
			rows = []models.InventoryRow{}
		}
		return a.printOutput(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No bags yet.")
		return nil
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		id := "-"
		if r.ID != nil {
			id = strconv.FormatInt(*r.ID, 10)
		}
		table = append(table, []string{
			id, orDash(r.DisplayName), orDash(r.Brand), orDash(r.Model),
			orDash(r.Style), orDash(r.Color), orDash(r.TagCode),
		})
	}
	printTable(a.out, []string{"ID", "Display Name", "Brand", "Model", "Style", "Color", "Tag Code"}, table)
	return nil
}
