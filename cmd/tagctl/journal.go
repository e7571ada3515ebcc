package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/journal"
)

func (a *app) journalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the local activity journal",
	}
	cmd.AddCommand(a.journalListCmd())
	cmd.AddCommand(a.journalPruneCmd())
	return cmd
}

func (a *app) journalListCmd() *cobra.Command {
	var (
		filter    journal.ListFilter
		since     time.Duration
		limit     int
		pageToken string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errJournalDisabled
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			events, next, err := a.journal.List(filter, limit, pageToken)
			if err != nil {
				return err
			}
			if a.structured() {
				if events == nil {
					events = []journal.Event{}
				}
				return a.printOutput(map[string]any{"events": events, "nextPageToken": next})
			}
			if len(events) == 0 {
				fmt.Fprintln(a.out, "No journal events.")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				status := "-"
				if e.StatusCode != 0 {
					status = strconv.Itoa(e.StatusCode)
				}
				rows = append(rows, []string{
					e.CreatedAt.Local().Format(time.DateTime),
					e.Action, e.Method, e.Path, status, e.Outcome,
					(time.Duration(e.DurationMs) * time.Millisecond).String(),
				})
			}
			printTable(a.out, []string{"Time", "Action", "Method", "Path", "Status", "Outcome", "Duration"}, rows)
			if next != "" {
				fmt.Fprintf(a.out, "\nMore events: --page-token %s\n", next)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Action, "action", "", "Only events with this action (e.g. create_bag)")
	cmd.Flags().StringVar(&filter.Outcome, "outcome", "", "Only events with this outcome: success, failure, error")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events to show")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue from a previous listing")
	return cmd
}

func (a *app) journalPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete events older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errJournalDisabled
			}
			deleted := journal.NewRetentionWorker(a.journal, a.cfg.JournalRetentionDays, a.logger).Prune()
			fmt.Fprintf(a.out, "Deleted %d journal events older than %d days.\n", deleted, a.cfg.JournalRetentionDays)
			return nil
		},
	}
}
