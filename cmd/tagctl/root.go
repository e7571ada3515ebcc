package main

import (
	"github.com/spf13/cobra"

	"github.com/ariyeh/bagtag/pkg/config"
)

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagctl",
		Short: "Operator CLI for bag tagging",
		Long: `tagctl creates bags bound to NFC tags, records authentication results
and looks tags up against the tagging API.

Tags can be typed in or read from a reader: a keyboard-wedge or serial reader
that emits one line per tap (--reader /dev/ttyACM0 or --reader stdin), or a
scripted YAML file (--reader script:taps.yaml). Scanning requires an https or
localhost console origin.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	pf := cmd.PersistentFlags()
	config.RegisterFlags(pf)
	pf.StringVar(&a.cfgFile, "config", "", "Config file (yaml, json or toml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded when present")

	cmd.AddCommand(a.bagsCmd())
	cmd.AddCommand(a.entrupyCmd())
	cmd.AddCommand(a.tagsCmd())
	cmd.AddCommand(a.healthCmd())
	cmd.AddCommand(a.journalCmd())
	cmd.AddCommand(a.consoleCmd())
	cmd.AddCommand(a.configCmd())
	return cmd
}
