package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dnssigner/zoneengine/logging"
)

var globals struct {
	CfgFile string
	Verbose bool
	Zone    string
}

var rootCmd = &cobra.Command{
	Use:   "zoneenginectl",
	Short: "Load, examine and sign a zone with the in-memory zone engine",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		logging.SetupCLI(globals.Verbose)
	})

	rootCmd.PersistentFlags().StringVarP(&globals.CfgFile, "config", "c", "", "policy config file")
	rootCmd.PersistentFlags().BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&globals.Zone, "zone", "z", "", "name of zone")

	rootCmd.AddCommand(signCmd, nsecifyCmd)
}
