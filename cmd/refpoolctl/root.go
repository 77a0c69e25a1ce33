package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden at link time.
var version = "dev"

const (
	defaultConfig  = "./refpool.toml"
	defaultPassEnv = "REFPOOL_KEYSTORE_PASS"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "refpoolctl",
		Short:         "Operate and inspect the referral reward pool.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", defaultConfig, "Path to the refpool config file")

	root.AddCommand(keygenCmd())
	root.AddCommand(delegateCmd())
	root.AddCommand(encodeCmd())
	root.AddCommand(decodeCmd())
	root.AddCommand(simulateCmd())
	root.AddCommand(versionCmd())

	root.Version = version
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the refpoolctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
