package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shelfsync/internal/app"
	"shelfsync/internal/engine"
)

var (
	opts app.Options
	rt   *app.Runtime
)

var rootCmd = &cobra.Command{
	Use:   "shelfsync",
	Short: "Offline-first library lending",
	Long: `shelfsync manages a small library: the catalogue, members, and the
issue/return cycle of books.

Every change is saved to a local cache first and pushed to the remote
document store when it is reachable. Changes made offline are pushed in
one batch on the next connection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		rt, err = app.Open(cmd.Context(), opts)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if rt == nil {
			return nil
		}
		return rt.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if rt != nil {
			rt.Close()
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/shelfsync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file (default ./.env)")
	rootCmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "work from the local cache only")

	// glog registers its flags on the standard flag set
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	rootCmd.SetGlobalNormalizationFunc(wordSepNormalize)
}

// wordSepNormalize lets glog's underscore flags be spelled with dashes
func wordSepNormalize(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// GetStore returns the initialized sync engine
func GetStore() *engine.Engine {
	return rt.Engine
}
