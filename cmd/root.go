package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/bioKV/cmd/store"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "biokv",
		Short: "segmented record storage",
		Long: fmt.Sprintf(`bioKV (v%s)

A record storage library and tool written in Go. Records of any size are
stored under string keys and transparently segmented over a keyed database
engine.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bioKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bioKV v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(store.StoreCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
