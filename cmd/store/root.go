package store

import (
	"github.com/ValentinKolb/bioKV/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// StoreCommands represents the record store command group
	StoreCommands = &cobra.Command{
		Use:   "store",
		Short: "Perform record store operations",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Bind command flags to viper
			return util.BindCommandFlags(cmd)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common store selection flags
	util.SetupStoreFlags(StoreCommands)

	// Add subcommands
	StoreCommands.AddCommand(createCmd)
	StoreCommands.AddCommand(infoCmd)
	StoreCommands.AddCommand(keysCmd)
	StoreCommands.AddCommand(getCmd)
	StoreCommands.AddCommand(putCmd)
	StoreCommands.AddCommand(rmCmd)
	StoreCommands.AddCommand(renameCmd)
	StoreCommands.AddCommand(statsCmd)
	StoreCommands.AddCommand(perfCmd)
}
