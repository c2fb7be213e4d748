package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/bioKV/cmd/util"
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/ValentinKolb/bioKV/lib/recstore/dbrs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates a new record store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			description, _ := cmd.Flags().GetString("description")

			rs, err := util.CreateStore(name, description)
			if err != nil {
				return err
			}
			defer rs.Close()

			fmt.Printf("store %s created\n", name)
			return nil
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info [name]",
		Short: "Prints the metadata of a record store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadOnly)
			if err != nil {
				return err
			}
			defer rs.Close()

			space, err := rs.SpaceUsed()
			if err != nil {
				return err
			}
			fmt.Printf("name:        %s\n", rs.Name())
			fmt.Printf("description: %s\n", rs.Description())
			fmt.Printf("records:     %d\n", rs.Count())
			fmt.Printf("space used:  %d bytes\n", space)
			return nil
		},
	}

	keysCmd = &cobra.Command{
		Use:   "keys [name]",
		Short: "Lists all record keys in iteration order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadOnly)
			if err != nil {
				return err
			}
			defer rs.Close()

			mode := recstore.SequenceStart
			for {
				key, err := rs.SequenceKey(mode)
				if recstore.HasCode(err, recstore.RetCExhausted) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Println(key)
				mode = recstore.SequenceNext
			}
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [name] [key]",
		Short: "Reads a record and writes it to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadOnly)
			if err != nil {
				return err
			}
			defer rs.Close()

			data, err := rs.Read(args[1])
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	putCmd = &cobra.Command{
		Use:   "put [name] [key] [value]",
		Short: "Stores a record from an argument, a file or stdin",
		Long: util.WrapString("Stores a record under the given key. The record bytes come " +
			"from the value argument, from --file, or from stdin when neither is given. " +
			"Use --replace to overwrite an existing record."),
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			file, _ := cmd.Flags().GetString("file")
			switch {
			case len(args) == 3:
				data = []byte(args[2])
			case file != "":
				var err error
				if data, err = os.ReadFile(file); err != nil {
					return err
				}
			default:
				var err error
				if data, err = io.ReadAll(os.Stdin); err != nil {
					return err
				}
			}

			rs, err := util.OpenStore(args[0], recstore.ReadWrite)
			if err != nil {
				return err
			}
			defer rs.Close()

			key := args[1]
			if replace, _ := cmd.Flags().GetBool("replace"); replace {
				err = rs.Replace(key, data)
			} else {
				err = rs.Insert(key, data)
			}
			if err != nil {
				return err
			}
			if err := rs.Sync(); err != nil {
				return err
			}
			fmt.Printf("stored %d bytes under %s\n", len(data), key)
			return nil
		},
	}

	rmCmd = &cobra.Command{
		Use:   "rm [name] [key]",
		Short: "Removes a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadWrite)
			if err != nil {
				return err
			}
			defer rs.Close()

			if err := rs.Remove(args[1]); err != nil {
				return err
			}
			if err := rs.Sync(); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}

	renameCmd = &cobra.Command{
		Use:   "rename [name] [new-name]",
		Short: "Renames a record store and all its backing files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadWrite)
			if err != nil {
				return err
			}
			defer rs.Close()

			if err := rs.ChangeName(args[1]); err != nil {
				return err
			}
			fmt.Printf("store %s renamed to %s\n", args[0], args[1])
			return nil
		},
	}

	statsCmd = &cobra.Command{
		Use:   "stats [name]",
		Short: "Prints engine-level statistics of a record store",
		Long: util.WrapString("Prints the diagnostic metadata of the backing engines as " +
			"JSON. Only available for the db backend."),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := util.OpenStore(args[0], recstore.ReadOnly)
			if err != nil {
				return err
			}
			defer rs.Close()

			dbStore, ok := rs.(*dbrs.Store)
			if !ok {
				return fmt.Errorf("backend %s has no engine statistics", viper.GetString("backend"))
			}

			primary, subordinate := dbStore.EngineInfo()
			out, err := json.MarshalIndent(map[string]any{
				"primary":     primary,
				"subordinate": subordinate,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)

func init() {
	createCmd.Flags().String("description", "", util.WrapString("Free-text description of the new store"))
	getCmd.Flags().String("out", "", util.WrapString("Write the record to this file instead of stdout"))
	putCmd.Flags().String("file", "", util.WrapString("Read the record bytes from this file"))
	putCmd.Flags().Bool("replace", false, util.WrapString("Overwrite an existing record instead of failing"))
}
