package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/bioKV/lib/logx"
	"github.com/ValentinKolb/bioKV/lib/recstore"
	"github.com/ValentinKolb/bioKV/lib/recstore/dbrs"
	"github.com/ValentinKolb/bioKV/lib/recstore/filers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("biokv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupStoreFlags adds the common store selection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "dir"
	cmd.PersistentFlags().String(key, ".", WrapString("Parent directory holding the store files"))

	key = "backend"
	cmd.PersistentFlags().String(key, "db", WrapString("Storage backend to use (db, file)"))

	key = "max-value-size"
	cmd.PersistentFlags().Int(key, 0, WrapString("Per-entry value ceiling of the db backend in bytes (0 = engine default, ignored for the file backend)"))

	key = "verbose"
	cmd.PersistentFlags().Bool(key, false, WrapString("Enable debug logging"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetLogger creates the CLI logger based on configuration
func GetLogger() zerolog.Logger {
	logger := logx.NewLogger()
	if viper.GetBool("verbose") {
		return logger.Level(zerolog.DebugLevel)
	}
	return logger.Level(zerolog.InfoLevel)
}

// CreateStore creates a new store with the configured backend
func CreateStore(name, description string) (recstore.RecordStore, error) {
	logger := GetLogger()
	dir := viper.GetString("dir")

	switch backend := viper.GetString("backend"); backend {
	case "db":
		return dbrs.Create(name, description, dir, &dbrs.Options{
			MaxValueSize: viper.GetInt("max-value-size"),
			Logger:       &logger,
		})
	case "file":
		return filers.Create(name, description, dir, &filers.Options{
			Logger: &logger,
		})
	default:
		return nil, fmt.Errorf("invalid backend %s", backend)
	}
}

// OpenStore opens an existing store with the configured backend
func OpenStore(name string, mode recstore.Mode) (recstore.RecordStore, error) {
	logger := GetLogger()
	dir := viper.GetString("dir")

	switch backend := viper.GetString("backend"); backend {
	case "db":
		return dbrs.Open(name, dir, mode, &dbrs.Options{
			MaxValueSize: viper.GetInt("max-value-size"),
			Logger:       &logger,
		})
	case "file":
		return filers.Open(name, dir, mode, &filers.Options{
			Logger: &logger,
		})
	default:
		return nil, fmt.Errorf("invalid backend %s", backend)
	}
}
