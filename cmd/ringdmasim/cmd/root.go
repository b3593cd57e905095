// Package cmd provides the command-line interface of ringdmasim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ringdmasim",
	Short: "Simulates a ring buffer streaming DMA write engine.",
	Long: `ringdmasim simulates a stream producer, a ring buffer DMA engine, an ` +
		`ideal memory and a driver that consumes the ring. Parameters come ` +
		`from flags, a YAML scenario file and RINGDMA_* environment variables, ` +
		`in that order of precedence.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"scenario file in YAML")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "console",
		"log format: console or json")

	mustBind(rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind(rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads the .env file, the environment and the scenario file.
func initConfig() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	viper.SetEnvPrefix("RINGDMA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}

	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading scenario %s: %w", cfgFile, err)
	}

	return nil
}
