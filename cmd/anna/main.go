// Anna is a command-line client for Plugwise Anna thermostat gateways.
//
// It reads the thermostat state from the gateway's XML API, switches presets
// and changes the target temperature, confirming each write by reading it
// back. Gateways can be found with mDNS and saved under a nickname.
//
// Usage:
//
//	anna [command] [flags]
//
// Connection settings come from flags, ANNA_* environment variables, a .env
// file in the working directory, or a saved gateway.
// See 'anna --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/haanna/anna/internal/logging"
	"github.com/haanna/anna/internal/version"
	"github.com/haanna/anna/pkg/anna"
)

// errReported is returned by commands that already printed their failure
var errReported = errors.New("command failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "anna",
	Short: "Plugwise Anna thermostat client",
	Long: `A command-line client for Plugwise Anna thermostat gateways.

Reads temperature, setpoint, preset, schedule and heating state, and changes
the preset or target temperature on both legacy and current firmware.

Connection settings are taken from (highest first) flags, ANNA_* environment
variables (also read from a .env file), and the saved gateway selected with
--gateway or the default gateway.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(viper.GetString("log-level"))
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.String("host", "", "Gateway hostname or IP address (overrides --gateway)")
	flags.Int("port", anna.DefaultPort, "Gateway HTTP port")
	flags.String("username", anna.DefaultUsername, "HTTP username")
	flags.String("password", "", "Gateway password, the Smile ID on the device label")
	flags.Duration("timeout", anna.DefaultTimeout, "Timeout for each gateway request")
	flags.StringP("gateway", "g", "", "Saved gateway to use (default: the default gateway)")
	flags.String("format", "text", "Output format (text, compact, detailed, json)")
	flags.String("log-level", "", "Log level for stderr diagnostics (debug, info, warn, error)")

	viper.SetEnvPrefix("anna")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "anna %s %s\n", version.Full(), version.Platform())
	},
}

// seconds converts a preference stored in seconds, falling back to def
func seconds(n int, def time.Duration) time.Duration {
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
