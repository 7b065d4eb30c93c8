// Command clubctl runs league administration tasks directly against the
// database: migrations, the season archive, the tournament bracket and
// bootstrapping the first admin.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "clubctl",
	Short: "Administer the club league database",
	Long: `clubctl works on the same database and configuration as the server.
Settings come from config.yaml in --config and from the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing config.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for clubctl output")
}

// Execute runs the command tree; Ctrl+C cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "clubctl: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
