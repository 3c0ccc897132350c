// Command helpdesk answers employee questions with IT, HR and finance
// specialists backed by local knowledge, falling back to web search.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/krishg0kul/genai-multi-agent/config"
	"github.com/krishg0kul/genai-multi-agent/logging"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	userID     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "helpdesk",
		Short:         "Multi-agent helpdesk for IT, HR and finance questions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a config file (defaults to ~/.helpdesk and ./.helpdesk)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (console or json)")
	rootCmd.PersistentFlags().StringVarP(&flags.userID, "user", "u", "", "User id whose conversation memory is used")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newAskCmd(flags),
		newChatCmd(flags),
		newMCPCmd(flags),
		newMemoryCmd(flags),
		newIndexCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the configuration and installs the global logger.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	// Logs always go to stderr so stdout stays clean for answers and MCP frames.
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	return cfg, nil
}
