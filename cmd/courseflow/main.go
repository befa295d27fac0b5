package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "courseflow",
	Short:         "courseflow - course content and batch enrollment flows",
	Long:          `courseflow resolves course content, lists batches and enrolls learners, as an MCP server or from the command line.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	logLevel   string
	deviceID   string
	userID     string
	apiKey     string
	onboarded  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides COURSEFLOW_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&deviceID, "device", "", "device namespace for stored preferences")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "act as this user id (omit for a guest)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "act as the user owning this API key")
	rootCmd.PersistentFlags().BoolVar(&onboarded, "onboarded", true, "with --user, whether sign-in onboarding is complete")

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(batchesCmd)
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(deferCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
