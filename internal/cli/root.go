// Package cli implements the assistantctl commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"morvo-assistant/internal/app"
	"morvo-assistant/internal/common/config"
	"morvo-assistant/internal/common/logger"
	"morvo-assistant/internal/models"
	"morvo-assistant/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	format     string
	ephemeral  bool
	user       string
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can execute commands in isolation.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "assistantctl",
		Short:         "Talk to the Morvo marketing assistant from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: configs/config.yaml lookup)")
	root.PersistentFlags().StringVarP(&flags.format, "format", "f", "text", "Output format: json or text")
	root.PersistentFlags().BoolVar(&flags.ephemeral, "ephemeral", false, "Keep all state in memory for this run")
	root.PersistentFlags().StringVarP(&flags.user, "user", "u", "cli", "User ID to act as")

	root.AddCommand(
		newChatCmd(flags),
		newIntakeCmd(flags),
		newResetCmd(flags),
		newProfileCmd(flags),
		newRegistryCmd(),
	)
	return root
}

func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadFromFile(flags.configPath)
	}
	return config.Load()
}

func openApp(cmd *cobra.Command, flags *rootFlags) (*app.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewZapAdapter(logger.New(cfg.Logging.Level, "console", "stderr"))
	opts := []app.Option{
		app.WithRegistry(prometheus.NewRegistry()),
		app.WithConnectRetry(3, time.Second),
	}
	if flags.ephemeral {
		opts = append(opts, app.WithStore(store.NewMemoryStore()))
	}
	return app.New(cmd.Context(), cfg, log, opts...)
}

func userID(flags *rootFlags) string {
	return models.CanonicalUserID(flags.user)
}

// emit writes v as indented JSON, or text when the text format is selected.
func emit(w io.Writer, flags *rootFlags, v interface{}, text string) error {
	if flags.format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
