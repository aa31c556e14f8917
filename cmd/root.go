package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pixelate/internal/client"
	"pixelate/internal/config"
	"pixelate/internal/logging"
)

// Version is set at build time with -ldflags "-X pixelate/cmd.Version=...".
var Version = "dev"

var (
	configPath string
	serverURL  string
	logLevel   string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pixelate",
	Version:       Version,
	Short:         "pixelate - turn images into palette-limited pixel art",
	Long:          "pixelate sends images to a pixel-art conversion service and shows the result, with palette browsing and import.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		appConfig = cfg
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", userMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "conversion service URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}

// newLogger logs to stderr, or to the configured file when the terminal is
// owned by a full-screen program.
func newLogger(interactive bool) (*slog.Logger, io.Closer, error) {
	cfg := logging.Config{Level: appConfig.Log.Level, File: appConfig.Log.File}
	if interactive && cfg.File == "" {
		cfg.File = logging.DefaultFile()
	}
	return logging.New(cfg, os.Stderr)
}

func newClient(logger *slog.Logger) *client.Client {
	return client.New(client.Options{
		BaseURL:   appConfig.Server.URL,
		UserAgent: "pixelate/" + Version,
		Logger:    logger,
	})
}
