package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"pixelate/internal/mockserver"
)

var (
	mockAddr     string
	mockPalettes string
	mockDelay    time.Duration
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run a local conversion service for development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closer, err := newLogger(false)
		if err != nil {
			return err
		}
		defer closer.Close()

		store := mockserver.NewStore()
		if mockPalettes != "" {
			n, err := store.LoadDir(mockPalettes)
			if err != nil {
				return err
			}
			logger.Info("loaded palettes", "dir", mockPalettes, "count", n)
		}

		srv := mockserver.New(store, logger)
		srv.Delay = mockDelay
		return srv.Run(cmd.Context(), mockAddr)
	},
}

func init() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", mockserver.DefaultAddr, "listen address")
	mockServerCmd.Flags().StringVar(&mockPalettes, "palettes", "", "directory of .hex/.txt palettes to serve in addition to the built-ins")
	mockServerCmd.Flags().DurationVar(&mockDelay, "delay", 0, "artificial delay before answering each upload")
	rootCmd.AddCommand(mockServerCmd)
}
