package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pixelate/internal/apperr"
	"pixelate/internal/client"
	"pixelate/internal/intake"
	"pixelate/internal/model"
	"pixelate/internal/orchestrator"
	"pixelate/internal/palette"
	"pixelate/internal/tui"
	"pixelate/internal/uistate"
)

var (
	convertPalette       string
	convertMode          string
	convertMaxResolution int
	convertUpscale       int
	convertNoTUI         bool
	convertOutput        string
	convertStrip         bool
	convertTimeout       time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert [image]",
	Short: "Convert an image to pixel art",
	Long:  "convert opens the interactive converter, optionally with an image preselected. With --no-tui it converts the image once and prints the result.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := convertOptions(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("strip-metadata") {
			appConfig.Upload.StripMetadata = convertStrip
		}
		if cmd.Flags().Changed("timeout") {
			appConfig.Server.RequestTimeout = convertTimeout
		}
		if convertPalette == "" {
			convertPalette = appConfig.Defaults.Palette
		}

		var path string
		if len(args) == 1 {
			path = args[0]
		}
		if convertNoTUI {
			if path == "" {
				return fmt.Errorf("an image is required with --no-tui")
			}
			return convertHeadless(cmd.Context(), path, opts)
		}
		return convertInteractive(path, opts)
	},
}

// convertOptions starts from the configured defaults and applies flags.
func convertOptions(cmd *cobra.Command) (model.ProcessingOptions, error) {
	opts, err := appConfig.Options()
	if err != nil {
		return opts, err
	}
	if cmd.Flags().Changed("mode") {
		if opts.Mode, err = model.ParseQuantizationMode(convertMode); err != nil {
			return opts, err
		}
	}
	if cmd.Flags().Changed("max-resolution") {
		opts.MaxResolution = convertMaxResolution
	}
	if cmd.Flags().Changed("upscale") {
		opts.UpscaleFactor = convertUpscale
	}
	return opts, opts.Validate()
}

func orchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		RequestTimeout: appConfig.Server.RequestTimeout,
		BusyFallback:   appConfig.Server.BusyFallback,
		StripMetadata:  appConfig.Upload.StripMetadata,
		PreserveICC:    appConfig.Upload.PreserveICC,
	}
}

func convertInteractive(path string, opts model.ProcessingOptions) error {
	logger, closer, err := newLogger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	c := newClient(logger)
	status := tui.NewStatusPane()
	ui := uistate.New(status, logger)

	app := tui.NewApp(tui.Deps{
		Intake: intake.New(
			intake.WithMaxFileSize(appConfig.Upload.MaxFileSize),
			intake.WithLogger(logger),
		),
		Palettes: palette.New(c,
			palette.WithDefault(convertPalette),
			palette.WithLogger(logger),
		),
		Orchestrator:  orchestrator.New(c, ui, orchestratorConfig(), orchestrator.WithLogger(logger)),
		UI:            ui,
		Status:        status,
		Downloader:    c,
		Options:       opts,
		InitialPath:   path,
		StripMetadata: appConfig.Upload.StripMetadata,
		Logger:        logger,
	})

	logger.Info("starting converter", "server", appConfig.Server.URL)
	_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// staticSelections is a fixed choice made on the command line.
type staticSelections struct {
	file      model.SelectedFile
	paletteID string
	options   model.ProcessingOptions
}

func (s staticSelections) CurrentFile() (model.SelectedFile, bool) { return s.file, true }
func (s staticSelections) PaletteID() string                       { return s.paletteID }
func (s staticSelections) Options() model.ProcessingOptions        { return s.options }

// headlessSurface has no busy indicator and shows nothing itself: every
// reported failure is also returned to Execute, which prints it once.
type headlessSurface struct{}

func (headlessSurface) SetBusy(bool)     {}
func (headlessSurface) ShowError(string) {}

func convertHeadless(ctx context.Context, path string, opts model.ProcessingOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, closer, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	file, err := intake.Open(path)
	if err != nil {
		return err
	}
	in := intake.New(intake.WithMaxFileSize(appConfig.Upload.MaxFileSize), intake.WithLogger(logger))
	if _, err := in.Select(file); err != nil {
		return err
	}

	c := newClient(logger)
	paletteID, err := resolvePalette(ctx, c, convertPalette)
	if err != nil {
		return err
	}

	ui := uistate.New(headlessSurface{}, logger)
	orch := orchestrator.New(c, ui, orchestratorConfig(),
		orchestrator.WithLogger(logger),
		orchestrator.WithContext(ctx),
	)

	submit, err := orch.Submit(staticSelections{file: file, paletteID: paletteID, options: opts})
	if err != nil {
		return err
	}
	result, ok := submit().(orchestrator.ResultMsg)
	if !ok {
		return fmt.Errorf("unexpected upload outcome")
	}
	orch.Resolve(result)

	state := orch.State()
	req, _ := orch.Issued()
	fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.ConversionRows(req, state)))
	if state.Phase != model.PhaseSucceeded {
		return apperr.New(apperr.KindService, "convert", state.Message)
	}

	if convertOutput != "" {
		if err := saveResult(ctx, c, state.ResultURL, convertOutput); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Result written to: %s\n", convertOutput)
	}
	return nil
}

// resolvePalette returns id when set, otherwise the first listed palette.
func resolvePalette(ctx context.Context, c *client.Client, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	entries, err := c.Palettes(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", apperr.Wrap(apperr.KindValidation, "convert", "the service offers no palettes", apperr.ErrNoPaletteSelected)
	}
	return entries[0].ID, nil
}

func saveResult(ctx context.Context, c *client.Client, url, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.Download(ctx, url, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func init() {
	convertCmd.Flags().StringVarP(&convertPalette, "palette", "p", "", "palette id (defaults to config, then the first listed)")
	convertCmd.Flags().StringVarP(&convertMode, "mode", "m", string(model.DefaultMode), "quantization mode: contrast, natural, kmeans, kmeans_brightness")
	convertCmd.Flags().IntVarP(&convertMaxResolution, "max-resolution", "r", model.DefaultMaxResolution, "longest side of the converted image before upscaling")
	convertCmd.Flags().IntVarP(&convertUpscale, "upscale", "u", model.DefaultUpscaleFactor, "integer upscale factor")
	convertCmd.Flags().BoolVar(&convertNoTUI, "no-tui", false, "convert once and print the result")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "save the converted image here (with --no-tui)")
	convertCmd.Flags().BoolVar(&convertStrip, "strip-metadata", false, "remove EXIF/XMP/IPTC metadata before upload")
	convertCmd.Flags().DurationVar(&convertTimeout, "timeout", 0, "upload timeout (0 waits indefinitely)")

	rootCmd.AddCommand(convertCmd)
}
