package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"pixelate/internal/model"
)

// ErrPromptAborted is returned when the user interrupts the questionnaire.
var ErrPromptAborted = errors.New("configuration aborted")

// Prompt asks for the common settings interactively, starting from base.
func Prompt(base *Config, opts ...survey.AskOpt) (*Config, error) {
	cfg := *base

	if err := survey.AskOne(&survey.Input{
		Message: "Conversion service URL:",
		Default: cfg.Server.URL,
	}, &cfg.Server.URL, append(opts, survey.WithValidator(validateURL))...); err != nil {
		return nil, translatePromptErr(err)
	}

	modes := model.QuantizationModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = m.String()
	}
	if err := survey.AskOne(&survey.Select{
		Message: "Default quantization mode:",
		Options: names,
		Default: cfg.Defaults.Mode,
		Description: func(value string, _ int) string {
			return model.QuantizationMode(value).Description()
		},
	}, &cfg.Defaults.Mode, opts...); err != nil {
		return nil, translatePromptErr(err)
	}

	resolution, err := askInt("Default max resolution:", model.ResolutionPresets, cfg.Defaults.MaxResolution, opts)
	if err != nil {
		return nil, err
	}
	cfg.Defaults.MaxResolution = resolution

	upscale, err := askInt("Default upscale factor:", model.UpscaleFactors, cfg.Defaults.UpscaleFactor, opts)
	if err != nil {
		return nil, err
	}
	cfg.Defaults.UpscaleFactor = upscale

	timeout := cfg.Server.RequestTimeout.String()
	if err := survey.AskOne(&survey.Input{
		Message: "Request timeout (0 for none):",
		Default: timeout,
	}, &timeout, append(opts, survey.WithValidator(validateDuration))...); err != nil {
		return nil, translatePromptErr(err)
	}
	cfg.Server.RequestTimeout, _ = time.ParseDuration(timeout)

	if err := survey.AskOne(&survey.Confirm{
		Message: "Strip EXIF/XMP metadata before uploading?",
		Default: cfg.Upload.StripMetadata,
	}, &cfg.Upload.StripMetadata, opts...); err != nil {
		return nil, translatePromptErr(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func askInt(message string, choices []int, current int, opts []survey.AskOpt) (int, error) {
	options := make([]string, len(choices))
	for i, c := range choices {
		options[i] = strconv.Itoa(c)
	}
	answer := strconv.Itoa(current)
	prompt := &survey.Select{Message: message, Options: options}
	for _, o := range options {
		if o == answer {
			prompt.Default = answer
		}
	}
	if err := survey.AskOne(prompt, &answer, opts...); err != nil {
		return 0, translatePromptErr(err)
	}
	return strconv.Atoi(answer)
}

func validateURL(ans interface{}) error {
	s, _ := ans.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter an absolute URL such as %s", DefaultServerURL)
	}
	return nil
}

func validateDuration(ans interface{}) error {
	s, _ := ans.(string)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fmt.Errorf("enter a duration such as 30s or 0")
	}
	return nil
}

func translatePromptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrPromptAborted
	}
	return err
}
