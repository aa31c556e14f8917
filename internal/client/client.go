// Package client talks to the conversion service: image uploads, palette
// lookups, palette imports and result downloads.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
)

// RequestIDHeader carries the per-upload correlation id.
const RequestIDHeader = "X-Request-ID"

type Options struct {
	BaseURL   string
	UserAgent string
	Logger    *slog.Logger
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is safe for concurrent use; commands run it from their own goroutines.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetLogger(restyLogger{logger: logger})
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{http: rc, logger: logger}
}

// UploadResponse is the raw outcome of POST /upload. Deciding whether it is
// a success is left to the caller, which must check both StatusCode and Error.
type UploadResponse struct {
	StatusCode        int    `json:"-"`
	ProcessedImageURL string `json:"processed_image_url"`
	PaletteName       string `json:"palette_name,omitempty"`
	QuantizationMode  string `json:"quantization_mode,omitempty"`
	Error             string `json:"error,omitempty"`
}

// OK reports whether the transport status was 2xx.
func (r UploadResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Upload sends the request as multipart form data. The returned error is
// non-nil only when no HTTP response arrived or a 2xx body could not be read.
func (c *Client) Upload(ctx context.Context, req model.ProcessingRequest) (UploadResponse, error) {
	const op = "client.upload"

	r := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", req.File.Name, req.File.MediaType, bytes.NewReader(req.File.Data)).
		SetMultipartFormData(map[string]string{
			"palette":           req.PaletteID,
			"quantization_mode": req.Options.Mode.String(),
			"max_resolution":    strconv.Itoa(req.Options.MaxResolution),
			"upscale_factor":    strconv.Itoa(req.Options.UpscaleFactor),
		})
	if req.ID != "" {
		r.SetHeader(RequestIDHeader, req.ID)
	}

	resp, err := r.Post("/upload")
	if err != nil {
		return UploadResponse{}, transportError(op, err)
	}

	out := UploadResponse{StatusCode: resp.StatusCode()}
	if err := decode(resp.Body(), &out); err != nil {
		if !resp.IsSuccess() {
			// Non-JSON error page; the status alone is the diagnosis.
			return out, nil
		}
		return out, apperr.Wrap(apperr.KindService, op, "the conversion service sent an unreadable response", err)
	}
	c.logger.Debug("upload finished",
		"request_id", req.ID,
		"seq", req.Seq,
		"status", out.StatusCode,
		"service_error", out.Error,
	)
	return out, nil
}

type paletteColorsResponse struct {
	Colors []string `json:"colors"`
	Error  string   `json:"error,omitempty"`
}

// Palette fetches the ordered colors of one palette.
func (c *Client) Palette(ctx context.Context, id string) ([]model.Color, error) {
	const op = "client.palette"

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Get("/palette/{id}")
	if err != nil {
		return nil, transportError(op, err)
	}

	var body paletteColorsResponse
	decodeErr := decode(resp.Body(), &body)
	if !resp.IsSuccess() {
		return nil, statusError(apperr.KindPaletteLoad, op, resp, body.Error)
	}
	if decodeErr != nil {
		return nil, apperr.Wrap(apperr.KindPaletteLoad, op, "palette response was unreadable", decodeErr)
	}
	if body.Error != "" {
		return nil, apperr.New(apperr.KindPaletteLoad, op, body.Error)
	}

	colors := make([]model.Color, 0, len(body.Colors))
	for _, raw := range body.Colors {
		color, err := model.ParseColor(raw)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPaletteLoad, op, fmt.Sprintf("palette %s contains an invalid color", id), err)
		}
		colors = append(colors, color)
	}
	return colors, nil
}

// Palettes lists every palette the service knows.
func (c *Client) Palettes(ctx context.Context) ([]model.PaletteEntry, error) {
	const op = "client.palettes"

	resp, err := c.http.R().SetContext(ctx).Get("/palettes")
	if err != nil {
		return nil, transportError(op, err)
	}
	if !resp.IsSuccess() {
		var body struct {
			Error string `json:"error"`
		}
		_ = decode(resp.Body(), &body)
		return nil, statusError(apperr.KindTransport, op, resp, body.Error)
	}

	var raw []struct {
		ID   flexibleID `json:"id"`
		Name string     `json:"name"`
	}
	if err := decode(resp.Body(), &raw); err != nil {
		return nil, apperr.Wrap(apperr.KindService, op, "palette list was unreadable", err)
	}
	entries := make([]model.PaletteEntry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, model.PaletteEntry{ID: string(r.ID), Name: r.Name})
	}
	return entries, nil
}

type importResponse struct {
	ID    flexibleID `json:"id"`
	Name  string     `json:"name"`
	Error string     `json:"error,omitempty"`
}

// ImportPalette uploads a palette file under the given display name.
func (c *Client) ImportPalette(ctx context.Context, name, fileName string, data []byte) (model.PaletteEntry, error) {
	const op = "client.import_palette"

	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("palette_file", fileName, "text/plain", bytes.NewReader(data)).
		SetMultipartFormData(map[string]string{"name": name}).
		Post("/palette/import")
	if err != nil {
		return model.PaletteEntry{}, transportError(op, err)
	}

	var body importResponse
	decodeErr := decode(resp.Body(), &body)
	if !resp.IsSuccess() {
		return model.PaletteEntry{}, statusError(apperr.KindPaletteImport, op, resp, body.Error)
	}
	if decodeErr != nil {
		return model.PaletteEntry{}, apperr.Wrap(apperr.KindPaletteImport, op, "import response was unreadable", decodeErr)
	}
	if body.Error != "" {
		return model.PaletteEntry{}, apperr.New(apperr.KindPaletteImport, op, body.Error)
	}
	if body.ID == "" {
		return model.PaletteEntry{}, apperr.New(apperr.KindPaletteImport, op, "import response did not include a palette id")
	}
	if body.Name == "" {
		body.Name = name
	}
	return model.PaletteEntry{ID: string(body.ID), Name: body.Name}, nil
}

// Download streams the processed image at url (absolute or relative to the
// base URL) into w.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	const op = "client.download"

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "image/*").
		Get(url)
	if err != nil {
		return 0, transportError(op, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return 0, statusError(apperr.KindTransport, op, resp, "")
	}
	n, err := io.Copy(w, body)
	if err != nil {
		return n, apperr.Wrap(apperr.KindTransport, op, "download interrupted", err)
	}
	return n, nil
}

func decode(data []byte, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty body")
	}
	return sonic.Unmarshal(data, v)
}

func transportError(op string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTransport, op, "the conversion service did not answer in time", err)
	case errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindTransport, op, "the request was cancelled", err)
	default:
		return apperr.Wrap(apperr.KindTransport, op, "could not reach the conversion service", err)
	}
}

// statusError prefers the service's own message over the bare status line.
func statusError(kind apperr.Kind, op string, resp *resty.Response, serviceMessage string) error {
	if serviceMessage != "" {
		return apperr.New(kind, op, serviceMessage)
	}
	return apperr.New(kind, op, fmt.Sprintf("the conversion service returned %s", statusText(resp.StatusCode())))
}

// StatusMessage formats a non-success status for display.
func StatusMessage(code int) string {
	return fmt.Sprintf("the conversion service returned %s", statusText(code))
}

func statusText(code int) string {
	if text := http.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return strconv.Itoa(code)
}

// flexibleID accepts both numeric and string ids; the reference service emits
// integers.
type flexibleID string

func (s *flexibleID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := sonic.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexibleID(str)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return fmt.Errorf("id %s is neither string nor number", raw)
	}
	*s = flexibleID(raw)
	return nil
}

type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
