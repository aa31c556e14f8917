// Package mockserver is a stand-in for the conversion service. It serves the
// same HTTP surface from memory so the client can be exercised end to end
// without the real backend.
package mockserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"pixelate/internal/apperr"
	"pixelate/internal/model"
	"pixelate/internal/palette"
)

const (
	DefaultAddr = "127.0.0.1:5000"
	// MaxUploadSize matches the reference service's request limit.
	MaxUploadSize = 16 << 20
	// ErrUnsupportedMode is returned with HTTP 200, as the reference service does.
	ErrUnsupportedMode = "unsupported mode"
)

type Server struct {
	store  *Store
	engine *gin.Engine
	logger *slog.Logger
	// Delay is slept before each upload is answered.
	Delay time.Duration
}

func New(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{store: store, logger: logger}
	engine := gin.New()
	engine.MaxMultipartMemory = MaxUploadSize
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.POST("/upload", s.handleUpload)
	engine.GET("/download/:name", s.handleDownload)
	engine.GET("/palettes", s.handlePalettes)
	engine.GET("/palette/:id", s.handlePalette)
	engine.POST("/palette/import", s.handleImport)

	s.engine = engine
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("mock conversion service listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetHeader("X-Request-ID"),
			"elapsed", time.Since(start),
		)
	}
}

func writeJSON(c *gin.Context, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		c.Data(http.StatusInternalServerError, "application/json", []byte(`{"error":"encode response"}`))
		return
	}
	c.Data(status, "application/json", data)
}

func writeError(c *gin.Context, status int, message string) {
	writeJSON(c, status, gin.H{"error": message})
}

type uploadResponse struct {
	Success           bool   `json:"success"`
	ProcessedImageURL string `json:"processed_image_url"`
	PaletteName       string `json:"palette_name"`
	QuantizationMode  string `json:"quantization_mode"`
}

func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "No file part")
		return
	}
	if header.Filename == "" {
		writeError(c, http.StatusBadRequest, "No selected file")
		return
	}

	id, err := strconv.Atoi(c.DefaultPostForm("palette", "1"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid palette selected")
		return
	}
	pal, ok := s.store.Get(id)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid palette selected")
		return
	}

	mode, err := model.ParseQuantizationMode(c.DefaultPostForm("quantization_mode", string(model.DefaultMode)))
	if err != nil {
		writeError(c, http.StatusOK, ErrUnsupportedMode)
		return
	}
	maxRes, err := parseResolution(c.DefaultPostForm("max_resolution", "512"))
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	upscale, err := strconv.Atoi(c.DefaultPostForm("upscale_factor", "1"))
	if err != nil || upscale <= 0 || upscale > 16 {
		writeError(c, http.StatusBadRequest, "Invalid upscale factor")
		return
	}

	f, err := header.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "Cannot read upload")
		return
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "File type not allowed")
		return
	}

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-c.Request.Context().Done():
			return
		}
	}

	out := Convert(src, pal.Colors, Params{Mode: mode, MaxResolution: maxRes, UpscaleFactor: upscale})
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		s.logger.Error("encode result", "error", err)
		writeError(c, http.StatusInternalServerError, err.Error())
		return
	}

	name := uuid.NewString() + ".png"
	s.store.PutResult(name, buf.Bytes())
	writeJSON(c, http.StatusOK, uploadResponse{
		Success:           true,
		ProcessedImageURL: "/download/" + name,
		PaletteName:       pal.Name,
		QuantizationMode:  mode.String(),
	})
}

// parseResolution accepts "n" or the reference service's "w,h" form and
// returns the larger side.
func parseResolution(v string) (int, error) {
	parts := strings.Split(v, ",")
	best := 0
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid max resolution %q", v)
		}
		best = max(best, n)
	}
	return best, nil
}

func (s *Server) handleDownload(c *gin.Context) {
	data, ok := s.store.Result(c.Param("name"))
	if !ok {
		writeError(c, http.StatusNotFound, "Not found")
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

type paletteEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handlePalettes(c *gin.Context) {
	list := s.store.List()
	out := make([]paletteEntry, 0, len(list))
	for _, p := range list {
		out = append(out, paletteEntry{ID: p.ID, Name: p.Name})
	}
	writeJSON(c, http.StatusOK, out)
}

func (s *Server) handlePalette(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusNotFound, "Palette not found")
		return
	}
	p, ok := s.store.Get(id)
	if !ok {
		writeError(c, http.StatusNotFound, "Palette not found")
		return
	}
	colors := make([]string, len(p.Colors))
	for i, col := range p.Colors {
		colors[i] = string(col)
	}
	writeJSON(c, http.StatusOK, gin.H{"id": p.ID, "name": p.Name, "colors": colors})
}

func (s *Server) handleImport(c *gin.Context) {
	header, err := c.FormFile("palette_file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "No palette file")
		return
	}
	if !palette.Importable(header.Filename) {
		writeError(c, http.StatusBadRequest, "Palette files must be .hex or .txt")
		return
	}
	f, err := header.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "Cannot read palette file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Cannot read palette file")
		return
	}
	colors, err := palette.Parse(data)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid palette: "+apperr.UserMessage(err))
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = palette.DefaultName(header.Filename)
	}
	p := s.store.Add(name, colors)
	s.logger.Info("palette imported", "id", p.ID, "name", p.Name, "colors", len(colors))
	writeJSON(c, http.StatusOK, paletteEntry{ID: p.ID, Name: p.Name})
}
