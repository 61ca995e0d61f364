package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/leafcheck/internal/classifier"
	"github.com/example/leafcheck/internal/session"
	"github.com/example/leafcheck/internal/usecase"
)

// User-facing messages.
const (
	MsgNoFileSelected  = "No file selected."
	MsgInvalidFileType = "Invalid file type. Allowed: "
	MsgAnalysisFailed  = "Something went wrong while analyzing the image. Please try again."
	MsgTooLarge        = "File is too large."
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var errTooLarge = errors.New("request body too large")

// Options configures the HTTP surface.
type Options struct {
	MaxUploadSize  int64
	StaticDir      string
	UploadDir      string
	UploadURL      string
	AllowedOrigins []string
	Flash          *session.Flash
	Logger         *zap.Logger
}

type handler struct {
	uc     *usecase.DiagnosisUseCase
	flash  *session.Flash
	logger *zap.Logger
}

// RegisterRoutes wires the pages, the upload endpoint and the service routes
// to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.DiagnosisUseCase, opts Options) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}))
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{uc: uc, flash: opts.Flash, logger: logger.Named("http")}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, uc.GetMetricsSummary())
	})

	if opts.StaticDir != "" {
		router.Static("/static", opts.StaticDir)
	}
	if opts.UploadURL != "" && !strings.HasPrefix(opts.UploadURL, "/static/") {
		router.Static(opts.UploadURL, opts.UploadDir)
	}

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.tmpl", gin.H{"Title": "Home"})
	})
	router.GET("/about", func(c *gin.Context) {
		c.HTML(http.StatusOK, "about.tmpl", gin.H{"Title": "About", "ClassCount": classifier.NumClasses})
	})
	router.GET("/upload", h.uploadForm)
	router.POST("/upload", requestSizeLimiter(opts.MaxUploadSize), h.submit)
	return nil
}

// UploadURL returns the URL prefix uploads are served under: a path below
// /static when uploadDir sits inside staticDir, otherwise /uploads.
func UploadURL(staticDir, uploadDir string) string {
	if staticDir != "" {
		staticAbs, err1 := filepath.Abs(staticDir)
		uploadAbs, err2 := filepath.Abs(uploadDir)
		if err1 == nil && err2 == nil {
			rel, err := filepath.Rel(staticAbs, uploadAbs)
			if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return "/static/" + filepath.ToSlash(rel)
			}
		}
	}
	return "/uploads"
}

func (h *handler) uploadForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, h.popFlash(c))
}

func (h *handler) renderForm(c *gin.Context, status int, flash string) {
	allowed := h.uc.AllowedExtensions()
	accept := make([]string, len(allowed))
	for i, ext := range allowed {
		accept[i] = "." + ext
	}
	c.HTML(status, "upload.tmpl", gin.H{
		"Title":   "Upload",
		"Flash":   flash,
		"Allowed": strings.Join(allowed, ", "),
		"Accept":  strings.Join(accept, ","),
	})
}

func (h *handler) submit(c *gin.Context) {
	sub, closeBody, err := readSubmission(c)
	if errors.Is(err, errTooLarge) {
		h.logger.Info("upload rejected", zap.String("reason", err.Error()))
		if wantsJSON(c) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": MsgTooLarge})
			return
		}
		h.renderForm(c, http.StatusRequestEntityTooLarge, MsgTooLarge)
		return
	}
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, MsgAnalysisFailed)
		return
	}
	defer closeBody()

	diagnosis, err := h.uc.Diagnose(c.Request.Context(), sub)
	switch {
	case errors.Is(err, usecase.ErrNoFileSelected):
		h.respondError(c, http.StatusBadRequest, MsgNoFileSelected)
		return
	case errors.Is(err, usecase.ErrInvalidFileType):
		h.respondError(c, http.StatusBadRequest, MsgInvalidFileType+strings.Join(h.uc.AllowedExtensions(), ", ")+".")
		return
	case err != nil:
		h.respondError(c, http.StatusInternalServerError, MsgAnalysisFailed)
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, diagnosis)
		return
	}
	c.HTML(http.StatusOK, "result.tmpl", gin.H{"Title": "Result", "Diagnosis": diagnosis})
}

// readSubmission extracts the "file" field. A request without one yields a
// nil submission so the pipeline can reject it.
func readSubmission(c *gin.Context) (*usecase.Submission, func(), error) {
	noop := func() {}
	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			return nil, noop, errTooLarge
		}
		return nil, noop, nil
	}
	src, err := header.Open()
	if err != nil {
		return nil, noop, err
	}
	return &usecase.Submission{Filename: header.Filename, Body: src}, func() { _ = src.Close() }, nil
}

func (h *handler) respondError(c *gin.Context, status int, message string) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"error": message})
		return
	}
	if h.flash != nil {
		if err := h.flash.Set(c, message); err != nil {
			h.logger.Warn("failed to set flash message", zap.Error(err))
		}
	}
	c.Redirect(http.StatusSeeOther, "/upload")
}

func (h *handler) popFlash(c *gin.Context) string {
	if h.flash == nil {
		return ""
	}
	return h.flash.Pop(c)
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
