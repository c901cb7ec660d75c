package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"gotercih/app"
	"gotercih/internal"
	"gotercih/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed templates/* static/*
var embeddedFiles embed.FS

// Server represents the web server for the browse page
type Server struct {
	router    *gin.Engine
	catalog   *app.CatalogService
	templates *template.Template
	note      string // markdown source of the disclaimer
	log       *internal.Logger
}

// NewServer creates a server over catalog; gin runs in mode ("debug", "release", "test")
func NewServer(catalog *app.CatalogService, mode string) (*Server, error) {
	if mode != "" {
		gin.SetMode(mode)
	}

	funcMap := template.FuncMap{
		"fmt2": func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		"add":  func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	note, err := embeddedFiles.ReadFile("templates/note.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		catalog:   catalog,
		templates: templates,
		note:      string(note),
		log:       internal.Log(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/export.csv", s.handleExport(exportCSV))
	s.router.GET("/export.xlsx", s.handleExport(exportXLSX))
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	s.router.StaticFileFS("/static/style.css", "static/style.css", http.FS(embeddedFiles))
}

// Handler returns the HTTP handler, for tests and for mounting
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server on addr
func (s *Server) Start(addr string) error {
	s.log.Info("[UI] Listening on %s", addr)
	return s.router.Run(addr)
}

// renderNote renders the disclaimer for the given estimate label
func (s *Server) renderNote(label string) template.HTML {
	target := "gelecek yıl"
	if fields := strings.Fields(label); len(fields) > 0 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			target = fields[0]
		}
	}
	md := strings.ReplaceAll(s.note, "{target}", target)

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.ToHTML([]byte(md), p, renderer)
	return template.HTML(bytes.TrimSpace(out))
}
