package ui

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"gotercih/adapters/excel"
	"gotercih/app"
	"gotercih/domain/core"
	apperrors "gotercih/internal/errors"
	"gotercih/ports"

	"github.com/gin-gonic/gin"
)

type exportFormat int

const (
	exportCSV exportFormat = iota
	exportXLSX
)

func (f exportFormat) writer() ports.ResultWriter {
	if f == exportXLSX {
		return excel.NewXLSXWriter()
	}
	return excel.NewCSVWriter()
}

type option struct {
	Value    string
	Selected bool
}

type fieldOptions struct {
	Name    string
	Options []option
}

// indexPage is the data of templates/index.html
type indexPage struct {
	Loaded       bool
	Error        string
	Center       string
	Tolerance    string
	MaxTolerance string
	Fields       []fieldOptions
	Caption      string
	Note         template.HTML
	Columns      []string
	Rows         [][]string
	Count        int
	Total        int
	ExportCSV    template.URL
	ExportXLSX   template.URL
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *Server) handleIndex(c *gin.Context) {
	defaults := s.catalog.Defaults()
	page := indexPage{
		Center:       formatNumber(defaults.Center),
		Tolerance:    formatNumber(defaults.Tolerance),
		MaxTolerance: formatNumber(defaults.MaxTolerance),
	}

	snap, err := s.catalog.Snapshot()
	if err != nil {
		page.Error = "Veri henüz yüklenmedi."
		s.renderTemplate(c, http.StatusServiceUnavailable, "index.html", page)
		return
	}

	req, err := app.ParseQueryValues(c.Request.URL.Query(), snap.Schema, defaults)
	if err == nil {
		page.Center = formatNumber(req.Center)
		page.Tolerance = formatNumber(req.Tolerance)
	}
	page.Fields = buildFields(snap, req)
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, http.StatusBadRequest, "index.html", page)
		return
	}

	rs, err := s.catalog.Match(c.Request.Context(), req)
	if err != nil {
		page.Error = err.Error()
		s.renderTemplate(c, apperrors.HTTPStatus(err), "index.html", page)
		return
	}

	query := app.EncodeQueryValues(req, rs.Schema).Encode()
	page.Loaded = true
	page.Caption = app.BoundsCaption(rs.Bounds)
	page.Note = s.renderNote(rs.Schema.EstimateLabel)
	page.Columns = rs.Schema.OutputColumns()
	page.Count = rs.Len()
	page.Total = rs.Total
	page.ExportCSV = template.URL("/export.csv?" + query)
	page.ExportXLSX = template.URL("/export.xlsx?" + query)
	page.Rows = make([][]string, 0, rs.Len())
	for _, m := range rs.Matches {
		page.Rows = append(page.Rows, excel.Record(rs.Schema, m.School))
	}
	s.renderTemplate(c, http.StatusOK, "index.html", page)
}

// buildFields lists every option, selected unless the request restricts it away
func buildFields(snap *app.Snapshot, req app.QueryRequest) []fieldOptions {
	fields := make([]fieldOptions, 0, len(snap.Schema.CategoryFields))
	for _, name := range snap.Schema.CategoryFields {
		selected, restricted := req.Restrictions[name]
		chosen := make(map[string]bool, len(selected))
		for _, v := range selected {
			chosen[v] = true
		}
		f := fieldOptions{Name: name}
		for _, v := range snap.Options[name] {
			f.Options = append(f.Options, option{Value: v, Selected: !restricted || chosen[v]})
		}
		fields = append(fields, f)
	}
	return fields
}

func (s *Server) handleExport(format exportFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := s.catalog.Snapshot()
		if err != nil {
			s.exportError(c, err)
			return
		}
		req, err := app.ParseQueryValues(c.Request.URL.Query(), snap.Schema, s.catalog.Defaults())
		if err != nil {
			s.exportError(c, err)
			return
		}
		rs, err := s.catalog.Match(c.Request.Context(), req)
		if err != nil {
			s.exportError(c, err)
			return
		}

		w := format.writer()
		var buf bytes.Buffer
		if err := w.Write(&buf, rs.Schema, rs); err != nil {
			s.exportError(c, fmt.Errorf("failed to write export: %w", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, excel.FileName(rs.Schema, w.Extension())))
		c.Data(http.StatusOK, w.ContentType(), buf.Bytes())
	}
}

func (s *Server) exportError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, core.ErrNotLoaded) {
		s.log.Error("[UI] Export failed: %v", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"code": apperrors.GetCode(err), "error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "revision": snap.Revision, "schools": len(snap.Schools)})
}
