// Package api serves the catalog as JSON under /api/v1.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gotercih/app"
	"gotercih/domain/school"
	"gotercih/internal"
	apperrors "gotercih/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Handler exposes a CatalogService over HTTP
type Handler struct {
	catalog *app.CatalogService
	log     *internal.Logger
}

// NewHandler creates an API handler
func NewHandler(catalog *app.CatalogService) *Handler {
	return &Handler{catalog: catalog, log: internal.Log()}
}

// Routes mounts the API on a new chi router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/options", h.allOptions)
		r.Get("/options/{field}", h.options)
		r.Get("/match", h.matchQuery)
		r.Post("/match", h.match)
		r.Post("/estimate", h.estimate)
		r.Get("/summary", h.summary)
		r.Post("/reload", h.reload)
	})
	return r
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("[API] %s %s: %v", r.Method, r.URL.Path, err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Code: apperrors.GetCode(err), Error: err.Error()})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if snap, err := h.catalog.Snapshot(); err == nil {
		resp["revision"] = snap.Revision
		resp["schools"] = len(snap.Schools)
	} else {
		resp["status"] = "loading"
	}
	render.JSON(w, r, resp)
}

func (h *Handler) allOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.catalog.AllOptions()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

func (h *Handler) options(w http.ResponseWriter, r *http.Request) {
	opts, err := h.catalog.Options(chi.URLParam(r, "field"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, opts)
}

// MatchResponse is the JSON form of a result set
type MatchResponse struct {
	Revision string        `json:"revision"`
	Bounds   school.Bounds `json:"bounds"`
	Caption  string        `json:"caption"`
	Count    int           `json:"count"`
	Total    int           `json:"total"`
	Columns  []string      `json:"columns"`
	Results  []ResultRow   `json:"results"`
}

// ResultRow is one matched school; absent readings are null
type ResultRow struct {
	Row        int               `json:"row"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Readings   []*float64        `json:"readings"`
	Estimate   float64           `json:"estimate"`
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request) {
	var req app.QueryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	h.runMatch(w, r, req)
}

func (h *Handler) matchQuery(w http.ResponseWriter, r *http.Request) {
	snap, err := h.catalog.Snapshot()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := app.ParseQueryValues(r.URL.Query(), snap.Schema, h.catalog.Defaults())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.runMatch(w, r, req)
}

func (h *Handler) runMatch(w http.ResponseWriter, r *http.Request, req app.QueryRequest) {
	rs, err := h.catalog.Match(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, NewMatchResponse(rs))
}

// NewMatchResponse converts a result set to its JSON form
func NewMatchResponse(rs *school.ResultSet) MatchResponse {
	resp := MatchResponse{
		Revision: rs.Revision,
		Bounds:   rs.Bounds,
		Caption:  app.BoundsCaption(rs.Bounds),
		Count:    rs.Len(),
		Total:    rs.Total,
		Columns:  rs.Schema.OutputColumns(),
		Results:  make([]ResultRow, 0, rs.Len()),
	}
	for _, m := range rs.Matches {
		row := ResultRow{
			Row:        m.Row,
			Name:       m.Name,
			Attributes: m.Attributes,
			Readings:   make([]*float64, len(m.Readings)),
			Estimate:   m.Estimate.Value,
		}
		for i, reading := range m.Readings {
			if reading.Valid {
				v := reading.Value
				row.Readings[i] = &v
			}
		}
		resp.Results = append(resp.Results, row)
	}
	return resp
}

// EstimateRequest carries three period cells as strings, numbers or null
type EstimateRequest struct {
	Values []json.RawMessage `json:"values"`
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("invalid request body: %v", err)))
		return
	}
	if len(req.Values) != school.PeriodCount {
		h.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("values must hold %d entries, got %d", school.PeriodCount, len(req.Values))))
		return
	}

	var cells [school.PeriodCount]string
	for i, raw := range req.Values {
		cell, err := cellText(raw)
		if err != nil {
			h.fail(w, r, apperrors.InvalidInput(fmt.Sprintf("values[%d]: %v", i, err)))
			return
		}
		cells[i] = cell
	}

	res := h.catalog.EstimateReadings(cells)
	resp := map[string]interface{}{"defined": res.Estimate.Defined, "estimate": nil}
	if res.Estimate.Defined {
		resp["estimate"] = res.Estimate.Value
	}
	render.JSON(w, r, resp)
}

// cellText renders a JSON scalar as the raw cell it stands for
func cellText(raw json.RawMessage) (string, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.catalog.Summary()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, sum)
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.catalog.Reload(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"revision":  snap.Revision,
		"loaded_at": snap.LoadedAt,
		"schools":   len(snap.Schools),
		"report":    snap.Report,
	})
}
