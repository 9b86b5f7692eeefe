package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/automation-dashboard/internal/config"
	"github.com/kirillkom/automation-dashboard/internal/core/domain"
	"github.com/kirillkom/automation-dashboard/internal/core/ports"
	"github.com/kirillkom/automation-dashboard/internal/observability/metrics"
)

const (
	sessionHeader = "X-Session-Id"
	serviceName   = "api"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	cfg      config.Config
	catalog  ports.ProcessCatalog
	view     ports.ProcessView
	renderer ports.ViewRenderer
	exporter ports.ProcessExporter
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	catalog ports.ProcessCatalog,
	view ports.ProcessView,
	renderer ports.ViewRenderer,
	exporter ports.ProcessExporter,
) *Router {
	return &Router{
		cfg:      cfg,
		catalog:  catalog,
		view:     view,
		renderer: renderer,
		exporter: exporter,
	}
}

func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /readyz", rt.readyz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/processes", rt.listProcesses)
	mux.HandleFunc("POST /v1/processes", rt.createProcess)
	mux.HandleFunc("DELETE /v1/processes", rt.clearProcesses)
	mux.HandleFunc("DELETE /v1/processes/{id}", rt.deleteProcess)
	mux.HandleFunc("GET /v1/departments", rt.departments)

	mux.HandleFunc("GET /v1/view", rt.getView)
	mux.HandleFunc("GET /v1/view/html", rt.getViewHTML)
	mux.HandleFunc("POST /v1/view/filters", rt.changeFilters)
	mux.HandleFunc("POST /v1/view/filters/clear", rt.clearFilters)
	mux.HandleFunc("POST /v1/view/page", rt.setPage)
	mux.HandleFunc("POST /v1/view/items-per-page", rt.setItemsPerPage)
	mux.HandleFunc("GET /v1/view/export.xlsx", rt.exportView)

	var onReject func(string)
	if rt.metrics != nil {
		onReject = func(reason string) { rt.metrics.RecordRejected(serviceName, reason) }
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, onReject)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, onReject)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) readyz(w http.ResponseWriter, _ *http.Request) {
	if !rt.catalog.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) listProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := rt.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"processes": processes,
		"total":     len(processes),
	})
}

func (rt *Router) createProcess(w http.ResponseWriter, r *http.Request) {
	var input domain.NewProcessInput
	if err := rt.decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	process, err := rt.catalog.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, process)
}

func (rt *Router) deleteProcess(w http.ResponseWriter, r *http.Request) {
	if err := rt.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) clearProcesses(w http.ResponseWriter, r *http.Request) {
	if err := rt.catalog.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) departments(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.catalog.Departments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": stats})
}

func (rt *Router) getView(w http.ResponseWriter, r *http.Request) {
	view, err := rt.view.View(r.Context(), sessionFromRequest(r))
	rt.respondView(w, r, view, err)
}

func (rt *Router) getViewHTML(w http.ResponseWriter, r *http.Request) {
	view, err := rt.view.View(r.Context(), sessionFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.writeHTML(w, r, view)
}

func (rt *Router) changeFilters(w http.ResponseWriter, r *http.Request) {
	var update domain.FilterUpdate
	var err error
	if isFormRequest(r) {
		update, err = rt.filterUpdateFromForm(w, r)
	} else {
		err = rt.decodeJSON(w, r, &update)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := rt.view.OnFilterChanged(r.Context(), sessionFromRequest(r), update)
	rt.respondView(w, r, view, err)
}

func (rt *Router) clearFilters(w http.ResponseWriter, r *http.Request) {
	view, err := rt.view.ClearFilters(r.Context(), sessionFromRequest(r))
	rt.respondView(w, r, view, err)
}

func (rt *Router) setPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page *int `json:"page"`
	}
	if isFormRequest(r) {
		if err := rt.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		page, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("page")))
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "set page", fmt.Errorf("page must be an integer")))
			return
		}
		req.Page = &page
	} else if err := rt.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Page == nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "set page", errors.New("page is required")))
		return
	}
	view, err := rt.view.SetPage(r.Context(), sessionFromRequest(r), *req.Page)
	rt.respondView(w, r, view, err)
}

func (rt *Router) setItemsPerPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemsPerPage *domain.PageSize `json:"itemsPerPage"`
	}
	if isFormRequest(r) {
		if err := rt.parseForm(w, r); err != nil {
			writeError(w, r, err)
			return
		}
		size, err := domain.ParsePageSize(r.PostForm.Get("itemsPerPage"))
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "set items per page", err))
			return
		}
		req.ItemsPerPage = &size
	} else if err := rt.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ItemsPerPage == nil {
		writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "set items per page", errors.New("itemsPerPage is required")))
		return
	}
	view, err := rt.view.SetItemsPerPage(r.Context(), sessionFromRequest(r), *req.ItemsPerPage)
	rt.respondView(w, r, view, err)
}

func (rt *Router) exportView(w http.ResponseWriter, r *http.Request) {
	processes, err := rt.view.Filtered(r.Context(), sessionFromRequest(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := rt.exporter.Export(&buf, processes); err != nil {
		writeError(w, r, fmt.Errorf("export processes: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "processes.xlsx"}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// respondView answers htmx requests with the fragment and everyone else with JSON.
func (rt *Router) respondView(w http.ResponseWriter, r *http.Request, view *domain.View, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if wantsHTML(r) {
		rt.writeHTML(w, r, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (rt *Router) writeHTML(w http.ResponseWriter, r *http.Request, view *domain.View) {
	var buf bytes.Buffer
	if err := rt.renderer.Render(&buf, view); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, rt.maxBodyBytes())
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("request body is empty"))
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

func (rt *Router) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxBodyBytes())
	if err := r.ParseForm(); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "parse form", err)
	}
	return nil
}

// filterUpdateFromForm only touches the fields present in the form, matching
// the partial semantics of the JSON body.
func (rt *Router) filterUpdateFromForm(w http.ResponseWriter, r *http.Request) (domain.FilterUpdate, error) {
	if err := rt.parseForm(w, r); err != nil {
		return domain.FilterUpdate{}, err
	}
	var update domain.FilterUpdate
	if values, ok := r.PostForm["searchTerm"]; ok && len(values) > 0 {
		update.SearchTerm = &values[0]
	}
	if values, ok := r.PostForm["department"]; ok && len(values) > 0 {
		update.Department = &values[0]
	}
	var errs []error
	number := func(name string) *float64 {
		values, ok := r.PostForm[name]
		if !ok || len(values) == 0 {
			return nil
		}
		raw := strings.TrimSpace(values[0])
		if raw == "" {
			zero := 0.0
			return &zero
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s must be a number", name))
			return nil
		}
		return &v
	}
	update.MinImpact = number("minImpact")
	update.MinFeasibility = number("minFeasibility")
	update.MinAutomation = number("minAutomation")
	if err := errors.Join(errs...); err != nil {
		return domain.FilterUpdate{}, domain.WrapError(domain.ErrInvalidInput, "parse filter form", err)
	}
	return update, nil
}

func (rt *Router) maxBodyBytes() int64 {
	if rt.cfg.APIRequestMaxBytes > 0 {
		return rt.cfg.APIRequestMaxBytes
	}
	return 1 << 20
}

func sessionFromRequest(r *http.Request) string {
	if session := strings.TrimSpace(r.Header.Get(sessionHeader)); session != "" {
		return session
	}
	return r.URL.Query().Get("session")
}

func isFormRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}

func wantsHTML(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	return r.URL.Query().Get("format") == "html"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
