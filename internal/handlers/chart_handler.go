package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/services/charts"
)

// ChartHandler exposes chart listing, detail, status, and deletion.
type ChartHandler struct {
	chartService *charts.Service
	session      interfaces.SessionProvider
	chartAPI     interfaces.ChartAPI
	logger       arbor.ILogger
}

func NewChartHandler(chartService *charts.Service, chartAPI interfaces.ChartAPI, session interfaces.SessionProvider, logger arbor.ILogger) *ChartHandler {
	return &ChartHandler{
		chartService: chartService,
		chartAPI:     chartAPI,
		session:      session,
		logger:       logger,
	}
}

// ListHandler lists the account's charts.
func (h *ChartHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if !RequireAuth(w, h.session) {
		return
	}

	list, err := h.chartService.ListCharts(r.Context())
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

// GetHandler returns one chart rendered in the requested language (lang
// query parameter, default handled upstream).
func (h *ChartHandler) GetHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	chart, err := h.chartService.GetChart(r.Context(), chartID, r.URL.Query().Get("lang"))
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, chart)
}

// StatusHandler returns the job view of a chart, for clients that poll over
// plain HTTP instead of the WebSocket.
func (h *ChartHandler) StatusHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	job, err := h.chartAPI.GetChartStatus(r.Context(), chartID)
	if err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// WatchHandler starts server-side polling of a generating chart; progress
// arrives on the WebSocket.
func (h *ChartHandler) WatchHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	// The poll loop outlives this request.
	h.chartService.Watch(context.Background(), chartID)
	WriteSuccess(w, "watching chart generation")
}

// DeleteHandler deletes a chart.
func (h *ChartHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	if err := h.chartService.DeleteChart(r.Context(), chartID); err != nil {
		WriteBackendError(w, err)
		return
	}

	WriteSuccess(w, "chart deleted")
}
