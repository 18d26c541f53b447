package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/siderealab/siderea/internal/httpclient"
	"github.com/siderealab/siderea/internal/interfaces"
	"github.com/siderealab/siderea/internal/services/pdfexport"
)

// PDFHandler exposes PDF export: trigger and cancel. Completion arrives on
// the WebSocket as a pdf_ready message carrying the saved file path.
type PDFHandler struct {
	exports *pdfexport.Service
	session interfaces.SessionProvider
	logger  arbor.ILogger
}

func NewPDFHandler(exports *pdfexport.Service, session interfaces.SessionProvider, logger arbor.ILogger) *PDFHandler {
	return &PDFHandler{
		exports: exports,
		session: session,
		logger:  logger,
	}
}

// ExportHandler triggers a PDF export for a chart in the requested language.
// Returns 409 when an export is already running for the chart.
func (h *PDFHandler) ExportHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	job, err := h.exports.Export(r.Context(), chartID, r.URL.Query().Get("lang"))
	if err != nil {
		h.logger.Warn().Err(err).Str("chart_id", chartID).Msg("PDF export trigger failed")
		var apiErr *httpclient.APIError
		if errors.As(err, &apiErr) {
			WriteBackendError(w, err)
		} else {
			WriteError(w, http.StatusConflict, err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusAccepted, job)
}

// CancelHandler stops the in-flight export for a chart.
func (h *PDFHandler) CancelHandler(w http.ResponseWriter, r *http.Request, chartID string) {
	if !RequireAuth(w, h.session) {
		return
	}

	h.exports.Cancel(chartID)
	WriteSuccess(w, "export cancelled")
}
