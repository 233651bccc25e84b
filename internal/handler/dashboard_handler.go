package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

type DashboardHandler struct {
	responses *service.ResponseService
	log       *zap.Logger
}

func NewDashboardHandler(responses *service.ResponseService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{responses: responses, log: log}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.responses.Dashboard(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
