package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

type ResponseHandler struct {
	svc *service.ResponseService
	log *zap.Logger
}

func NewResponseHandler(svc *service.ResponseService, log *zap.Logger) *ResponseHandler {
	return &ResponseHandler{svc: svc, log: log}
}

type submitRequest struct {
	Answers   []models.Answer `json:"answers"`
	ShareLink string          `json:"shareLink"`
}

// Submit is public: anyone holding the form id may respond.
func (h *ResponseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	resp, err := h.svc.Submit(r.Context(), chi.URLParam(r, "formId"), req.Answers, req.ShareLink)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List supports ?q= for a text match over answers and ?skip=&limit= for
// paging.
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := service.ListOptions{Query: q.Get("q")}
	var err error
	if opts.Skip, err = intParam(q.Get("skip")); err == nil {
		opts.Limit, err = intParam(q.Get("limit"))
	}
	if err != nil {
		respondErr(w, r, h.log, apperr.Invalid("skip and limit must be integers"))
		return
	}
	page, err := h.svc.SearchByForm(r.Context(), chi.URLParam(r, "formId"), auth.UserID(r.Context()), opts)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *ResponseHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Export(r.Context(), chi.URLParam(r, "formId"), auth.UserID(r.Context()), r.URL.Query().Get("format"))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Body)
}
