package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

type FormHandler struct {
	svc       *service.FormService
	log       *zap.Logger
	publicURL string
}

func NewFormHandler(svc *service.FormService, log *zap.Logger, publicURL string) *FormHandler {
	return &FormHandler{svc: svc, log: log, publicURL: publicURL}
}

type formRequest struct {
	Title  string         `json:"title"`
	Fields []models.Field `json:"fields"`
}

// formView adds the public URL of the share link to the stored form.
type formView struct {
	*models.Form
	ShareURL string `json:"shareUrl"`
}

func (h *FormHandler) view(f *models.Form) formView {
	return formView{Form: f, ShareURL: h.publicURL + "/f/" + f.ShareLink}
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	out := make([]formView, 0, len(forms))
	for i := range forms {
		out = append(out, h.view(&forms[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	form, err := h.svc.Create(r.Context(), req.Title, req.Fields, auth.UserID(r.Context()))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.view(form))
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.Get(r.Context(), chi.URLParam(r, "formId"), auth.UserID(r.Context()))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(form))
}

func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req formRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	form, err := h.svc.Update(r.Context(), chi.URLParam(r, "formId"), req.Title, req.Fields, auth.UserID(r.Context()))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(form))
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	if err := h.svc.Delete(r.Context(), id, auth.UserID(r.Context())); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
