package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/models"
	"github.com/parisxmas/OxiDB/OxiForms/internal/render"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

// ShareHandler serves everything reachable through a form's share link:
// the JSON form and render plan for API clients, JSON submission, and the
// server-rendered HTML page.
type ShareHandler struct {
	forms     *service.FormService
	responses *service.ResponseService
	log       *zap.Logger
	maxUpload int64
}

func NewShareHandler(forms *service.FormService, responses *service.ResponseService, log *zap.Logger, maxUploadMiB int) *ShareHandler {
	return &ShareHandler{forms: forms, responses: responses, log: log, maxUpload: int64(maxUploadMiB) << 20}
}

func (h *ShareHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetByShareLink(r.Context(), chi.URLParam(r, "shareLink"))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, form.Public())
}

func (h *ShareHandler) Plan(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetByShareLink(r.Context(), chi.URLParam(r, "shareLink"))
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":    form.Title,
		"controls": render.Plan(form, nil, nil),
	})
}

func (h *ShareHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	resp, err := h.responses.SubmitByShareLink(r.Context(), chi.URLParam(r, "shareLink"), req.Answers)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ShareHandler) Page(w http.ResponseWriter, r *http.Request) {
	form, ok := h.loadPage(w, r)
	if !ok {
		return
	}
	h.writePage(w, r, http.StatusOK, render.FormPage(form, r.URL.Path))
}

// PostPage decodes the HTML form, checks it locally, and submits it. Every
// failure is shown on the page; nothing is dropped silently.
func (h *ShareHandler) PostPage(w http.ResponseWriter, r *http.Request) {
	form, ok := h.loadPage(w, r)
	if !ok {
		return
	}
	action := r.URL.Path

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	err := r.ParseMultipartForm(h.maxUpload)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		h.writePage(w, r, http.StatusBadRequest, render.FailedPage(form, action, nil,
			apperr.Invalid("the submission could not be read: upload limit is %d MiB", h.maxUpload>>20)))
		return
	}

	var answers []models.Answer
	if r.MultipartForm != nil {
		answers, err = render.Decode(form, r.MultipartForm.Value, r.MultipartForm.File)
	} else {
		answers, err = render.Decode(form, r.PostForm, nil)
	}
	if err == nil {
		err = render.Validate(form, answers).Err()
	}
	if err == nil {
		_, err = h.responses.Submit(r.Context(), form.ID, answers, form.ShareLink)
	}
	if err != nil {
		status, _ := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("page submission failed", zap.String("formId", form.ID), zap.Error(err))
		}
		h.writePage(w, r, status, render.FailedPage(form, action, answers, err))
		return
	}
	h.writePage(w, r, http.StatusOK, render.ThankYouPage(form))
}

func (h *ShareHandler) loadPage(w http.ResponseWriter, r *http.Request) (*models.Form, bool) {
	form, err := h.forms.GetByShareLink(r.Context(), chi.URLParam(r, "shareLink"))
	if err == nil {
		return form, true
	}
	status, _ := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("load shared form", zap.Error(err))
		http.Error(w, render.GenericNotice, status)
		return nil, false
	}
	http.Error(w, "form not found", status)
	return nil, false
}

func (h *ShareHandler) writePage(w http.ResponseWriter, r *http.Request, status int, page *render.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Write(w); err != nil {
		h.log.Error("render page", zap.String("path", r.URL.Path), zap.Error(err))
	}
}
