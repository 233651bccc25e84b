package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/parisxmas/OxiDB/OxiForms/internal/apperr"
	"github.com/parisxmas/OxiDB/OxiForms/internal/auth"
	"github.com/parisxmas/OxiDB/OxiForms/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	result, err := h.svc.Register(r.Context(), req)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := readJSON(w, r, &req); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	result, err := h.svc.Login(r.Context(), req)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUser(r.Context())
	if claims == nil {
		respondErr(w, r, h.log, apperr.ErrNotAuthenticated)
		return
	}
	user, err := h.svc.Me(r.Context(), claims.UserID)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
