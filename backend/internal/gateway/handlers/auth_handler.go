package handlers

import (
	"net/http"

	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/gateway/util"
)

// AuthHandler serves login, registration and the current-user profile
type AuthHandler struct {
	Auth *auth.AuthService
	RS   *util.Responder
}

// Login handles POST /auth/login
// Body: {email, password, role}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	session, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, session)
}

// RegisterStudent handles POST /auth/register/student
func (h *AuthHandler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterStudentRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	session, err := h.Auth.RegisterStudent(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, session)
}

// RegisterTeacher handles POST /auth/register/teacher
func (h *AuthHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterTeacherRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	session, err := h.Auth.RegisterTeacher(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, session)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.RS.WriteJSONError(w, http.StatusUnauthorized, auth.MsgNoToken)
		return
	}

	profile, err := h.Auth.Me(r.Context(), principal)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, profile)
}
