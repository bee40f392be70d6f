package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/gateway/util"
	"student_tracking/backend/internal/grade"
)

// GradeHandler serves grade entry, grade listings and statistics
type GradeHandler struct {
	Grades *grade.GradeService
	RS     *util.Responder
}

// AddGrade handles POST /courses/{id}/grades
// The grader is the authenticated teacher.
func (h *GradeHandler) AddGrade(w http.ResponseWriter, r *http.Request) {
	// 1. Authorization: the route guard guarantees a teacher
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		h.RS.WriteJSONError(w, http.StatusUnauthorized, "Not authorized as a teacher")
		return
	}

	// 2. Decode Body
	var req grade.AddGradeRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	// 3. Record
	g, err := h.Grades.AddGrade(r.Context(), chi.URLParam(r, "id"), principal.UserID(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, g)
}

// StudentGrades handles GET /students/{id}/grades
func (h *GradeHandler) StudentGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.Grades.StudentGrades(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, grades)
}

// StudentStatistics handles GET /students/{id}/statistics
func (h *GradeHandler) StudentStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Grades.StudentStatistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, stats)
}

// CourseStatistics handles GET /courses/{id}/statistics
func (h *GradeHandler) CourseStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Grades.CourseStatistics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, stats)
}

// ExportCourseGrades handles GET /courses/{id}/grades/export
// Responds with an .xlsx attachment.
func (h *GradeHandler) ExportCourseGrades(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.Grades.ExportCourseGrades(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Description", "File Transfer")
	w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	w.Header().Set("Content-Type", grade.XLSXContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.RS.Logger.Warn("failed to write export", zap.Error(err))
	}
}
