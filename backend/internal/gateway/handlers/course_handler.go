package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"student_tracking/backend/internal/course"
	"student_tracking/backend/internal/gateway/util"
)

// CourseHandler serves the catalog and course listings per user
type CourseHandler struct {
	Courses *course.CourseService
	RS      *util.Responder
}

// ListCourses handles GET /courses
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.ListCourses(r.Context())
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /courses/{id}
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.Courses.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, c)
}

// Roster handles GET /courses/{id}/students
func (h *CourseHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Courses.Roster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, roster)
}

// StudentCourses handles GET /students/{id}/courses
func (h *CourseHandler) StudentCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.StudentCourses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, courses)
}

// TeacherCourses handles GET /teachers/{id}/courses
func (h *CourseHandler) TeacherCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Courses.TeacherCourses(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, courses)
}
