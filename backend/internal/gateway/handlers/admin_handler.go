package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"student_tracking/backend/internal/admin"
	"student_tracking/backend/internal/gateway/util"
)

// AdminHandler serves the /admin routes
type AdminHandler struct {
	Admin *admin.AdminService
	RS    *util.Responder
}

// --- Users ---

// ListStudents handles GET /admin/students
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Admin.ListStudents(r.Context())
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, students)
}

// ListTeachers handles GET /admin/teachers
func (h *AdminHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.Admin.ListTeachers(r.Context())
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, teachers)
}

// CreateStudent handles POST /admin/students
// Body: {name}. Email, student id and placeholder password are generated.
func (h *AdminHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateStudentRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	student, err := h.Admin.CreateStudent(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, student)
}

// CreateTeacher handles POST /admin/teachers
// Body: {name, department}
func (h *AdminHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateTeacherRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	teacher, err := h.Admin.CreateTeacher(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, teacher)
}

// DeleteUser handles DELETE /admin/users/{type}/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	err := h.Admin.DeleteUser(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, util.JSONMessage{Message: "User removed"})
}

// --- Courses ---

// CreateCourse handles POST /admin/courses
func (h *AdminHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req admin.CreateCourseRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	course, err := h.Admin.CreateCourse(r.Context(), req)
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusCreated, course)
}

// CourseStudents handles GET /admin/courses/{id}/students
func (h *AdminHandler) CourseStudents(w http.ResponseWriter, r *http.Request) {
	roster, err := h.Admin.CourseRoster(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, roster)
}

// DeleteCourse handles DELETE /admin/courses/{id}
func (h *AdminHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, util.JSONMessage{Message: "Course removed"})
}

// --- Enrollment ---

// Enroll handles POST /admin/enroll
// Body: {studentId, courseId}
func (h *AdminHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req admin.EnrollRequest
	if err := util.DecodeJSON(r, &req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}

	if err := h.Admin.Enroll(r.Context(), req); err != nil {
		h.RS.WriteError(w, r, err)
		return
	}
	h.RS.WriteJSON(w, http.StatusOK, util.JSONMessage{Message: "Enrollment successful"})
}
