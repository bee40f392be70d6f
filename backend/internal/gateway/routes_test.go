package gateway

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"student_tracking/backend/internal/grade"
	"student_tracking/backend/internal/ratelimit"
	"student_tracking/backend/internal/shared"
)

func TestAuthRoutes(t *testing.T) {
	env := setupTestEnv(t)

	// --- 1. Register ---
	rec := env.do(t, http.MethodPost, "/api/auth/register/teacher", "", map[string]string{
		"teacher_id": "T010",
		"name":       "Pr. Hassan Tazi",
		"email":      "hassan.tazi@univ.ma",
		"password":   "password123",
		"department": "Systèmes Embarqués",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// --- 2. Login ---
	t.Run("Login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "hassan.tazi@univ.ma", "password": "password123", "role": "teacher",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var session struct {
			ID    string `json:"_id"`
			Role  string `json:"role"`
			Token string `json:"token"`
		}
		decode(t, rec, &session)
		assert.Equal(t, "teacher", session.Role)
		require.NotEmpty(t, session.Token)

		me := env.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
		require.Equal(t, http.StatusOK, me.Code)
		var profile map[string]interface{}
		decode(t, me, &profile)
		assert.Equal(t, session.ID, profile["_id"])
		assert.Equal(t, "Pr. Hassan Tazi", profile["name"])
	})

	t.Run("Wrong Password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "hassan.tazi@univ.ma", "password": "nope", "role": "teacher",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid email or password", messageOf(t, rec))
	})

	t.Run("Missing Role", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "hassan.tazi@univ.ma", "password": "password123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please specify role (student or teacher)", messageOf(t, rec))
	})

	t.Run("Duplicate Registration", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/register/teacher", "", map[string]string{
			"teacher_id": "T011", "name": "Pr. Hassan Tazi", "email": "hassan.tazi@univ.ma",
			"password": "password123", "department": "Systèmes Embarqués",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User already exists", messageOf(t, rec))
	})

	t.Run("Malformed Body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", "not an object")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProtect(t *testing.T) {
	env := setupTestEnv(t)
	_, c, student := env.seed(t)
	path := "/api/courses/" + c.ID.Hex()

	t.Run("No Token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized, no token", messageOf(t, rec))
	})

	t.Run("Garbage Token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, path, "abc.def.ghi", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized, token failed", messageOf(t, rec))
	})

	t.Run("Deleted Account", func(t *testing.T) {
		token := env.tokenFor(t, primitive.NewObjectID(), shared.RoleStudent)
		rec := env.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Valid Token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, path, env.tokenFor(t, student.ID, shared.RoleStudent), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var detail shared.CourseDetail
		decode(t, rec, &detail)
		assert.Equal(t, "INFO101", detail.CourseCode)
		require.NotNil(t, detail.Teacher)
		assert.Equal(t, "mohamed.alami@univ.ma", detail.Teacher.Email)
	})
}

func TestRoleGuards(t *testing.T) {
	env := setupTestEnv(t)
	teacher, c, student := env.seed(t)
	studentToken := env.tokenFor(t, student.ID, shared.RoleStudent)
	teacherToken := env.tokenFor(t, teacher.ID, shared.RoleTeacher)

	t.Run("Student Rejected By Teacher Guard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/courses/"+c.ID.Hex()+"/students", studentToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized as a teacher", messageOf(t, rec))
	})

	t.Run("Student Rejected By Admin Guard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/students", studentToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized as an admin", messageOf(t, rec))
	})

	t.Run("Teacher Rejected By Admin Guard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/teachers", teacherToken, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Student Accepted On Student Routes", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/students/"+student.ID.Hex()+"/courses", studentToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Teacher Accepted By Teacher Guard", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/courses/"+c.ID.Hex()+"/students", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var roster []shared.RosterEntry
		decode(t, rec, &roster)
		require.Len(t, roster, 1)
		assert.Equal(t, "Omar Berrada", roster[0].Name)
	})
}

func TestGradeRoutes(t *testing.T) {
	env := setupTestEnv(t)
	teacher, c, student := env.seed(t)
	teacherToken := env.tokenFor(t, teacher.ID, shared.RoleTeacher)
	studentToken := env.tokenFor(t, student.ID, shared.RoleStudent)

	// --- 1. Add Grade ---
	rec := env.do(t, http.MethodPost, "/api/courses/"+c.ID.Hex()+"/grades", teacherToken, map[string]interface{}{
		"studentId": student.ID.Hex(), "assignmentType": "Exam", "score": 15,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g shared.Grade
	decode(t, rec, &g)
	assert.InDelta(t, 75.0, g.Percentage, 1e-9)
	assert.Equal(t, teacher.ID, g.GradedBy)

	t.Run("Invalid Assignment Type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/courses/"+c.ID.Hex()+"/grades", teacherToken, map[string]interface{}{
			"studentId": student.ID.Hex(), "assignmentType": "Lab", "score": 10,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid assignment type", messageOf(t, rec))
	})

	t.Run("Unknown Course", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/courses/"+primitive.NewObjectID().Hex()+"/grades", teacherToken, map[string]interface{}{
			"studentId": student.ID.Hex(), "assignmentType": "Exam", "score": 10,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Course not found", messageOf(t, rec))
	})

	// --- 2. Student Views ---
	t.Run("Student Grades", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/students/"+student.ID.Hex()+"/grades", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var grades []shared.GradeDetail
		decode(t, rec, &grades)
		require.Len(t, grades, 1)
		assert.Equal(t, "INFO101", grades[0].Course.CourseCode)
		assert.Equal(t, "Dr. Mohamed Alami", grades[0].GradedBy.Name)
	})

	t.Run("Student Statistics", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/students/"+student.ID.Hex()+"/statistics", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"overall": {"totalGrades": 1, "averageScore": 15, "highestScore": 15, "lowestScore": 15},
			"byCourse": [{"_id": "Algorithmique Avancée", "average": 15, "count": 1}],
			"byAssignmentType": [{"_id": "Exam", "average": 15, "count": 1}]
		}`, rec.Body.String())
	})

	t.Run("Course Statistics", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/courses/"+c.ID.Hex()+"/statistics", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var stats map[string]interface{}
		decode(t, rec, &stats)
		ranking := stats["studentRanking"].([]interface{})
		require.Len(t, ranking, 1)
		assert.Equal(t, "Omar Berrada", ranking[0].(map[string]interface{})["name"])
	})

	t.Run("Empty Statistics", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/students/"+primitive.NewObjectID().Hex()+"/statistics", studentToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"overall": {}, "byCourse": [], "byAssignmentType": []}`, rec.Body.String())
	})

	t.Run("Invalid ID", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/students/not-an-id/statistics", studentToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid id", messageOf(t, rec))
	})

	// --- 3. Export ---
	t.Run("Export", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/courses/"+c.ID.Hex()+"/grades/export", teacherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, grade.XLSXContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "grades_INFO101.xlsx")
		assert.NotZero(t, rec.Body.Len())
	})
}

func TestAdminRoutes(t *testing.T) {
	env := setupTestEnv(t)
	teacher, c, _ := env.seed(t)
	adminToken := env.tokenFor(t, primitive.NewObjectID(), shared.RoleAdmin)

	// --- 1. Create Student ---
	rec := env.do(t, http.MethodPost, "/api/admin/students", adminToken, map[string]string{"name": "Salma Bennani"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "salma.bennani@student.univ.ma", created["email"])
	assert.Equal(t, "2025-2026", created["academic_year"])
	assert.NotContains(t, created, "password")
	studentID := created["_id"].(string)

	t.Run("Create Teacher Requires Department", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/teachers", adminToken, map[string]string{"name": "Karima Mansouri"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Create Course", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/courses", adminToken, map[string]interface{}{
			"course_name": "Réseaux Informatiques", "course_code": "INFO201", "credits": 4,
			"semester": "S2", "teacherId": teacher.ID.Hex(),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	// --- 2. Enrollment ---
	t.Run("Enroll", func(t *testing.T) {
		body := map[string]string{"studentId": studentID, "courseId": c.ID.Hex()}
		rec := env.do(t, http.MethodPost, "/api/admin/enroll", adminToken, body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Enrollment successful", messageOf(t, rec))

		again := env.do(t, http.MethodPost, "/api/admin/enroll", adminToken, body)
		assert.Equal(t, http.StatusBadRequest, again.Code)
		assert.Equal(t, "Student already enrolled", messageOf(t, again))

		roster := env.do(t, http.MethodGet, "/api/admin/courses/"+c.ID.Hex()+"/students", adminToken, nil)
		require.Equal(t, http.StatusOK, roster.Code)
		var entries []shared.RosterEntry
		decode(t, roster, &entries)
		assert.Len(t, entries, 2)
	})

	t.Run("Enroll Unknown Student", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/admin/enroll", adminToken, map[string]string{
			"studentId": primitive.NewObjectID().Hex(), "courseId": c.ID.Hex(),
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Student or Course not found", messageOf(t, rec))
	})

	// --- 3. Listing and Deletion ---
	t.Run("List Students", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/admin/students", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("Delete User", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/admin/users/dean/"+studentID, adminToken, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid user type", messageOf(t, rec))

		rec = env.do(t, http.MethodDelete, "/api/admin/users/student/"+studentID, adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User removed", messageOf(t, rec))

		rec = env.do(t, http.MethodDelete, "/api/admin/users/student/"+studentID, adminToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", messageOf(t, rec))
	})

	t.Run("Delete Course", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/api/admin/courses/"+c.ID.Hex(), adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/courses", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "INFO101")
	})
}

func TestOpsRoutes(t *testing.T) {
	env := setupTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	env.do(t, http.MethodGet, "/api/courses", "", nil)
	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `student_tracking_http_requests_total{method="GET",route="/api/courses",status="200"}`)
}

func TestLoginRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	env := setupTestEnvWithLimiter(t, ratelimit.New(rdb, 2, time.Minute))
	creds := map[string]string{"email": "nobody@univ.ma", "password": "nope", "role": "teacher"}

	// --- 1. Within the limit the login handler answers ---
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// --- 2. Over the limit the middleware answers ---
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", messageOf(t, rec))

	// --- 3. Other routes are not limited ---
	rec = env.do(t, http.MethodGet, "/api/courses", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
