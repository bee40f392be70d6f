package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"student_tracking/backend/internal/admin"
	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/course"
	"student_tracking/backend/internal/grade"
	"student_tracking/backend/internal/ratelimit"
	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store/memstore"
)

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router http.Handler
	Store  *memstore.Store
	Tokens *auth.TokenManager
}

func testServiceConfig() *shared.ServiceConfig {
	return &shared.ServiceConfig{
		Server: shared.ServerConfig{
			Environment: "test",
			CORS:        shared.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		},
		Security: shared.SecurityConfig{
			JWTSecret:  "gateway-test-secret-0123456789",
			TokenTTL:   time.Hour,
			BCryptCost: 4,
		},
		Accounts: shared.AccountConfig{
			DefaultPassword:    "password123",
			AcademicYear:       "2025-2026",
			CredentialAttempts: 5,
		},
	}
}

// setupTestEnv wires every service over one in-memory store
func setupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return setupTestEnvWithLimiter(t, ratelimit.New(nil, 0, 0))
}

// setupTestEnvWithLimiter is setupTestEnv with a login rate limiter
func setupTestEnvWithLimiter(t *testing.T, limiter *ratelimit.Limiter) *TestEnv {
	t.Helper()
	cfg := testServiceConfig()
	logger := zap.NewNop()
	st := memstore.New()
	tokens := auth.NewTokenManager(&cfg.Security)
	reg := prometheus.NewRegistry()

	svcs := &Services{
		Auth:     auth.NewAuthService(st, tokens, &cfg.Security, logger),
		Admin:    admin.NewAdminService(st, cfg, logger),
		Courses:  course.NewCourseService(st, logger),
		Grades:   grade.NewGradeService(st, logger),
		Health:   st,
		Limiter:  limiter,
		Metrics:  NewMetrics(reg),
		Gatherer: reg,
	}

	return &TestEnv{Router: SetupRoutes(svcs, cfg, logger), Store: st, Tokens: tokens}
}

// tokenFor signs a token for id with role
func (e *TestEnv) tokenFor(t *testing.T, id primitive.ObjectID, role shared.Role) string {
	t.Helper()
	token, err := e.Tokens.Generate(id.Hex(), role)
	require.NoError(t, err)
	return token
}

// do sends a request through the router and returns the recorder
func (e *TestEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// seed inserts one teacher, one course and one student
func (e *TestEnv) seed(t *testing.T) (*shared.Teacher, *shared.Course, *shared.Student) {
	t.Helper()
	ctx := context.Background()

	teacher := &shared.Teacher{TeacherID: "T001", Name: "Dr. Mohamed Alami", Email: "mohamed.alami@univ.ma", Department: "Génie Logiciel"}
	require.NoError(t, e.Store.InsertTeacher(ctx, teacher))

	c := &shared.Course{CourseID: "C101", CourseName: "Algorithmique Avancée", CourseCode: "INFO101", Credits: 6, Semester: "S1", Teacher: &teacher.ID}
	require.NoError(t, e.Store.CreateCourse(ctx, c))

	hashed, err := auth.HashPassword("password123", 4)
	require.NoError(t, err)
	student := &shared.Student{StudentID: "S2024100", Name: "Omar Berrada", Email: "omar.berrada@student.univ.ma", Password: hashed, AcademicYear: "2025-2026"}
	require.NoError(t, e.Store.InsertStudent(ctx, student))
	require.NoError(t, e.Store.Enroll(ctx, student.ID, c.ID))

	return teacher, c, student
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}
