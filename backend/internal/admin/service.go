package admin

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"student_tracking/backend/internal/auth"
	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Store is the persistence the admin service needs
type Store interface {
	ListStudents(ctx context.Context) ([]shared.Student, error)
	InsertStudent(ctx context.Context, student *shared.Student) error
	StudentEmailTaken(ctx context.Context, email string) (bool, error)
	StudentIDTaken(ctx context.Context, studentID string) (bool, error)
	DeleteStudent(ctx context.Context, id primitive.ObjectID) error

	ListTeachers(ctx context.Context) ([]shared.Teacher, error)
	InsertTeacher(ctx context.Context, teacher *shared.Teacher) error
	TeacherEmailTaken(ctx context.Context, email string) (bool, error)
	TeacherIDTaken(ctx context.Context, teacherID string) (bool, error)
	DeleteTeacher(ctx context.Context, id primitive.ObjectID) error

	CreateCourse(ctx context.Context, course *shared.Course) error
	CourseIDTaken(ctx context.Context, courseID string) (bool, error)
	CourseCodeTaken(ctx context.Context, code string) (bool, error)
	CourseRoster(ctx context.Context, id primitive.ObjectID) ([]shared.RosterEntry, error)
	DeleteCourse(ctx context.Context, id primitive.ObjectID) error

	Enroll(ctx context.Context, studentID, courseID primitive.ObjectID) error
}

// AdminService implements account, course and enrollment administration
type AdminService struct {
	store       Store
	credentials *CredentialGenerator
	accounts    shared.AccountConfig
	bcryptCost  int
	logger      *zap.Logger
}

// NewAdminService creates a new AdminService instance
func NewAdminService(st Store, config *shared.ServiceConfig, logger *zap.Logger) *AdminService {
	return &AdminService{
		store:       st,
		credentials: NewCredentialGenerator(config.Accounts.CredentialAttempts),
		accounts:    config.Accounts,
		bcryptCost:  config.Security.BCryptCost,
		logger:      logger,
	}
}

// ============================================================================
// Requests
// ============================================================================

type CreateStudentRequest struct {
	Name         string `json:"name" validate:"required,notblank"`
	AcademicYear string `json:"academic_year"`
}

type CreateTeacherRequest struct {
	Name       string `json:"name" validate:"required,notblank"`
	Department string `json:"department" validate:"required,notblank"`
}

type CreateCourseRequest struct {
	CourseName string `json:"course_name" validate:"required,notblank"`
	CourseCode string `json:"course_code" validate:"required,notblank"`
	Credits    int    `json:"credits" validate:"required,min=1,max=30"`
	Semester   string `json:"semester" validate:"required,notblank"`
	TeacherID  string `json:"teacherId" validate:"omitempty,mongodb"`
}

type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// ============================================================================
// Listing
// ============================================================================

// ListStudents returns every student; passwords never serialize
func (s *AdminService) ListStudents(ctx context.Context) ([]shared.Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, shared.NewInternalError("failed to list students", err)
	}
	return students, nil
}

// ListTeachers returns every teacher; passwords never serialize
func (s *AdminService) ListTeachers(ctx context.Context) ([]shared.Teacher, error) {
	teachers, err := s.store.ListTeachers(ctx)
	if err != nil {
		return nil, shared.NewInternalError("failed to list teachers", err)
	}
	return teachers, nil
}

// CourseRoster lists the students enrolled in a course
func (s *AdminService) CourseRoster(ctx context.Context, courseID string) ([]shared.RosterEntry, error) {
	id, err := shared.ParseID(courseID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.CourseRoster(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, shared.NewNotFoundError("Course not found")
	}
	if err != nil {
		return nil, shared.NewInternalError("failed to load roster", err)
	}
	return roster, nil
}

// ============================================================================
// Account Creation
// ============================================================================

// CreateStudent creates a student with generated credentials and the
// placeholder password
func (s *AdminService) CreateStudent(ctx context.Context, req CreateStudentRequest) (*shared.Student, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(s.accounts.DefaultPassword, s.bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError("failed to process password", err)
	}

	year := req.AcademicYear
	if year == "" {
		year = s.accounts.AcademicYear
	}

	var student *shared.Student
	creds, err := s.credentials.Issue(ctx, shared.RoleStudent, req.Name,
		s.store.StudentEmailTaken, s.store.StudentIDTaken,
		func(ctx context.Context, c Credentials) error {
			student = &shared.Student{
				StudentID:    c.ExternalID,
				Name:         strings.TrimSpace(req.Name),
				Email:        c.Email,
				Password:     hashed,
				AcademicYear: year,
				CreatedAt:    time.Now().UTC(),
			}
			return s.store.InsertStudent(ctx, student)
		})
	if err != nil {
		return nil, asAppError(err, "failed to create student")
	}

	s.logger.Info("student created",
		zap.String("student_id", creds.ExternalID),
		zap.String("email", creds.Email))
	return student, nil
}

// CreateTeacher creates a teacher with generated credentials and the
// placeholder password
func (s *AdminService) CreateTeacher(ctx context.Context, req CreateTeacherRequest) (*shared.Teacher, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(s.accounts.DefaultPassword, s.bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError("failed to process password", err)
	}

	var teacher *shared.Teacher
	creds, err := s.credentials.Issue(ctx, shared.RoleTeacher, req.Name,
		s.store.TeacherEmailTaken, s.store.TeacherIDTaken,
		func(ctx context.Context, c Credentials) error {
			teacher = &shared.Teacher{
				TeacherID:  c.ExternalID,
				Name:       strings.TrimSpace(req.Name),
				Email:      c.Email,
				Password:   hashed,
				Department: strings.TrimSpace(req.Department),
			}
			return s.store.InsertTeacher(ctx, teacher)
		})
	if err != nil {
		return nil, asAppError(err, "failed to create teacher")
	}

	s.logger.Info("teacher created",
		zap.String("teacher_id", creds.ExternalID),
		zap.String("email", creds.Email))
	return teacher, nil
}

// ============================================================================
// Courses
// ============================================================================

// CreateCourse creates a course with a generated course id, assigning it to
// the named teacher in the same transaction
func (s *AdminService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*shared.Course, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(req.CourseCode)
	taken, err := s.store.CourseCodeTaken(ctx, code)
	if err != nil {
		return nil, shared.NewInternalError("failed to check course code", err)
	}
	if taken {
		return nil, shared.NewConflictError("Course code already exists")
	}

	var teacher *primitive.ObjectID
	if req.TeacherID != "" {
		id, _ := primitive.ObjectIDFromHex(req.TeacherID)
		teacher = &id
	}

	var course *shared.Course
	err = retry.Do(ctx, s.credentials.backoff(), func(ctx context.Context) error {
		courseID := fmt.Sprintf("C%04d", rand.IntN(10000))
		if taken, err := s.store.CourseIDTaken(ctx, courseID); err != nil {
			return err
		} else if taken {
			return retry.RetryableError(errCredentialsTaken)
		}

		course = &shared.Course{
			CourseID:   courseID,
			CourseName: strings.TrimSpace(req.CourseName),
			CourseCode: code,
			Credits:    req.Credits,
			Semester:   strings.TrimSpace(req.Semester),
			Teacher:    teacher,
		}
		if err := s.store.CreateCourse(ctx, course); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return retry.RetryableError(errCredentialsTaken)
			}
			return err
		}
		return nil
	})

	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, shared.NewNotFoundError("Teacher not found")
	case errors.Is(err, errCredentialsTaken):
		return nil, shared.NewConflictError("Could not allocate a course id, try again")
	case err != nil:
		return nil, shared.NewInternalError("failed to create course", err)
	}

	s.logger.Info("course created",
		zap.String("course_id", course.CourseID),
		zap.String("course_code", course.CourseCode))
	return course, nil
}

// DeleteCourse removes a course and every reference to it
func (s *AdminService) DeleteCourse(ctx context.Context, courseID string) error {
	id, err := shared.ParseID(courseID)
	if err != nil {
		return err
	}
	err = s.store.DeleteCourse(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return shared.NewNotFoundError("Course not found")
	}
	if err != nil {
		return shared.NewInternalError("failed to delete course", err)
	}
	s.logger.Info("course deleted", zap.String("id", courseID))
	return nil
}

// ============================================================================
// Enrollment
// ============================================================================

// Enroll adds a student to a course. Repeating it returns a Conflict.
func (s *AdminService) Enroll(ctx context.Context, req EnrollRequest) error {
	if req.StudentID == "" || req.CourseID == "" {
		return shared.NewValidationError("Please provide studentId and courseId")
	}
	studentID, err := shared.ParseID(req.StudentID)
	if err != nil {
		return err
	}
	courseID, err := shared.ParseID(req.CourseID)
	if err != nil {
		return err
	}

	err = s.store.Enroll(ctx, studentID, courseID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return shared.NewNotFoundError("Student or Course not found")
	case errors.Is(err, store.ErrAlreadyEnrolled):
		return shared.NewConflictError("Student already enrolled")
	case err != nil:
		return shared.NewInternalError("failed to enroll student", err)
	}

	s.logger.Info("student enrolled",
		zap.String("student", req.StudentID),
		zap.String("course", req.CourseID))
	return nil
}

// ============================================================================
// Deletion
// ============================================================================

// DeleteUser removes a student or teacher and cleans up references to them
func (s *AdminService) DeleteUser(ctx context.Context, userType, userID string) error {
	if err := shared.Validate.Var(userType, "user_type"); err != nil {
		return shared.NewValidationError("Invalid user type")
	}
	id, err := shared.ParseID(userID)
	if err != nil {
		return err
	}

	switch shared.Role(userType) {
	case shared.RoleStudent:
		err = s.store.DeleteStudent(ctx, id)
	case shared.RoleTeacher:
		err = s.store.DeleteTeacher(ctx, id)
	}

	if errors.Is(err, store.ErrNotFound) {
		return shared.NewNotFoundError("User not found")
	}
	if err != nil {
		return shared.NewInternalError("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("type", userType), zap.String("id", userID))
	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// asAppError keeps typed errors and wraps anything else as internal
func asAppError(err error, message string) error {
	var appErr *shared.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return shared.NewInternalError(message, err)
}
