package course

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Store is the persistence the course service needs
type Store interface {
	ListCourses(ctx context.Context) ([]shared.CourseDetail, error)
	FindCourseDetail(ctx context.Context, id primitive.ObjectID) (*shared.CourseDetail, error)
	CourseRoster(ctx context.Context, id primitive.ObjectID) ([]shared.RosterEntry, error)
	StudentCourses(ctx context.Context, studentID primitive.ObjectID) ([]shared.CourseDetail, error)
	TeacherCourses(ctx context.Context, teacherID primitive.ObjectID) ([]shared.Course, error)
}

// CourseService serves the course catalog and per-user course lists
type CourseService struct {
	store  Store
	logger *zap.Logger
}

// NewCourseService creates a new CourseService instance
func NewCourseService(st Store, logger *zap.Logger) *CourseService {
	return &CourseService{store: st, logger: logger}
}

// ListCourses returns the catalog with teacher names
func (s *CourseService) ListCourses(ctx context.Context) ([]shared.CourseDetail, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return nil, shared.NewInternalError("failed to list courses", err)
	}
	return courses, nil
}

// GetCourse returns one course with its teacher's name and email
func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*shared.CourseDetail, error) {
	id, err := shared.ParseID(courseID)
	if err != nil {
		return nil, err
	}
	course, err := s.store.FindCourseDetail(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Course not found")
	}
	return course, nil
}

// Roster lists the students enrolled in a course
func (s *CourseService) Roster(ctx context.Context, courseID string) ([]shared.RosterEntry, error) {
	id, err := shared.ParseID(courseID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.CourseRoster(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Course not found")
	}
	return roster, nil
}

// StudentCourses lists the courses a student is enrolled in
func (s *CourseService) StudentCourses(ctx context.Context, studentID string) ([]shared.CourseDetail, error) {
	id, err := shared.ParseID(studentID)
	if err != nil {
		return nil, err
	}
	courses, err := s.store.StudentCourses(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Student not found")
	}
	return courses, nil
}

// TeacherCourses lists the courses a teacher is assigned to
func (s *CourseService) TeacherCourses(ctx context.Context, teacherID string) ([]shared.Course, error) {
	id, err := shared.ParseID(teacherID)
	if err != nil {
		return nil, err
	}
	courses, err := s.store.TeacherCourses(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Teacher not found")
	}
	return courses, nil
}

func lookupError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return shared.NewNotFoundError(notFound)
	}
	return shared.NewInternalError("failed to load courses", err)
}
