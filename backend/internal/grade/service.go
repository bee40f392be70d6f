package grade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Store is the persistence the grade service needs
type Store interface {
	FindCourseByID(ctx context.Context, id primitive.ObjectID) (*shared.Course, error)
	FindStudentByID(ctx context.Context, id primitive.ObjectID) (*shared.Student, error)

	InsertGrade(ctx context.Context, grade *shared.Grade) error
	StudentGrades(ctx context.Context, studentID primitive.ObjectID) ([]shared.GradeDetail, error)
	CourseGradeRows(ctx context.Context, courseID primitive.ObjectID) ([]store.GradeRow, error)

	GradeSummary(ctx context.Context, field string, id primitive.ObjectID) (*shared.Summary, error)
	AverageByAssignmentType(ctx context.Context, field string, id primitive.ObjectID) ([]shared.Bucket, error)
	StudentAverageByCourse(ctx context.Context, studentID primitive.ObjectID) ([]shared.Bucket, error)
	CourseRanking(ctx context.Context, courseID primitive.ObjectID) ([]shared.RankEntry, error)
}

// GradeService records grades and computes the statistics views
type GradeService struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewGradeService creates a new GradeService instance
func NewGradeService(st Store, logger *zap.Logger) *GradeService {
	return &GradeService{store: st, now: time.Now, logger: logger}
}

// AddGradeRequest is the body of POST /courses/{id}/grades
type AddGradeRequest struct {
	StudentID      string   `json:"studentId" validate:"required,mongodb"`
	AssignmentType string   `json:"assignmentType" validate:"required,assignment_type"`
	Score          *float64 `json:"score" validate:"required,gte=0"`
	MaxScore       *float64 `json:"maxScore" validate:"omitempty,gt=0"`
}

// ============================================================================
// Recording
// ============================================================================

// AddGrade records one grade for a student in a course, graded by teacherID
func (s *GradeService) AddGrade(ctx context.Context, courseHex string, teacherID primitive.ObjectID, req AddGradeRequest) (*shared.Grade, error) {
	courseID, err := shared.ParseID(courseHex)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.FindCourseByID(ctx, courseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NewNotFoundError("Course not found")
		}
		return nil, shared.NewInternalError("failed to load course", err)
	}

	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	maxScore := shared.DefaultMaxScore
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	score := *req.Score
	if score > maxScore {
		return nil, shared.NewValidationError(fmt.Sprintf("score cannot exceed maxScore (%g)", maxScore))
	}

	studentID, _ := primitive.ObjectIDFromHex(req.StudentID)
	if _, err := s.store.FindStudentByID(ctx, studentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NewNotFoundError("Student not found")
		}
		return nil, shared.NewInternalError("failed to load student", err)
	}

	grade := &shared.Grade{
		Student:        studentID,
		Course:         courseID,
		AssignmentType: shared.AssignmentType(req.AssignmentType),
		Score:          score,
		MaxScore:       maxScore,
		Percentage:     Percentage(score, maxScore),
		GradedBy:       teacherID,
	}

	// grade ids are millisecond timestamps; a collision waits out the tick
	backoff := retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		now := s.now().UTC()
		grade.GradeID = fmt.Sprintf("G%d", now.UnixMilli())
		grade.DateGraded = now
		if err := s.store.InsertGrade(ctx, grade); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, shared.NewInternalError("failed to record grade", err)
	}

	s.logger.Info("grade recorded",
		zap.String("grade_id", grade.GradeID),
		zap.String("course", courseHex),
		zap.String("student", req.StudentID),
		zap.Float64("percentage", grade.Percentage))
	return grade, nil
}

// Percentage converts a score to a percentage of maxScore
func Percentage(score, maxScore float64) float64 {
	return score / maxScore * 100
}

// ============================================================================
// Listing
// ============================================================================

// StudentGrades lists a student's grades, newest first
func (s *GradeService) StudentGrades(ctx context.Context, studentHex string) ([]shared.GradeDetail, error) {
	id, err := shared.ParseID(studentHex)
	if err != nil {
		return nil, err
	}
	grades, err := s.store.StudentGrades(ctx, id)
	if err != nil {
		return nil, shared.NewInternalError("failed to load grades", err)
	}
	return grades, nil
}

// ============================================================================
// Statistics
// ============================================================================

// StudentStatistics runs the three student aggregations concurrently
func (s *GradeService) StudentStatistics(ctx context.Context, studentHex string) (*shared.StudentStatistics, error) {
	id, err := shared.ParseID(studentHex)
	if err != nil {
		return nil, err
	}

	stats := &shared.StudentStatistics{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.store.GradeSummary(gctx, "student", id)
		stats.Overall = shared.Overall{Summary: sum}
		return err
	})
	g.Go(func() error {
		buckets, err := s.store.StudentAverageByCourse(gctx, id)
		stats.ByCourse = nonNil(buckets)
		return err
	})
	g.Go(func() error {
		buckets, err := s.store.AverageByAssignmentType(gctx, "student", id)
		stats.ByAssignmentType = nonNil(buckets)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("student statistics failed", zap.String("student", studentHex), zap.Error(err))
		return nil, shared.NewInternalError("failed to compute statistics", err)
	}
	return stats, nil
}

// CourseStatistics runs the three course aggregations concurrently
func (s *GradeService) CourseStatistics(ctx context.Context, courseHex string) (*shared.CourseStatistics, error) {
	id, err := shared.ParseID(courseHex)
	if err != nil {
		return nil, err
	}

	stats := &shared.CourseStatistics{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.store.GradeSummary(gctx, "course", id)
		stats.Overall = shared.Overall{Summary: sum}
		return err
	})
	g.Go(func() error {
		buckets, err := s.store.AverageByAssignmentType(gctx, "course", id)
		stats.ByAssignment = nonNil(buckets)
		return err
	})
	g.Go(func() error {
		ranking, err := s.store.CourseRanking(gctx, id)
		if ranking == nil {
			ranking = []shared.RankEntry{}
		}
		stats.StudentRanking = ranking
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("course statistics failed", zap.String("course", courseHex), zap.Error(err))
		return nil, shared.NewInternalError("failed to compute statistics", err)
	}
	return stats, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func nonNil(b []shared.Bucket) []shared.Bucket {
	if b == nil {
		return []shared.Bucket{}
	}
	return b
}
