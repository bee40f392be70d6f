package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"student_tracking/backend/internal/shared"
)

// GradeRow is one line of a course grade report
type GradeRow struct {
	StudentID      string                `bson:"student_id"`
	StudentName    string                `bson:"student_name"`
	AssignmentType shared.AssignmentType `bson:"assignment_type"`
	Score          float64               `bson:"score"`
	MaxScore       float64               `bson:"max_score"`
	Percentage     float64               `bson:"percentage"`
	DateGraded     time.Time             `bson:"date_graded"`
}

// InsertGrade stores a new grade and fills in its id
func (s *Store) InsertGrade(ctx context.Context, grade *shared.Grade) error {
	id, err := insertOne(ctx, s.gradesCol, grade)
	if err != nil {
		return err
	}
	grade.ID = id
	return nil
}

// StudentGrades lists a student's grades with course and grader joined
func (s *Store) StudentGrades(ctx context.Context, id primitive.ObjectID) ([]shared.GradeDetail, error) {
	return aggregate[shared.GradeDetail](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "student", Value: id}}}},
		{{Key: "$sort", Value: bson.D{{Key: "date_graded", Value: -1}}}},
		lookupOne(shared.CoursesCollection, "course"),
		unwindOptional("$course"),
		lookupOne(shared.TeachersCollection, "graded_by"),
		unwindOptional("$graded_by"),
		{{Key: "$project", Value: bson.D{
			{Key: "grade_id", Value: 1},
			{Key: "student", Value: 1},
			{Key: "assignment_type", Value: 1},
			{Key: "score", Value: 1},
			{Key: "max_score", Value: 1},
			{Key: "percentage", Value: 1},
			{Key: "date_graded", Value: 1},
			{Key: "course._id", Value: 1},
			{Key: "course.course_name", Value: 1},
			{Key: "course.course_code", Value: 1},
			{Key: "course.credits", Value: 1},
			{Key: "graded_by._id", Value: 1},
			{Key: "graded_by.name", Value: 1},
		}}},
	})
}

// CourseGradeRows lists a course's grades with the student joined, ordered
// by student name then date.
func (s *Store) CourseGradeRows(ctx context.Context, id primitive.ObjectID) ([]GradeRow, error) {
	return aggregate[GradeRow](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "course", Value: id}}}},
		lookupOne(shared.StudentsCollection, "student"),
		{{Key: "$unwind", Value: "$student"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "student_id", Value: "$student.student_id"},
			{Key: "student_name", Value: "$student.name"},
			{Key: "assignment_type", Value: 1},
			{Key: "score", Value: 1},
			{Key: "max_score", Value: 1},
			{Key: "percentage", Value: 1},
			{Key: "date_graded", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "student_name", Value: 1}, {Key: "date_graded", Value: 1}}}},
	})
}

// ============================================================================
// Statistics
// ============================================================================

// GradeSummary returns count/avg/max/min of score over grades where field
// equals id, or nil when there are none. field is "student" or "course".
func (s *Store) GradeSummary(ctx context.Context, field string, id primitive.ObjectID) (*shared.Summary, error) {
	rows, err := aggregate[shared.Summary](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: id}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalGrades", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "averageScore", Value: bson.D{{Key: "$avg", Value: "$score"}}},
			{Key: "highestScore", Value: bson.D{{Key: "$max", Value: "$score"}}},
			{Key: "lowestScore", Value: bson.D{{Key: "$min", Value: "$score"}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// AverageByAssignmentType groups grades where field equals id by assignment type
func (s *Store) AverageByAssignmentType(ctx context.Context, field string, id primitive.ObjectID) ([]shared.Bucket, error) {
	return aggregate[shared.Bucket](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: id}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$assignment_type"},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$score"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
}

// StudentAverageByCourse groups a student's grades by course name
func (s *Store) StudentAverageByCourse(ctx context.Context, id primitive.ObjectID) ([]shared.Bucket, error) {
	return aggregate[shared.Bucket](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "student", Value: id}}}},
		lookupOne(shared.CoursesCollection, "course"),
		{{Key: "$unwind", Value: "$course"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course.course_name"},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$score"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
}

// CourseRanking averages each student's score in a course, best first
func (s *Store) CourseRanking(ctx context.Context, id primitive.ObjectID) ([]shared.RankEntry, error) {
	return aggregate[shared.RankEntry](ctx, s.gradesCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "course", Value: id}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$student"},
			{Key: "avgScore", Value: bson.D{{Key: "$avg", Value: "$score"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgScore", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: shared.StudentsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "studentInfo"},
		}}},
		{{Key: "$unwind", Value: "$studentInfo"}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: "$studentInfo.name"},
			{Key: "avgScore", Value: 1},
		}}},
	})
}

// lookupOne replaces a reference field with the joined documents
func lookupOne(from, field string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: field},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: field},
	}}}
}

func unwindOptional(path string) bson.D {
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: path},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}}
}
