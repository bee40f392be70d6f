package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"student_tracking/backend/internal/shared"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestGradeSummary(t *testing.T) {
	mt := newMock(t)

	mt.Run("summary of a non-empty set", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "totalGrades", Value: int32(3)},
			{Key: "averageScore", Value: 14.0},
			{Key: "highestScore", Value: int32(18)},
			{Key: "lowestScore", Value: 10.5},
		}))

		summary, err := s.GradeSummary(context.Background(), "student", primitive.NewObjectID())
		require.NoError(mt, err)
		require.NotNil(mt, summary)
		assert.Equal(mt, 3, summary.TotalGrades)
		assert.InDelta(mt, 14.0, summary.AverageScore, 1e-9)
		assert.InDelta(mt, 18.0, summary.HighestScore, 1e-9)
		assert.InDelta(mt, 10.5, summary.LowestScore, 1e-9)
	})

	mt.Run("empty set yields nil", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch))

		summary, err := s.GradeSummary(context.Background(), "course", primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Nil(mt, summary)
	})
}

func TestCourseRanking(t *testing.T) {
	mt := newMock(t)

	mt.Run("decodes ranking rows in order", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: first}, {Key: "name", Value: "Yasmine Alaoui"}, {Key: "avgScore", Value: 17.5}},
			bson.D{{Key: "_id", Value: second}, {Key: "name", Value: "Omar Berrada"}, {Key: "avgScore", Value: 12.0}},
		))

		ranking, err := s.CourseRanking(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, ranking, 2)
		assert.Equal(mt, first, ranking[0].StudentID)
		assert.Equal(mt, "Yasmine Alaoui", ranking[0].Name)
		assert.Equal(mt, "Omar Berrada", ranking[1].Name)
	})
}

func TestAverageByAssignmentType(t *testing.T) {
	mt := newMock(t)

	mt.Run("decodes buckets", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "Exam"}, {Key: "average", Value: 13.25}, {Key: "count", Value: int32(4)}},
		))

		buckets, err := s.AverageByAssignmentType(context.Background(), "student", primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, buckets, 1)
		assert.Equal(mt, "Exam", buckets[0].Key)
		assert.Equal(mt, 4, buckets[0].Count)
	})

	mt.Run("no grades gives an empty slice", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch))

		buckets, err := s.AverageByAssignmentType(context.Background(), "course", primitive.NewObjectID())
		require.NoError(mt, err)
		assert.NotNil(mt, buckets)
		assert.Empty(mt, buckets)
	})
}

func TestFindStudentByID(t *testing.T) {
	mt := newMock(t)

	mt.Run("found", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.students", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "student_id", Value: "S2024101"},
			{Key: "name", Value: "Omar Berrada"},
			{Key: "email", Value: "omar.berrada@student.univ.ma"},
			{Key: "password", Value: "$2a$10$hash"},
			{Key: "enrolled_courses", Value: bson.A{}},
		}))

		student, err := s.FindStudentByID(context.Background(), id)
		require.NoError(mt, err)
		assert.Equal(mt, id, student.ID)
		assert.Equal(mt, "S2024101", student.StudentID)
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.students", mtest.FirstBatch))

		_, err := s.FindStudentByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestInsertStudent(t *testing.T) {
	mt := newMock(t)

	mt.Run("assigns an id", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		student := &shared.Student{Name: "Omar Berrada", Email: "omar.berrada@student.univ.ma"}
		require.NoError(mt, s.InsertStudent(context.Background(), student))
		assert.False(mt, student.ID.IsZero())
		assert.NotNil(mt, student.EnrolledCourses)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.students index: email_1",
		}))

		err := s.InsertStudent(context.Background(), &shared.Student{Email: "omar.berrada@student.univ.ma"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestStudentCourses(t *testing.T) {
	mt := newMock(t)

	mt.Run("joins the teacher name", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		studentID, courseID, teacherID := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.students", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: studentID},
				{Key: "enrolled_courses", Value: bson.A{courseID}},
			}),
			mtest.CreateCursorResponse(0, "test.courses", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: courseID},
				{Key: "course_id", Value: "C101"},
				{Key: "course_name", Value: "Algorithmique"},
				{Key: "course_code", Value: "INF101"},
				{Key: "credits", Value: int32(4)},
				{Key: "semester", Value: "S1"},
				{Key: "teacher", Value: bson.D{{Key: "_id", Value: teacherID}, {Key: "name", Value: "Dr. Ahmed Benali"}}},
			}),
		)

		courses, err := s.StudentCourses(context.Background(), studentID)
		require.NoError(mt, err)
		require.Len(mt, courses, 1)
		require.NotNil(mt, courses[0].Teacher)
		assert.Equal(mt, "Dr. Ahmed Benali", courses[0].Teacher.Name)
		assert.Equal(mt, 4, courses[0].Credits)
	})

	mt.Run("no enrollments skips the course query", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.students", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "enrolled_courses", Value: bson.A{}},
		}))

		courses, err := s.StudentCourses(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Empty(mt, courses)
	})
}

func TestStudentGrades(t *testing.T) {
	mt := newMock(t)

	mt.Run("populated course and grader", func(mt *mtest.T) {
		s := New(mt.Client, mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.grades", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "grade_id", Value: "G1700000000000"},
			{Key: "assignment_type", Value: "Quiz"},
			{Key: "score", Value: 15.0},
			{Key: "max_score", Value: 20.0},
			{Key: "percentage", Value: 75.0},
			{Key: "course", Value: bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "course_name", Value: "Algorithmique"},
				{Key: "course_code", Value: "INF101"},
				{Key: "credits", Value: int32(4)},
			}},
			{Key: "graded_by", Value: bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "name", Value: "Dr. Ahmed Benali"},
			}},
		}))

		grades, err := s.StudentGrades(context.Background(), primitive.NewObjectID())
		require.NoError(mt, err)
		require.Len(mt, grades, 1)
		assert.Equal(mt, shared.AssignmentQuiz, grades[0].AssignmentType)
		assert.Equal(mt, "INF101", grades[0].Course.CourseCode)
		assert.Equal(mt, "Dr. Ahmed Benali", grades[0].GradedBy.Name)
	})
}
