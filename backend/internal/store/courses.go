package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"student_tracking/backend/internal/shared"
)

// courseDetailPipeline matches courses and joins the teacher's _id and name,
// plus any extra teacher fields asked for.
func courseDetailPipeline(match bson.D, teacherFields ...string) mongo.Pipeline {
	project := bson.D{
		{Key: "course_id", Value: 1},
		{Key: "course_name", Value: 1},
		{Key: "course_code", Value: 1},
		{Key: "credits", Value: 1},
		{Key: "semester", Value: 1},
		{Key: "enrolled_students", Value: 1},
		{Key: "teacher._id", Value: 1},
		{Key: "teacher.name", Value: 1},
	}
	for _, f := range teacherFields {
		project = append(project, bson.E{Key: "teacher." + f, Value: 1})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: shared.TeachersCollection},
			{Key: "localField", Value: "teacher"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "teacher"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$teacher"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: project}},
		{{Key: "$sort", Value: bson.D{{Key: "course_code", Value: 1}}}},
	}
}

// ListCourses returns every course with its teacher joined
func (s *Store) ListCourses(ctx context.Context) ([]shared.CourseDetail, error) {
	return aggregate[shared.CourseDetail](ctx, s.coursesCol, courseDetailPipeline(bson.D{}))
}

// FindCourseByID loads a course record
func (s *Store) FindCourseByID(ctx context.Context, id primitive.ObjectID) (*shared.Course, error) {
	var course shared.Course
	if err := findOne(ctx, s.coursesCol, bson.M{"_id": id}, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindCourseDetail loads a course with its teacher joined
func (s *Store) FindCourseDetail(ctx context.Context, id primitive.ObjectID) (*shared.CourseDetail, error) {
	courses, err := aggregate[shared.CourseDetail](ctx, s.coursesCol,
		courseDetailPipeline(bson.D{{Key: "_id", Value: id}}, "email"))
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, ErrNotFound
	}
	return &courses[0], nil
}

// CourseIDTaken checks the courses collection for an external id
func (s *Store) CourseIDTaken(ctx context.Context, courseID string) (bool, error) {
	return exists(ctx, s.coursesCol, bson.M{"course_id": courseID})
}

// CourseCodeTaken checks the courses collection for a course code
func (s *Store) CourseCodeTaken(ctx context.Context, code string) (bool, error) {
	return exists(ctx, s.coursesCol, bson.M{"course_code": code})
}

// CreateCourse inserts a course and, when it names a teacher, adds it to the
// teacher's assigned courses in the same transaction. A missing teacher
// aborts the insert with ErrNotFound.
func (s *Store) CreateCourse(ctx context.Context, course *shared.Course) error {
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = []primitive.ObjectID{}
	}

	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.coursesCol.InsertOne(sessCtx, course)
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		id, _ := res.InsertedID.(primitive.ObjectID)

		if course.Teacher != nil {
			upd, err := s.teachersCol.UpdateOne(sessCtx,
				bson.M{"_id": *course.Teacher},
				bson.M{"$addToSet": bson.M{"assigned_courses": id}},
			)
			if err != nil {
				return fmt.Errorf("assign course to teacher: %w", err)
			}
			if upd.MatchedCount == 0 {
				return ErrNotFound
			}
		}

		course.ID = id
		return nil
	})
}

// CourseRoster returns the students enrolled in a course
func (s *Store) CourseRoster(ctx context.Context, id primitive.ObjectID) ([]shared.RosterEntry, error) {
	course, err := s.FindCourseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(course.EnrolledStudents) == 0 {
		return []shared.RosterEntry{}, nil
	}
	return aggregate[shared.RosterEntry](ctx, s.studentsCol, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: bson.M{"$in": course.EnrolledStudents}}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "student_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "email", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
	})
}

// DeleteCourse removes a course, pulls it from every student's and teacher's
// course list and deletes its grades, all in one transaction.
func (s *Store) DeleteCourse(ctx context.Context, id primitive.ObjectID) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.coursesCol.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}

		if _, err := s.studentsCol.UpdateMany(sessCtx,
			bson.M{"enrolled_courses": id},
			bson.M{"$pull": bson.M{"enrolled_courses": id}},
		); err != nil {
			return fmt.Errorf("pull course from students: %w", err)
		}

		if _, err := s.teachersCol.UpdateMany(sessCtx,
			bson.M{"assigned_courses": id},
			bson.M{"$pull": bson.M{"assigned_courses": id}},
		); err != nil {
			return fmt.Errorf("pull course from teachers: %w", err)
		}

		if _, err := s.gradesCol.DeleteMany(sessCtx, bson.M{"course": id}); err != nil {
			return fmt.Errorf("delete course grades: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Enrollment
// ============================================================================

// Enroll links a student and a course on both sides inside one transaction.
// The student-side update only matches when the course is not yet listed, so
// a repeated or concurrent request gets ErrAlreadyEnrolled and writes nothing.
func (s *Store) Enroll(ctx context.Context, studentID, courseID primitive.ObjectID) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		var course bson.M
		err := s.coursesCol.FindOne(sessCtx, bson.M{"_id": courseID}).Decode(&course)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find course: %w", err)
		}

		res, err := s.studentsCol.UpdateOne(sessCtx,
			bson.M{"_id": studentID, "enrolled_courses": bson.M{"$ne": courseID}},
			bson.M{"$addToSet": bson.M{"enrolled_courses": courseID}},
		)
		if err != nil {
			return fmt.Errorf("add course to student: %w", err)
		}
		if res.MatchedCount == 0 {
			found, err := s.studentsCol.CountDocuments(sessCtx, bson.M{"_id": studentID})
			if err != nil {
				return fmt.Errorf("find student: %w", err)
			}
			if found == 0 {
				return ErrNotFound
			}
			return ErrAlreadyEnrolled
		}

		if _, err := s.coursesCol.UpdateOne(sessCtx,
			bson.M{"_id": courseID},
			bson.M{"$addToSet": bson.M{"enrolled_students": studentID}},
		); err != nil {
			return fmt.Errorf("add student to course: %w", err)
		}
		return nil
	})
}
