package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"student_tracking/backend/internal/shared"
)

// ============================================================================
// Students
// ============================================================================

// FindStudentByID loads a student record
func (s *Store) FindStudentByID(ctx context.Context, id primitive.ObjectID) (*shared.Student, error) {
	var student shared.Student
	if err := findOne(ctx, s.studentsCol, bson.M{"_id": id}, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindStudentByEmail loads a student record by login email
func (s *Store) FindStudentByEmail(ctx context.Context, email string) (*shared.Student, error) {
	var student shared.Student
	if err := findOne(ctx, s.studentsCol, bson.M{"email": email}, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// InsertStudent stores a new student and fills in its id
func (s *Store) InsertStudent(ctx context.Context, student *shared.Student) error {
	if student.EnrolledCourses == nil {
		student.EnrolledCourses = []primitive.ObjectID{}
	}
	id, err := insertOne(ctx, s.studentsCol, student)
	if err != nil {
		return err
	}
	student.ID = id
	return nil
}

// ListStudents returns every student ordered by name
func (s *Store) ListStudents(ctx context.Context) ([]shared.Student, error) {
	return findAll[shared.Student](ctx, s.studentsCol, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// StudentEmailTaken checks the students collection for email
func (s *Store) StudentEmailTaken(ctx context.Context, email string) (bool, error) {
	return exists(ctx, s.studentsCol, bson.M{"email": email})
}

// StudentIDTaken checks the students collection for an external id
func (s *Store) StudentIDTaken(ctx context.Context, studentID string) (bool, error) {
	return exists(ctx, s.studentsCol, bson.M{"student_id": studentID})
}

// StudentCourses returns the courses a student is enrolled in, teacher joined
func (s *Store) StudentCourses(ctx context.Context, id primitive.ObjectID) ([]shared.CourseDetail, error) {
	student, err := s.FindStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(student.EnrolledCourses) == 0 {
		return []shared.CourseDetail{}, nil
	}
	return aggregate[shared.CourseDetail](ctx, s.coursesCol,
		courseDetailPipeline(bson.D{{Key: "_id", Value: bson.M{"$in": student.EnrolledCourses}}}))
}

// DeleteStudent removes a student, pulls them from every course roster and
// deletes their grades, all in one transaction.
func (s *Store) DeleteStudent(ctx context.Context, id primitive.ObjectID) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.studentsCol.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}

		if _, err := s.coursesCol.UpdateMany(sessCtx,
			bson.M{"enrolled_students": id},
			bson.M{"$pull": bson.M{"enrolled_students": id}},
		); err != nil {
			return fmt.Errorf("pull student from courses: %w", err)
		}

		if _, err := s.gradesCol.DeleteMany(sessCtx, bson.M{"student": id}); err != nil {
			return fmt.Errorf("delete student grades: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Teachers
// ============================================================================

// FindTeacherByID loads a teacher record
func (s *Store) FindTeacherByID(ctx context.Context, id primitive.ObjectID) (*shared.Teacher, error) {
	var teacher shared.Teacher
	if err := findOne(ctx, s.teachersCol, bson.M{"_id": id}, &teacher); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindTeacherByEmail loads a teacher record by login email
func (s *Store) FindTeacherByEmail(ctx context.Context, email string) (*shared.Teacher, error) {
	var teacher shared.Teacher
	if err := findOne(ctx, s.teachersCol, bson.M{"email": email}, &teacher); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// InsertTeacher stores a new teacher and fills in its id
func (s *Store) InsertTeacher(ctx context.Context, teacher *shared.Teacher) error {
	if teacher.AssignedCourses == nil {
		teacher.AssignedCourses = []primitive.ObjectID{}
	}
	id, err := insertOne(ctx, s.teachersCol, teacher)
	if err != nil {
		return err
	}
	teacher.ID = id
	return nil
}

// ListTeachers returns every teacher ordered by name
func (s *Store) ListTeachers(ctx context.Context) ([]shared.Teacher, error) {
	return findAll[shared.Teacher](ctx, s.teachersCol, bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// TeacherEmailTaken checks the teachers collection for email
func (s *Store) TeacherEmailTaken(ctx context.Context, email string) (bool, error) {
	return exists(ctx, s.teachersCol, bson.M{"email": email})
}

// TeacherIDTaken checks the teachers collection for an external id
func (s *Store) TeacherIDTaken(ctx context.Context, teacherID string) (bool, error) {
	return exists(ctx, s.teachersCol, bson.M{"teacher_id": teacherID})
}

// TeacherCourses returns the courses assigned to a teacher
func (s *Store) TeacherCourses(ctx context.Context, id primitive.ObjectID) ([]shared.Course, error) {
	teacher, err := s.FindTeacherByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(teacher.AssignedCourses) == 0 {
		return []shared.Course{}, nil
	}
	return findAll[shared.Course](ctx, s.coursesCol, bson.M{"_id": bson.M{"$in": teacher.AssignedCourses}},
		options.Find().SetSort(bson.D{{Key: "course_code", Value: 1}}))
}

// DeleteTeacher removes a teacher and unsets them on the courses they teach
func (s *Store) DeleteTeacher(ctx context.Context, id primitive.ObjectID) error {
	return shared.WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) error {
		res, err := s.teachersCol.DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("delete teacher: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}

		if _, err := s.coursesCol.UpdateMany(sessCtx,
			bson.M{"teacher": id},
			bson.M{"$unset": bson.M{"teacher": ""}},
		); err != nil {
			return fmt.Errorf("unset course teacher: %w", err)
		}
		return nil
	})
}

// ============================================================================
// Admins
// ============================================================================

// FindAdminByID loads an admin record
func (s *Store) FindAdminByID(ctx context.Context, id primitive.ObjectID) (*shared.Admin, error) {
	var admin shared.Admin
	if err := findOne(ctx, s.adminsCol, bson.M{"_id": id}, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindAdminByEmail loads an admin record by login email
func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*shared.Admin, error) {
	var admin shared.Admin
	if err := findOne(ctx, s.adminsCol, bson.M{"email": email}, &admin); err != nil {
		return nil, err
	}
	return &admin, nil
}

// InsertAdmin stores a new admin and fills in its id
func (s *Store) InsertAdmin(ctx context.Context, admin *shared.Admin) error {
	id, err := insertOne(ctx, s.adminsCol, admin)
	if err != nil {
		return err
	}
	admin.ID = id
	return nil
}
