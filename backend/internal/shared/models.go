// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ============================================================================
// Roles
// ============================================================================

// Role is the account kind embedded in every token
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole returns the Role named by s
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, true
	}
	return "", false
}

// ParseID parses a hex ObjectID from a path or body, failing with a
// validation error
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, NewValidationError("invalid id")
	}
	return id, nil
}

// ============================================================================
// User Models
// ============================================================================

// Student represents a student account
type Student struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	StudentID       string               `bson:"student_id" json:"student_id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"` // Never expose in JSON
	EnrolledCourses []primitive.ObjectID `bson:"enrolled_courses" json:"enrolled_courses"`
	AcademicYear    string               `bson:"academic_year" json:"academic_year"`
	CreatedAt       time.Time            `bson:"created_at" json:"created_at"`
}

// Teacher represents a teacher account
type Teacher struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	TeacherID       string               `bson:"teacher_id" json:"teacher_id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password" json:"-"`
	Department      string               `bson:"department" json:"department"`
	AssignedCourses []primitive.ObjectID `bson:"assigned_courses" json:"assigned_courses"`
}

// Admin represents an administrator account
type Admin struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"`
}

// ============================================================================
// Course Models
// ============================================================================

// Course represents a course offering
type Course struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	CourseID         string               `bson:"course_id" json:"course_id"`
	CourseName       string               `bson:"course_name" json:"course_name"`
	CourseCode       string               `bson:"course_code" json:"course_code"`
	Credits          int                  `bson:"credits" json:"credits"`
	Semester         string               `bson:"semester" json:"semester"`
	Teacher          *primitive.ObjectID  `bson:"teacher,omitempty" json:"teacher,omitempty"`
	EnrolledStudents []primitive.ObjectID `bson:"enrolled_students" json:"enrolled_students"`
}

// PersonRef is the projection of a joined student or teacher
type PersonRef struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
}

// CourseDetail is a course with its teacher joined in
type CourseDetail struct {
	ID               primitive.ObjectID   `bson:"_id" json:"_id"`
	CourseID         string               `bson:"course_id" json:"course_id"`
	CourseName       string               `bson:"course_name" json:"course_name"`
	CourseCode       string               `bson:"course_code" json:"course_code"`
	Credits          int                  `bson:"credits" json:"credits"`
	Semester         string               `bson:"semester" json:"semester"`
	Teacher          *PersonRef           `bson:"teacher,omitempty" json:"teacher,omitempty"`
	EnrolledStudents []primitive.ObjectID `bson:"enrolled_students" json:"enrolled_students"`
}

// RosterEntry is a student as listed on a course roster
type RosterEntry struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	StudentID string             `bson:"student_id" json:"student_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
}

// ============================================================================
// Grade Models
// ============================================================================

// AssignmentType classifies a grade record
type AssignmentType string

const (
	AssignmentExam          AssignmentType = "Exam"
	AssignmentQuiz          AssignmentType = "Quiz"
	AssignmentProject       AssignmentType = "Project"
	AssignmentHomework      AssignmentType = "Homework"
	AssignmentParticipation AssignmentType = "Participation"
)

// AssignmentTypes lists every accepted assignment type
var AssignmentTypes = []AssignmentType{
	AssignmentExam, AssignmentQuiz, AssignmentProject, AssignmentHomework, AssignmentParticipation,
}

// IsValidAssignmentType checks if t is one of AssignmentTypes
func IsValidAssignmentType(t string) bool {
	for _, at := range AssignmentTypes {
		if string(at) == t {
			return true
		}
	}
	return false
}

// DefaultMaxScore applies when a grade is recorded without a max score
const DefaultMaxScore = 20.0

// Grade is an append-only evaluation entry
type Grade struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	GradeID        string             `bson:"grade_id" json:"grade_id"`
	Student        primitive.ObjectID `bson:"student" json:"student"`
	Course         primitive.ObjectID `bson:"course" json:"course"`
	AssignmentType AssignmentType     `bson:"assignment_type" json:"assignment_type"`
	Score          float64            `bson:"score" json:"score"`
	MaxScore       float64            `bson:"max_score" json:"max_score"`
	Percentage     float64            `bson:"percentage" json:"percentage"`
	GradedBy       primitive.ObjectID `bson:"graded_by" json:"graded_by"`
	DateGraded     time.Time          `bson:"date_graded" json:"date_graded"`
}

// CourseRef is the course projection embedded in a grade listing
type CourseRef struct {
	ID         primitive.ObjectID `bson:"_id" json:"_id"`
	CourseName string             `bson:"course_name" json:"course_name"`
	CourseCode string             `bson:"course_code" json:"course_code"`
	Credits    int                `bson:"credits" json:"credits"`
}

// GradeDetail is a grade with its course and grader joined in
type GradeDetail struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	GradeID        string             `bson:"grade_id" json:"grade_id"`
	Student        primitive.ObjectID `bson:"student" json:"student"`
	Course         *CourseRef         `bson:"course,omitempty" json:"course"`
	AssignmentType AssignmentType     `bson:"assignment_type" json:"assignment_type"`
	Score          float64            `bson:"score" json:"score"`
	MaxScore       float64            `bson:"max_score" json:"max_score"`
	Percentage     float64            `bson:"percentage" json:"percentage"`
	GradedBy       *PersonRef         `bson:"graded_by,omitempty" json:"graded_by"`
	DateGraded     time.Time          `bson:"date_graded" json:"date_graded"`
}

// ============================================================================
// Statistics Models
// ============================================================================

// Summary is the overall count/average/max/min over a grade set
type Summary struct {
	TotalGrades  int     `bson:"totalGrades" json:"totalGrades"`
	AverageScore float64 `bson:"averageScore" json:"averageScore"`
	HighestScore float64 `bson:"highestScore" json:"highestScore"`
	LowestScore  float64 `bson:"lowestScore" json:"lowestScore"`
}

// Overall encodes as {} when the grade set is empty
type Overall struct {
	*Summary
}

// Empty reports whether the grade set had no records
func (o Overall) Empty() bool {
	return o.Summary == nil
}

// Bucket is one group of a group-by aggregation
type Bucket struct {
	Key     string  `bson:"_id" json:"_id"`
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// RankEntry is one row of a course ranking
type RankEntry struct {
	StudentID primitive.ObjectID `bson:"_id" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	AvgScore  float64            `bson:"avgScore" json:"avgScore"`
}

// StudentStatistics is the per-student statistics view
type StudentStatistics struct {
	Overall          Overall  `json:"overall"`
	ByCourse         []Bucket `json:"byCourse"`
	ByAssignmentType []Bucket `json:"byAssignmentType"`
}

// CourseStatistics is the per-course statistics view
type CourseStatistics struct {
	Overall        Overall     `json:"overall"`
	ByAssignment   []Bucket    `json:"byAssignment"`
	StudentRanking []RankEntry `json:"studentRanking"`
}
