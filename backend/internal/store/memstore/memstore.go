// Package memstore is an in-memory stand-in for store.Store, used by tests
// and local runs without MongoDB. It mirrors the store's error contract.
package memstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Store keeps every collection in maps guarded by one lock
type Store struct {
	mu       sync.RWMutex
	students map[primitive.ObjectID]*shared.Student
	teachers map[primitive.ObjectID]*shared.Teacher
	admins   map[primitive.ObjectID]*shared.Admin
	courses  map[primitive.ObjectID]*shared.Course
	grades   []*shared.Grade
}

// New returns an empty Store
func New() *Store {
	return &Store{
		students: make(map[primitive.ObjectID]*shared.Student),
		teachers: make(map[primitive.ObjectID]*shared.Teacher),
		admins:   make(map[primitive.ObjectID]*shared.Admin),
		courses:  make(map[primitive.ObjectID]*shared.Course),
	}
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error { return nil }

// ── Students ──

func (s *Store) FindStudentByID(_ context.Context, id primitive.ObjectID) (*shared.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.students[id]; ok {
		cp := *st
		cp.EnrolledCourses = append([]primitive.ObjectID{}, st.EnrolledCourses...)
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindStudentByEmail(ctx context.Context, email string) (*shared.Student, error) {
	s.mu.RLock()
	var id primitive.ObjectID
	for _, st := range s.students {
		if st.Email == email {
			id = st.ID
		}
	}
	s.mu.RUnlock()
	if id.IsZero() {
		return nil, store.ErrNotFound
	}
	return s.FindStudentByID(ctx, id)
}

func (s *Store) InsertStudent(_ context.Context, student *shared.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.Email == student.Email || st.StudentID == student.StudentID {
			return store.ErrDuplicate
		}
	}
	if student.EnrolledCourses == nil {
		student.EnrolledCourses = []primitive.ObjectID{}
	}
	student.ID = primitive.NewObjectID()
	cp := *student
	s.students[cp.ID] = &cp
	return nil
}

func (s *Store) ListStudents(_ context.Context) ([]shared.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shared.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) StudentEmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) StudentIDTaken(_ context.Context, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) StudentCourses(_ context.Context, id primitive.ObjectID) ([]shared.CourseDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]shared.CourseDetail, 0, len(st.EnrolledCourses))
	for _, cid := range st.EnrolledCourses {
		if c, ok := s.courses[cid]; ok {
			out = append(out, s.detail(c, false))
		}
	}
	return out, nil
}

func (s *Store) DeleteStudent(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.students, id)
	for _, c := range s.courses {
		c.EnrolledStudents = without(c.EnrolledStudents, id)
	}
	kept := s.grades[:0]
	for _, g := range s.grades {
		if g.Student != id {
			kept = append(kept, g)
		}
	}
	s.grades = kept
	return nil
}

// ── Teachers ──

func (s *Store) FindTeacherByID(_ context.Context, id primitive.ObjectID) (*shared.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.teachers[id]; ok {
		cp := *t
		cp.AssignedCourses = append([]primitive.ObjectID{}, t.AssignedCourses...)
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindTeacherByEmail(ctx context.Context, email string) (*shared.Teacher, error) {
	s.mu.RLock()
	var id primitive.ObjectID
	for _, t := range s.teachers {
		if t.Email == email {
			id = t.ID
		}
	}
	s.mu.RUnlock()
	if id.IsZero() {
		return nil, store.ErrNotFound
	}
	return s.FindTeacherByID(ctx, id)
}

func (s *Store) InsertTeacher(_ context.Context, teacher *shared.Teacher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.teachers {
		if t.Email == teacher.Email || t.TeacherID == teacher.TeacherID {
			return store.ErrDuplicate
		}
	}
	if teacher.AssignedCourses == nil {
		teacher.AssignedCourses = []primitive.ObjectID{}
	}
	teacher.ID = primitive.NewObjectID()
	cp := *teacher
	s.teachers[cp.ID] = &cp
	return nil
}

func (s *Store) ListTeachers(_ context.Context) ([]shared.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shared.Teacher, 0, len(s.teachers))
	for _, t := range s.teachers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) TeacherEmailTaken(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) TeacherIDTaken(_ context.Context, teacherID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.teachers {
		if t.TeacherID == teacherID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) TeacherCourses(_ context.Context, id primitive.ObjectID) ([]shared.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teachers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]shared.Course, 0, len(t.AssignedCourses))
	for _, cid := range t.AssignedCourses {
		if c, ok := s.courses[cid]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *Store) DeleteTeacher(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teachers[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.teachers, id)
	for _, c := range s.courses {
		if c.Teacher != nil && *c.Teacher == id {
			c.Teacher = nil
		}
	}
	return nil
}

// ── Admins ──

func (s *Store) FindAdminByID(_ context.Context, id primitive.ObjectID) (*shared.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.admins[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindAdminByEmail(_ context.Context, email string) (*shared.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.admins {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) InsertAdmin(_ context.Context, admin *shared.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Email == admin.Email {
			return store.ErrDuplicate
		}
	}
	admin.ID = primitive.NewObjectID()
	cp := *admin
	s.admins[cp.ID] = &cp
	return nil
}

// ── Courses ──

func (s *Store) ListCourses(_ context.Context) ([]shared.CourseDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shared.CourseDetail, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, s.detail(c, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CourseCode < out[j].CourseCode })
	return out, nil
}

func (s *Store) FindCourseByID(_ context.Context, id primitive.ObjectID) (*shared.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.courses[id]; ok {
		cp := *c
		cp.EnrolledStudents = append([]primitive.ObjectID{}, c.EnrolledStudents...)
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) FindCourseDetail(_ context.Context, id primitive.ObjectID) (*shared.CourseDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	d := s.detail(c, true)
	return &d, nil
}

func (s *Store) CourseIDTaken(_ context.Context, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CourseCodeTaken(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.CourseCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateCourse(_ context.Context, course *shared.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.CourseID == course.CourseID || c.CourseCode == course.CourseCode {
			return store.ErrDuplicate
		}
	}
	var teacher *shared.Teacher
	if course.Teacher != nil {
		t, ok := s.teachers[*course.Teacher]
		if !ok {
			return store.ErrNotFound
		}
		teacher = t
	}
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = []primitive.ObjectID{}
	}
	course.ID = primitive.NewObjectID()
	cp := *course
	s.courses[cp.ID] = &cp
	if teacher != nil {
		teacher.AssignedCourses = withID(teacher.AssignedCourses, cp.ID)
	}
	return nil
}

func (s *Store) CourseRoster(_ context.Context, id primitive.ObjectID) ([]shared.RosterEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]shared.RosterEntry, 0, len(c.EnrolledStudents))
	for _, sid := range c.EnrolledStudents {
		if st, ok := s.students[sid]; ok {
			out = append(out, shared.RosterEntry{ID: st.ID, StudentID: st.StudentID, Name: st.Name, Email: st.Email})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteCourse(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.courses, id)
	for _, st := range s.students {
		st.EnrolledCourses = without(st.EnrolledCourses, id)
	}
	for _, t := range s.teachers {
		t.AssignedCourses = without(t.AssignedCourses, id)
	}
	kept := s.grades[:0]
	for _, g := range s.grades {
		if g.Course != id {
			kept = append(kept, g)
		}
	}
	s.grades = kept
	return nil
}

func (s *Store) Enroll(_ context.Context, studentID, courseID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[courseID]
	if !ok {
		return store.ErrNotFound
	}
	st, ok := s.students[studentID]
	if !ok {
		return store.ErrNotFound
	}
	if contains(st.EnrolledCourses, courseID) {
		return store.ErrAlreadyEnrolled
	}
	st.EnrolledCourses = append(st.EnrolledCourses, courseID)
	c.EnrolledStudents = withID(c.EnrolledStudents, studentID)
	return nil
}

// ── Grades ──

func (s *Store) InsertGrade(_ context.Context, grade *shared.Grade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.grades {
		if g.GradeID == grade.GradeID {
			return store.ErrDuplicate
		}
	}
	grade.ID = primitive.NewObjectID()
	cp := *grade
	s.grades = append(s.grades, &cp)
	return nil
}

func (s *Store) StudentGrades(_ context.Context, id primitive.ObjectID) ([]shared.GradeDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]shared.GradeDetail, 0)
	for _, g := range s.grades {
		if g.Student != id {
			continue
		}
		d := shared.GradeDetail{
			ID: g.ID, GradeID: g.GradeID, Student: g.Student, AssignmentType: g.AssignmentType,
			Score: g.Score, MaxScore: g.MaxScore, Percentage: g.Percentage, DateGraded: g.DateGraded,
		}
		if c, ok := s.courses[g.Course]; ok {
			d.Course = &shared.CourseRef{ID: c.ID, CourseName: c.CourseName, CourseCode: c.CourseCode, Credits: c.Credits}
		}
		if t, ok := s.teachers[g.GradedBy]; ok {
			d.GradedBy = &shared.PersonRef{ID: t.ID, Name: t.Name}
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DateGraded.After(out[j].DateGraded) })
	return out, nil
}

func (s *Store) CourseGradeRows(_ context.Context, id primitive.ObjectID) ([]store.GradeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.GradeRow, 0)
	for _, g := range s.grades {
		st, ok := s.students[g.Student]
		if g.Course != id || !ok {
			continue
		}
		out = append(out, store.GradeRow{
			StudentID: st.StudentID, StudentName: st.Name, AssignmentType: g.AssignmentType,
			Score: g.Score, MaxScore: g.MaxScore, Percentage: g.Percentage, DateGraded: g.DateGraded,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StudentName != out[j].StudentName {
			return out[i].StudentName < out[j].StudentName
		}
		return out[i].DateGraded.Before(out[j].DateGraded)
	})
	return out, nil
}

func (s *Store) GradeSummary(_ context.Context, field string, id primitive.ObjectID) (*shared.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum *shared.Summary
	total := 0.0
	for _, g := range s.match(field, id) {
		if sum == nil {
			sum = &shared.Summary{HighestScore: g.Score, LowestScore: g.Score}
		}
		sum.TotalGrades++
		total += g.Score
		if g.Score > sum.HighestScore {
			sum.HighestScore = g.Score
		}
		if g.Score < sum.LowestScore {
			sum.LowestScore = g.Score
		}
	}
	if sum != nil {
		sum.AverageScore = total / float64(sum.TotalGrades)
	}
	return sum, nil
}

func (s *Store) AverageByAssignmentType(_ context.Context, field string, id primitive.ObjectID) ([]shared.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return group(s.match(field, id), func(g *shared.Grade) (string, bool) {
		return string(g.AssignmentType), true
	}), nil
}

func (s *Store) StudentAverageByCourse(_ context.Context, id primitive.ObjectID) ([]shared.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return group(s.match("student", id), func(g *shared.Grade) (string, bool) {
		c, ok := s.courses[g.Course]
		if !ok {
			return "", false
		}
		return c.CourseName, true
	}), nil
}

func (s *Store) CourseRanking(_ context.Context, id primitive.ObjectID) ([]shared.RankEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := make(map[primitive.ObjectID][2]float64)
	for _, g := range s.match("course", id) {
		v := sums[g.Student]
		sums[g.Student] = [2]float64{v[0] + g.Score, v[1] + 1}
	}
	out := make([]shared.RankEntry, 0, len(sums))
	for sid, v := range sums {
		st, ok := s.students[sid]
		if !ok {
			continue
		}
		out = append(out, shared.RankEntry{StudentID: sid, Name: st.Name, AvgScore: v[0] / v[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvgScore > out[j].AvgScore })
	return out, nil
}

// ── helpers ──

func (s *Store) match(field string, id primitive.ObjectID) []*shared.Grade {
	var out []*shared.Grade
	for _, g := range s.grades {
		if (field == "student" && g.Student == id) || (field == "course" && g.Course == id) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Store) detail(c *shared.Course, withEmail bool) shared.CourseDetail {
	d := shared.CourseDetail{
		ID: c.ID, CourseID: c.CourseID, CourseName: c.CourseName, CourseCode: c.CourseCode,
		Credits: c.Credits, Semester: c.Semester,
		EnrolledStudents: append([]primitive.ObjectID{}, c.EnrolledStudents...),
	}
	if c.Teacher != nil {
		if t, ok := s.teachers[*c.Teacher]; ok {
			d.Teacher = &shared.PersonRef{ID: t.ID, Name: t.Name}
			if withEmail {
				d.Teacher.Email = t.Email
			}
		}
	}
	return d
}

func group(grades []*shared.Grade, key func(*shared.Grade) (string, bool)) []shared.Bucket {
	type acc struct {
		total float64
		n     int
	}
	accs := make(map[string]*acc)
	var order []string
	for _, g := range grades {
		k, ok := key(g)
		if !ok {
			continue
		}
		a, seen := accs[k]
		if !seen {
			a = &acc{}
			accs[k] = a
			order = append(order, k)
		}
		a.total += g.Score
		a.n++
	}
	out := make([]shared.Bucket, 0, len(order))
	for _, k := range order {
		out = append(out, shared.Bucket{Key: k, Average: accs[k].total / float64(accs[k].n), Count: accs[k].n})
	}
	return out
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func withID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func without(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
