package auth

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"student_tracking/backend/internal/shared"
)

// Principal is the authorization context of one request. The set of
// implementations is closed: StudentPrincipal, TeacherPrincipal, AdminPrincipal.
type Principal interface {
	Role() shared.Role
	UserID() primitive.ObjectID
	sealed()
}

// StudentPrincipal carries the student record loaded for this request
type StudentPrincipal struct {
	Student *shared.Student
}

func (p StudentPrincipal) Role() shared.Role          { return shared.RoleStudent }
func (p StudentPrincipal) UserID() primitive.ObjectID { return p.Student.ID }
func (StudentPrincipal) sealed()                      {}

// TeacherPrincipal carries the teacher record loaded for this request
type TeacherPrincipal struct {
	Teacher *shared.Teacher
}

func (p TeacherPrincipal) Role() shared.Role          { return shared.RoleTeacher }
func (p TeacherPrincipal) UserID() primitive.ObjectID { return p.Teacher.ID }
func (TeacherPrincipal) sealed()                      {}

// AdminPrincipal is built from token claims alone
type AdminPrincipal struct {
	ID primitive.ObjectID
}

func (p AdminPrincipal) Role() shared.Role          { return shared.RoleAdmin }
func (p AdminPrincipal) UserID() primitive.ObjectID { return p.ID }
func (AdminPrincipal) sealed()                      {}

type principalKey struct{}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
