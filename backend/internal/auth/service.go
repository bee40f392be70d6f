package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
	"student_tracking/backend/internal/store"
)

// Client-facing auth messages
const (
	MsgNoToken           = "Not authorized, no token"
	MsgTokenFailed       = "Not authorized, token failed"
	MsgInvalidCredential = "Invalid email or password"
	MsgUserExists        = "User already exists"
	MsgUserNotFound      = "User not found"
)

// UserStore is the persistence the auth service needs
type UserStore interface {
	FindStudentByID(ctx context.Context, id primitive.ObjectID) (*shared.Student, error)
	FindStudentByEmail(ctx context.Context, email string) (*shared.Student, error)
	InsertStudent(ctx context.Context, student *shared.Student) error
	FindTeacherByID(ctx context.Context, id primitive.ObjectID) (*shared.Teacher, error)
	FindTeacherByEmail(ctx context.Context, email string) (*shared.Teacher, error)
	InsertTeacher(ctx context.Context, teacher *shared.Teacher) error
	FindAdminByID(ctx context.Context, id primitive.ObjectID) (*shared.Admin, error)
	FindAdminByEmail(ctx context.Context, email string) (*shared.Admin, error)
}

// AuthService handles login, self-registration and request authentication
type AuthService struct {
	users      UserStore
	tokens     *TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(users UserStore, tokens *TokenManager, config *shared.SecurityConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: config.BCryptCost,
		logger:     logger,
	}
}

// ============================================================================
// Requests and Responses
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type RegisterStudentRequest struct {
	StudentID    string `json:"student_id" validate:"required,notblank"`
	Name         string `json:"name" validate:"required,notblank"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

type RegisterTeacherRequest struct {
	TeacherID  string `json:"teacher_id" validate:"required,notblank"`
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Department string `json:"department" validate:"required"`
}

// Session is returned by login and registration
type Session struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  shared.Role        `json:"role"`
	Token string             `json:"token"`
}

// Profile is the current user as returned by /me
type Profile struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  shared.Role        `json:"role"`
}

// ============================================================================
// Login / Register
// ============================================================================

// Login authenticates against the collection named by the requested role
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Role == "" {
		return nil, shared.NewValidationError("Please specify role (student or teacher)")
	}
	role, ok := shared.ParseRole(req.Role)
	if !ok {
		return nil, shared.NewValidationError("Invalid role")
	}
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var (
		id           primitive.ObjectID
		name, hashed string
	)
	switch role {
	case shared.RoleStudent:
		u, err := s.users.FindStudentByEmail(ctx, email)
		if err != nil {
			return nil, s.credentialLookupError(err)
		}
		id, name, hashed = u.ID, u.Name, u.Password
	case shared.RoleTeacher:
		u, err := s.users.FindTeacherByEmail(ctx, email)
		if err != nil {
			return nil, s.credentialLookupError(err)
		}
		id, name, hashed = u.ID, u.Name, u.Password
	case shared.RoleAdmin:
		u, err := s.users.FindAdminByEmail(ctx, email)
		if err != nil {
			return nil, s.credentialLookupError(err)
		}
		id, name, hashed = u.ID, u.Name, u.Password
	}

	if !MatchPassword(hashed, req.Password) {
		return nil, shared.NewUnauthorizedError(MsgInvalidCredential)
	}

	return s.newSession(id, name, email, role)
}

// RegisterStudent creates a student account and signs it in
func (s *AuthService) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*Session, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindStudentByEmail(ctx, email); err == nil {
		return nil, shared.NewConflictError(MsgUserExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, shared.NewInternalError("failed to check student", err)
	}

	hashed, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError("failed to process password", err)
	}

	student := &shared.Student{
		StudentID:    strings.TrimSpace(req.StudentID),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Password:     hashed,
		AcademicYear: req.AcademicYear,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.InsertStudent(ctx, student); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, shared.NewConflictError(MsgUserExists)
		}
		return nil, shared.NewInternalError("failed to create student", err)
	}

	s.logger.Info("student registered", zap.String("student_id", student.StudentID))
	return s.newSession(student.ID, student.Name, student.Email, shared.RoleStudent)
}

// RegisterTeacher creates a teacher account and signs it in
func (s *AuthService) RegisterTeacher(ctx context.Context, req RegisterTeacherRequest) (*Session, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.users.FindTeacherByEmail(ctx, email); err == nil {
		return nil, shared.NewConflictError(MsgUserExists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, shared.NewInternalError("failed to check teacher", err)
	}

	hashed, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError("failed to process password", err)
	}

	teacher := &shared.Teacher{
		TeacherID:  strings.TrimSpace(req.TeacherID),
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Password:   hashed,
		Department: req.Department,
	}
	if err := s.users.InsertTeacher(ctx, teacher); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, shared.NewConflictError(MsgUserExists)
		}
		return nil, shared.NewInternalError("failed to create teacher", err)
	}

	s.logger.Info("teacher registered", zap.String("teacher_id", teacher.TeacherID))
	return s.newSession(teacher.ID, teacher.Name, teacher.Email, shared.RoleTeacher)
}

// Me reloads the principal's record
func (s *AuthService) Me(ctx context.Context, p Principal) (*Profile, error) {
	var (
		name, email string
		err         error
	)

	switch p := p.(type) {
	case StudentPrincipal:
		var u *shared.Student
		if u, err = s.users.FindStudentByID(ctx, p.UserID()); err == nil {
			name, email = u.Name, u.Email
		}
	case TeacherPrincipal:
		var u *shared.Teacher
		if u, err = s.users.FindTeacherByID(ctx, p.UserID()); err == nil {
			name, email = u.Name, u.Email
		}
	case AdminPrincipal:
		var u *shared.Admin
		if u, err = s.users.FindAdminByID(ctx, p.UserID()); err == nil {
			name, email = u.Name, u.Email
		}
	}

	if errors.Is(err, store.ErrNotFound) {
		return nil, shared.NewNotFoundError(MsgUserNotFound)
	}
	if err != nil {
		return nil, shared.NewInternalError("failed to load user", err)
	}

	return &Profile{ID: p.UserID(), Name: name, Email: email, Role: p.Role()}, nil
}

// ============================================================================
// Request Authentication
// ============================================================================

// Authenticate verifies a bearer token and builds the request's principal.
// Students and teachers are reloaded so a deleted account stops working;
// the role always comes from the token.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (Principal, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, shared.NewUnauthorizedError(MsgTokenFailed)
	}

	role, ok := shared.ParseRole(claims.Role)
	if !ok {
		return nil, shared.NewUnauthorizedError(MsgTokenFailed)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, shared.NewUnauthorizedError(MsgTokenFailed)
	}

	switch role {
	case shared.RoleStudent:
		student, err := s.users.FindStudentByID(ctx, id)
		if err != nil {
			return nil, s.principalLookupError(err)
		}
		return StudentPrincipal{Student: student}, nil
	case shared.RoleTeacher:
		teacher, err := s.users.FindTeacherByID(ctx, id)
		if err != nil {
			return nil, s.principalLookupError(err)
		}
		return TeacherPrincipal{Teacher: teacher}, nil
	default:
		return AdminPrincipal{ID: id}, nil
	}
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (s *AuthService) newSession(id primitive.ObjectID, name, email string, role shared.Role) (*Session, error) {
	token, err := s.tokens.Generate(id.Hex(), role)
	if err != nil {
		return nil, shared.NewInternalError("failed to generate token", err)
	}
	return &Session{ID: id, Name: name, Email: email, Role: role, Token: token}, nil
}

func (s *AuthService) credentialLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return shared.NewUnauthorizedError(MsgInvalidCredential)
	}
	return shared.NewInternalError("failed to load user", err)
}

func (s *AuthService) principalLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return shared.NewUnauthorizedError(MsgTokenFailed)
	}
	return shared.NewInternalError("failed to load user", err)
}
