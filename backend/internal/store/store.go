// ============================================================================
// backend/internal/store/store.go
// MongoDB-backed persistence for students, teachers, admins, courses, grades
// ============================================================================

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"student_tracking/backend/internal/shared"
)

var (
	// ErrNotFound is returned when a lookup by id or email matches nothing
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when an insert hits a unique index
	ErrDuplicate = errors.New("duplicate key")
	// ErrAlreadyEnrolled is returned when the student already lists the course
	ErrAlreadyEnrolled = errors.New("student already enrolled")
)

// Store wraps the database handles shared by every repository method
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	studentsCol *mongo.Collection
	teachersCol *mongo.Collection
	adminsCol   *mongo.Collection
	coursesCol  *mongo.Collection
	gradesCol   *mongo.Collection
}

// New creates a Store over db. client is used to open transactions.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:      client,
		db:          db,
		studentsCol: db.Collection(shared.StudentsCollection),
		teachersCol: db.Collection(shared.TeachersCollection),
		adminsCol:   db.Collection(shared.AdminsCollection),
		coursesCol:  db.Collection(shared.CoursesCollection),
		gradesCol:   db.Collection(shared.GradesCollection),
	}
}

// Ping checks that the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, shared.QueryTimeout)
	defer cancel()
	return s.client.Ping(pingCtx, readpref.Primary())
}

// Reset drops the whole database and recreates its indexes
func (s *Store) Reset(ctx context.Context) error {
	dropCtx, cancel := context.WithTimeout(ctx, shared.AggregationTimeout)
	defer cancel()

	if err := s.db.Drop(dropCtx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return shared.EnsureIndexes(ctx, s.db)
}

// ============================================================================
// Helpers
// ============================================================================

func findOne(ctx context.Context, col *mongo.Collection, filter interface{}, result interface{}) error {
	queryCtx, cancel := context.WithTimeout(ctx, shared.QueryTimeout)
	defer cancel()

	err := col.FindOne(queryCtx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", col.Name(), err)
	}
	return nil
}

func exists(ctx context.Context, col *mongo.Collection, filter interface{}) (bool, error) {
	var doc bson.M
	err := findOne(ctx, col, filter, &doc)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func insertOne(ctx context.Context, col *mongo.Collection, doc interface{}) (primitive.ObjectID, error) {
	insertCtx, cancel := context.WithTimeout(ctx, shared.QueryTimeout)
	defer cancel()

	res, err := col.InsertOne(insertCtx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicate
	}
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert into %s: %w", col.Name(), err)
	}

	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	queryCtx, cancel := context.WithTimeout(ctx, shared.QueryTimeout)
	defer cancel()

	cursor, err := col.Find(queryCtx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", col.Name(), err)
	}
	defer cursor.Close(queryCtx)

	results := make([]T, 0)
	if err := cursor.All(queryCtx, &results); err != nil {
		return nil, fmt.Errorf("decode %s: %w", col.Name(), err)
	}
	return results, nil
}

func aggregate[T any](ctx context.Context, col *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	queryCtx, cancel := context.WithTimeout(ctx, shared.AggregationTimeout)
	defer cancel()

	cursor, err := col.Aggregate(queryCtx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", col.Name(), err)
	}
	defer cursor.Close(queryCtx)

	results := make([]T, 0)
	if err := cursor.All(queryCtx, &results); err != nil {
		return nil, fmt.Errorf("decode %s aggregation: %w", col.Name(), err)
	}
	return results, nil
}
