package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"student_tracking/backend/internal/shared"
)

func TestSeedStudent(t *testing.T) {
	now := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	s := seedStudent(0, "Omar Berrada", "hash", now)

	assert.Equal(t, "S2024100", s.StudentID)
	assert.Equal(t, "omar.berrada@student.univ.ma", s.Email)
	assert.Equal(t, AcademicYear, s.AcademicYear)
	assert.Equal(t, now, s.CreatedAt)
	assert.False(t, s.CreatedAt.IsZero())
}

func TestRandomGrade(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		g := randomGrade(rng, int64(i), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), shared.AssignmentQuiz)

		assert.GreaterOrEqual(t, g.Score, 5.0)
		assert.LessOrEqual(t, g.Score, 20.0)
		assert.Equal(t, 0.0, g.Score*2-float64(int(g.Score*2)), "half-point steps")
		assert.InDelta(t, g.Score/20*100, g.Percentage, 1e-9)
	}
}
