package util

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"student_tracking/backend/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := map[shared.ErrorKind]int{
		shared.KindValidation:   http.StatusBadRequest,
		shared.KindConflict:     http.StatusBadRequest,
		shared.KindUnauthorized: http.StatusUnauthorized,
		shared.KindNotFound:     http.StatusNotFound,
		shared.KindRateLimited:  http.StatusTooManyRequests,
		shared.KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusFor(kind), kind.String())
	}
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/courses", nil)
	cause := shared.NewInternalError("failed to list courses", errors.New("connection reset"))

	t.Run("Masks Internal Errors", func(t *testing.T) {
		rs := &Responder{Logger: zap.NewNop()}
		rec := httptest.NewRecorder()
		rs.WriteError(rec, req, cause)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"message":"internal server error"}`, rec.Body.String())
	})

	t.Run("Development Shows Cause", func(t *testing.T) {
		rs := &Responder{Logger: zap.NewNop(), Development: true}
		rec := httptest.NewRecorder()
		rs.WriteError(rec, req, cause)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection reset")
	})

	t.Run("Untyped Error", func(t *testing.T) {
		rs := &Responder{Logger: zap.NewNop()}
		rec := httptest.NewRecorder()
		rs.WriteError(rec, req, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Client Error Passes Message", func(t *testing.T) {
		rs := &Responder{Logger: zap.NewNop()}
		rec := httptest.NewRecorder()
		rs.WriteError(rec, req, shared.NewNotFoundError("Course not found"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Course not found"}`, rec.Body.String())
	})
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		token, err := ExtractToken(req)
		if tc.ok {
			assert.NoError(t, err, tc.header)
			assert.Equal(t, tc.token, token)
		} else {
			assert.Error(t, err, tc.header)
		}
	}
}
