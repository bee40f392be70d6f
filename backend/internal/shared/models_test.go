package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	want := primitive.NewObjectID()

	id, err := ParseID(want.Hex())
	require.NoError(t, err)
	assert.Equal(t, want, id)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		_, err := ParseID(bad)
		assert.Equal(t, KindValidation, KindOf(err), bad)
		assert.EqualError(t, err, "invalid id")
	}
}
