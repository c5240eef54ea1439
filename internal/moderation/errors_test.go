package moderation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("failed to insert moderation log: %w", StorageError("insert", cause))

	assert.Equal(t, KindStorageUnavailable, KindOf(err))
	assert.Equal(t, CodeStorageUnavailable, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindStorageUnavailable))
	assert.False(t, IsKind(err, KindValidation))

	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Equal(t, "", CodeOf(cause))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestKinds_AreDistinguishable(t *testing.T) {
	kinds := map[string]bool{}
	for _, err := range []error{
		ValidationError("op", CodeEmptyText, nil),
		InferenceError("op", CodeInferenceFailed, nil),
		StorageError("op", nil),
	} {
		kinds[KindOf(err).String()] = true
	}
	assert.Len(t, kinds, 3)
	assert.Equal(t, "op: empty_text", ValidationError("op", CodeEmptyText, nil).Error())
}
