package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLevelAcceptsValidLevel(t *testing.T) {
	require.NoError(t, SetLevel("debug"))
	require.NoError(t, SetLevel("info"))
}

func TestSetLevelRejectsInvalidLevel(t *testing.T) {
	assert.Error(t, SetLevel("not-a-level"))
}

func TestWithFieldsDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		WithFields(Fields{"router": 1}).Info("test entry")
	})
}
