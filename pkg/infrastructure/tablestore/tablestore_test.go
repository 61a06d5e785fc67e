package tablestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeColumns(t *testing.T) {
	merged, changed := MergeColumns([]string{"a", "b"}, []string{"b", "c", "a", "d"})
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b", "c", "d"}, merged)

	same, changed := MergeColumns([]string{"a"}, []string{"a"})
	assert.False(t, changed)
	assert.Equal(t, []string{"a"}, same)
}

func TestCheckColumns(t *testing.T) {
	assert.NoError(t, CheckColumns("T", []string{"a", "b"}, map[string]string{"a": "1"}))
	assert.ErrorIs(t, CheckColumns("T", []string{"a"}, map[string]string{"z": "1"}), ErrUnknownColumn)
}
