package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcatSegments(t *testing.T) {
	assert.Equal(t, "", ConcatSegments(nil))
	assert.Equal(t, "only", ConcatSegments([]string{"only"}))
	assert.Equal(t, "The quick brown fox", ConcatSegments([]string{"The quick", " brown", "", " fox"}))
}

func TestConcatSegments_ResultOutlivesBuffer(t *testing.T) {
	first := ConcatSegments([]string{"abc", "def"})
	second := ConcatSegments([]string{strings.Repeat("x", 64), "y"})

	assert.Equal(t, "abcdef", first)
	assert.Len(t, second, 65)
}
