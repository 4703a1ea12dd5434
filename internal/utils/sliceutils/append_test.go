package sliceutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendIfNotContains(t *testing.T) {
	s := AppendIfNotContains([]string{"a"}, "b")
	require.Equal(t, []string{"a", "b"}, s)
	require.Equal(t, []string{"a", "b"}, AppendIfNotContains(s, "a"))
}
