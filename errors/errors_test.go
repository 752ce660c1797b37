package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestESetsOpAndKind(t *testing.T) {
	err := E("WriteEntry", NotFound, Str("boom"))
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "WriteEntry", e.Op)
	assert.Equal(t, NotFound, e.Kind)
	assert.Contains(t, err.Error(), "boom")
}

func TestEPullsUpInnerKind(t *testing.T) {
	inner := E("archive.Open", IoError, Str("disk full"))
	outer := E("WriteSession.Create", inner)
	assert.Equal(t, IoError, KindOf(outer))
}

func TestIsMatchesByKind(t *testing.T) {
	err := E("ReadSession.Next", EndOfSequence)
	assert.ErrorIs(t, err, E(EndOfSequence))
	assert.False(t, errorsIs(err, E(NotFound)))
}

func errorsIs(err, target error) bool {
	type isser interface{ Is(error) bool }
	e, ok := err.(isser)
	return ok && e.Is(target)
}

func TestWithEntryName(t *testing.T) {
	base := E("archive.ReadAsStr", NotFound)
	wrapped := WithEntryName("/a/1.0.stampedmsg.protobin", base)
	e, ok := wrapped.(*Error)
	require.True(t, ok)
	assert.Equal(t, "/a/1.0.stampedmsg.protobin", e.EntryName)
	assert.Equal(t, NotFound, e.Kind)
}
