package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordIDStable(t *testing.T) {
	args := Obj{"val": Int(42), "ty": Str("u32")}

	a, err := RecordID("session-1", "ctpop", args, 1)
	require.NoError(t, err)
	b, err := RecordID("session-1", "ctpop", args, 1)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same inputs hash identically")
	assert.Len(t, a, 64, "hex-encoded SHA-256")
}

func TestRecordIDSensitivity(t *testing.T) {
	args := Obj{"val": Int(42)}
	base, err := RecordID("session-1", "ctpop", args, 1)
	require.NoError(t, err)

	other, err := RecordID("session-2", "ctpop", args, 1)
	require.NoError(t, err)
	assert.NotEqual(t, base, other, "session token is part of identity")

	other, err = RecordID("session-1", "ctlz", args, 1)
	require.NoError(t, err)
	assert.NotEqual(t, base, other, "intrinsic name is part of identity")

	other, err = RecordID("session-1", "ctpop", args, 2)
	require.NoError(t, err)
	assert.NotEqual(t, base, other, "seq is part of identity")
}

func TestTypeIDStableAndDistinct(t *testing.T) {
	a, err := TypeID("u32")
	require.NoError(t, err)
	b, err := TypeID("u32")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())

	c, err := TypeID("i32")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestTypeIDNormalizesPath(t *testing.T) {
	// Type paths are NFC-normalized before hashing, so the two spellings
	// of the same identifier hash equally.
	a, err := TypeID("café::T")
	require.NoError(t, err)
	b, err := TypeID("café::T")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
