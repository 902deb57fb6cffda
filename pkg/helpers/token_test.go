package helpers

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResetTokenShape(t *testing.T) {
	token, err := NewResetToken()
	require.NoError(t, err)
	require.Len(t, token, 80)

	raw, err := hex.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, 40)
}

func TestNewResetTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		token, err := NewResetToken()
		require.NoError(t, err)
		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
