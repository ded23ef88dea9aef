package director

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerPersona(t *testing.T) {
	rl := NewRateLimiter(2, 100)
	id := PersonaID("chatty")

	require.True(t, rl.Reserve(id))
	require.True(t, rl.Reserve(id))
	require.False(t, rl.Reserve(id))

	// Another persona still has budget.
	require.True(t, rl.Reserve(PersonaID("quiet")))
}

func TestRateLimiterGlobal(t *testing.T) {
	rl := NewRateLimiter(100, 1)

	require.True(t, rl.Reserve(PersonaID("a")))
	require.False(t, rl.Reserve(PersonaID("b")))
}
