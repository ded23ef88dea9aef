package director

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersonaIDStableAcrossRegistrations(t *testing.T) {
	reg := NewRegistry()
	first := reg.Register(Persona{Handle: "techbro_tom", Tone: "casual", CadenceMinutes: 30})
	again := reg.Register(Persona{Handle: "techbro_tom", Tone: "formal", CadenceMinutes: 45})

	require.Equal(t, first.ID, again.ID)
	require.Equal(t, 1, reg.Len())

	got, ok := reg.Get(first.ID)
	require.True(t, ok)
	require.Equal(t, "formal", got.Tone)
	require.Equal(t, 45, got.CadenceMinutes)
}

func TestPersonaIDCaseInsensitive(t *testing.T) {
	require.Equal(t, PersonaID("NewsWire"), PersonaID("newswire"))
	require.NotEqual(t, PersonaID("newswire"), PersonaID("weatherguy"))
}

func TestRegistryPreservesOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Persona{Handle: "a", CadenceMinutes: 10})
	reg.Register(Persona{Handle: "b", CadenceMinutes: 10})
	reg.Register(Persona{Handle: "a", Tone: "dry", CadenceMinutes: 10})

	all := reg.All()
	require.Len(t, all, 2)
	require.Equal(t, "a", all[0].Handle)
	require.Equal(t, "b", all[1].Handle)
	require.Equal(t, "dry", all[0].Tone)
}

func TestRegisterDefaultsDisplayName(t *testing.T) {
	reg := NewRegistry()
	p := reg.Register(Persona{Handle: "quietquinn"})
	require.Equal(t, "quietquinn", p.DisplayName)
}
