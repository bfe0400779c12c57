package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.False(t, IsSolid(Air))
	assert.True(t, IsTransparent(Air))

	assert.True(t, IsSolid(Stone))
	assert.False(t, IsTransparent(Stone))

	assert.False(t, IsSolid(Water), "вода не участвует в коллизиях")
	assert.True(t, IsTransparent(Water))

	assert.True(t, IsSolid(Glass))
	assert.True(t, IsTransparent(Glass))

	assert.Equal(t, float32(0.5), Friction(Sand))
	assert.Equal(t, "grass", Grass.String())
}

func TestUnknownBehavesAsAir(t *testing.T) {
	unknown := ID(4242)
	assert.False(t, IsValid(unknown))
	assert.False(t, IsSolid(unknown))
	assert.True(t, IsTransparent(unknown))
	assert.Equal(t, DefaultFriction, Friction(unknown))
}

func TestRegisterOverride(t *testing.T) {
	custom := ID(900)
	Register(Definition{ID: custom, Name: "ice", Solid: true, Friction: 0.98})
	defer func() {
		registryMu.Lock()
		delete(registry, custom)
		registryMu.Unlock()
	}()

	def, ok := Get(custom)
	assert.True(t, ok)
	assert.Equal(t, "ice", def.Name)
	assert.Equal(t, float32(0.98), Friction(custom))
}
