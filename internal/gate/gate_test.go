package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticGate(t *testing.T) {
	g := NewStaticGate([]string{"elys1admin", "elys1ops"})

	assert.True(t, g.IsPrivileged("elys1admin"))
	assert.True(t, g.IsPrivileged("elys1ops"))
	assert.False(t, g.IsPrivileged("elys1alice"))
	assert.False(t, g.IsPrivileged(""))
}

func TestStaticGateEmpty(t *testing.T) {
	g := NewStaticGate(nil)
	assert.False(t, g.IsPrivileged("elys1admin"))
}
