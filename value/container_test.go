package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValueInfersActualType(t *testing.T) {
	v := NewValue(Boolean(true))
	assert.Equal(t, ContainerPlain, v.ContainerKind())
	assert.Equal(t, KindBoolean, v.Inner.Kind())
	assert.Equal(t, corePath("boolean"), v.GetType().Path)
}

func TestValueGetTypeMatchesActualType(t *testing.T) {
	v := NewValue(Text("x"))
	assert.Equal(t, v.ActualType, v.GetType())
}
