package dxb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySlot(t *testing.T) {
	assert.Equal(t, SlotClassFree, ClassifySlot(0))
	assert.Equal(t, SlotClassFree, ClassifySlot(0xEFFF))
	assert.Equal(t, SlotClassScopeTransfer, ClassifySlot(0xF000))
	assert.Equal(t, SlotClassObject, ClassifySlot(0xFA00))
	assert.Equal(t, SlotClassReservedObject, ClassifySlot(0xFEF0))
	assert.Equal(t, SlotClassReservedInternal, ClassifySlot(0xFF00))
}

func TestIsUserAllocatable(t *testing.T) {
	assert.True(t, Slot(100).IsUserAllocatable())
	assert.False(t, SlotThis.IsUserAllocatable())
}
