package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip(t *testing.T) {
	cases := []Address{
		NewInternal([InternalSize]byte{0x00, 0x01, 0x02}),
		NewLocal([LocalSize]byte{1, 2, 3, 4, 5}),
		NewRemote(func() [RemoteSize]byte {
			var b [RemoteSize]byte
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()),
	}
	for _, a := range cases {
		text := a.String()
		require.Equal(t, byte('$'), text[0])
		parsed, err := Parse(text)
		require.NoError(t, err)
		assert.True(t, a.Equal(parsed))
		assert.Equal(t, a.Kind(), parsed.Kind())
	}
}

func TestParseBadLength(t *testing.T) {
	_, err := Parse("$aabb")
	assert.ErrorIs(t, err, ErrInvalidText)
}

func TestParseNoPrefix(t *testing.T) {
	_, err := Parse("aabbcc")
	assert.ErrorIs(t, err, ErrInvalidText)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "local", KindLocal.String())
	assert.Equal(t, "remote", KindRemote.String())
}
