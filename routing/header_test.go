package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutingFlagsEncodeDecode(t *testing.T) {
	f := RoutingFlags{
		SignatureType:  SignatureEncrypted,
		EncryptionType: 2,
		ReceiverType:   ReceiverReceiversWithKeys,
		BlockSizeWidth: BlockSizeLarge,
		IsBounceBack:   true,
	}
	got := decodeRoutingFlags(f.encode())
	assert.Equal(t, f, got)
}

func TestBlockTypeIsResponse(t *testing.T) {
	assert.True(t, BlockTypeResponse.IsResponse())
	assert.True(t, BlockTypeTraceBack.IsResponse())
	assert.False(t, BlockTypeRequest.IsResponse())
	assert.False(t, BlockTypeHello.IsResponse())
	assert.False(t, BlockTypeTrace.IsResponse())
}

func TestBlockTypeString(t *testing.T) {
	assert.Equal(t, "request", BlockTypeRequest.String())
	assert.Equal(t, "response", BlockTypeResponse.String())
	assert.Equal(t, "hello", BlockTypeHello.String())
	assert.Equal(t, "trace", BlockTypeTrace.String())
	assert.Equal(t, "trace_back", BlockTypeTraceBack.String())
}

func TestBlockHeaderFlagsAndTimestampRoundTrip(t *testing.T) {
	h := BlockHeader{
		Type:                      BlockTypeResponse,
		AllowExecution:            true,
		IsEndOfSection:            false,
		IsEndOfScope:              true,
		HasLifetime:               true,
		HasRepresentedBy:          false,
		HasIV:                     true,
		IsCompressed:              true,
		IsSignatureInLastSubblock: false,
		CreationTimestamp:         0x1FFFFFFFFFF, // max 43-bit value
	}
	packed := h.encodeFlagsAndTimestamp()
	decoded, err := decodeFlagsAndTimestamp(packed)
	assert.NoError(t, err)
	assert.Equal(t, h.Type, decoded.Type)
	assert.Equal(t, h.AllowExecution, decoded.AllowExecution)
	assert.Equal(t, h.IsEndOfSection, decoded.IsEndOfSection)
	assert.Equal(t, h.IsEndOfScope, decoded.IsEndOfScope)
	assert.Equal(t, h.HasLifetime, decoded.HasLifetime)
	assert.Equal(t, h.HasRepresentedBy, decoded.HasRepresentedBy)
	assert.Equal(t, h.HasIV, decoded.HasIV)
	assert.Equal(t, h.IsCompressed, decoded.IsCompressed)
	assert.Equal(t, h.IsSignatureInLastSubblock, decoded.IsSignatureInLastSubblock)
	assert.Equal(t, h.CreationTimestamp, decoded.CreationTimestamp)
}

func TestEncryptedHeaderLeadByte(t *testing.T) {
	h := EncryptedHeader{DeviceType: 7}
	assert.False(t, h.hasOnBehalfOf())
	assert.Equal(t, byte(7), h.encodeLead())
}
