package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unyt-org/datex-core-go/endpoint"
)

func testSender() endpoint.Endpoint {
	e, err := endpoint.Parse("@alice")
	if err != nil {
		panic(err)
	}
	return e
}

func testBlock(body []byte) Block {
	return Block{
		Routing: RoutingHeader{
			Version: 2,
			TTL:     10,
			Flags: RoutingFlags{
				ReceiverType:   ReceiverReceivers,
				BlockSizeWidth: BlockSizeDefault,
			},
			Sender:    testSender(),
			Receivers: Receivers{Endpoints: []endpoint.Endpoint{testSender()}},
		},
		Header: BlockHeader{
			ContextID:         42,
			SectionIndex:      0,
			BlockNumber:       1,
			Type:              BlockTypeRequest,
			AllowExecution:    true,
			IsEndOfSection:    true,
			CreationTimestamp: 1234567890,
		},
		Encrypted: EncryptedHeader{DeviceType: 3},
		Body:      body,
	}
}

// A validly constructed block keeps its header fields and body through a
// Serialize/Parse round trip.
func TestBlockRoundTrip(t *testing.T) {
	b := testBlock([]byte{0x01, 0x2A, 0x90})
	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)

	assert.Equal(t, b.Routing.Version, got.Routing.Version)
	assert.Equal(t, b.Routing.TTL, got.Routing.TTL)
	assert.True(t, b.Routing.Sender.Equal(got.Routing.Sender))
	require.Len(t, got.Routing.Receivers.Endpoints, 1)
	assert.True(t, b.Routing.Receivers.Endpoints[0].Equal(got.Routing.Receivers.Endpoints[0]))

	assert.Equal(t, b.Header.ContextID, got.Header.ContextID)
	assert.Equal(t, b.Header.BlockNumber, got.Header.BlockNumber)
	assert.Equal(t, b.Header.Type, got.Header.Type)
	assert.True(t, got.Header.AllowExecution)
	assert.True(t, got.Header.IsEndOfSection)
	assert.Equal(t, b.Header.CreationTimestamp, got.Header.CreationTimestamp)

	assert.Equal(t, DeviceType(3), got.Encrypted.DeviceType)
	assert.Equal(t, b.Body, got.Body)
}

func TestBlockFingerprint(t *testing.T) {
	b := testBlock(nil)
	fp := b.Fingerprint()
	assert.Equal(t, b.Routing.Sender, fp.Sender)
	assert.Equal(t, b.Header.ContextID, fp.ContextID)
	assert.Equal(t, b.Header.BlockNumber, fp.BlockNumber)
}

// The block_size field must equal the body length; parsers reject a mismatch.
func TestBlockSizeMatchesBody(t *testing.T) {
	b := testBlock([]byte{1, 2, 3, 4, 5})
	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Len(t, got.Body, 5)

	truncated := buf[:len(buf)-2]
	_, err = Parse(truncated)
	assert.Error(t, err)
}

func TestParseRejectsBadMagic(t *testing.T) {
	b := testBlock([]byte{1})
	buf, err := Serialize(b)
	require.NoError(t, err)
	buf[0] = 0xFF

	_, err = Parse(buf)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestParseRejectsTruncated(t *testing.T) {
	_, err := Parse([]byte{Magic[0], Magic[1]})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestSerializeRejectsOversizedBodyForDefaultWidth(t *testing.T) {
	b := testBlock(make([]byte, 70000))
	_, err := Serialize(b)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestBlockSizeLargeWidthAllowsOversizedBody(t *testing.T) {
	b := testBlock(make([]byte, 70000))
	b.Routing.Flags.BlockSizeWidth = BlockSizeLarge
	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Len(t, got.Body, 70000)
}

func TestReceiverPointerShape(t *testing.T) {
	b := testBlock([]byte{9})
	b.Routing.Flags.ReceiverType = ReceiverPointer
	ptr := testSender()
	b.Routing.Receivers = Receivers{Pointer: &ptr}

	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	require.NotNil(t, got.Routing.Receivers.Pointer)
	assert.True(t, ptr.Equal(*got.Routing.Receivers.Pointer))
}

func TestReceiverWithKeysShape(t *testing.T) {
	b := testBlock([]byte{9})
	b.Routing.Flags.ReceiverType = ReceiverReceiversWithKeys
	var key [32]byte
	key[0] = 0xAB
	b.Routing.Receivers = Receivers{EndpointsWithKeys: []ReceiverKey{
		{Endpoint: testSender(), Key: key},
	}}

	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	require.Len(t, got.Routing.Receivers.EndpointsWithKeys, 1)
	assert.Equal(t, key, got.Routing.Receivers.EndpointsWithKeys[0].Key)
	assert.True(t, testSender().Equal(got.Routing.Receivers.EndpointsWithKeys[0].Endpoint))
}

func TestOptionalHeaderFieldsRoundTrip(t *testing.T) {
	b := testBlock([]byte{1, 2})
	b.Header.HasLifetime = true
	b.Header.Lifetime = 99
	b.Header.HasRepresentedBy = true
	b.Header.RepresentedBy = testSender()
	b.Header.HasIV = true
	b.Header.IV = [16]byte{1, 2, 3}

	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), got.Header.Lifetime)
	assert.True(t, testSender().Equal(got.Header.RepresentedBy))
	assert.Equal(t, b.Header.IV, got.Header.IV)
}

func TestEncryptedHeaderOnBehalfOfRoundTrip(t *testing.T) {
	b := testBlock([]byte{5})
	ob := testSender()
	b.Encrypted.OnBehalfOf = &ob

	buf, err := Serialize(b)
	require.NoError(t, err)

	got, err := Parse(buf)
	require.NoError(t, err)
	require.NotNil(t, got.Encrypted.OnBehalfOf)
	assert.True(t, ob.Equal(*got.Encrypted.OnBehalfOf))
}
