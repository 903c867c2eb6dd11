// Package routing implements the DATEX wire framing: the routing header,
// block header, encrypted header, and the Block they compose into, plus
// block fingerprinting for deduplication.
package routing

import (
	"github.com/unyt-org/datex-core-go/endpoint"
)

// Magic is the fixed 2-byte prefix every serialized block begins with.
var Magic = [2]byte{0x01, 0x64}

// SupportedVersion is the highest routing header version this package
// knows how to parse; Parse rejects anything newer.
const SupportedVersion uint8 = 2

// SignatureType discriminates how (if at all) a block is signed.
type SignatureType uint8

const (
	SignatureNone SignatureType = iota
	SignatureUnencrypted
	SignatureEncrypted
)

// ReceiverType discriminates how the routing header addresses receivers.
type ReceiverType uint8

const (
	ReceiverPointer ReceiverType = iota
	ReceiverReceivers
	ReceiverReceiversWithKeys
)

// BlockSizeWidth discriminates the on-wire width of the block_size field.
type BlockSizeWidth uint8

const (
	BlockSizeDefault BlockSizeWidth = iota // u16
	BlockSizeLarge                         // u32
)

// RoutingFlags packs the bitfield flags byte of the routing header.
type RoutingFlags struct {
	SignatureType  SignatureType
	EncryptionType uint8 // 2-bit sub-field, values beyond SignatureType's scope
	ReceiverType   ReceiverType
	BlockSizeWidth BlockSizeWidth
	IsBounceBack   bool
}

// encode packs the flags into a single byte:
//
//	bits 0-1: signature_type    bits 2-3: encryption_type
//	bits 4-5: receiver_type     bit 6: block_size width     bit 7: is_bounce_back
func (f RoutingFlags) encode() byte {
	var b byte
	b |= byte(f.SignatureType) & 0x03
	b |= (f.EncryptionType & 0x03) << 2
	b |= (byte(f.ReceiverType) & 0x03) << 4
	if f.BlockSizeWidth == BlockSizeLarge {
		b |= 1 << 6
	}
	if f.IsBounceBack {
		b |= 1 << 7
	}
	return b
}

func decodeRoutingFlags(b byte) RoutingFlags {
	return RoutingFlags{
		SignatureType:  SignatureType(b & 0x03),
		EncryptionType: (b >> 2) & 0x03,
		ReceiverType:   ReceiverType((b >> 4) & 0x03),
		BlockSizeWidth: BlockSizeWidth((b >> 6) & 0x01),
		IsBounceBack:   b&(1<<7) != 0,
	}
}

// ReceiverKey pairs a receiver endpoint with its delivery key, used under
// ReceiverReceiversWithKeys.
type ReceiverKey struct {
	Endpoint endpoint.Endpoint
	Key      [32]byte
}

// Receivers is the variable-shape receiver section of a RoutingHeader; which
// field is populated is determined by RoutingFlags.ReceiverType.
type Receivers struct {
	Pointer           *endpoint.Endpoint
	Endpoints         []endpoint.Endpoint
	EndpointsWithKeys []ReceiverKey
}

// RoutingHeader is the outermost, unencrypted framing of a block.
type RoutingHeader struct {
	Version   uint8
	Distance  int8
	TTL       uint8
	Flags     RoutingFlags
	BlockSize uint32 // body byte length, following the encrypted header
	Sender    endpoint.Endpoint
	Receivers Receivers
}

// BlockType discriminates the purpose of a block.
type BlockType uint8

const (
	BlockTypeRequest BlockType = iota
	BlockTypeResponse
	BlockTypeHello
	BlockTypeTrace
	BlockTypeTraceBack
)

// IsResponse reports whether t carries a response payload.
func (t BlockType) IsResponse() bool {
	return t == BlockTypeResponse || t == BlockTypeTraceBack
}

func (t BlockType) String() string {
	switch t {
	case BlockTypeRequest:
		return "request"
	case BlockTypeResponse:
		return "response"
	case BlockTypeHello:
		return "hello"
	case BlockTypeTrace:
		return "trace"
	case BlockTypeTraceBack:
		return "trace_back"
	default:
		return "unknown"
	}
}

// BlockHeader carries per-block routing/session metadata.
type BlockHeader struct {
	ContextID    uint32
	SectionIndex uint16
	BlockNumber  uint16

	Type                      BlockType
	AllowExecution            bool
	IsEndOfSection            bool
	IsEndOfScope              bool
	HasLifetime               bool
	HasRepresentedBy          bool
	HasIV                     bool
	IsCompressed              bool
	IsSignatureInLastSubblock bool
	CreationTimestamp         uint64 // 43-bit milliseconds-since-epoch

	Lifetime      uint32            // present iff HasLifetime
	RepresentedBy endpoint.Endpoint // present iff HasRepresentedBy
	IV            [16]byte          // present iff HasIV
}

// encodeFlagsAndTimestamp packs the 64-bit bitfield:
//
//	block_type(4)|allow_exec(1)|eos(1)|eoscope(1)|lifetime(1)|repr(1)|iv(1)|
//	compressed(1)|sig_last(1)|_(9)|timestamp(43)
func (h BlockHeader) encodeFlagsAndTimestamp() uint64 {
	var v uint64
	v |= uint64(h.Type) & 0x0F
	if h.AllowExecution {
		v |= 1 << 4
	}
	if h.IsEndOfSection {
		v |= 1 << 5
	}
	if h.IsEndOfScope {
		v |= 1 << 6
	}
	if h.HasLifetime {
		v |= 1 << 7
	}
	if h.HasRepresentedBy {
		v |= 1 << 8
	}
	if h.HasIV {
		v |= 1 << 9
	}
	if h.IsCompressed {
		v |= 1 << 10
	}
	if h.IsSignatureInLastSubblock {
		v |= 1 << 11
	}
	v |= (h.CreationTimestamp & ((1 << 43) - 1)) << 21
	return v
}

func decodeFlagsAndTimestamp(v uint64) (BlockHeader, error) {
	h := BlockHeader{
		Type:                      BlockType(v & 0x0F),
		AllowExecution:            v&(1<<4) != 0,
		IsEndOfSection:            v&(1<<5) != 0,
		IsEndOfScope:              v&(1<<6) != 0,
		HasLifetime:               v&(1<<7) != 0,
		HasRepresentedBy:          v&(1<<8) != 0,
		HasIV:                     v&(1<<9) != 0,
		IsCompressed:              v&(1<<10) != 0,
		IsSignatureInLastSubblock: v&(1<<11) != 0,
		CreationTimestamp:         (v >> 21) & ((1 << 43) - 1),
	}
	return h, nil
}

// DeviceType is the 4-bit device class carried in the encrypted header.
type DeviceType uint8

// EncryptedHeader is the innermost header, present after decryption.
type EncryptedHeader struct {
	DeviceType DeviceType
	OnBehalfOf *endpoint.Endpoint
}

func (h EncryptedHeader) hasOnBehalfOf() bool { return h.OnBehalfOf != nil }

func (h EncryptedHeader) encodeLead() byte {
	var b byte
	b |= byte(h.DeviceType) & 0x0F
	if h.hasOnBehalfOf() {
		b |= 1 << 4
	}
	return b
}
