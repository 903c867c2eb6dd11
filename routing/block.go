package routing

import (
	"encoding/binary"
	"fmt"

	"github.com/unyt-org/datex-core-go/endpoint"
)

// Block is one fully-assembled DATEX wire unit: routing header, block
// header, encrypted header, and body bytes (a DXB instruction stream).
type Block struct {
	Routing   RoutingHeader
	Header    BlockHeader
	Encrypted EncryptedHeader
	Body      []byte
}

// Fingerprint identifies a block globally by (sender, context_id,
// block_number). block_number is 16 bits, so the triple repeats once it
// wraps within a context; the 43-bit creation timestamp that would tell such
// blocks apart is not part of the Fingerprint.
type Fingerprint struct {
	Sender      endpoint.Endpoint
	ContextID   uint32
	BlockNumber uint16
}

// Fingerprint computes b's identifying triple.
func (b Block) Fingerprint() Fingerprint {
	return Fingerprint{
		Sender:      b.Routing.Sender,
		ContextID:   b.Header.ContextID,
		BlockNumber: b.Header.BlockNumber,
	}
}

// Serialize renders b into its wire form, computing and writing block_size
// from len(b.Body).
func Serialize(b Block) ([]byte, error) {
	var out []byte
	out = append(out, Magic[0], Magic[1])
	out = append(out, b.Routing.Version, byte(b.Routing.Distance), b.Routing.TTL)

	bodyLen := len(b.Body)
	flags := b.Routing.Flags
	if flags.BlockSizeWidth == BlockSizeDefault && bodyLen > 0xFFFF {
		return nil, ErrBodyTooLarge
	}
	out = append(out, flags.encode())

	if flags.BlockSizeWidth == BlockSizeLarge {
		out = appendU32(out, uint32(bodyLen))
	} else {
		out = appendU16(out, uint16(bodyLen))
	}

	senderBytes, err := b.Routing.Sender.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("routing: marshal sender: %w", err)
	}
	out = append(out, senderBytes...)

	out, err = appendReceivers(out, flags.ReceiverType, b.Routing.Receivers)
	if err != nil {
		return nil, err
	}

	out = appendU32(out, b.Header.ContextID)
	out = appendU16(out, b.Header.SectionIndex)
	out = appendU16(out, b.Header.BlockNumber)
	out = appendU64(out, b.Header.encodeFlagsAndTimestamp())
	if b.Header.HasLifetime {
		out = appendU32(out, b.Header.Lifetime)
	}
	if b.Header.HasRepresentedBy {
		rb, err := b.Header.RepresentedBy.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, rb...)
	}
	if b.Header.HasIV {
		out = append(out, b.Header.IV[:]...)
	}

	out = append(out, b.Encrypted.encodeLead())
	if b.Encrypted.OnBehalfOf != nil {
		ob, err := b.Encrypted.OnBehalfOf.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, ob...)
	}

	out = append(out, b.Body...)
	return out, nil
}

func appendReceivers(out []byte, rt ReceiverType, r Receivers) ([]byte, error) {
	switch rt {
	case ReceiverPointer:
		if r.Pointer == nil {
			return nil, fmt.Errorf("routing: receiver_type=Pointer requires Receivers.Pointer")
		}
		pb, err := r.Pointer.MarshalBinary()
		if err != nil {
			return nil, err
		}
		return append(out, pb...), nil
	case ReceiverReceivers:
		out = appendU16(out, uint16(len(r.Endpoints)))
		for _, ep := range r.Endpoints {
			eb, err := ep.MarshalBinary()
			if err != nil {
				return nil, err
			}
			out = append(out, eb...)
		}
		return out, nil
	case ReceiverReceiversWithKeys:
		out = appendU16(out, uint16(len(r.EndpointsWithKeys)))
		for _, rk := range r.EndpointsWithKeys {
			eb, err := rk.Endpoint.MarshalBinary()
			if err != nil {
				return nil, err
			}
			out = append(out, eb...)
			out = append(out, rk.Key[:]...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("routing: unknown receiver_type %d", rt)
	}
}

// Parse reconstructs a Block from its wire form, validating the magic
// prefix and that block_size matches the actual body length.
func Parse(buf []byte) (Block, error) {
	r := &reader{buf: buf}

	magic, err := r.readN(2)
	if err != nil {
		return Block{}, err
	}
	if magic[0] != Magic[0] || magic[1] != Magic[1] {
		return Block{}, ErrBadMagic
	}

	var b Block
	b.Routing.Version, err = r.readByte()
	if err != nil {
		return Block{}, err
	}
	if b.Routing.Version > SupportedVersion {
		return Block{}, ErrUnsupportedVersion
	}
	distance, err := r.readByte()
	if err != nil {
		return Block{}, err
	}
	b.Routing.Distance = int8(distance)
	b.Routing.TTL, err = r.readByte()
	if err != nil {
		return Block{}, err
	}
	flagsByte, err := r.readByte()
	if err != nil {
		return Block{}, err
	}
	flags := decodeRoutingFlags(flagsByte)
	b.Routing.Flags = flags

	var bodyLen uint32
	if flags.BlockSizeWidth == BlockSizeLarge {
		bodyLen, err = r.readU32()
	} else {
		var v uint16
		v, err = r.readU16()
		bodyLen = uint32(v)
	}
	if err != nil {
		return Block{}, err
	}
	b.Routing.BlockSize = bodyLen

	senderBytes, err := r.readN(endpoint.Size)
	if err != nil {
		return Block{}, err
	}
	if err := b.Routing.Sender.UnmarshalBinary(senderBytes); err != nil {
		return Block{}, err
	}

	b.Routing.Receivers, err = readReceivers(r, flags.ReceiverType)
	if err != nil {
		return Block{}, err
	}

	b.Header.ContextID, err = r.readU32()
	if err != nil {
		return Block{}, err
	}
	b.Header.SectionIndex, err = r.readU16()
	if err != nil {
		return Block{}, err
	}
	b.Header.BlockNumber, err = r.readU16()
	if err != nil {
		return Block{}, err
	}
	faTS, err := r.readU64()
	if err != nil {
		return Block{}, err
	}
	b.Header, err = mergeFlagsAndTimestamp(b.Header, faTS)
	if err != nil {
		return Block{}, err
	}
	if b.Header.HasLifetime {
		b.Header.Lifetime, err = r.readU32()
		if err != nil {
			return Block{}, err
		}
	}
	if b.Header.HasRepresentedBy {
		rb, err := r.readN(endpoint.Size)
		if err != nil {
			return Block{}, err
		}
		if err := b.Header.RepresentedBy.UnmarshalBinary(rb); err != nil {
			return Block{}, err
		}
	}
	if b.Header.HasIV {
		iv, err := r.readN(16)
		if err != nil {
			return Block{}, err
		}
		copy(b.Header.IV[:], iv)
	}

	lead, err := r.readByte()
	if err != nil {
		return Block{}, err
	}
	b.Encrypted.DeviceType = DeviceType(lead & 0x0F)
	if lead&(1<<4) != 0 {
		ob, err := r.readN(endpoint.Size)
		if err != nil {
			return Block{}, err
		}
		var ep endpoint.Endpoint
		if err := ep.UnmarshalBinary(ob); err != nil {
			return Block{}, err
		}
		b.Encrypted.OnBehalfOf = &ep
	}

	body, err := r.readN(int(bodyLen))
	if err != nil {
		return Block{}, err
	}
	b.Body = append([]byte(nil), body...)

	if !r.atEnd() {
		return Block{}, fmt.Errorf("%w: trailing bytes after declared body", ErrBlockSizeMismatch)
	}
	if uint32(len(b.Body)) != bodyLen {
		return Block{}, ErrBlockSizeMismatch
	}
	return b, nil
}

func mergeFlagsAndTimestamp(h BlockHeader, v uint64) (BlockHeader, error) {
	decoded, err := decodeFlagsAndTimestamp(v)
	if err != nil {
		return h, err
	}
	h.Type = decoded.Type
	h.AllowExecution = decoded.AllowExecution
	h.IsEndOfSection = decoded.IsEndOfSection
	h.IsEndOfScope = decoded.IsEndOfScope
	h.HasLifetime = decoded.HasLifetime
	h.HasRepresentedBy = decoded.HasRepresentedBy
	h.HasIV = decoded.HasIV
	h.IsCompressed = decoded.IsCompressed
	h.IsSignatureInLastSubblock = decoded.IsSignatureInLastSubblock
	h.CreationTimestamp = decoded.CreationTimestamp
	return h, nil
}

func readReceivers(r *reader, rt ReceiverType) (Receivers, error) {
	switch rt {
	case ReceiverPointer:
		b, err := r.readN(endpoint.Size)
		if err != nil {
			return Receivers{}, err
		}
		var ep endpoint.Endpoint
		if err := ep.UnmarshalBinary(b); err != nil {
			return Receivers{}, err
		}
		return Receivers{Pointer: &ep}, nil
	case ReceiverReceivers:
		n, err := r.readU16()
		if err != nil {
			return Receivers{}, err
		}
		eps := make([]endpoint.Endpoint, n)
		for i := range eps {
			b, err := r.readN(endpoint.Size)
			if err != nil {
				return Receivers{}, err
			}
			if err := eps[i].UnmarshalBinary(b); err != nil {
				return Receivers{}, err
			}
		}
		return Receivers{Endpoints: eps}, nil
	case ReceiverReceiversWithKeys:
		n, err := r.readU16()
		if err != nil {
			return Receivers{}, err
		}
		out := make([]ReceiverKey, n)
		for i := range out {
			b, err := r.readN(endpoint.Size)
			if err != nil {
				return Receivers{}, err
			}
			if err := out[i].Endpoint.UnmarshalBinary(b); err != nil {
				return Receivers{}, err
			}
			k, err := r.readN(32)
			if err != nil {
				return Receivers{}, err
			}
			copy(out[i].Key[:], k)
		}
		return Receivers{EndpointsWithKeys: out}, nil
	default:
		return Receivers{}, fmt.Errorf("routing: unknown receiver_type %d", rt)
	}
}

// =============================================================================
// Binary helpers
// =============================================================================

type reader struct {
	buf []byte
	pos int
}

func (r *reader) atEnd() bool { return r.pos >= len(r.buf) }

func (r *reader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) readU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) readU64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func appendU16(out []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(out, b[:]...)
}

func appendU32(out []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(out, b[:]...)
}

func appendU64(out []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(out, b[:]...)
}
