package routing

import "errors"

var (
	// ErrBadMagic is returned when a buffer does not start with the DATEX
	// magic prefix.
	ErrBadMagic = errors.New("routing: bad magic prefix")
	// ErrTruncated is returned when a buffer ends before a complete block
	// could be parsed.
	ErrTruncated = errors.New("routing: truncated block")
	// ErrBlockSizeMismatch is returned when the declared block_size does not
	// equal the number of body bytes actually present.
	ErrBlockSizeMismatch = errors.New("routing: block_size does not match body length")
	// ErrBodyTooLarge is returned when Serialize is asked to fit a body
	// larger than 65535 bytes into a Default-sized block_size field.
	ErrBodyTooLarge = errors.New("routing: body too large for block_size encoding")
	// ErrUnsupportedVersion is returned when a block's routing header
	// version byte exceeds SupportedVersion.
	ErrUnsupportedVersion = errors.New("routing: unsupported block version")
	// ErrBadSignature is returned by a caller-supplied verifier when a
	// signed block's signature does not validate (signature verification
	// itself is a cryptographic capability out of this package's scope).
	ErrBadSignature = errors.New("routing: bad block signature")
	// ErrBadEncryption is returned by a caller-supplied decryptor when an
	// encrypted block's header/body cannot be decrypted.
	ErrBadEncryption = errors.New("routing: bad block encryption")
)
