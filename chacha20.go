// chacha20.go - A ChaCha stream cipher implementation.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to chacha20, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.
//
// blitter.com/go/chacha20 fork:
// - original (64-bit counter/64-bit nonce) and IETF (RFC 8439) layouts
// - 128-bit keys and reduced round counts for the original layout
// - random access into the keystream via Seek, nonce rollover via Resync

// Package chacha20 implements the ChaCha stream cipher, in both the
// original Bernstein layout (64-bit block counter, 8 byte nonce, 16 or
// 32 byte keys, an even round count between 8 and 20) and the IETF
// RFC 8439 layout (32-bit block counter, 12 byte nonce, 32 byte keys,
// 20 rounds). Instances implement crypto/cipher.Stream and additionally
// support raw keystream generation, block-granular seeking, and nonce
// resynchronization under a retained key.
package chacha20

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"runtime"
)

const (
	// KeySize is the ChaCha20 key size in bytes.
	KeySize = 32

	// KeySize128 is the reduced key size in bytes accepted by the original
	// variant. The key words are laid out twice in the state, with the
	// "expand 16-byte k" constants.
	KeySize128 = 16

	// NonceSize is the original variant nonce size in bytes.
	NonceSize = 8

	// INonceSize is the IETF (RFC 8439) variant nonce size in bytes.
	INonceSize = 12

	// BlockSize is the ChaCha20 block size in bytes.
	BlockSize = 64

	// DefaultRounds is the round count used by NewCipher.
	DefaultRounds = 20

	minRounds = 8
	maxRounds = 20

	// The constant "expand 32-byte k" as little endian uint32s.
	sigma0 = uint32(0x61707865)
	sigma1 = uint32(0x3320646e)
	sigma2 = uint32(0x79622d32)
	sigma3 = uint32(0x6b206574)

	// The constant "expand 16-byte k" as little endian uint32s, used when
	// the key is KeySize128 bytes.
	tau0 = uint32(0x61707865)
	tau1 = uint32(0x3120646e)
	tau2 = uint32(0x79622d36)
	tau3 = uint32(0x6b206574)
)

var (
	// ErrInvalidKey is the error returned when the key length suits neither
	// variant (KeySize or KeySize128 bytes for the original layout, exactly
	// KeySize bytes for the IETF one).
	ErrInvalidKey = errors.New("chacha20: invalid key length")

	// ErrInvalidNonce is the error returned when the nonce length matches
	// neither NonceSize nor INonceSize, or does not match the variant the
	// instance was keyed for.
	ErrInvalidNonce = errors.New("chacha20: invalid nonce length")

	// ErrInvalidRounds is the error returned when the round count is odd or
	// outside [8,20].
	ErrInvalidRounds = errors.New("chacha20: invalid number of rounds")

	// ErrInvalidCounter is the error returned by Seek and Resync when the
	// block counter does not fit the variant's counter width.
	ErrInvalidCounter = errors.New("chacha20: block counter out of range")

	// ErrCounterOverflow is the panic value raised when generating more
	// keystream would advance the IETF 32-bit block counter past its final
	// block. The stream calls have no error return, and carrying into the
	// nonce words would silently restart the keystream under different
	// counter semantics, so this is a hard failure.
	ErrCounterOverflow = errors.New("chacha20: block counter overflow")

	useUnsafe = false

	_ cipher.Stream = (*Cipher)(nil)
)

// A Cipher is an instance of ChaCha20 using a particular key, nonce and
// round count. Instances are not safe for concurrent use; callers must
// serialize access externally.
type Cipher struct {
	// Cipher configuration. Only ReKey/Resync replace these, wholesale,
	// after all validation has passed.
	input  [16]uint32 // constants, key and nonce words; counter slots stay zero
	rounds int
	ietf   bool

	// Running keystream state.
	counter uint64 // next block index; only the low 32 bits are used when ietf
	buf     [BlockSize]byte
	off     int
}

// NewCipher returns a new ChaCha20 instance using DefaultRounds. The
// variant is selected by nonce length: NonceSize bytes for the original
// layout, INonceSize bytes for the IETF one. The block counter starts
// at zero.
func NewCipher(key, nonce []byte) (*Cipher, error) {
	return NewCipherWithRounds(key, nonce, DefaultRounds)
}

// NewCipherWithRounds is NewCipher with a caller-chosen round count for the
// original variant, which must be even and within [8,20]. The IETF variant
// is defined with a fixed 20 rounds and ignores the parameter.
func NewCipherWithRounds(key, nonce []byte, rounds int) (*Cipher, error) {
	c := new(Cipher)
	if err := c.doReKey(key, nonce, rounds); err != nil {
		return nil, err
	}
	return c, nil
}

// ReKey reinitializes the instance with the provided key and nonce, keeping
// the configured round count. The old key material is zeroized first. A
// failed ReKey leaves the prior state untouched.
func (c *Cipher) ReKey(key, nonce []byte) error {
	rounds := c.rounds
	if rounds == 0 {
		rounds = DefaultRounds
	}
	return c.doReKey(key, nonce, rounds)
}

func (c *Cipher) doReKey(key, nonce []byte, rounds int) error {
	// Validate everything up front; no state is touched until the whole
	// parameter set is known good.
	switch len(nonce) {
	case NonceSize:
		if len(key) != KeySize && len(key) != KeySize128 {
			return ErrInvalidKey
		}
		if rounds < minRounds || rounds > maxRounds || rounds%2 != 0 {
			return ErrInvalidRounds
		}
	case INonceSize:
		if len(key) != KeySize {
			return ErrInvalidKey
		}
		rounds = DefaultRounds // fixed for the IETF layout
	default:
		return ErrInvalidNonce
	}

	c.Reset()
	if len(key) == KeySize128 {
		_ = key[15] // Force bounds check elimination.
		c.input[0] = tau0
		c.input[1] = tau1
		c.input[2] = tau2
		c.input[3] = tau3
		c.input[4] = binary.LittleEndian.Uint32(key[0:4])
		c.input[5] = binary.LittleEndian.Uint32(key[4:8])
		c.input[6] = binary.LittleEndian.Uint32(key[8:12])
		c.input[7] = binary.LittleEndian.Uint32(key[12:16])
		c.input[8] = c.input[4]
		c.input[9] = c.input[5]
		c.input[10] = c.input[6]
		c.input[11] = c.input[7]
	} else {
		_ = key[31] // Force bounds check elimination.
		c.input[0] = sigma0
		c.input[1] = sigma1
		c.input[2] = sigma2
		c.input[3] = sigma3
		c.input[4] = binary.LittleEndian.Uint32(key[0:4])
		c.input[5] = binary.LittleEndian.Uint32(key[4:8])
		c.input[6] = binary.LittleEndian.Uint32(key[8:12])
		c.input[7] = binary.LittleEndian.Uint32(key[12:16])
		c.input[8] = binary.LittleEndian.Uint32(key[16:20])
		c.input[9] = binary.LittleEndian.Uint32(key[20:24])
		c.input[10] = binary.LittleEndian.Uint32(key[24:28])
		c.input[11] = binary.LittleEndian.Uint32(key[28:32])
	}
	if len(nonce) == INonceSize {
		_ = nonce[11] // Force bounds check elimination.
		c.input[13] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[14] = binary.LittleEndian.Uint32(nonce[4:8])
		c.input[15] = binary.LittleEndian.Uint32(nonce[8:12])
		c.ietf = true
	} else {
		_ = nonce[7] // Force bounds check elimination.
		c.input[14] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[15] = binary.LittleEndian.Uint32(nonce[4:8])
		c.ietf = false
	}
	c.rounds = rounds

	return nil
}

// Resync sets a new nonce and starting block counter under the retained key
// and round count, so one keyed instance can process a run of messages. The
// nonce length must match the instance's variant, and blockCounter must fit
// its counter width. Buffered keystream is discarded. A failed Resync
// leaves the prior state untouched.
func (c *Cipher) Resync(nonce []byte, blockCounter uint64) error {
	if c.ietf {
		if len(nonce) != INonceSize {
			return ErrInvalidNonce
		}
		if blockCounter > math.MaxUint32 {
			return ErrInvalidCounter
		}
		_ = nonce[11] // Force bounds check elimination.
		c.input[13] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[14] = binary.LittleEndian.Uint32(nonce[4:8])
		c.input[15] = binary.LittleEndian.Uint32(nonce[8:12])
	} else {
		if len(nonce) != NonceSize {
			return ErrInvalidNonce
		}
		_ = nonce[7] // Force bounds check elimination.
		c.input[14] = binary.LittleEndian.Uint32(nonce[0:4])
		c.input[15] = binary.LittleEndian.Uint32(nonce[4:8])
	}
	c.counter = blockCounter
	c.off = BlockSize
	return nil
}

// Seek sets the block counter to an absolute block index (not a byte
// offset). Buffered keystream is discarded, so the next stream call resumes
// at the start of block blockCounter; the nonce is untouched. For the IETF
// variant blockCounter must fit the 32-bit counter.
func (c *Cipher) Seek(blockCounter uint64) error {
	if c.ietf && blockCounter > math.MaxUint32 {
		return ErrInvalidCounter
	}
	c.counter = blockCounter
	c.off = BlockSize
	return nil
}

// XORKeyStream sets dst to the result of XORing src with the key stream.
// Dst and src may be the same slice but otherwise should not overlap. As
// XOR is an involution the same call both encrypts and decrypts.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		src = src[:len(dst)]
	}
	c.checkHeadroom(len(src))

	for remaining := len(src); remaining > 0; {
		// Process multiple blocks at once.
		if c.off == BlockSize {
			nrBlocks := remaining / BlockSize
			directBytes := nrBlocks * BlockSize
			if nrBlocks > 0 {
				c.doBlocks(dst, src, nrBlocks)
				remaining -= directBytes
				if remaining == 0 {
					return
				}
				dst = dst[directBytes:]
				src = src[directBytes:]
			}

			// If there's a partial block, generate 1 block of keystream into
			// the internal buffer.
			c.doBlocks(c.buf[:], nil, 1)
			c.off = 0
		}

		// Process partial blocks from the buffered keystream.
		toXor := BlockSize - c.off
		if remaining < toXor {
			toXor = remaining
		}
		if toXor > 0 {
			c.xorBufBytes(dst, src, toXor)
			dst = dst[toXor:]
			src = src[toXor:]
			remaining -= toXor
		}
	}
}

func (c *Cipher) xorBufBytes(dst, src []byte, n int) {
	// Force bounds check elimination.
	buf := c.buf[c.off:]
	_ = buf[n-1]
	_ = dst[n-1]
	_ = src[n-1]

	for i := 0; i < n; i++ {
		dst[i] = buf[i] ^ src[i]
	}
	c.off += n
}

// KeyStream sets dst to the raw keystream.
func (c *Cipher) KeyStream(dst []byte) {
	c.checkHeadroom(len(dst))

	for remaining := len(dst); remaining > 0; {
		// Process multiple blocks at once.
		if c.off == BlockSize {
			nrBlocks := remaining / BlockSize
			directBytes := nrBlocks * BlockSize
			if nrBlocks > 0 {
				c.doBlocks(dst, nil, nrBlocks)
				remaining -= directBytes
				if remaining == 0 {
					return
				}
				dst = dst[directBytes:]
			}

			// If there's a partial block, generate 1 block of keystream into
			// the internal buffer.
			c.doBlocks(c.buf[:], nil, 1)
			c.off = 0
		}

		// Process partial blocks from the buffered keystream.
		toCopy := BlockSize - c.off
		if remaining < toCopy {
			toCopy = remaining
		}
		if toCopy > 0 {
			copy(dst[:toCopy], c.buf[c.off:c.off+toCopy])
			dst = dst[toCopy:]
			remaining -= toCopy
			c.off += toCopy
		}
	}
}

// checkHeadroom panics with ErrCounterOverflow when a request for n more
// keystream bytes needs a block past the last one the IETF layout defines
// (counter math.MaxUint32). The whole request is checked up front, buffered
// remainder included, so a failed stream call mutates neither the counter
// nor the caller's buffers.
func (c *Cipher) checkHeadroom(n int) {
	if !c.ietf {
		return
	}
	buffered := BlockSize - c.off
	if n <= buffered {
		return
	}
	nrBlocks := (uint64(n-buffered) + BlockSize - 1) / BlockSize
	if c.counter+nrBlocks-1 > math.MaxUint32 {
		panic(ErrCounterOverflow)
	}
}

func (c *Cipher) doBlocks(dst, src []byte, nrBlocks int) {
	if c.ietf && c.counter+uint64(nrBlocks)-1 > math.MaxUint32 {
		panic(ErrCounterOverflow)
	}
	blocksRef(c, dst, src, nrBlocks)
}

// Reset zeros the key data so that it will no longer appear in the
// process's memory.
func (c *Cipher) Reset() {
	for i := range c.input {
		c.input[i] = 0
	}
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.counter = 0
	c.off = BlockSize
}

// Rounds returns the configured round count.
func (c *Cipher) Rounds() int {
	return c.rounds
}

// IETF returns true if the instance uses the IETF (96-bit nonce, 32-bit
// counter) state layout.
func (c *Cipher) IETF() bool {
	return c.ietf
}

// String returns the algorithm name: "ChaCha8" through "ChaCha20" by round
// count for the original variant, "ChaCha20-IETF" for the IETF one.
func (c *Cipher) String() string {
	if c.ietf {
		return "ChaCha20-IETF"
	}
	return fmt.Sprintf("ChaCha%d", c.rounds)
}

func init() {
	switch runtime.GOARCH {
	case "386", "amd64":
		// Abuse unsafe to skip calling binary.LittleEndian.PutUint32
		// in the critical path. This is a big boost on systems that are
		// little endian and not overly picky about alignment.
		useUnsafe = true
	}
}
