// chacha20_ref.go - Reference (portable) ChaCha block core.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to chacha20, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package chacha20

import (
	"encoding/binary"
	"math/bits"
	"unsafe"
)

// blocksRef generates nrBlocks 64-byte keystream blocks from c's current
// state into dst, XORing with src when src is non-nil (src == nil yields raw
// keystream), and advances the block counter by nrBlocks. Both slices must
// hold nrBlocks * BlockSize bytes; overflow policy is enforced by the
// caller.
func blocksRef(c *Cipher, dst, src []byte, nrBlocks int) {
	s0, s1, s2, s3 := c.input[0], c.input[1], c.input[2], c.input[3]
	s4, s5, s6, s7 := c.input[4], c.input[5], c.input[6], c.input[7]
	s8, s9, s10, s11 := c.input[8], c.input[9], c.input[10], c.input[11]
	s13, s14, s15 := c.input[13], c.input[14], c.input[15]

	rounds, ietf, ctr := c.rounds, c.ietf, c.counter

	for ; nrBlocks > 0; nrBlocks-- {
		// Counter words for this block. Word 13 carries the counter's high
		// half in the original layout and belongs to the nonce in the IETF
		// one.
		s12 := uint32(ctr)
		if !ietf {
			s13 = uint32(ctr >> 32)
		}

		x0, x1, x2, x3 := s0, s1, s2, s3
		x4, x5, x6, x7 := s4, s5, s6, s7
		x8, x9, x10, x11 := s8, s9, s10, s11
		x12, x13, x14, x15 := s12, s13, s14, s15

		for i := rounds; i > 0; i -= 2 {
			// quarterround(x, 0, 4, 8, 12)
			x0 += x4
			x12 ^= x0
			x12 = bits.RotateLeft32(x12, 16)
			x8 += x12
			x4 ^= x8
			x4 = bits.RotateLeft32(x4, 12)
			x0 += x4
			x12 ^= x0
			x12 = bits.RotateLeft32(x12, 8)
			x8 += x12
			x4 ^= x8
			x4 = bits.RotateLeft32(x4, 7)

			// quarterround(x, 1, 5, 9, 13)
			x1 += x5
			x13 ^= x1
			x13 = bits.RotateLeft32(x13, 16)
			x9 += x13
			x5 ^= x9
			x5 = bits.RotateLeft32(x5, 12)
			x1 += x5
			x13 ^= x1
			x13 = bits.RotateLeft32(x13, 8)
			x9 += x13
			x5 ^= x9
			x5 = bits.RotateLeft32(x5, 7)

			// quarterround(x, 2, 6, 10, 14)
			x2 += x6
			x14 ^= x2
			x14 = bits.RotateLeft32(x14, 16)
			x10 += x14
			x6 ^= x10
			x6 = bits.RotateLeft32(x6, 12)
			x2 += x6
			x14 ^= x2
			x14 = bits.RotateLeft32(x14, 8)
			x10 += x14
			x6 ^= x10
			x6 = bits.RotateLeft32(x6, 7)

			// quarterround(x, 3, 7, 11, 15)
			x3 += x7
			x15 ^= x3
			x15 = bits.RotateLeft32(x15, 16)
			x11 += x15
			x7 ^= x11
			x7 = bits.RotateLeft32(x7, 12)
			x3 += x7
			x15 ^= x3
			x15 = bits.RotateLeft32(x15, 8)
			x11 += x15
			x7 ^= x11
			x7 = bits.RotateLeft32(x7, 7)

			// quarterround(x, 0, 5, 10, 15)
			x0 += x5
			x15 ^= x0
			x15 = bits.RotateLeft32(x15, 16)
			x10 += x15
			x5 ^= x10
			x5 = bits.RotateLeft32(x5, 12)
			x0 += x5
			x15 ^= x0
			x15 = bits.RotateLeft32(x15, 8)
			x10 += x15
			x5 ^= x10
			x5 = bits.RotateLeft32(x5, 7)

			// quarterround(x, 1, 6, 11, 12)
			x1 += x6
			x12 ^= x1
			x12 = bits.RotateLeft32(x12, 16)
			x11 += x12
			x6 ^= x11
			x6 = bits.RotateLeft32(x6, 12)
			x1 += x6
			x12 ^= x1
			x12 = bits.RotateLeft32(x12, 8)
			x11 += x12
			x6 ^= x11
			x6 = bits.RotateLeft32(x6, 7)

			// quarterround(x, 2, 7, 8, 13)
			x2 += x7
			x13 ^= x2
			x13 = bits.RotateLeft32(x13, 16)
			x8 += x13
			x7 ^= x8
			x7 = bits.RotateLeft32(x7, 12)
			x2 += x7
			x13 ^= x2
			x13 = bits.RotateLeft32(x13, 8)
			x8 += x13
			x7 ^= x8
			x7 = bits.RotateLeft32(x7, 7)

			// quarterround(x, 3, 4, 9, 14)
			x3 += x4
			x14 ^= x3
			x14 = bits.RotateLeft32(x14, 16)
			x9 += x14
			x4 ^= x9
			x4 = bits.RotateLeft32(x4, 12)
			x3 += x4
			x14 ^= x3
			x14 = bits.RotateLeft32(x14, 8)
			x9 += x14
			x4 ^= x9
			x4 = bits.RotateLeft32(x4, 7)
		}

		// Feed forward the input words into the diffused block.
		x0 += s0
		x1 += s1
		x2 += s2
		x3 += s3
		x4 += s4
		x5 += s5
		x6 += s6
		x7 += s7
		x8 += s8
		x9 += s9
		x10 += s10
		x11 += s11
		x12 += s12
		x13 += s13
		x14 += s14
		x15 += s15

		// Serialize little endian, combining with src when present.
		if useUnsafe {
			outArr := (*[16]uint32)(unsafe.Pointer(&dst[0]))
			if src != nil {
				inArr := (*[16]uint32)(unsafe.Pointer(&src[0]))
				outArr[0] = inArr[0] ^ x0
				outArr[1] = inArr[1] ^ x1
				outArr[2] = inArr[2] ^ x2
				outArr[3] = inArr[3] ^ x3
				outArr[4] = inArr[4] ^ x4
				outArr[5] = inArr[5] ^ x5
				outArr[6] = inArr[6] ^ x6
				outArr[7] = inArr[7] ^ x7
				outArr[8] = inArr[8] ^ x8
				outArr[9] = inArr[9] ^ x9
				outArr[10] = inArr[10] ^ x10
				outArr[11] = inArr[11] ^ x11
				outArr[12] = inArr[12] ^ x12
				outArr[13] = inArr[13] ^ x13
				outArr[14] = inArr[14] ^ x14
				outArr[15] = inArr[15] ^ x15
			} else {
				outArr[0] = x0
				outArr[1] = x1
				outArr[2] = x2
				outArr[3] = x3
				outArr[4] = x4
				outArr[5] = x5
				outArr[6] = x6
				outArr[7] = x7
				outArr[8] = x8
				outArr[9] = x9
				outArr[10] = x10
				outArr[11] = x11
				outArr[12] = x12
				outArr[13] = x13
				outArr[14] = x14
				outArr[15] = x15
			}
		} else {
			if src != nil {
				_, _ = src[BlockSize-1], dst[BlockSize-1] // Bounds check elimination.
				binary.LittleEndian.PutUint32(dst[0:4], binary.LittleEndian.Uint32(src[0:4])^x0)
				binary.LittleEndian.PutUint32(dst[4:8], binary.LittleEndian.Uint32(src[4:8])^x1)
				binary.LittleEndian.PutUint32(dst[8:12], binary.LittleEndian.Uint32(src[8:12])^x2)
				binary.LittleEndian.PutUint32(dst[12:16], binary.LittleEndian.Uint32(src[12:16])^x3)
				binary.LittleEndian.PutUint32(dst[16:20], binary.LittleEndian.Uint32(src[16:20])^x4)
				binary.LittleEndian.PutUint32(dst[20:24], binary.LittleEndian.Uint32(src[20:24])^x5)
				binary.LittleEndian.PutUint32(dst[24:28], binary.LittleEndian.Uint32(src[24:28])^x6)
				binary.LittleEndian.PutUint32(dst[28:32], binary.LittleEndian.Uint32(src[28:32])^x7)
				binary.LittleEndian.PutUint32(dst[32:36], binary.LittleEndian.Uint32(src[32:36])^x8)
				binary.LittleEndian.PutUint32(dst[36:40], binary.LittleEndian.Uint32(src[36:40])^x9)
				binary.LittleEndian.PutUint32(dst[40:44], binary.LittleEndian.Uint32(src[40:44])^x10)
				binary.LittleEndian.PutUint32(dst[44:48], binary.LittleEndian.Uint32(src[44:48])^x11)
				binary.LittleEndian.PutUint32(dst[48:52], binary.LittleEndian.Uint32(src[48:52])^x12)
				binary.LittleEndian.PutUint32(dst[52:56], binary.LittleEndian.Uint32(src[52:56])^x13)
				binary.LittleEndian.PutUint32(dst[56:60], binary.LittleEndian.Uint32(src[56:60])^x14)
				binary.LittleEndian.PutUint32(dst[60:64], binary.LittleEndian.Uint32(src[60:64])^x15)
			} else {
				_ = dst[BlockSize-1] // Bounds check elimination.
				binary.LittleEndian.PutUint32(dst[0:4], x0)
				binary.LittleEndian.PutUint32(dst[4:8], x1)
				binary.LittleEndian.PutUint32(dst[8:12], x2)
				binary.LittleEndian.PutUint32(dst[12:16], x3)
				binary.LittleEndian.PutUint32(dst[16:20], x4)
				binary.LittleEndian.PutUint32(dst[20:24], x5)
				binary.LittleEndian.PutUint32(dst[24:28], x6)
				binary.LittleEndian.PutUint32(dst[28:32], x7)
				binary.LittleEndian.PutUint32(dst[32:36], x8)
				binary.LittleEndian.PutUint32(dst[36:40], x9)
				binary.LittleEndian.PutUint32(dst[40:44], x10)
				binary.LittleEndian.PutUint32(dst[44:48], x11)
				binary.LittleEndian.PutUint32(dst[48:52], x12)
				binary.LittleEndian.PutUint32(dst[52:56], x13)
				binary.LittleEndian.PutUint32(dst[56:60], x14)
				binary.LittleEndian.PutUint32(dst[60:64], x15)
			}
		}

		ctr++
		dst = dst[BlockSize:]
		if src != nil {
			src = src[BlockSize:]
		}
	}

	c.counter = ctr
}
