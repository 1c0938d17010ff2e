// Package vector models the guest SIMD register file contents: fixed 64 or
// 128-bit patterns with no lane type of their own. Every operation takes the
// lane size explicitly.
package vector

import (
	"encoding/binary"
	"fmt"
)

// V128 represents a 128-bit SIMD value. Lane 0 is the least significant lane of Lo.
type V128 struct {
	Lo, Hi uint64
}

func New(lo, hi uint64) V128 {
	return V128{Lo: lo, Hi: hi}
}

func FromBytes(b [16]byte) V128 {
	return V128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

func (v V128) Bytes() [16]byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], v.Lo)
	binary.LittleEndian.PutUint64(buf[8:16], v.Hi)
	return buf
}

func (v V128) String() string {
	return fmt.Sprintf("0x%016x%016x", v.Hi, v.Lo)
}

func (v V128) IsZero() bool {
	return v.Lo == 0 && v.Hi == 0
}

func validLaneSize(esize int) bool {
	switch esize {
	case 8, 16, 32, 64:
		return true
	}
	return false
}

func mustLaneSize(esize int) {
	if !validLaneSize(esize) {
		panic(fmt.Sprintf("vector: invalid lane size %d", esize))
	}
}

// mustExtendable panics unless esize can be doubled into a 128-bit result.
func mustExtendable(esize int) {
	switch esize {
	case 8, 16, 32:
	default:
		panic(fmt.Sprintf("vector: lane size %d cannot be widened", esize))
	}
}

func laneMask(esize int) uint64 {
	if esize == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(esize)) - 1
}

// Lanes returns the number of esize-bit lanes in a width-bit value.
func Lanes(width, esize int) int {
	mustLaneSize(esize)
	return width / esize
}

// Lane returns lane i of v interpreted as esize-bit lanes, zero-extended.
func (v V128) Lane(esize, i int) uint64 {
	perWord := 64 / esize
	w := v.Lo
	if i >= perWord {
		w = v.Hi
		i -= perWord
	}
	return (w >> (uint(i) * uint(esize))) & laneMask(esize)
}

// WithLane returns v with lane i replaced by the low esize bits of x.
func (v V128) WithLane(esize, i int, x uint64) V128 {
	perWord := 64 / esize
	m := laneMask(esize)
	w := &v.Lo
	if i >= perWord {
		w = &v.Hi
		i -= perWord
	}
	shift := uint(i) * uint(esize)
	*w = (*w &^ (m << shift)) | ((x & m) << shift)
	return v
}

func signExtendLane(x uint64, esize int) int64 {
	shift := uint(64 - esize)
	return int64(x<<shift) >> shift
}

// ZeroExtend widens every esize-bit lane of the 64-bit operand to 2*esize bits.
func ZeroExtend(esize int, operand uint64) V128 {
	mustExtendable(esize)
	src := V128{Lo: operand}
	var out V128
	for i := 0; i < 64/esize; i++ {
		out = out.WithLane(2*esize, i, src.Lane(esize, i))
	}
	return out
}

// SignExtend widens every esize-bit lane of the 64-bit operand to 2*esize bits.
func SignExtend(esize int, operand uint64) V128 {
	mustExtendable(esize)
	src := V128{Lo: operand}
	var out V128
	for i := 0; i < 64/esize; i++ {
		out = out.WithLane(2*esize, i, uint64(signExtendLane(src.Lane(esize, i), esize)))
	}
	return out
}

// Narrow truncates every 2*esize-bit lane of v to esize bits, packing the
// result into the low 64 bits.
func Narrow(esize int, v V128) uint64 {
	mustExtendable(esize)
	var out V128
	for i := 0; i < 64/esize; i++ {
		out = out.WithLane(esize, i, v.Lane(2*esize, i))
	}
	return out.Lo
}

// Part selects the low (part 0) or high (part 1) 64 bits of a 128-bit
// register. A 64-bit register is returned as is.
func Part(width int, v V128, part int) uint64 {
	switch {
	case width == 64:
		return v.Lo
	case width == 128 && part == 0:
		return v.Lo
	case width == 128 && part == 1:
		return v.Hi
	}
	panic(fmt.Sprintf("vector: invalid part %d of %d-bit register", part, width))
}

func mapLanes(esize int, a, b V128, f func(x, y uint64) uint64) V128 {
	mustLaneSize(esize)
	var out V128
	for i := 0; i < 128/esize; i++ {
		out = out.WithLane(esize, i, f(a.Lane(esize, i), b.Lane(esize, i)))
	}
	return out
}

func Add(esize int, a, b V128) V128 {
	return mapLanes(esize, a, b, func(x, y uint64) uint64 { return x + y })
}

func Sub(esize int, a, b V128) V128 {
	return mapLanes(esize, a, b, func(x, y uint64) uint64 { return x - y })
}

// Multiply keeps the low esize bits of each lane product.
func Multiply(esize int, a, b V128) V128 {
	return mapLanes(esize, a, b, func(x, y uint64) uint64 { return x * y })
}

func UnsignedAbsoluteDifference(esize int, a, b V128) V128 {
	return mapLanes(esize, a, b, func(x, y uint64) uint64 {
		if x > y {
			return x - y
		}
		return y - x
	})
}

func SignedAbsoluteDifference(esize int, a, b V128) V128 {
	return mapLanes(esize, a, b, func(x, y uint64) uint64 {
		sx, sy := signExtendLane(x, esize), signExtendLane(y, esize)
		if sx > sy {
			return uint64(sx) - uint64(sy)
		}
		return uint64(sy) - uint64(sx)
	})
}
