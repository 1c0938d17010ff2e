package a64

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/slices"
)

// Handler translates one decoded instruction word.
type Handler func(v *TranslatorVisitor, inst uint32) error

// Matcher pairs an encoding bit pattern with the handler for it.
type Matcher struct {
	Name   string
	mask   uint32
	expect uint32
	fn     Handler
}

func (m *Matcher) Matches(inst uint32) bool { return inst&m.mask == m.expect }

func (m *Matcher) Call(v *TranslatorVisitor, inst uint32) error { return m.fn(v, inst) }

// newMatcher builds a matcher from a 32 character pattern, most significant
// bit first. '0' and '1' are fixed bits, any other character is an operand.
func newMatcher(name, pattern string, fn Handler) Matcher {
	if len(pattern) != 32 {
		panic(fmt.Sprintf("a64: pattern for %s has %d bits", name, len(pattern)))
	}
	m := Matcher{Name: name, fn: fn}
	for i, c := range pattern {
		bit := uint32(1) << (31 - i)
		switch c {
		case '0':
			m.mask |= bit
		case '1':
			m.mask |= bit
			m.expect |= bit
		}
	}
	return m
}

var decodeTable = func() []Matcher {
	table := []Matcher{
		// SIMD three different
		newMatcher("SADDL", "0Q001110zz1mmmmm000000nnnnnddddd", SADDL),
		newMatcher("SADDW", "0Q001110zz1mmmmm000100nnnnnddddd", SADDW),
		newMatcher("SSUBL", "0Q001110zz1mmmmm001000nnnnnddddd", SSUBL),
		newMatcher("SSUBW", "0Q001110zz1mmmmm001100nnnnnddddd", SSUBW),
		newMatcher("SABAL", "0Q001110zz1mmmmm010100nnnnnddddd", SABAL),
		newMatcher("SABDL", "0Q001110zz1mmmmm011100nnnnnddddd", SABDL),
		newMatcher("SMULL", "0Q001110zz1mmmmm110000nnnnnddddd", SMULL),
		newMatcher("UADDL", "0Q101110zz1mmmmm000000nnnnnddddd", UADDL),
		newMatcher("UADDW", "0Q101110zz1mmmmm000100nnnnnddddd", UADDW),
		newMatcher("USUBL", "0Q101110zz1mmmmm001000nnnnnddddd", USUBL),
		newMatcher("USUBW", "0Q101110zz1mmmmm001100nnnnnddddd", USUBW),
		newMatcher("UABAL", "0Q101110zz1mmmmm010100nnnnnddddd", UABAL),
		newMatcher("UABDL", "0Q101110zz1mmmmm011100nnnnnddddd", UABDL),
		newMatcher("UMULL", "0Q101110zz1mmmmm110000nnnnnddddd", UMULL),

		// Data processing - immediate
		newMatcher("ADR", "0ii10000iiiiiiiiiiiiiiiiiiiddddd", ADR),
		newMatcher("ADRP", "1ii10000iiiiiiiiiiiiiiiiiiiddddd", ADRP),
		newMatcher("ADD_imm", "z00100010siiiiiiiiiiiinnnnnddddd", ADDImm),
		newMatcher("SUB_imm", "z10100010siiiiiiiiiiiinnnnnddddd", SUBImm),
		newMatcher("MOVZ", "z10100101hhiiiiiiiiiiiiiiiiddddd", MOVZ),
		newMatcher("MOVK", "z11100101hhiiiiiiiiiiiiiiiiddddd", MOVK),

		// Loads and stores
		newMatcher("LDR_lit_32", "00011000iiiiiiiiiiiiiiiiiiittttt", LDRLiteral),
		newMatcher("LDR_lit_64", "01011000iiiiiiiiiiiiiiiiiiittttt", LDRLiteral),
		newMatcher("LDR_imm_32", "1011100101iiiiiiiiiiiinnnnnttttt", LDRUnsignedOffset),
		newMatcher("LDR_imm_64", "1111100101iiiiiiiiiiiinnnnnttttt", LDRUnsignedOffset),
		newMatcher("STR_imm_32", "1011100100iiiiiiiiiiiinnnnnttttt", STRUnsignedOffset),
		newMatcher("STR_imm_64", "1111100100iiiiiiiiiiiinnnnnttttt", STRUnsignedOffset),
		newMatcher("LDR_post_64", "11111000010iiiiiiiii01nnnnnttttt", LDRIndexed),
		newMatcher("LDR_pre_64", "11111000010iiiiiiiii11nnnnnttttt", LDRIndexed),
		newMatcher("STR_post_64", "11111000000iiiiiiiii01nnnnnttttt", STRIndexed),
		newMatcher("STR_pre_64", "11111000000iiiiiiiii11nnnnnttttt", STRIndexed),

		// Branches, exception generation and system
		newMatcher("B", "000101iiiiiiiiiiiiiiiiiiiiiiiiii", B),
		newMatcher("BL", "100101iiiiiiiiiiiiiiiiiiiiiiiiii", BL),
		newMatcher("BR", "1101011000011111000000nnnnn00000", BR),
		newMatcher("BLR", "1101011000111111000000nnnnn00000", BLR),
		newMatcher("RET", "1101011001011111000000nnnnn00000", RET),
		newMatcher("NOP", "11010101000000110010000000011111", NOP),
		newMatcher("SVC", "11010100000iiiiiiiiiiiiiiii00001", SVC),
	}
	// More specific encodings are tried first.
	slices.SortStableFunc(table, func(a, b Matcher) int {
		return bits.OnesCount32(b.mask) - bits.OnesCount32(a.mask)
	})
	return table
}()

// Decode returns the matcher for inst, or false if no allocated encoding in
// the table matches.
func Decode(inst uint32) (*Matcher, bool) {
	for i := range decodeTable {
		if decodeTable[i].Matches(inst) {
			return &decodeTable[i], true
		}
	}
	return nil, false
}

// Field helpers

func bit(inst uint32, n uint) bool { return inst>>n&1 != 0 }

func field(inst uint32, hi, lo uint) uint32 {
	return inst >> lo & (1<<(hi-lo+1) - 1)
}

func signExtend(x uint32, width uint) int64 {
	return int64(int32(x<<(32-width)) >> (32 - width))
}
