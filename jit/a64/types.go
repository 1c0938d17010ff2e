package a64

import "fmt"

// Reg is a general purpose register number. 31 encodes SP or ZR depending
// on the instruction.
type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	R16
	R17
	R18
	R19
	R20
	R21
	R22
	R23
	R24
	R25
	R26
	R27
	R28
	R29
	R30
	R31

	SP = R31
	ZR = R31
	LR = R30
)

// IsIntraProcedureScratch reports whether r is IP0 or IP1, the registers the
// procedure call standard lets linker veneers and PLT stubs clobber.
func (r Reg) IsIntraProcedureScratch() bool {
	return r == R16 || r == R17
}

func (r Reg) String() string {
	switch r {
	case R31:
		return "sp/zr"
	case R30:
		return "lr"
	}
	return fmt.Sprintf("r%d", uint8(r))
}

// Vec is a SIMD&FP register number.
type Vec uint8

const NumVecs = 32

func (v Vec) String() string {
	return fmt.Sprintf("v%d", uint8(v))
}

// Exception is the kind carried by A64ExceptionRaised.
type Exception uint64

const (
	ExceptionUnallocatedEncoding Exception = iota
	ExceptionReservedValue
	ExceptionUnpredictableInstruction
	ExceptionDecodeFailure
)

var exceptionNames = [...]string{
	ExceptionUnallocatedEncoding:      "UnallocatedEncoding",
	ExceptionReservedValue:            "ReservedValue",
	ExceptionUnpredictableInstruction: "UnpredictableInstruction",
	ExceptionDecodeFailure:            "DecodeFailure",
}

func (e Exception) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return fmt.Sprintf("Exception(%d)", uint64(e))
}
