package ir

// Type is the static type of an IR value.
type Type uint8

const (
	TypeVoid Type = iota
	TypeU1
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeU128
	TypeA64Reg
	TypeA64Vec
	// TypeOpaque matches any type; used for Identity.
	TypeOpaque
)

var typeNames = [...]string{
	TypeVoid:   "Void",
	TypeU1:     "U1",
	TypeU8:     "U8",
	TypeU16:    "U16",
	TypeU32:    "U32",
	TypeU64:    "U64",
	TypeU128:   "U128",
	TypeA64Reg: "A64Reg",
	TypeA64Vec: "A64Vec",
	TypeOpaque: "Opaque",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// AreTypesCompatible reports whether a value of type t1 may flow into a slot of type t2.
func AreTypesCompatible(t1, t2 Type) bool {
	return t1 == t2 || t1 == TypeOpaque || t2 == TypeOpaque
}
