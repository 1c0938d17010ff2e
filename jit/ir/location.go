package ir

import "fmt"

// LocationDescriptor is the frontend-independent key of a translated block.
// Frontends pack their PC and mode bits into it.
type LocationDescriptor struct {
	value uint64
}

func NewLocationDescriptor(value uint64) LocationDescriptor {
	return LocationDescriptor{value: value}
}

func (l LocationDescriptor) Value() uint64 {
	return l.value
}

func (l LocationDescriptor) String() string {
	return fmt.Sprintf("{%016x}", l.value)
}
