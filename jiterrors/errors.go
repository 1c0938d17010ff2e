package jiterrors

import (
	"errors"
	"strings"
)

// Decode (D) errors: raised while turning one guest instruction into IR.
var (
	ErrReservedValue            = errors.New("D1|ReservedValue: Instruction uses a reserved field value.")
	ErrUnallocatedEncoding      = errors.New("D2|UnallocatedEncoding: Instruction word matches no allocated encoding.")
	ErrUnpredictableInstruction = errors.New("D3|UnpredictableInstruction: Encoding is architecturally unpredictable.")
	ErrDecodeFailure            = errors.New("D4|DecodeFailure: Instruction could not be decoded.")
)

// Block (B) errors: consistency violations found by verification.
var (
	ErrInvalidBlock      = errors.New("B1|InvalidBlock: Block failed IR verification.")
	ErrMissingTerminal   = errors.New("B2|MissingTerminal: Block has no terminal.")
	ErrDanglingReference = errors.New("B3|DanglingReference: Argument refers to a removed or foreign instruction.")
	ErrUseBeforeDef      = errors.New("B4|UseBeforeDef: Argument is defined after its use.")
	ErrTypeMismatch      = errors.New("B5|TypeMismatch: Argument type does not match the opcode signature.")
	ErrUseCount          = errors.New("B6|UseCount: Recorded use count disagrees with the block.")
)

// Configuration (C) errors.
var (
	ErrConfig         = errors.New("C1|Config: Invalid configuration.")
	ErrHLEStore       = errors.New("C2|HLEStore: Host function store failure.")
	ErrInvalidAddress = errors.New("C3|InvalidAddress: Address could not be parsed.")
)

// Verification errors wrap ErrInvalidBlock together with a specific cause,
// so the causes are listed first.
var all = []error{
	ErrReservedValue, ErrUnallocatedEncoding, ErrUnpredictableInstruction, ErrDecodeFailure,
	ErrMissingTerminal, ErrDanglingReference, ErrUseBeforeDef, ErrTypeMismatch, ErrUseCount, ErrInvalidBlock,
	ErrConfig, ErrHLEStore, ErrInvalidAddress,
}

// IsDecodeFault reports whether err signals an instruction that refuses to translate.
func IsDecodeFault(err error) bool {
	return errors.Is(err, ErrReservedValue) ||
		errors.Is(err, ErrUnallocatedEncoding) ||
		errors.Is(err, ErrUnpredictableInstruction) ||
		errors.Is(err, ErrDecodeFailure)
}

// sentinel returns the first table entry wrapped by err, or err itself.
func sentinel(err error) error {
	for _, s := range all {
		if errors.Is(err, s) {
			return s
		}
	}
	return err
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}
