package config

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// HostFeatures summarizes the host SIMD support a code generator would
// select lowerings by.
type HostFeatures struct {
	Arch string

	// arm64
	ASIMD   bool
	AES     bool
	PMULL   bool
	SVE     bool
	ATOMICS bool

	// amd64
	SSE41   bool
	SSE42   bool
	AVX2    bool
	AVX512F bool
	BMI2    bool
}

func DetectHostFeatures() HostFeatures {
	return HostFeatures{
		Arch:    runtime.GOARCH,
		ASIMD:   cpu.ARM64.HasASIMD,
		AES:     cpu.ARM64.HasAES || cpu.X86.HasAES,
		PMULL:   cpu.ARM64.HasPMULL || cpu.X86.HasPCLMULQDQ,
		SVE:     cpu.ARM64.HasSVE,
		ATOMICS: cpu.ARM64.HasATOMICS,
		SSE41:   cpu.X86.HasSSE41,
		SSE42:   cpu.X86.HasSSE42,
		AVX2:    cpu.X86.HasAVX2,
		AVX512F: cpu.X86.HasAVX512F,
		BMI2:    cpu.X86.HasBMI2,
	}
}

// Has128BitVectors reports whether the host can hold a guest Q register in
// one native vector register.
func (h HostFeatures) Has128BitVectors() bool {
	return h.ASIMD || h.SSE41
}

func (h HostFeatures) String() string {
	var names []string
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"asimd", h.ASIMD}, {"aes", h.AES}, {"pmull", h.PMULL}, {"sve", h.SVE}, {"atomics", h.ATOMICS},
		{"sse4.1", h.SSE41}, {"sse4.2", h.SSE42}, {"avx2", h.AVX2}, {"avx512f", h.AVX512F}, {"bmi2", h.BMI2},
	} {
		if f.ok {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("%s: none", h.Arch)
	}
	return fmt.Sprintf("%s: %s", h.Arch, strings.Join(names, " "))
}
