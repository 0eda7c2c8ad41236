package shader

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
)

// CompileSPIRV compiles WGSL to SPIR-V words for backends that consume
// SPIR-V directly.
func CompileSPIRV(code string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(code)
	if err != nil {
		return nil, fmt.Errorf("shader: compile: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("shader: compile: SPIR-V size %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
