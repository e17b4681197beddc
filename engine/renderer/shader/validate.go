package shader

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// spirvMagic is the first word of every SPIR-V module.
const spirvMagic = 0x07230203

// ErrValidation is returned when WGSL source fails to compile.
var ErrValidation = errors.New("shader: validation failed")

// Validate compiles WGSL to SPIR-V with naga, which type-checks the whole module
// before it ever reaches a device.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - []byte: the SPIR-V module
//   - error: an ErrValidation-wrapped error if compilation fails or produces no module
func Validate(source string) ([]byte, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(spirv) < 4 || binary.LittleEndian.Uint32(spirv) != spirvMagic {
		return nil, fmt.Errorf("%w: output is not a SPIR-V module", ErrValidation)
	}
	return spirv, nil
}

// ValidateSources validates every built-in shader, honoring overrides in dir.
//
// Parameters:
//   - dir: optional override directory, may be ""
//
// Returns:
//   - map[string]error: the validation result per file name, nil entries passed
func ValidateSources(dir string) map[string]error {
	results := make(map[string]error)
	for _, name := range Sources() {
		source, _, err := ReadSource(dir, name)
		if err == nil {
			_, err = Validate(source)
		}
		results[name] = err
	}
	return results
}
