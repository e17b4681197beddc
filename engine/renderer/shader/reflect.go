package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// structBlockRegex matches a WGSL struct declaration and captures its name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// attributeRegex matches a WGSL attribute such as @location(0) or @builtin(position).
	attributeRegex = regexp.MustCompile(`@\w+(\([^)]*\))?`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, address space, variable name and type of a resource.
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// UniformField is one leaf member of a uniform block, addressed by its flattened name
// such as "exposure" or "lights[2].position".
type UniformField struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// UniformBlock is the reflected layout of the single uniform buffer a shader declares.
type UniformBlock struct {
	Var     string
	Struct  string
	Group   uint32
	Binding uint32
	Size    uint64
	Fields  map[string]UniformField
}

// TextureBinding is a sampled texture or sampler resource declared by a shader.
type TextureBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Sampler bool
}

type parsedField struct {
	name     string
	typeName string
}

type typeLayout struct {
	align uint64
	size  uint64
}

var primitiveLayouts = map[string]typeLayout{
	"f32": {4, 4}, "i32": {4, 4}, "u32": {4, 4},
	"vec2<f32>": {8, 8}, "vec2f": {8, 8}, "vec2<i32>": {8, 8}, "vec2i": {8, 8}, "vec2<u32>": {8, 8}, "vec2u": {8, 8},
	"vec3<f32>": {16, 12}, "vec3f": {16, 12}, "vec3<i32>": {16, 12}, "vec3i": {16, 12}, "vec3<u32>": {16, 12}, "vec3u": {16, 12},
	"vec4<f32>": {16, 16}, "vec4f": {16, 16}, "vec4<i32>": {16, 16}, "vec4i": {16, 16}, "vec4<u32>": {16, 16}, "vec4u": {16, 16},
	"mat3x3<f32>": {16, 48}, "mat3x3f": {16, 48},
	"mat4x4<f32>": {16, 64}, "mat4x4f": {16, 64},
}

// reflector resolves struct layouts for the uniform address space.
type reflector struct {
	structs map[string][]parsedField
	layouts map[string]typeLayout
}

func newReflector(source string) *reflector {
	r := &reflector{
		structs: make(map[string][]parsedField),
		layouts: make(map[string]typeLayout),
	}
	for _, m := range structBlockRegex.FindAllStringSubmatch(source, -1) {
		r.structs[m[1]] = parseStructFields(m[2])
	}
	return r
}

func parseStructFields(body string) []parsedField {
	var fields []parsedField
	for _, part := range splitAtTopLevelCommas(body) {
		part = strings.TrimSpace(attributeRegex.ReplaceAllString(part, ""))
		if part == "" {
			continue
		}
		name, typeName, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		fields = append(fields, parsedField{
			name:     strings.TrimSpace(name),
			typeName: strings.Join(strings.Fields(typeName), ""),
		})
	}
	return fields
}

// layout returns alignment and size of a type as it sits in a uniform buffer.
func (r *reflector) layout(typeName string) (typeLayout, error) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, nil
	}
	if l, ok := r.layouts[typeName]; ok {
		return l, nil
	}
	if elem, count, ok := splitArray(typeName); ok {
		el, err := r.layout(elem)
		if err != nil {
			return typeLayout{}, err
		}
		// Uniform arrays need a 16-byte aligned stride.
		stride := roundUpAlign(16, roundUpAlign(el.align, el.size))
		return typeLayout{align: max(el.align, 16), size: stride * count}, nil
	}
	fields, ok := r.structs[typeName]
	if !ok {
		return typeLayout{}, fmt.Errorf("unknown type %q", typeName)
	}
	offset, align := uint64(0), uint64(16)
	for _, f := range fields {
		fl, err := r.layout(f.typeName)
		if err != nil {
			return typeLayout{}, fmt.Errorf("%s.%s: %w", typeName, f.name, err)
		}
		offset = roundUpAlign(fl.align, offset) + fl.size
		align = max(align, fl.align)
	}
	l := typeLayout{align: align, size: roundUpAlign(align, offset)}
	r.layouts[typeName] = l
	return l, nil
}

// flatten records every leaf of typeName at base under the given name prefix.
func (r *reflector) flatten(prefix, typeName string, base uint64, out map[string]UniformField) error {
	if l, ok := primitiveLayouts[typeName]; ok {
		out[prefix] = UniformField{Name: prefix, Type: typeName, Offset: base, Size: l.size}
		return nil
	}
	if elem, count, ok := splitArray(typeName); ok {
		el, err := r.layout(elem)
		if err != nil {
			return err
		}
		stride := roundUpAlign(16, roundUpAlign(el.align, el.size))
		for i := uint64(0); i < count; i++ {
			if err := r.flatten(fmt.Sprintf("%s[%d]", prefix, i), elem, base+i*stride, out); err != nil {
				return err
			}
		}
		return nil
	}
	fields, ok := r.structs[typeName]
	if !ok {
		return fmt.Errorf("unknown type %q", typeName)
	}
	offset := uint64(0)
	for _, f := range fields {
		fl, err := r.layout(f.typeName)
		if err != nil {
			return err
		}
		offset = roundUpAlign(fl.align, offset)
		name := f.name
		if prefix != "" {
			name = prefix + "." + f.name
		}
		if err := r.flatten(name, f.typeName, base+offset, out); err != nil {
			return err
		}
		offset += fl.size
	}
	return nil
}

// reflectResources finds the uniform block and the texture/sampler bindings of a shader.
// A shader may declare at most one uniform buffer.
func reflectResources(source string) (*UniformBlock, []TextureBinding, error) {
	cleaned := stripComments(source)
	r := newReflector(cleaned)

	var block *UniformBlock
	var textures []TextureBinding
	for _, m := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		space, name, typeName := strings.TrimSpace(m[3]), m[4], strings.Join(strings.Fields(m[5]), "")

		switch {
		case space == "uniform":
			if block != nil {
				return nil, nil, fmt.Errorf("%w: more than one uniform buffer (%s, %s)", ErrReflection, block.Var, name)
			}
			l, err := r.layout(typeName)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrReflection, err)
			}
			block = &UniformBlock{
				Var:     name,
				Struct:  typeName,
				Group:   uint32(group),
				Binding: uint32(binding),
				Size:    l.size,
				Fields:  make(map[string]UniformField),
			}
			if err := r.flatten("", typeName, 0, block.Fields); err != nil {
				return nil, nil, fmt.Errorf("%w: %v", ErrReflection, err)
			}
		case strings.HasPrefix(typeName, "texture_2d"):
			textures = append(textures, TextureBinding{Name: name, Group: uint32(group), Binding: uint32(binding)})
		case typeName == "sampler":
			textures = append(textures, TextureBinding{Name: name, Group: uint32(group), Binding: uint32(binding), Sampler: true})
		}
	}
	return block, textures, nil
}

func parseEntryPoint(source string, shaderType ShaderType) string {
	re := vertexEntryRegex
	if shaderType == ShaderTypeFragment {
		re = fragmentEntryRegex
	}
	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

func splitArray(typeName string) (string, uint64, bool) {
	if !strings.HasPrefix(typeName, "array<") || !strings.HasSuffix(typeName, ">") {
		return "", 0, false
	}
	elem, countStr, ok := strings.Cut(typeName[len("array<"):len(typeName)-1], ",")
	if !ok {
		return "", 0, false
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countStr), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(elem), count, true
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// splitAtTopLevelCommas splits at commas that are not nested inside angle brackets,
// so array<Light, 4> stays one field.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case source[i] == '/' && source[i+1] == '/' && depth == 0:
				for i < len(source) && source[i] != '\n' {
					i++
				}
				sb.WriteByte('\n')
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
