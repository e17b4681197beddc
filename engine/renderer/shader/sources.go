package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed shaders/*.wgsl
var embedded embed.FS

// Names of the built-in shader sources. Each file carries both a vs_main and an fs_main stage.
const (
	SourceScene     = "scene.wgsl"
	SourceBlur      = "blur.wgsl"
	SourceComposite = "composite.wgsl"
	SourceSky       = "sky.wgsl"
)

// Sources lists the built-in shader file names in lexical order.
func Sources() []string {
	names, _ := fs.Glob(embedded, "shaders/*.wgsl")
	for i, n := range names {
		names[i] = strings.TrimPrefix(n, "shaders/")
	}
	return names
}

// ReadSource returns the WGSL text for name. A non-empty dir holding a file of that
// name overrides the embedded copy, which is how edited shaders are picked up.
//
// Parameters:
//   - dir: optional override directory, may be ""
//   - name: the shader file name, e.g. SourceBlur
//
// Returns:
//   - string: the WGSL source
//   - string: the path it was read from, or "" for the embedded copy
//   - error: an error if neither the override nor an embedded source exists
func ReadSource(dir, name string) (string, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", fmt.Errorf("shader: failed to read %q: %w", path, err)
		}
	}
	data, err := embedded.ReadFile("shaders/" + name)
	if err != nil {
		return "", "", fmt.Errorf("shader: no source named %q: %w", name, err)
	}
	return string(data), "", nil
}

// LoadPair reflects the vertex and fragment stages of one source file.
//
// Parameters:
//   - dir: optional override directory, may be ""
//   - name: the shader file name
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: an error if the source is missing or cannot be reflected
func LoadPair(dir, name string) (Shader, Shader, error) {
	source, path, err := ReadSource(dir, name)
	if err != nil {
		return nil, nil, err
	}
	key := strings.TrimSuffix(name, filepath.Ext(name))
	vs, err := newShader(key+".vs", ShaderTypeVertex, source)
	if err != nil {
		return nil, nil, err
	}
	fsh, err := newShader(key+".fs", ShaderTypeFragment, source)
	if err != nil {
		return nil, nil, err
	}
	vs.path, fsh.path = path, path
	return vs, fsh, nil
}
