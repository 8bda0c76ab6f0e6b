package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputPath returns where an artifact is written. The sheet and the C
// files go where the spec says; the other formats share a base path.
func OutputPath(res *Result, opts Options, artifact string) string {
	switch artifact {
	case FormatPNG:
		return res.Spec.PNG
	case ArtifactC:
		return res.Spec.C
	case ArtifactH:
		return res.Spec.H
	}
	base := opts.Output
	if base == "" {
		base = strings.TrimSuffix(res.Spec.PNG, filepath.Ext(res.Spec.PNG))
	}
	return base + "." + artifact
}

// WriteArtifacts writes every artifact of res to its output path, creating
// parent directories as needed. It returns the written paths in format
// order.
func WriteArtifacts(res *Result, opts Options) ([]string, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	var written []string
	for _, name := range opts.ArtifactNames() {
		data, ok := res.Artifacts[name]
		if !ok {
			continue
		}
		path := OutputPath(res, opts, name)
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return written, fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
