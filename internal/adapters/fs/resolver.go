// Package fs resolves task references against the file system.
package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ReferenceResolver = (*ReferenceResolver)(nil)

// ReferenceResolver maps reference names to absolute file paths. A reference
// is either a path to an existing file or a short name looked up in the
// reference directory.
type ReferenceResolver struct {
	referenceDir string
	workDir      string
}

// NewReferenceResolver creates a resolver. Relative references are tried
// against workDir before short names are looked up in referenceDir.
func NewReferenceResolver(referenceDir, workDir string) *ReferenceResolver {
	return &ReferenceResolver{referenceDir: referenceDir, workDir: workDir}
}

// Resolve implements ports.ReferenceResolver. Every candidate is tried; the
// error lists all references that could not be found.
func (r *ReferenceResolver) Resolve(desc *domain.TaskDescriptor) ([]string, error) {
	lang := desc.Language()

	var (
		resolved []string
		missing  []string
	)
	seen := make(map[string]bool)
	for _, ref := range candidates(desc) {
		path, ok := r.resolveOne(ref, lang)
		if !ok {
			missing = append(missing, ref)
			continue
		}
		key := strings.ToLower(path)
		if seen[key] {
			continue
		}
		seen[key] = true
		resolved = append(resolved, path)
	}

	if len(missing) > 0 {
		err := zerr.With(domain.ErrUnresolvedReferences, "references", missing)
		return nil, zerr.With(err, "reference_dir", r.referenceDir)
	}
	return resolved, nil
}

// candidates orders the references of desc: declared ones first, then the
// host library, then the language defaults.
func candidates(desc *domain.TaskDescriptor) []string {
	defaults := append([]string{domain.HostLibrary}, desc.Language().DefaultReferences()...)
	isDefault := func(ref string) bool {
		return slices.ContainsFunc(defaults, func(d string) bool { return strings.EqualFold(d, ref) })
	}

	refs := desc.References()
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !isDefault(ref) {
			out = append(out, ref)
		}
	}
	for _, d := range defaults {
		if i := slices.IndexFunc(refs, func(ref string) bool { return strings.EqualFold(ref, d) }); i >= 0 {
			out = append(out, refs[i])
		}
	}
	return out
}

func (r *ReferenceResolver) resolveOne(ref string, lang domain.Language) (string, bool) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.workDir, path)
	}
	if isFile(path) {
		return absolute(path), true
	}
	if filepath.IsAbs(ref) || strings.ContainsAny(ref, `/\`) {
		return "", false
	}

	name := ref
	if !strings.EqualFold(filepath.Ext(name), lang.Extension()) {
		name += lang.Extension()
	}
	path = filepath.Join(r.referenceDir, name)
	if isFile(path) {
		return absolute(path), true
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absolute(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
