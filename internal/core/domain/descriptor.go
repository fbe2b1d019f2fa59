package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// TaskDescriptor is the immutable identity of one compilable unit and the key of
// the compilation cache.
type TaskDescriptor struct {
	name       string
	language   Language
	codeType   CodeType
	sourceCode string
	namespaces []string
	references []string
	key        string
}

// DescriptorSpec holds the raw values a TaskDescriptor is built from.
type DescriptorSpec struct {
	Name       string
	Language   Language
	CodeType   CodeType
	SourceCode string
	Namespaces []string
	References []string
}

// NewTaskDescriptor builds a descriptor. Default namespaces and references for the
// language are always merged in, and both sets are deduplicated case-insensitively.
func NewTaskDescriptor(spec DescriptorSpec) *TaskDescriptor {
	namespaces := append(spec.Language.DefaultNamespaces(), spec.Namespaces...)
	references := append([]string{HostLibrary}, spec.Language.DefaultReferences()...)
	references = append(references, spec.References...)

	d := &TaskDescriptor{
		name:       spec.Name,
		language:   spec.Language,
		codeType:   spec.CodeType,
		sourceCode: spec.SourceCode,
		namespaces: foldSet(namespaces),
		references: foldSet(references),
	}
	d.key = d.computeKey()
	return d
}

// foldSet deduplicates values case-insensitively. When spellings collide the
// lexicographically smallest one is kept, so the result does not depend on input order.
func foldSet(values []string) []string {
	byFold := make(map[string]string, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if existing, ok := byFold[k]; !ok || v < existing {
			byFold[k] = v
		}
	}
	out := make([]string, 0, len(byFold))
	for _, v := range byFold {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

// Name returns the task name.
func (d *TaskDescriptor) Name() string { return d.name }

// Language returns the code language.
func (d *TaskDescriptor) Language() Language { return d.language }

// CodeType returns the compile unit kind.
func (d *TaskDescriptor) CodeType() CodeType { return d.codeType }

// SourceCode returns the source text. Before rendering this is the user's body;
// after rendering it is the complete generated source.
func (d *TaskDescriptor) SourceCode() string { return d.sourceCode }

// Namespaces returns a sorted copy of the namespace set.
func (d *TaskDescriptor) Namespaces() []string { return slices.Clone(d.namespaces) }

// References returns a sorted copy of the reference set.
func (d *TaskDescriptor) References() []string { return slices.Clone(d.references) }

// WithSourceCode returns a copy of the descriptor carrying the given source.
func (d *TaskDescriptor) WithSourceCode(source string) *TaskDescriptor {
	c := *d
	c.sourceCode = source
	c.key = c.computeKey()
	return &c
}

// Key returns the canonical cache key. Descriptors that differ only in set order
// or in the case of names, namespaces and references share a key.
func (d *TaskDescriptor) Key() string {
	return d.key
}

// Equal reports whether two descriptors are cache-equal.
func (d *TaskDescriptor) Equal(other *TaskDescriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.key == other.key
}

// Fingerprint returns a short hash of the key, suitable for logs and file names.
func (d *TaskDescriptor) Fingerprint() string {
	return strconv.FormatUint(xxhash.Sum64String(d.key), 16)
}

func (d *TaskDescriptor) computeKey() string {
	var b strings.Builder
	field := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	set := func(values []string) {
		b.WriteString(strconv.Itoa(len(values)))
		b.WriteByte('#')
		for _, v := range values {
			field(strings.ToLower(v))
		}
	}

	field(strings.ToLower(d.name))
	field(strings.ToLower(d.language.String()))
	field(d.codeType.String())
	field(d.sourceCode)
	set(d.namespaces)
	set(d.references)
	return b.String()
}
