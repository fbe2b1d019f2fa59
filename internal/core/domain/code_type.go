package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// CodeType is the compile unit kind of a task body.
type CodeType uint8

const (
	// CodeTypeFragment is a bare statement list that becomes the body of Execute.
	CodeTypeFragment CodeType = iota
	// CodeTypeMethod is one or more method definitions placed inside the generated type.
	CodeTypeMethod
	// CodeTypeClass is a complete type definition; parameters are derived from it.
	CodeTypeClass
)

var codeTypeNames = [...]string{
	CodeTypeFragment: "Fragment",
	CodeTypeMethod:   "Method",
	CodeTypeClass:    "Class",
}

// ParseCodeType parses a code type name case-insensitively.
func ParseCodeType(s string) (CodeType, error) {
	name := strings.TrimSpace(s)
	for i, n := range codeTypeNames {
		if strings.EqualFold(n, name) {
			return CodeType(i), nil
		}
	}
	return 0, zerr.With(ErrUnsupportedCodeType, "type", s)
}

// String returns the canonical name of the code type.
func (c CodeType) String() string {
	if int(c) < len(codeTypeNames) {
		return codeTypeNames[c]
	}
	return "unknown"
}
