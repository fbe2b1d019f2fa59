package domain

import "errors"

// messager matches errors that report their own message without the chain, like zerr.Error.
type messager interface {
	Message() string
}

// ErrorCode is the stable classification of a failure surfaced to the host.
type ErrorCode uint8

const (
	// CodeUnknown classifies failures outside the task factory taxonomy.
	CodeUnknown ErrorCode = iota
	// CodeMalformedDefinition classifies unparseable definition markup.
	CodeMalformedDefinition
	// CodeSchemaViolation classifies well-formed markup that breaks the definition schema.
	CodeSchemaViolation
	// CodeUnsupportedLanguage classifies unknown code languages.
	CodeUnsupportedLanguage
	// CodeUnsupportedCompileUnitKind classifies unknown code types.
	CodeUnsupportedCompileUnitKind
	// CodeMissingSourceCode classifies definitions without source code.
	CodeMissingSourceCode
	// CodeUnresolvedReferences classifies reference resolution failures.
	CodeUnresolvedReferences
	// CodeCompilationFailure classifies backend compile failures.
	CodeCompilationFailure
	// CodeModuleLoadFailure classifies failures loading a compiled module.
	CodeModuleLoadFailure
	// CodeInvalidParameter classifies bad parameter declarations or values.
	CodeInvalidParameter
)

var codeNames = [...]string{
	CodeUnknown:                    "Unknown",
	CodeMalformedDefinition:        "MalformedDefinition",
	CodeSchemaViolation:            "SchemaViolation",
	CodeUnsupportedLanguage:        "UnsupportedLanguage",
	CodeUnsupportedCompileUnitKind: "UnsupportedCompileUnitKind",
	CodeMissingSourceCode:          "MissingSourceCode",
	CodeUnresolvedReferences:       "UnresolvedReferences",
	CodeCompilationFailure:         "CompilationFailure",
	CodeModuleLoadFailure:          "ModuleLoadFailure",
	CodeInvalidParameter:           "InvalidParameter",
}

// String returns the name of the code.
func (c ErrorCode) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return codeNames[CodeUnknown]
}

var codeTable = []struct {
	sentinel error
	code     ErrorCode
}{
	{ErrMalformedDefinition, CodeMalformedDefinition},
	{ErrUnknownElement, CodeSchemaViolation},
	{ErrDuplicateCodeBlock, CodeSchemaViolation},
	{ErrEmptyAttribute, CodeSchemaViolation},
	{ErrMissingAttribute, CodeSchemaViolation},
	{ErrUnexpectedContent, CodeSchemaViolation},
	{ErrUnsupportedLanguage, CodeUnsupportedLanguage},
	{ErrUnsupportedCodeType, CodeUnsupportedCompileUnitKind},
	{ErrMissingSourceCode, CodeMissingSourceCode},
	{ErrUnresolvedReferences, CodeUnresolvedReferences},
	{ErrCompilationFailed, CodeCompilationFailure},
	{ErrModuleLoadFailed, CodeModuleLoadFailure},
	{ErrTypeNotFound, CodeModuleLoadFailure},
	{ErrInvalidParameterType, CodeInvalidParameter},
	{ErrInvalidParameterName, CodeInvalidParameter},
	{ErrInvalidParameterValue, CodeInvalidParameter},
	{ErrUnknownParameter, CodeInvalidParameter},
	{ErrMissingRequiredParameter, CodeInvalidParameter},
}

// CodeOf returns the stable code classifying err. The outermost classified
// error in the chain wins.
func CodeOf(err error) ErrorCode {
	code := CodeUnknown
	walk(err, func(e error) bool {
		for _, entry := range codeTable {
			if e == entry.sentinel || sameMessage(e, entry.sentinel) {
				code = entry.code
				return true
			}
		}
		return false
	})
	return code
}

// Is reports whether err carries sentinel. Besides errors.Is identity it accepts
// copies made by zerr.With and wraps made by zerr.Wrap(cause, sentinel.Error()),
// which both keep the sentinel's message.
func Is(err, sentinel error) bool {
	if errors.Is(err, sentinel) {
		return true
	}
	return walk(err, func(e error) bool {
		return sameMessage(e, sentinel)
	})
}

func sameMessage(err, sentinel error) bool {
	want, ok := sentinel.(messager)
	if !ok {
		return false
	}
	got, ok := err.(messager)
	return ok && got.Message() == want.Message()
}

func walk(err error, match func(error) bool) bool {
	for err != nil {
		if match(err) {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, branch := range u.Unwrap() {
				if walk(branch, match) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}
