package domain

import "go.trai.ch/zerr"

var (
	// ErrMalformedDefinition is returned when the definition markup cannot be parsed.
	ErrMalformedDefinition = zerr.New("malformed task definition")

	// ErrUnknownElement is returned when the definition contains an element other than Code, Reference or Using.
	ErrUnknownElement = zerr.New("unknown element in task definition")

	// ErrDuplicateCodeBlock is returned when the definition contains more than one Code element.
	ErrDuplicateCodeBlock = zerr.New("task definition contains more than one Code element")

	// ErrEmptyAttribute is returned when an attribute is present but has an empty value.
	ErrEmptyAttribute = zerr.New("attribute must not be empty")

	// ErrMissingAttribute is returned when a Reference or Using element lacks its identifying attribute.
	ErrMissingAttribute = zerr.New("required attribute is missing")

	// ErrUnexpectedContent is returned when text appears outside of any element.
	ErrUnexpectedContent = zerr.New("unexpected text in task definition")

	// ErrUnsupportedLanguage is returned when the code language is not known.
	ErrUnsupportedLanguage = zerr.New("unsupported code language")

	// ErrUnsupportedCodeType is returned when the compile unit kind is not Fragment, Method or Class.
	ErrUnsupportedCodeType = zerr.New("unsupported code type, expected 'Fragment', 'Method' or 'Class'")

	// ErrMissingSourceCode is returned when no source code remains after all overrides are applied.
	ErrMissingSourceCode = zerr.New("task definition has no source code")

	// ErrUnresolvedReferences is returned when one or more references could not be resolved.
	ErrUnresolvedReferences = zerr.New("unresolved references")

	// ErrCompilationFailed is returned when the backend reports errors.
	ErrCompilationFailed = zerr.New("compilation failed")

	// ErrModuleLoadFailed is returned when a compiled module cannot be loaded.
	ErrModuleLoadFailed = zerr.New("failed to load compiled module")

	// ErrTypeNotFound is returned when the loaded module does not export the task type.
	ErrTypeNotFound = zerr.New("task type not found in compiled module")

	// ErrInvalidParameterType is returned when a parameter declares an unknown type.
	ErrInvalidParameterType = zerr.New("invalid parameter type")

	// ErrInvalidParameterName is returned when a parameter name is not a valid identifier or is declared twice.
	ErrInvalidParameterName = zerr.New("invalid parameter name")

	// ErrInvalidParameterValue is returned when a raw value cannot be converted to the parameter type.
	ErrInvalidParameterValue = zerr.New("invalid parameter value")

	// ErrUnknownParameter is returned when an input names a parameter the task does not expose.
	ErrUnknownParameter = zerr.New("unknown parameter")

	// ErrMissingRequiredParameter is returned when a required input is not supplied.
	ErrMissingRequiredParameter = zerr.New("missing required parameter")

	// ErrInvalidTaskName is returned when a task name cannot be used as a type name.
	ErrInvalidTaskName = zerr.New("task name must start with a letter or underscore and contain only letters, digits and underscores")

	// ErrTaskNotFound is returned when a requested task is not declared in the project file.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrTaskExecutionFailed is returned when a task reports failure or raises an error while executing.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrScratchWriteFailed is returned when the scratch source file cannot be written.
	ErrScratchWriteFailed = zerr.New("failed to write scratch file")

	// ErrStoreCreateFailed is returned when the artifact store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create artifact store directory")

	// ErrStoreWriteFailed is returned when an artifact cannot be written to the store.
	ErrStoreWriteFailed = zerr.New("failed to write artifact")

	// ErrConfigReadFailed is returned when the project file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read project file")

	// ErrConfigParseFailed is returned when the project file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse project file")

	// ErrConfigNotFound is returned when no project file can be found.
	ErrConfigNotFound = zerr.New("could not find codetask.yaml")

	// ErrSettingsLoadFailed is returned when the settings cannot be loaded.
	ErrSettingsLoadFailed = zerr.New("failed to load settings")

	// ErrNoTasksSpecified is returned when a command needs at least one task name.
	ErrNoTasksSpecified = zerr.New("no tasks specified")

	// ErrDebuggerWaitTimeout is returned when no debugger attached within the configured timeout.
	ErrDebuggerWaitTimeout = zerr.New("timed out waiting for debugger")
)
