package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports/mocks"
	"go.trai.ch/codetask/internal/engine/parser"
	"go.uber.org/mock/gomock"
)

func newParser(t *testing.T) (*parser.Parser, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	return parser.New(logger), logger
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	desc, err := p.Parse(parser.ParseRequest{
		Name:       "Greet",
		Definition: `<Code>self.Result = "hi"</Code>`,
	})
	require.NoError(t, err)

	assert.Equal(t, "Greet", desc.Name())
	assert.Equal(t, domain.LanguageLua, desc.Language())
	assert.Equal(t, domain.CodeTypeFragment, desc.CodeType())
	assert.Equal(t, `self.Result = "hi"`, desc.SourceCode())
	assert.Equal(t, []string{"math", "string", "table"}, desc.Namespaces())
	assert.Equal(t, []string{domain.HostLibrary}, desc.References())
}

func TestParse_ElementsAreCaseInsensitive(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	desc, err := p.Parse(parser.ParseRequest{
		Name: "Greet",
		Definition: `
			<!-- helpers -->
			<reference include=" util " />
			<USING Namespace="os"/>
			<Import namespace="io"/>
			<code type="method" language="GOLANG"><![CDATA[func (t *Greet) Execute() bool { return 1 < 2 }]]></code>`,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.LanguageGo, desc.Language())
	assert.Equal(t, domain.CodeTypeMethod, desc.CodeType())
	assert.Contains(t, desc.References(), "util")
	assert.Contains(t, desc.Namespaces(), "os")
	assert.Contains(t, desc.Namespaces(), "io")
	assert.Contains(t, desc.SourceCode(), "1 < 2")
}

func TestParse_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		definition string
		sentinel   error
		code       domain.ErrorCode
	}{
		{
			name:       "duplicate code block",
			definition: `<Code>a()</Code><Code>b()</Code>`,
			sentinel:   domain.ErrDuplicateCodeBlock,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "empty include",
			definition: `<Reference Include="" /><Code>a()</Code>`,
			sentinel:   domain.ErrEmptyAttribute,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "blank namespace",
			definition: `<Using Namespace="   " /><Code>a()</Code>`,
			sentinel:   domain.ErrEmptyAttribute,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "missing include",
			definition: `<Reference /><Code>a()</Code>`,
			sentinel:   domain.ErrMissingAttribute,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "unknown element",
			definition: `<Script>a()</Script>`,
			sentinel:   domain.ErrUnknownElement,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "element inside code",
			definition: `<Code><b>a()</b></Code>`,
			sentinel:   domain.ErrUnknownElement,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "stray text",
			definition: `hello <Code>a()</Code>`,
			sentinel:   domain.ErrUnexpectedContent,
			code:       domain.CodeSchemaViolation,
		},
		{
			name:       "malformed markup",
			definition: `<Code>a()</Cod>`,
			sentinel:   domain.ErrMalformedDefinition,
			code:       domain.CodeMalformedDefinition,
		},
		{
			name:       "unclosed element",
			definition: `<Code>a()`,
			sentinel:   domain.ErrMalformedDefinition,
			code:       domain.CodeMalformedDefinition,
		},
		{
			name:       "definition closes the root",
			definition: `<Code>a()</Code></TaskDefinition>`,
			sentinel:   domain.ErrMalformedDefinition,
			code:       domain.CodeMalformedDefinition,
		},
		{
			name:       "markup after the root",
			definition: `<Code>a()</Code></TaskDefinition><Code>b()</Code><TaskDefinition>`,
			sentinel:   domain.ErrMalformedDefinition,
			code:       domain.CodeMalformedDefinition,
		},
		{
			name:       "text after the root",
			definition: `<Code>a()</Code></TaskDefinition>tail<TaskDefinition>`,
			sentinel:   domain.ErrMalformedDefinition,
			code:       domain.CodeMalformedDefinition,
		},
		{
			name:       "unknown language",
			definition: `<Code Language="cobol">a()</Code>`,
			sentinel:   domain.ErrUnsupportedLanguage,
			code:       domain.CodeUnsupportedLanguage,
		},
		{
			name:       "unknown type",
			definition: `<Code Type="Module">a()</Code>`,
			sentinel:   domain.ErrUnsupportedCodeType,
			code:       domain.CodeUnsupportedCompileUnitKind,
		},
		{
			name:       "no code block",
			definition: `<Reference Include="util" />`,
			sentinel:   domain.ErrMissingSourceCode,
			code:       domain.CodeMissingSourceCode,
		},
		{
			name:       "whitespace body",
			definition: "<Code>\n\t  </Code>",
			sentinel:   domain.ErrMissingSourceCode,
			code:       domain.CodeMissingSourceCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, _ := newParser(t)

			desc, err := p.Parse(parser.ParseRequest{Name: "Task", Definition: tt.definition})
			require.Error(t, err)
			assert.Nil(t, desc)
			assert.True(t, domain.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, tt.code, domain.CodeOf(err))
		})
	}
}

func TestParse_SourceAttributeForcesClass(t *testing.T) {
	t.Parallel()
	p, logger := newParser(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "task.lua"), []byte("return Greet"), domain.PrivateFilePerm))

	logger.EXPECT().Warn(gomock.Any()).Times(1)

	desc, err := p.Parse(parser.ParseRequest{
		Name:       "Greet",
		Definition: `<Code Type="Fragment" Source="task.lua">ignored inline text</Code>`,
		Parameters: []domain.ParameterDescriptor{{Name: "Result", Type: domain.TypeString, Output: true}},
		BaseDir:    dir,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.CodeTypeClass, desc.CodeType())
	assert.Equal(t, "return Greet", desc.SourceCode())
}

func TestParse_MissingSourceFile(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	_, err := p.Parse(parser.ParseRequest{
		Name:       "Greet",
		Definition: `<Code Source="missing.lua" />`,
		BaseDir:    t.TempDir(),
	})
	require.Error(t, err)
	assert.Equal(t, domain.CodeMissingSourceCode, domain.CodeOf(err))
}

func TestParse_ClassWithoutParametersDoesNotWarn(t *testing.T) {
	t.Parallel()
	p, logger := newParser(t)
	logger.EXPECT().Warn(gomock.Any()).Times(0)

	desc, err := p.Parse(parser.ParseRequest{
		Name:       "Greet",
		Definition: `<Code Type="Class">return Greet</Code>`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CodeTypeClass, desc.CodeType())
}

func TestParse_InvalidTaskName(t *testing.T) {
	t.Parallel()
	p, _ := newParser(t)

	_, err := p.Parse(parser.ParseRequest{Name: "my-task", Definition: `<Code>a()</Code>`})
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.ErrInvalidTaskName))
}
