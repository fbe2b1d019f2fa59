package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want domain.Language
		err  bool
	}{
		{in: "lua", want: domain.LanguageLua},
		{in: " LUA ", want: domain.LanguageLua},
		{in: "GLua", want: domain.LanguageLua},
		{in: "gopher-lua", want: domain.LanguageLua},
		{in: "Go", want: domain.LanguageGo},
		{in: "golang", want: domain.LanguageGo},
		{in: "cobol", err: true},
		{in: "", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := domain.ParseLanguage(tt.in)
			if tt.err {
				require.Error(t, err)
				assert.Equal(t, domain.CodeUnsupportedLanguage, domain.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCodeType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]domain.CodeType{
		"fragment": domain.CodeTypeFragment,
		"METHOD":   domain.CodeTypeMethod,
		"Class":    domain.CodeTypeClass,
	} {
		got, err := domain.ParseCodeType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := domain.ParseCodeType("Module")
	require.Error(t, err)
	assert.Equal(t, domain.CodeUnsupportedCompileUnitKind, domain.CodeOf(err))
}

func descriptor(mod func(*domain.DescriptorSpec)) *domain.TaskDescriptor {
	spec := domain.DescriptorSpec{
		Name:       "Greet",
		Language:   domain.LanguageLua,
		CodeType:   domain.CodeTypeFragment,
		SourceCode: "self.Result = 1",
		Namespaces: []string{"os", "io"},
		References: []string{"util", "helpers"},
	}
	if mod != nil {
		mod(&spec)
	}
	return domain.NewTaskDescriptor(spec)
}

func TestTaskDescriptor_Defaults(t *testing.T) {
	t.Parallel()
	d := descriptor(nil)

	assert.Equal(t, []string{"helpers", "taskhost", "util"}, d.References())
	assert.Equal(t, []string{"io", "math", "os", "string", "table"}, d.Namespaces())
}

func TestTaskDescriptor_Equality(t *testing.T) {
	t.Parallel()
	base := descriptor(nil)

	tests := []struct {
		name  string
		mod   func(*domain.DescriptorSpec)
		equal bool
	}{
		{name: "set order", equal: true, mod: func(s *domain.DescriptorSpec) {
			s.Namespaces = []string{"io", "os"}
			s.References = []string{"helpers", "util"}
		}},
		{name: "name case", equal: true, mod: func(s *domain.DescriptorSpec) {
			s.Name = "GREET"
		}},
		{name: "reference case", equal: true, mod: func(s *domain.DescriptorSpec) {
			s.References = []string{"UTIL", "Helpers"}
		}},
		{name: "duplicate entries", equal: true, mod: func(s *domain.DescriptorSpec) {
			s.Namespaces = []string{"os", "io", "OS", "string"}
		}},
		{name: "source", mod: func(s *domain.DescriptorSpec) {
			s.SourceCode = "self.Result = 2"
		}},
		{name: "source case", mod: func(s *domain.DescriptorSpec) {
			s.SourceCode = "SELF.Result = 1"
		}},
		{name: "code type", mod: func(s *domain.DescriptorSpec) {
			s.CodeType = domain.CodeTypeMethod
		}},
		{name: "language", mod: func(s *domain.DescriptorSpec) {
			s.Language = domain.LanguageGo
		}},
		{name: "reference", mod: func(s *domain.DescriptorSpec) {
			s.References = []string{"util"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := descriptor(tt.mod)
			assert.Equal(t, tt.equal, base.Equal(d))
			if tt.equal {
				assert.Equal(t, base.Key(), d.Key())
				assert.Equal(t, base.Fingerprint(), d.Fingerprint())
			} else {
				assert.NotEqual(t, base.Key(), d.Key())
			}
		})
	}

	assert.True(t, (*domain.TaskDescriptor)(nil).Equal(nil))
	assert.False(t, base.Equal(nil))
}

func TestTaskDescriptor_KeyIsLengthPrefixed(t *testing.T) {
	t.Parallel()
	a := descriptor(func(s *domain.DescriptorSpec) { s.References = []string{"ab", "c"} })
	b := descriptor(func(s *domain.DescriptorSpec) { s.References = []string{"a", "bc"} })
	assert.False(t, a.Equal(b))
}

func TestTaskDescriptor_WithSourceCode(t *testing.T) {
	t.Parallel()
	base := descriptor(nil)
	rendered := base.WithSourceCode("full source")

	assert.Equal(t, "self.Result = 1", base.SourceCode())
	assert.Equal(t, "full source", rendered.SourceCode())
	assert.False(t, base.Equal(rendered))
	assert.Equal(t, base.References(), rendered.References())
}

func TestParameterType_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  domain.ParameterType
		raw  string
		want any
	}{
		{domain.TypeString, " keep spaces ", " keep spaces "},
		{domain.TypeBool, "true", true},
		{domain.TypeInt, " 42", int64(42)},
		{domain.TypeFloat, "2.5", 2.5},
		{"string[]", "a; b;;c", []string{"a", "b", "c"}},
		{"int[]", "1;2;3", []int64{1, 2, 3}},
		{"bool[]", "true;false", []bool{true, false}},
		{"float[]", "", []float64{}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %q", tt.typ, tt.raw), func(t *testing.T) {
			t.Parallel()
			got, err := tt.typ.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := domain.TypeInt.Parse("three")
	require.Error(t, err)
	assert.Equal(t, domain.CodeInvalidParameter, domain.CodeOf(err))

	_, err = domain.ParameterType("int[]").Parse("1;x")
	require.Error(t, err)
	assert.True(t, domain.Is(err, domain.ErrInvalidParameterValue))
}

func TestParseParameterType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]domain.ParameterType{
		"":          domain.TypeString,
		"Integer":   domain.TypeInt,
		"number[]":  "float[]",
		" boolean ": domain.TypeBool,
		"string[]":  "string[]",
	} {
		got, err := domain.ParseParameterType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.Valid(), in)
	}

	_, err := domain.ParseParameterType("map")
	assert.True(t, domain.Is(err, domain.ErrInvalidParameterType))
	assert.False(t, domain.ParameterType("Integer").Valid())
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Empty(t, domain.Format(nil))
	assert.Equal(t, "x", domain.Format("x"))
	assert.Equal(t, "false", domain.Format(false))
	assert.Equal(t, "7", domain.Format(int64(7)))
	assert.Equal(t, "0.1", domain.Format(0.1))
	assert.Equal(t, "a;b", domain.Format([]string{"a", "b"}))
	assert.Equal(t, "1;2.5;true", domain.Format([]any{1, 2.5, true}))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want domain.ErrorCode
	}{
		{"sentinel", domain.ErrMalformedDefinition, domain.CodeMalformedDefinition},
		{"with metadata", zerr.With(domain.ErrDuplicateCodeBlock, "line", 3), domain.CodeSchemaViolation},
		{"wrapped cause", zerr.Wrap(errors.New("eof"), domain.ErrCompilationFailed.Error()), domain.CodeCompilationFailure},
		{"joined", errors.Join(domain.ErrUnresolvedReferences, errors.New("cause")), domain.CodeUnresolvedReferences},
		{"type not found", domain.ErrTypeNotFound, domain.CodeModuleLoadFailure},
		{
			"outermost wins",
			zerr.Wrap(domain.ErrTypeNotFound, domain.ErrMissingSourceCode.Error()),
			domain.CodeMissingSourceCode,
		},
		{"unclassified", errors.New("boom"), domain.CodeUnknown},
		{"nil", nil, domain.CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, domain.CodeOf(tt.err))
		})
	}
	assert.Equal(t, "ModuleLoadFailure", domain.CodeModuleLoadFailure.String())
}

func TestValidateTaskName(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"greet", "_x", "Task2"} {
		require.NoError(t, domain.ValidateTaskName(ok), ok)
	}
	for _, bad := range []string{"", "2fast", "has-dash", "white space"} {
		assert.True(t, domain.Is(domain.ValidateTaskName(bad), domain.ErrInvalidTaskName), bad)
	}
}

func TestValidateParameters(t *testing.T) {
	t.Parallel()

	require.NoError(t, domain.ValidateParameters([]domain.ParameterDescriptor{
		{Name: "A", Type: domain.TypeString},
		{Name: "B", Type: "int[]"},
	}))

	err := domain.ValidateParameters([]domain.ParameterDescriptor{
		{Name: "A", Type: domain.TypeString},
		{Name: "a", Type: domain.TypeInt},
	})
	assert.True(t, domain.Is(err, domain.ErrInvalidParameterName))

	err = domain.ValidateParameters([]domain.ParameterDescriptor{{Name: "A", Type: "map"}})
	assert.True(t, domain.Is(err, domain.ErrInvalidParameterType))
}
