package output_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/ui/output"
)

func TestColorProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile())

	t.Setenv("NO_COLOR", "")
	p := output.ColorProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii, "should return a valid profile")
}

func TestNew_Nil(t *testing.T) {
	assert.NotNil(t, output.New(nil))
}

func TestPrinter_Result(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	p := output.NewPrinter(&buf)

	p.Result(output.TaskResult{
		Name:     "greet",
		OK:       true,
		CacheHit: true,
		Duration: 1500 * time.Microsecond,
		Outputs:  map[string]string{"Result": "hello", "Count": "2"},
	})
	p.Result(output.TaskResult{Name: "broken"})

	assert.Equal(t, "✓ greet (cached) 2ms\n    Count = 2\n    Result = hello\n✗ broken\n", buf.String())
}

func TestPrinter_Parameters(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	p := output.NewPrinter(&buf)

	p.Parameters("greet", false, []domain.ParameterDescriptor{
		{Name: "Name", Type: domain.TypeString, Required: true},
		{Name: "Result", Type: domain.TypeString, Output: true},
		{Name: "Values", Type: "int[]"},
	})

	assert.Equal(t, "● greet\n    Name string required\n    Result string output\n    Values int[]\n", buf.String())
}

func TestPrinter_Source(t *testing.T) {
	var buf bytes.Buffer
	p := output.NewPrinter(&buf)
	p.Source("return 1")
	p.Source("x\n")
	assert.Equal(t, "return 1\nx\n", buf.String())
}
