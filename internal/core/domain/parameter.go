package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ParameterType names the type of a task parameter: a scalar or an array of scalars ("string[]").
type ParameterType string

// Scalar parameter types.
const (
	TypeString ParameterType = "string"
	TypeBool   ParameterType = "bool"
	TypeInt    ParameterType = "int"
	TypeFloat  ParameterType = "float"
)

const arraySuffix = "[]"

// ItemSeparator separates elements of array parameter values in their textual form.
const ItemSeparator = ";"

var scalarAliases = map[string]ParameterType{
	"string":  TypeString,
	"bool":    TypeBool,
	"boolean": TypeBool,
	"int":     TypeInt,
	"int64":   TypeInt,
	"integer": TypeInt,
	"float":   TypeFloat,
	"float64": TypeFloat,
	"number":  TypeFloat,
}

// ParseParameterType normalizes a declared type name.
func ParseParameterType(s string) (ParameterType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return TypeString, nil
	}
	array := strings.HasSuffix(name, arraySuffix)
	scalar, ok := scalarAliases[strings.TrimSuffix(name, arraySuffix)]
	if !ok {
		return "", zerr.With(ErrInvalidParameterType, "type", s)
	}
	if array {
		return scalar + arraySuffix, nil
	}
	return scalar, nil
}

// IsArray reports whether the type holds a list of values.
func (t ParameterType) IsArray() bool {
	return strings.HasSuffix(string(t), arraySuffix)
}

// Elem returns the scalar type of an array type, or t itself.
func (t ParameterType) Elem() ParameterType {
	return ParameterType(strings.TrimSuffix(string(t), arraySuffix))
}

// Valid reports whether t is one of the supported types.
func (t ParameterType) Valid() bool {
	parsed, err := ParseParameterType(string(t))
	return err == nil && parsed == t
}

// Parse converts the textual form of a value into a Go value of the type:
// string, bool, int64, float64, or a slice of those for array types.
func (t ParameterType) Parse(raw string) (any, error) {
	if !t.IsArray() {
		return t.parseScalar(raw)
	}

	elem := t.Elem()
	var items []string
	for item := range strings.SplitSeq(raw, ItemSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	switch elem {
	case TypeBool:
		return parseAll(items, elem, func(v any) bool { return v.(bool) })
	case TypeInt:
		return parseAll(items, elem, func(v any) int64 { return v.(int64) })
	case TypeFloat:
		return parseAll(items, elem, func(v any) float64 { return v.(float64) })
	default:
		return items, nil
	}
}

func parseAll[T any](items []string, elem ParameterType, conv func(any) T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := elem.parseScalar(item)
		if err != nil {
			return nil, err
		}
		out = append(out, conv(v))
	}
	return out, nil
}

func (t ParameterType) parseScalar(raw string) (any, error) {
	var (
		v   any
		err error
	)
	switch t {
	case TypeString:
		return raw, nil
	case TypeBool:
		v, err = strconv.ParseBool(strings.TrimSpace(raw))
	case TypeInt:
		v, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case TypeFloat:
		v, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	default:
		return nil, zerr.With(ErrInvalidParameterType, "type", string(t))
	}
	if err != nil {
		return nil, zerr.With(zerr.With(ErrInvalidParameterValue, "type", string(t)), "value", raw)
	}
	return v, nil
}

// Format renders a value produced by a task into its textual form.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []string:
		return strings.Join(val, ItemSeparator)
	case []bool:
		return joinFormatted(val)
	case []int:
		return joinFormatted(val)
	case []int64:
		return joinFormatted(val)
	case []float64:
		return joinFormatted(val)
	case []any:
		return joinFormatted(val)
	default:
		return ""
	}
}

func joinFormatted[T any](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Format(item)
	}
	return strings.Join(parts, ItemSeparator)
}

// ParameterDescriptor describes one settable or readable property of a task.
type ParameterDescriptor struct {
	Name     string
	Type     ParameterType
	Output   bool
	Required bool
}

// Markers returns the marker names set on the parameter.
func (p ParameterDescriptor) Markers() []string {
	var markers []string
	if p.Output {
		markers = append(markers, MarkerOutput)
	}
	if p.Required {
		markers = append(markers, MarkerRequired)
	}
	return markers
}

// Marker names attached to compiled members.
const (
	MarkerOutput   = "output"
	MarkerRequired = "required"
)
