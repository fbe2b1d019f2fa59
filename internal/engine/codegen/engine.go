// Package codegen renders complete task sources from descriptors and parameter lists.
package codegen

import (
	"bytes"
	"embed"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/tools/go/ast/astutil"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Engine renders task sources. It is safe for concurrent use.
type Engine struct {
	templates *template.Template
}

// New parses the embedded templates.
func New() (*Engine, error) {
	tmpl, err := template.New("codegen").
		Funcs(template.FuncMap{"luaQuote": luaQuote}).
		ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to parse source templates")
	}
	return &Engine{templates: tmpl}, nil
}

type importSpec struct {
	Alias string
	Path  string
}

type property struct {
	Name       string
	Field      string
	Type       string
	GoType     string
	Tag        string
	LuaOptions string
}

type templateData struct {
	Name       string
	Imports    []importSpec
	Properties []property
	Body       string
}

// Render produces the full source for desc. Parameters are ignored for class
// bodies, which declare their own members. Identical inputs always render
// byte-identical output.
func (e *Engine) Render(desc *domain.TaskDescriptor, params []domain.ParameterDescriptor) (string, error) {
	data := templateData{
		Name: desc.Name(),
		Body: strings.TrimSpace(desc.SourceCode()),
	}

	namespaces := desc.Namespaces()
	for i, alias := range luaAliases(namespaces) {
		data.Imports = append(data.Imports, importSpec{Alias: alias, Path: namespaces[i]})
	}

	if desc.CodeType() != domain.CodeTypeClass {
		if err := domain.ValidateParameters(params); err != nil {
			return "", err
		}
		for _, p := range params {
			data.Properties = append(data.Properties, newProperty(p))
		}
	}

	name := templateName(desc.Language(), desc.CodeType())
	if e.templates.Lookup(name) == nil {
		return "", zerr.With(zerr.With(domain.ErrUnsupportedCodeType,
			"language", desc.Language().String()), "type", desc.CodeType().String())
	}

	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to render task source"), "template", name)
	}

	if desc.Language() == domain.LanguageGo {
		return tidyGo(buf.Bytes()), nil
	}
	return buf.String(), nil
}

func templateName(lang domain.Language, kind domain.CodeType) string {
	return strings.ToLower(lang.String()) + "_" + strings.ToLower(kind.String()) + ".tmpl"
}

func newProperty(p domain.ParameterDescriptor) property {
	var markers, luaOpts []string
	if p.Output {
		markers = append(markers, domain.MarkerOutput)
		luaOpts = append(luaOpts, "output = true")
	}
	if p.Required {
		markers = append(markers, domain.MarkerRequired)
		luaOpts = append(luaOpts, "required = true")
	}

	prop := property{
		Name:   p.Name,
		Field:  exported(p.Name),
		Type:   string(p.Type),
		GoType: goType(p.Type),
	}
	if len(markers) > 0 {
		prop.Tag = "`task:\"" + strings.Join(markers, ",") + "\"`"
		prop.LuaOptions = "{ " + strings.Join(luaOpts, ", ") + " }"
	}
	return prop
}

func goType(t domain.ParameterType) string {
	var scalar string
	switch t.Elem() {
	case domain.TypeBool:
		scalar = "bool"
	case domain.TypeInt:
		scalar = "int64"
	case domain.TypeFloat:
		scalar = "float64"
	default:
		scalar = "string"
	}
	if t.IsArray() {
		return "[]" + scalar
	}
	return scalar
}

// exported upper-cases the first letter so reflection can reach the field.
func exported(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// luaAliases names the local variable of every module path. A path's last
// segment is used ("lib.text" becomes text) unless another path ends the same
// way; colliding paths are qualified in full ("a.util" becomes a_util). The
// result holds no duplicates.
func luaAliases(paths []string) []string {
	short := make([]string, len(paths))
	counts := make(map[string]int, len(paths))
	for i, p := range paths {
		seg := p
		if j := strings.LastIndexAny(p, "./"); j >= 0 {
			seg = p[j+1:]
		}
		short[i] = luaIdent(seg)
		counts[short[i]]++
	}

	aliases := make([]string, len(paths))
	taken := make(map[string]bool, len(paths))
	for i, p := range paths {
		alias := short[i]
		if counts[alias] > 1 {
			alias = luaIdent(p)
		}
		for base, n := alias, 2; taken[alias]; n++ {
			alias = base + "_" + strconv.Itoa(n)
		}
		taken[alias] = true
		aliases[i] = alias
	}
	return aliases
}

// luaIdent maps s onto a valid Lua identifier.
func luaIdent(s string) string {
	alias := strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
	if alias == "" || unicode.IsDigit(rune(alias[0])) {
		alias = "_" + alias
	}
	return alias
}

// luaQuote quotes s as a Lua string literal using only escapes Lua 5.1 understands.
func luaQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			b.WriteByte('\\')
			b.WriteString(strconv.Itoa(int(c)))
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// tidyGo drops unused imports and formats the file. Sources that do not parse
// are returned unchanged so the compiler reports the user's error.
func tidyGo(src []byte) string {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return string(src)
	}

	for _, group := range astutil.Imports(fset, file) {
		for _, spec := range group {
			path, err := strconv.Unquote(spec.Path.Value)
			if err != nil || astutil.UsesImport(file, path) {
				continue
			}
			var name string
			if spec.Name != nil {
				name = spec.Name.Name
			}
			astutil.DeleteNamedImport(fset, file, name, path)
		}
	}

	var out bytes.Buffer
	if err := format.Node(&out, fset, file); err != nil {
		return string(src)
	}
	return out.String()
}

