package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Language is one of the statically known code languages a task can be written in.
type Language uint8

const (
	// LanguageLua is the default language, compiled and run in-process.
	LanguageLua Language = iota
	// LanguageGo is compiled to a plugin by the Go toolchain.
	LanguageGo
)

// DefaultLanguage is used when a Code element does not name a language.
const DefaultLanguage = LanguageLua

// HostLibrary is the language-agnostic reference every task links against.
const HostLibrary = "taskhost"

type languageInfo struct {
	name       string
	aliases    []string
	extension  string
	artifact   string
	namespaces []string
	references []string
}

var languages = [...]languageInfo{
	LanguageLua: {
		name:       "Lua",
		aliases:    []string{"gopher-lua", "glua"},
		extension:  ".lua",
		artifact:   ".luaimg",
		namespaces: []string{"string", "table", "math"},
	},
	LanguageGo: {
		name:       "Go",
		aliases:    []string{"golang"},
		extension:  ".go",
		artifact:   ".so",
		namespaces: []string{"fmt", "strings", "strconv"},
	},
}

// Languages returns every known language.
func Languages() []Language {
	return []Language{LanguageLua, LanguageGo}
}

// ParseLanguage resolves a language name. Canonical names are matched first,
// then aliases, both case-insensitively.
func ParseLanguage(s string) (Language, error) {
	name := strings.TrimSpace(s)
	for _, l := range Languages() {
		if strings.EqualFold(languages[l].name, name) {
			return l, nil
		}
	}
	for _, l := range Languages() {
		for _, alias := range languages[l].aliases {
			if strings.EqualFold(alias, name) {
				return l, nil
			}
		}
	}
	return 0, zerr.With(ErrUnsupportedLanguage, "language", s)
}

// String returns the canonical name of the language.
func (l Language) String() string {
	if int(l) < len(languages) {
		return languages[l].name
	}
	return "unknown"
}

// Extension returns the source file extension, including the leading dot.
func (l Language) Extension() string {
	return languages[l].extension
}

// ArtifactExtension returns the extension of compiled output files.
func (l Language) ArtifactExtension() string {
	return languages[l].artifact
}

// DefaultNamespaces returns the namespaces imported into every task of this language.
func (l Language) DefaultNamespaces() []string {
	return append([]string(nil), languages[l].namespaces...)
}

// DefaultReferences returns the references linked into every task of this language,
// after the language-agnostic host library.
func (l Language) DefaultReferences() []string {
	return append([]string(nil), languages[l].references...)
}
