// Package parser turns task definition markup into validated task descriptors.
package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/codetask/internal/core/domain"
	"go.trai.ch/codetask/internal/core/ports"
	"go.trai.ch/zerr"
)

// Element and attribute names recognized in a definition. Matching is case-insensitive.
const (
	elementCode      = "Code"
	elementReference = "Reference"
	elementUsing     = "Using"
	elementImport    = "Import"

	attrType      = "Type"
	attrLanguage  = "Language"
	attrSource    = "Source"
	attrInclude   = "Include"
	attrNamespace = "Namespace"
)

// syntheticRoot wraps the definition so a rootless fragment is a well-formed document.
const syntheticRoot = "TaskDefinition"

// ParseRequest is the input to Parse.
type ParseRequest struct {
	// Name is the task name, used as the generated type name.
	Name string
	// Definition is the markup fragment holding Code, Reference and Using elements.
	Definition string
	// Parameters are the explicitly declared parameters.
	Parameters []domain.ParameterDescriptor
	// BaseDir resolves relative Source attributes.
	BaseDir string
}

// Parser parses task definitions.
type Parser struct {
	logger ports.Logger
}

// New creates a Parser that reports non-fatal diagnostics to logger.
func New(logger ports.Logger) *Parser {
	return &Parser{logger: logger}
}

type codeBlock struct {
	language domain.Language
	codeType domain.CodeType
	body     string
	source   string
}

// Parse validates the definition and returns its descriptor. Structural errors
// fail on the first violation.
func (p *Parser) Parse(req ParseRequest) (*domain.TaskDescriptor, error) {
	if err := domain.ValidateTaskName(req.Name); err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(strings.NewReader("<" + syntheticRoot + ">" + req.Definition + "</" + syntheticRoot + ">"))
	dec.Strict = true

	if err := expectRoot(dec); err != nil {
		return nil, err
	}

	var (
		code       *codeBlock
		references []string
		namespaces []string
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, malformed(err, dec)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case strings.EqualFold(t.Name.Local, elementCode):
				if code != nil {
					return nil, zerr.With(domain.ErrDuplicateCodeBlock, "line", line(dec))
				}
				code, err = p.parseCode(dec, t, req.BaseDir)
				if err != nil {
					return nil, err
				}
			case strings.EqualFold(t.Name.Local, elementReference):
				ref, err := identifyingAttr(dec, t, attrInclude)
				if err != nil {
					return nil, err
				}
				references = append(references, ref)
			case strings.EqualFold(t.Name.Local, elementUsing), strings.EqualFold(t.Name.Local, elementImport):
				ns, err := identifyingAttr(dec, t, attrNamespace)
				if err != nil {
					return nil, err
				}
				namespaces = append(namespaces, ns)
			default:
				return nil, zerr.With(zerr.With(domain.ErrUnknownElement, "element", t.Name.Local), "line", line(dec))
			}
		case xml.EndElement:
			// The only end element at this level is the synthetic root.
			if err := expectEOF(dec); err != nil {
				return nil, err
			}
			return p.build(req, code, references, namespaces)
		case xml.CharData:
			if text := strings.TrimSpace(string(t)); text != "" {
				return nil, zerr.With(zerr.With(domain.ErrUnexpectedContent, "text", abbreviate(text)), "line", line(dec))
			}
		}
	}
}

func (p *Parser) build(req ParseRequest, code *codeBlock, references, namespaces []string) (*domain.TaskDescriptor, error) {
	if code == nil || strings.TrimSpace(code.body) == "" {
		err := zerr.With(domain.ErrMissingSourceCode, "task", req.Name)
		if code != nil && code.source != "" {
			err = zerr.With(err, "source", code.source)
		}
		return nil, err
	}

	if code.codeType == domain.CodeTypeClass && len(req.Parameters) > 0 {
		p.logger.Warn(fmt.Sprintf(
			"task %s: parameters are derived from the compiled class, ignoring %d declared parameters",
			req.Name, len(req.Parameters),
		))
	}

	return domain.NewTaskDescriptor(domain.DescriptorSpec{
		Name:       req.Name,
		Language:   code.language,
		CodeType:   code.codeType,
		SourceCode: code.body,
		Namespaces: namespaces,
		References: references,
	}), nil
}

func (p *Parser) parseCode(dec *xml.Decoder, start xml.StartElement, baseDir string) (*codeBlock, error) {
	code := &codeBlock{
		language: domain.DefaultLanguage,
		codeType: domain.CodeTypeFragment,
	}

	if v, ok, err := attr(dec, start, attrType); err != nil {
		return nil, err
	} else if ok {
		if code.codeType, err = domain.ParseCodeType(v); err != nil {
			return nil, err
		}
	}

	if v, ok, err := attr(dec, start, attrLanguage); err != nil {
		return nil, err
	} else if ok {
		if code.language, err = domain.ParseLanguage(v); err != nil {
			return nil, err
		}
	}

	body, err := innerText(dec, start)
	if err != nil {
		return nil, err
	}
	code.body = body

	source, ok, err := attr(dec, start, attrSource)
	if err != nil {
		return nil, err
	}
	if ok {
		path := source
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		//nolint:gosec // Source paths come from the task author
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrMissingSourceCode.Error()), "source", path)
		}
		code.body = string(data)
		code.source = path
		code.codeType = domain.CodeTypeClass
	}

	return code, nil
}

// innerText collects the character data of the current element. Nested
// elements are not allowed inside a code block.
func innerText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", malformed(err, dec)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			return "", zerr.With(zerr.With(zerr.With(domain.ErrUnknownElement,
				"element", t.Name.Local), "parent", start.Name.Local), "line", line(dec))
		case xml.EndElement:
			return b.String(), nil
		}
	}
}

// identifyingAttr returns the trimmed, mandatory attribute of a Reference or
// Using element and consumes the element.
func identifyingAttr(dec *xml.Decoder, start xml.StartElement, name string) (string, error) {
	v, ok, err := attr(dec, start, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", zerr.With(zerr.With(zerr.With(domain.ErrMissingAttribute,
			"element", start.Name.Local), "attribute", name), "line", line(dec))
	}
	if err := dec.Skip(); err != nil {
		return "", malformed(err, dec)
	}
	return v, nil
}

// attr looks an attribute up case-insensitively. An attribute that is present
// but blank is an error.
func attr(dec *xml.Decoder, start xml.StartElement, name string) (string, bool, error) {
	for _, a := range start.Attr {
		if !strings.EqualFold(a.Name.Local, name) {
			continue
		}
		v := strings.TrimSpace(a.Value)
		if v == "" {
			return "", false, zerr.With(zerr.With(zerr.With(domain.ErrEmptyAttribute,
				"element", start.Name.Local), "attribute", a.Name.Local), "line", line(dec))
		}
		return v, true, nil
	}
	return "", false, nil
}

func expectRoot(dec *xml.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return malformed(err, dec)
	}
	if _, ok := tok.(xml.StartElement); !ok {
		return zerr.With(domain.ErrMalformedDefinition, "line", line(dec))
	}
	return nil
}

// expectEOF fails if anything follows the synthetic root, which happens when
// the definition closes the root itself.
func expectEOF(dec *xml.Decoder) error {
	_, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return malformed(err, dec)
	}
	return zerr.With(zerr.With(domain.ErrMalformedDefinition,
		"reason", "content after the end of the definition"), "line", line(dec))
}

func malformed(err error, dec *xml.Decoder) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return zerr.With(zerr.Wrap(err, domain.ErrMalformedDefinition.Error()), "line", line(dec))
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

func abbreviate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
