package refgraph

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// Parser turns the bytes a Resolver fetched into a value tree. Built-ins
// are the YAML/JSON parser and the raw text/binary fallbacks below;
// callers may register additional ones via ParseOptions.Parsers (spec.md
// §4.3).
type Parser interface {
	Order() int
	AllowEmpty() bool
	CanParse(fd FileDescriptor) bool
	Parse(fd FileDescriptor) (any, error)
}

type parserRegistry struct {
	parsers []Parser
}

func newParserRegistry(opts ParseOptions) *parserRegistry {
	reg := &parserRegistry{}
	reg.parsers = append(reg.parsers, opts.Parsers...)
	reg.parsers = append(reg.parsers,
		tuneParser(&YAMLParser{order: 100}, opts.Tunings[BuiltinYAML]),
		tuneParser(&TextParser{order: 200, extRx: regexp.MustCompile(`\.txt$`)}, opts.Tunings[BuiltinText]),
		tuneParser(&BinaryParser{order: 300}, opts.Tunings[BuiltinBinary]),
	)
	return reg
}

// tuneParser wraps p so that a non-zero tuning.Order or non-nil
// tuning.CanParse take effect, without needing a bespoke Parser
// implementation per built-in (SPEC_FULL.md supplemented feature 2).
func tuneParser(p Parser, tuning ParserTuning) Parser {
	if tuning.Order == 0 && tuning.CanParse == nil {
		return p
	}
	return &tunedParser{Parser: p, tuning: tuning}
}

type tunedParser struct {
	Parser
	tuning ParserTuning
}

func (t *tunedParser) Order() int {
	if t.tuning.Order != 0 {
		return t.tuning.Order
	}
	return t.Parser.Order()
}

func (t *tunedParser) CanParse(fd FileDescriptor) bool {
	if t.tuning.CanParse != nil {
		return t.tuning.CanParse(fd)
	}
	return t.Parser.CanParse(fd)
}

// Parse selects parsers whose CanParse is true, sorted by ascending
// Order, and returns the first successful result. If none declare
// CanParse true, every registered parser is tried anyway (the fallback
// pass mandated by spec.md §4.3).
func (reg *parserRegistry) Parse(fd FileDescriptor) (any, error) {
	if len(fd.Data) == 0 {
		// empty-input policy is per-parser; find the first matching parser
		// and honor its AllowEmpty flag.
		for _, p := range reg.orderedMatching(fd) {
			if !p.AllowEmpty() {
				return nil, &ParserError{URL: fd.URL.String(), Cause: fmt.Errorf("empty document not allowed")}
			}
			return p.Parse(fd)
		}
	}

	matching := reg.orderedMatching(fd)
	candidates := matching
	if len(candidates) == 0 {
		candidates = reg.ordered()
	}

	var lastErr error
	for _, p := range candidates {
		v, err := p.Parse(fd)
		if err == nil {
			return v, nil
		}
		debugLog("parser (order %d) failed for %s: %v", p.Order(), fd.URL.String(), err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, &UnmatchedParserError{URL: fd.URL.String()}
	}
	return nil, &ParserError{URL: fd.URL.String(), Cause: lastErr}
}

func (reg *parserRegistry) ordered() []Parser {
	out := append([]Parser(nil), reg.parsers...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order() < out[j].Order() })
	return out
}

func (reg *parserRegistry) orderedMatching(fd FileDescriptor) []Parser {
	var out []Parser
	for _, p := range reg.ordered() {
		if p.CanParse(fd) {
			out = append(out, p)
		}
	}
	return out
}

// YAMLParser decodes UTF-8 YAML or JSON text (JSON is a syntactic subset
// of YAML) into the engine's ordered Value tree, preserving key order via
// a manual yaml.Node walk rather than yaml.Unmarshal into interface{}
// (which would collapse mappings into an unordered map[string]any).
type YAMLParser struct {
	order int
}

func NewYAMLParser(order int) *YAMLParser { return &YAMLParser{order: order} }

func (p *YAMLParser) Order() int      { return p.order }
func (p *YAMLParser) AllowEmpty() bool { return true }

func (p *YAMLParser) CanParse(fd FileDescriptor) bool {
	switch fd.Extension {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

func (p *YAMLParser) Parse(fd FileDescriptor) (any, error) {
	if len(fd.Data) == 0 {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(fd.Data, &doc); err != nil {
		return nil, &ParserError{URL: fd.URL.String(), Cause: err}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	return nodeToValue(doc.Content[0])
}

func nodeToValue(n *yaml.Node) (any, error) {
	if n.Kind == yaml.AliasNode {
		return nodeToValue(n.Alias)
	}
	switch n.Kind {
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := nodeToValue(n.Content[i])
			if err != nil {
				return nil, err
			}
			ks, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("non-string mapping key at line %d", n.Content[i].Line)
			}
			val, err := nodeToValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(ks, val)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make(Array, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %v at line %d", n.Kind, n.Line)
	}
}

// TextParser returns raw UTF-8 text unchanged, for documents that are
// deliberately not JSON/YAML (spec.md's "raw-text parser").
type TextParser struct {
	order int
	extRx *regexp.Regexp
}

func NewTextParser(order int, extRx *regexp.Regexp) *TextParser {
	return &TextParser{order: order, extRx: extRx}
}

func (p *TextParser) Order() int      { return p.order }
func (p *TextParser) AllowEmpty() bool { return true }

func (p *TextParser) CanParse(fd FileDescriptor) bool {
	return p.extRx != nil && p.extRx.MatchString(fd.URL.GetURL().Path)
}

func (p *TextParser) Parse(fd FileDescriptor) (any, error) {
	return string(fd.Data), nil
}

// BinaryParser is the last-resort parser: it matches every document,
// returns the raw bytes unchanged and never errors, so parserRegistry.Parse
// always has a matching parser to land on while it is registered.
type BinaryParser struct {
	order int
}

func NewBinaryParser(order int) *BinaryParser { return &BinaryParser{order: order} }

func (p *BinaryParser) Order() int      { return p.order }
func (p *BinaryParser) AllowEmpty() bool { return true }
func (p *BinaryParser) CanParse(FileDescriptor) bool { return true }

func (p *BinaryParser) Parse(fd FileDescriptor) (any, error) {
	return fd.Data, nil
}
