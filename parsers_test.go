package refgraph

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, s string) *Location {
	t.Helper()
	loc, err := NewLocation(s, nil)
	require.NoError(t, err)
	return loc
}

func TestYAMLParserPreservesKeyOrder(t *testing.T) {
	p := NewYAMLParser(100)
	fd := FileDescriptor{
		URL:       mustLocation(t, "/tmp/doc.yaml"),
		Extension: ".yaml",
		Data:      []byte("b: 1\na: 2\nc: 3\n"),
	}
	v, err := p.Parse(fd)
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)

	var keys []string
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
}

func TestYAMLParserEmptyDocument(t *testing.T) {
	p := NewYAMLParser(100)
	fd := FileDescriptor{URL: mustLocation(t, "/tmp/empty.yaml"), Extension: ".yaml"}
	v, err := p.Parse(fd)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParserRegistryEmptyInputDisallowed(t *testing.T) {
	reg := &parserRegistry{parsers: []Parser{
		&stubParser{order: 1, allowEmpty: false, match: true},
	}}
	fd := FileDescriptor{URL: mustLocation(t, "/tmp/doc.yaml")}
	_, err := reg.Parse(fd)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParser)
}

func TestParserRegistryFallsBackToAllWhenNoneMatch(t *testing.T) {
	reg := &parserRegistry{parsers: []Parser{
		&stubParser{order: 1, allowEmpty: true, match: false, result: "fallback"},
	}}
	fd := FileDescriptor{URL: mustLocation(t, "/tmp/doc.weird"), Data: []byte("x")}
	v, err := reg.Parse(fd)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestTextParserMatchesExtension(t *testing.T) {
	p := NewTextParser(200, regexp.MustCompile(`\.txt$`))
	assert.True(t, p.CanParse(FileDescriptor{URL: mustLocation(t, "/tmp/notes.txt")}))
	assert.False(t, p.CanParse(FileDescriptor{URL: mustLocation(t, "/tmp/doc.yaml")}))
}

func TestBinaryParserAlwaysMatches(t *testing.T) {
	p := NewBinaryParser(300)
	assert.True(t, p.CanParse(FileDescriptor{}))
	v, err := p.Parse(FileDescriptor{Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func TestWithParserOptionsTunesBuiltin(t *testing.T) {
	opts := Apply(WithParserOptions(BuiltinYAML, ParserTuning{
		CanParse: func(FileDescriptor) bool { return false },
	}))
	reg := newParserRegistry(opts.Parse)
	fd := FileDescriptor{URL: mustLocation(t, "/tmp/doc.yaml"), Extension: ".yaml", Data: []byte("a: 1")}
	v, err := reg.Parse(fd)
	require.NoError(t, err)
	// The YAML parser no longer declares itself a match, so the only
	// matching parser is BinaryParser, which matches everything and never
	// errors, so the bytes come back unparsed.
	assert.Equal(t, []byte("a: 1"), v)
}

type stubParser struct {
	order      int
	allowEmpty bool
	match      bool
	result     any
	err        error
}

func (s *stubParser) Order() int          { return s.order }
func (s *stubParser) AllowEmpty() bool    { return s.allowEmpty }
func (s *stubParser) CanParse(FileDescriptor) bool { return s.match }
func (s *stubParser) Parse(FileDescriptor) (any, error) {
	return s.result, s.err
}
