package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationAbsoluteFile(t *testing.T) {
	loc, err := NewLocation("/tmp/root/doc.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, PathTypeFile, loc.PathType())
	assert.Equal(t, ".yaml", loc.Extension())
}

func TestNewLocationRelativeJoin(t *testing.T) {
	cwd, err := NewCWD("/tmp/root")
	require.NoError(t, err)

	loc, err := NewLocation("child.yaml#/a/b", cwd)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", loc.Pointer())
	assert.Contains(t, loc.GetURL().Path, "/tmp/root/child.yaml")
}

func TestCanonicalKeyStripsFragment(t *testing.T) {
	cwd, err := NewCWD("/tmp/root")
	require.NoError(t, err)

	a, err := NewLocation("doc.yaml#/a", cwd)
	require.NoError(t, err)
	b, err := NewLocation("doc.yaml#/b", cwd)
	require.NoError(t, err)
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())
}

func TestWindowsDriveLetter(t *testing.T) {
	loc, err := NewLocation(`C:\Users\me\doc.yaml`, nil)
	require.NoError(t, err)
	assert.Equal(t, PathTypeFile, loc.PathType())
}

func TestUNCPath(t *testing.T) {
	loc, err := NewLocation(`\\server\share\doc.yaml`, nil)
	require.NoError(t, err)
	assert.Equal(t, PathTypeFile, loc.PathType())
	assert.Equal(t, "server", loc.GetURL().Host)
}

func TestIsHTTP(t *testing.T) {
	assert.True(t, IsHTTP("https://example.com/a.yaml"))
	assert.False(t, IsHTTP("/tmp/a.yaml"))
}

func TestGetHashStripHash(t *testing.T) {
	assert.Equal(t, "#/a/b", GetHash("doc.yaml#/a/b"))
	assert.Equal(t, "#", GetHash("doc.yaml"))
	assert.Equal(t, "doc.yaml", StripHash("doc.yaml#/a/b"))
}

func TestHTTPLocationResolve(t *testing.T) {
	base, err := NewLocation("https://example.com/specs/root.yaml", nil)
	require.NoError(t, err)
	child, err := NewLocation("child.yaml", base)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/specs/child.yaml", child.CanonicalKey())
}
