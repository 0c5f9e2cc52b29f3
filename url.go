package refgraph

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"runtime"
	"strings"

	"github.com/go-openapi/jsonreference"
)

// PathType classifies a Location by the scheme it was normalized to,
// mirroring spec.md §3's document-entry pathType field.
type PathType string

const (
	PathTypeFile  PathType = "file"
	PathTypeHTTP  PathType = "http"
	PathTypeHTTPS PathType = "https"
)

// Location is an absolute, normalized reference to a document or a
// fragment within one. It wraps jsonreference.Ref, which already performs
// RFC 3986 reference resolution (Location.Resolve delegates to
// jsonreference.Ref.Inherits) and RFC 6901 pointer parsing on the
// fragment.
type Location struct {
	jsonreference.Ref
}

var driveLetterRx = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// NewLocation parses s, which may be a filesystem path (including Windows
// drive-letter and UNC paths), a file: URL, an http(s) URL, or a bare
// fragment ("#/a/b"). Relative filesystem paths are joined against cwd,
// which must be a file: URL ending in "/".
func NewLocation(s string, cwd *Location) (*Location, error) {
	normalized, err := normalizeLocationString(s, cwd)
	if err != nil {
		return nil, err
	}
	ref, err := jsonreference.New(normalized)
	if err != nil {
		return nil, &InvalidPointerError{Pointer: s, Cause: err}
	}
	loc := &Location{Ref: ref}
	if cwd != nil && !loc.HasFullURL {
		resolved, err := cwd.Resolve(loc)
		if err != nil {
			return nil, err
		}
		return resolved, nil
	}
	return loc, nil
}

// normalizeLocationString applies the Windows drive-letter / UNC rewrite
// and turns bare filesystem paths into file: URLs so jsonreference.New
// (which expects a URI) can parse them.
func normalizeLocationString(s string, cwd *Location) (string, error) {
	if s == "" {
		return "", fmt.Errorf("refgraph: empty location")
	}
	if strings.HasPrefix(s, "#") {
		return s, nil
	}
	if isHTTPString(s) || strings.HasPrefix(s, "file://") {
		return s, nil
	}
	if strings.HasPrefix(s, "\\\\") {
		// UNC path: \\server\share\path -> file://server/share/path
		unc := strings.ReplaceAll(s[2:], "\\", "/")
		return "file://" + unc, nil
	}
	if driveLetterRx.MatchString(s) {
		rest := strings.ReplaceAll(s[2:], "\\", "/")
		rest = strings.TrimPrefix(rest, "/")
		return "file:///" + string(s[0]) + ":/" + rest, nil
	}
	if path.IsAbs(filepathToSlash(s)) {
		return "file://" + filepathToSlash(s), nil
	}
	// relative path: becomes a relative reference, resolved against cwd
	// by the caller once parsed.
	return filepathToSlash(s), nil
}

func filepathToSlash(s string) string {
	if runtime.GOOS == "windows" {
		return strings.ReplaceAll(s, "\\", "/")
	}
	return s
}

func isHTTPString(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsHTTP reports whether s is an http(s) URL string.
func IsHTTP(s string) bool { return isHTTPString(s) }

// IsFileSystemPath reports whether s looks like a bare filesystem path
// rather than a URL: no scheme, not a bare fragment.
func IsFileSystemPath(s string) bool {
	if s == "" || strings.HasPrefix(s, "#") || isHTTPString(s) {
		return false
	}
	if strings.HasPrefix(s, "file://") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return true
	}
	return u.Scheme == "" || (len(u.Scheme) == 1) // single-letter scheme is a Windows drive
}

// GetHash returns the "#..." suffix of s, or "#" if s carries none.
func GetHash(s string) string {
	if idx := strings.Index(s, "#"); idx >= 0 {
		return s[idx:]
	}
	return "#"
}

// StripHash returns s with any "#..." suffix removed.
func StripHash(s string) string {
	if idx := strings.Index(s, "#"); idx >= 0 {
		return s[:idx]
	}
	return s
}

// GetExtension returns the lowercased filename suffix of s's path
// segment, including the leading dot ("" if there is none).
func GetExtension(s string) string {
	clean := StripHash(s)
	if idx := strings.Index(clean, "?"); idx >= 0 {
		clean = clean[:idx]
	}
	ext := path.Ext(clean)
	return strings.ToLower(ext)
}

// CanonicalKey is the Document Catalog's map key: scheme+authority+path+
// query, with the fragment stripped, per spec.md §3's URL equality rule.
func (l *Location) CanonicalKey() string {
	u := *l.GetURL()
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// PathType classifies the Location's scheme.
func (l *Location) PathType() PathType {
	switch l.GetURL().Scheme {
	case "http":
		return PathTypeHTTP
	case "https":
		return PathTypeHTTPS
	default:
		return PathTypeFile
	}
}

// Extension returns the lowercased filename suffix of the Location's path.
func (l *Location) Extension() string {
	return strings.ToLower(path.Ext(l.GetURL().Path))
}

// Pointer returns the fragment as an RFC 6901 pointer string ("" for the
// document root, otherwise starting with "/").
func (l *Location) Pointer() string {
	frag := l.GetURL().Fragment
	if frag == "" || frag == "/" {
		if frag == "/" {
			return "/"
		}
		return ""
	}
	return frag
}

// Resolve joins ref (relative or absolute) against l, producing an
// absolute Location. This is RFC 3986 reference resolution, delegated to
// jsonreference.Ref.Inherits.
func (l *Location) Resolve(ref *Location) (*Location, error) {
	next, err := l.Inherits(ref.Ref)
	if err != nil {
		return nil, fmt.Errorf("refgraph: resolving %q against %q: %w", ref.String(), l.String(), err)
	}
	return &Location{Ref: *next}, nil
}

// NewCWD builds a Location suitable for use as a base ("current working
// directory") from a plain filesystem directory path. It always ends in
// "/", per spec.md §4.1.
func NewCWD(dir string) (*Location, error) {
	if dir == "" {
		dir = "."
	}
	if !strings.HasSuffix(dir, "/") && !strings.HasSuffix(dir, "\\") {
		dir += "/"
	}
	return NewLocation(dir, nil)
}
