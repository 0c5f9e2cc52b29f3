package refgraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-openapi/swag/loading"
)

// FileDescriptor is the input handed to resolvers and parsers: spec.md
// §3's "File descriptor". Data is populated by the Resolver Registry and
// consumed by the Parser Registry; its concrete type (here []byte) is
// otherwise opaque to the rest of the engine.
type FileDescriptor struct {
	URL       *Location
	Extension string
	Data      []byte
}

// Resolver fetches bytes for a URL. Built-ins are the filesystem and
// http(s) resolvers below; callers may register additional ones via
// ResolveOptions.Resolvers (spec.md §4.2).
type Resolver interface {
	Order() int
	CanRead(fd FileDescriptor) bool
	Read(ctx context.Context, fd FileDescriptor) ([]byte, error)
}

// resolverRegistry holds the registered resolvers (custom ones first, then
// the built-ins) and implements the "first successful read wins" selection
// rule.
type resolverRegistry struct {
	resolvers []Resolver
}

func newResolverRegistry(opts ResolveOptions) *resolverRegistry {
	reg := &resolverRegistry{}
	reg.resolvers = append(reg.resolvers, opts.Resolvers...)
	reg.resolvers = append(reg.resolvers,
		tuneResolver(&FileSystemResolver{order: 100}, opts.Tunings[BuiltinFileSystem]),
		tuneResolver(NewHTTPResolver(200, opts.HTTP), opts.Tunings[BuiltinHTTP]),
	)
	return reg
}

// tuneResolver wraps r so that a non-zero tuning.Order or non-nil
// tuning.CanRead take effect, without needing a bespoke Resolver
// implementation per built-in (SPEC_FULL.md supplemented feature 2).
func tuneResolver(r Resolver, tuning ResolverTuning) Resolver {
	if tuning.Order == 0 && tuning.CanRead == nil {
		return r
	}
	return &tunedResolver{Resolver: r, tuning: tuning}
}

type tunedResolver struct {
	Resolver
	tuning ResolverTuning
}

func (t *tunedResolver) Order() int {
	if t.tuning.Order != 0 {
		return t.tuning.Order
	}
	return t.Resolver.Order()
}

func (t *tunedResolver) CanRead(fd FileDescriptor) bool {
	if t.tuning.CanRead != nil {
		return t.tuning.CanRead(fd)
	}
	return t.Resolver.CanRead(fd)
}

// Read tries every resolver whose CanRead is true, in ascending Order,
// until one succeeds. If all candidates fail, the last error is
// returned wrapped in a ResolverError. If none match, the result is an
// UnmatchedResolverError.
func (reg *resolverRegistry) Read(ctx context.Context, fd FileDescriptor) ([]byte, error) {
	var candidates []Resolver
	for _, r := range reg.resolvers {
		if r.CanRead(fd) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil, &UnmatchedResolverError{URL: fd.URL.String()}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Order() < candidates[j].Order()
	})

	var lastErr error
	for _, r := range candidates {
		data, err := r.Read(ctx, fd)
		if err == nil {
			return data, nil
		}
		debugLog("resolver (order %d) failed for %s: %v", r.Order(), fd.URL.String(), err)
		lastErr = err
	}
	if _, ok := lastErr.(*ResolverError); ok {
		return nil, lastErr
	}
	return nil, &ResolverError{URL: fd.URL.String(), Cause: lastErr}
}

// FileSystemResolver reads local files. It declares itself able to read
// any URL whose Location.PathType is PathTypeFile.
type FileSystemResolver struct {
	order int
}

// NewFileSystemResolver builds a filesystem resolver with the given
// selection order.
func NewFileSystemResolver(order int) *FileSystemResolver {
	return &FileSystemResolver{order: order}
}

func (r *FileSystemResolver) Order() int { return r.order }

func (r *FileSystemResolver) CanRead(fd FileDescriptor) bool {
	return fd.URL.PathType() == PathTypeFile
}

func (r *FileSystemResolver) Read(_ context.Context, fd FileDescriptor) ([]byte, error) {
	p := filepath.FromSlash(fd.URL.GetURL().Path)
	if p == "" {
		return nil, &ResolverError{URL: fd.URL.String(), Cause: fmt.Errorf("empty file path")}
	}
	data, err := loading.LoadFromFileOrHTTP(p)
	if err != nil {
		return nil, &ResolverError{URL: fd.URL.String(), Cause: err}
	}
	return data, nil
}

// HTTPResolver issues GET requests for http(s) URLs, following redirects
// up to HTTPOptions.Redirects and tracking the chain for diagnostics (spec.md
// §4.2, scenario S4).
type HTTPResolver struct {
	order   int
	options HTTPOptions
	client  *http.Client
}

// NewHTTPResolver builds an http(s) resolver with the given selection
// order and options.
func NewHTTPResolver(order int, opts HTTPOptions) *HTTPResolver {
	return &HTTPResolver{
		order:   order,
		options: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			// Redirects are followed manually below so the chain can be
			// recorded and bounded precisely per spec.md's redirect rule.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (r *HTTPResolver) Order() int { return r.order }

func (r *HTTPResolver) CanRead(fd FileDescriptor) bool {
	pt := fd.URL.PathType()
	return pt == PathTypeHTTP || pt == PathTypeHTTPS
}

func (r *HTTPResolver) Read(ctx context.Context, fd FileDescriptor) ([]byte, error) {
	current := *fd.URL.GetURL()
	current.Fragment = ""
	chain := []string{current.String()}

	maxRedirects := r.options.Redirects
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, &ResolverError{URL: fd.URL.String(), Cause: err}
		}
		for k, v := range r.options.Headers {
			req.Header.Set(k, v)
		}
		if !r.options.WithCredentials {
			req.Header.Del("Cookie")
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, &ResolverError{URL: fd.URL.String(), Cause: err}
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, &ResolverError{URL: fd.URL.String(), Cause: err}
			}
			return data, nil
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			if loc == "" {
				return nil, &ResolverError{
					URL:   fd.URL.String(),
					Cause: fmt.Errorf("redirect status %d without Location header (chain: %s)", resp.StatusCode, strings.Join(chain, " -> ")),
				}
			}
			if len(chain) > maxRedirects {
				return nil, &ResolverError{
					URL:   fd.URL.String(),
					Cause: fmt.Errorf("exceeded %d redirects (chain: %s -> %s)", maxRedirects, strings.Join(chain, " -> "), loc),
				}
			}
			nextURL, err := current.Parse(loc)
			if err != nil {
				return nil, &ResolverError{URL: fd.URL.String(), Cause: err}
			}
			current = *nextURL
			chain = append(chain, current.String())
			continue
		default:
			resp.Body.Close()
			return nil, &ResolverError{
				URL:   fd.URL.String(),
				Cause: fmt.Errorf("unexpected status %d for %s", resp.StatusCode, current.String()),
			}
		}
	}
}
