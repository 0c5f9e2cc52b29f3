package refgraph

import "time"

// CircularMode selects how the Dereferencer handles a $ref that would
// re-enter a node already on its traversal stack (spec.md §4.7).
type CircularMode int

const (
	// CircularShare substitutes a shared reference to the in-progress
	// partial tree for the frame being re-entered.
	CircularShare CircularMode = iota
	// CircularReject fails the whole operation with a ReferenceError.
	CircularReject
	// CircularIgnore leaves the original $ref node in place.
	CircularIgnore
)

// HTTPOptions configures the built-in http(s) resolver.
type HTTPOptions struct {
	Headers         map[string]string
	Timeout         time.Duration
	Redirects       int
	WithCredentials bool
}

// DefaultHTTPOptions returns the built-in resolver's defaults: a 30s
// timeout and up to 5 redirects, matching common HTTP client defaults in
// the wider ecosystem.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:   30 * time.Second,
		Redirects: 5,
	}
}

// ResolveOptions configures the Resolver Registry (spec.md §4.2, §6).
type ResolveOptions struct {
	// Resolvers are registered ahead of the built-in filesystem/http(s)
	// resolvers, which are always registered too (the http(s) one
	// configured from HTTP); selection still goes by Order.
	Resolvers []Resolver
	HTTP      HTTPOptions
	// External, when false, restricts the Crawler to documents reachable
	// without crossing a document boundary (used by Bundler's non-default
	// internal-hoist mode; see SPEC_FULL.md §Supplemented features item 4).
	External bool
	// Tunings overrides a single built-in resolver's Order/CanRead without
	// rebuilding the whole Options tree (keyed by BuiltinFileSystem or
	// BuiltinHTTP; see WithResolverOptions).
	Tunings map[string]ResolverTuning
}

// ParseOptions configures the Parser Registry (spec.md §4.3, §6).
type ParseOptions struct {
	// Parsers are registered ahead of the built-in YAML/JSON, text, and
	// binary parsers, which are always registered too; selection still
	// goes by Order.
	Parsers []Parser
	// Tunings overrides a single built-in parser's Order/CanParse without
	// rebuilding the whole Options tree (keyed by BuiltinYAML, BuiltinText,
	// or BuiltinBinary; see WithParserOptions).
	Tunings map[string]ParserTuning
}

// Built-in names accepted by WithResolverOptions/WithParserOptions.
const (
	BuiltinFileSystem = "filesystem"
	BuiltinHTTP       = "http"
	BuiltinYAML       = "yaml"
	BuiltinText       = "text"
	BuiltinBinary     = "binary"
)

// ResolverTuning overrides a built-in Resolver's selection knobs. A zero
// Order or a nil CanRead leaves that built-in's default in place.
type ResolverTuning struct {
	Order   int
	CanRead func(FileDescriptor) bool
}

// ParserTuning overrides a built-in Parser's selection knobs. A zero Order
// or a nil CanParse leaves that built-in's default in place.
type ParserTuning struct {
	Order    int
	CanParse func(FileDescriptor) bool
}

// DereferenceOptions configures the Dereferencer (spec.md §4.7).
type DereferenceOptions struct {
	Circular CircularMode
}

// BundleOptions configures the Bundler (spec.md §4.8).
type BundleOptions struct {
	// ExternalOnly, when true (the default), only inlines $ref targets
	// that live in a document other than the root. When false, deeply
	// nested internal definitions are also hoisted to the canonical
	// location (SPEC_FULL.md supplemented feature 4).
	ExternalOnly bool
	// DefinitionsPointer is the canonical insertion path under the root,
	// as a sequence of keys (default: ["definitions"]).
	DefinitionsPointer []string
}

// DefaultBundleOptions returns the Bundler's defaults.
func DefaultBundleOptions() BundleOptions {
	return BundleOptions{
		ExternalOnly:       true,
		DefinitionsPointer: []string{"definitions"},
	}
}

// Options aggregates every sub-options group accepted by the top-level
// Parse/Resolve/Dereference/Bundle entry points (spec.md §6).
type Options struct {
	Parse           ParseOptions
	Resolve         ResolveOptions
	Dereference     DereferenceOptions
	Bundle          BundleOptions
	ContinueOnError bool
	// RelativeBase overrides the process current working directory used
	// to resolve a relative root path or relative $refs with no other
	// base. When empty, the process cwd is used.
	RelativeBase string
}

// DefaultOptions returns the options the top-level functions use when the
// caller passes nil.
func DefaultOptions() *Options {
	return &Options{
		Resolve: ResolveOptions{HTTP: DefaultHTTPOptions(), External: true},
		Bundle:  DefaultBundleOptions(),
	}
}

// OptionFunc mutates an Options value. SPEC_FULL.md supplemented feature 2:
// ergonomic overrides for one resolver/parser's knobs without rebuilding
// the whole Options tree.
type OptionFunc func(*Options)

// WithResolvers appends custom resolvers ahead of the built-ins.
func WithResolvers(resolvers ...Resolver) OptionFunc {
	return func(o *Options) {
		o.Resolve.Resolvers = append(o.Resolve.Resolvers, resolvers...)
	}
}

// WithParsers appends custom parsers ahead of the built-ins.
func WithParsers(parsers ...Parser) OptionFunc {
	return func(o *Options) {
		o.Parse.Parsers = append(o.Parse.Parsers, parsers...)
	}
}

// WithCircularMode sets the Dereferencer's circular-reference policy.
func WithCircularMode(mode CircularMode) OptionFunc {
	return func(o *Options) { o.Dereference.Circular = mode }
}

// WithContinueOnError toggles aggregate-errors-and-continue behavior.
func WithContinueOnError(continueOnError bool) OptionFunc {
	return func(o *Options) { o.ContinueOnError = continueOnError }
}

// WithHTTPOptions overrides the built-in http(s) resolver's configuration.
func WithHTTPOptions(http HTTPOptions) OptionFunc {
	return func(o *Options) { o.Resolve.HTTP = http }
}

// WithResolverOptions overrides one built-in resolver's Order/CanRead
// (name is one of the Builtin* constants), without rebuilding the rest of
// ResolveOptions (SPEC_FULL.md supplemented feature 2).
func WithResolverOptions(name string, tuning ResolverTuning) OptionFunc {
	return func(o *Options) {
		if o.Resolve.Tunings == nil {
			o.Resolve.Tunings = make(map[string]ResolverTuning)
		}
		o.Resolve.Tunings[name] = tuning
	}
}

// WithParserOptions overrides one built-in parser's Order/CanParse (name
// is one of the Builtin* constants), without rebuilding the rest of
// ParseOptions (SPEC_FULL.md supplemented feature 2).
func WithParserOptions(name string, tuning ParserTuning) OptionFunc {
	return func(o *Options) {
		if o.Parse.Tunings == nil {
			o.Parse.Tunings = make(map[string]ParserTuning)
		}
		o.Parse.Tunings[name] = tuning
	}
}

// Apply builds an *Options from DefaultOptions with fns applied in order.
func Apply(fns ...OptionFunc) *Options {
	o := DefaultOptions()
	for _, fn := range fns {
		fn(o)
	}
	return o
}
