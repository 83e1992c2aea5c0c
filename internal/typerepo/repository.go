// Package typerepo implements the type universe used by component discovery:
// enumeration of in-scope types, exclusion filtering, a per-run cache of type
// references and a log of lookups that failed along the way.
package typerepo

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"archscan/internal/errors"
)

// DefaultExclusions cover the Go standard library roots and predeclared
// types such as error or string.
var DefaultExclusions = []string{
	`^(archive|bufio|bytes|cmp|compress|container|context|crypto|database|debug|embed|encoding|errors|expvar|flag|fmt|go|hash|html|image|index|internal|io|iter|log|maps|math|mime|net|os|path|plugin|reflect|regexp|runtime|slices|sort|strconv|strings|structs|sync|syscall|testing|text|time|unicode|unique|unsafe|weak)(/[^.]+)?\.[^./]+$`,
	`^[^./]+$`,
}

// Failure operations.
const (
	OpEnumerate  = "enumerate"
	OpLookup     = "lookup"
	OpReferences = "references"
	OpAssignable = "assignable"
)

// Failure records a lookup that could not be completed. Failures never abort
// a run; the affected lookup yields an empty result instead.
type Failure struct {
	Type string
	Op   string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.Type, f.Err)
}

type lookupResult struct {
	t   Type
	err error
}

// Repository wraps a Provider with scope and exclusion filtering and caches
// every reference lookup for its lifetime. One Repository serves one
// discovery run. It is safe for concurrent use.
type Repository struct {
	provider Provider
	scope    []string
	log      logrus.FieldLogger

	mu         sync.RWMutex
	exclusions []*regexp.Regexp
	all        []Type
	allLoaded  bool

	refs    *xsync.MapOf[string, []string]
	lookups *xsync.MapOf[string, lookupResult]

	failMu   sync.Mutex
	failures []Failure
	failSeen map[string]bool
}

// Option configures a Repository.
type Option func(*repoOptions)

type repoOptions struct {
	log              logrus.FieldLogger
	exclusions       []string
	skipDefaultRules bool
}

// WithLogger sets the logger used for failure diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *repoOptions) { o.log = log }
}

// WithExclusions adds exclusion regexes on top of the defaults.
func WithExclusions(patterns ...string) Option {
	return func(o *repoOptions) { o.exclusions = append(o.exclusions, patterns...) }
}

// WithoutDefaultExclusions drops DefaultExclusions.
func WithoutDefaultExclusions() Option {
	return func(o *repoOptions) { o.skipDefaultRules = true }
}

// NewRepository creates a repository over provider restricted to the given
// package prefixes.
func NewRepository(provider Provider, scope []string, opts ...Option) (*Repository, error) {
	if provider == nil {
		return nil, errors.NewConfigurationError("type repository", "a type provider is required")
	}

	var cleaned []string
	for _, s := range scope {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.NewConfigurationError("type repository", "at least one scope prefix is required")
	}

	o := repoOptions{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Repository{
		provider: provider,
		scope:    cleaned,
		log:      o.log,
		refs:     xsync.NewMapOf[string, []string](),
		lookups:  xsync.NewMapOf[string, lookupResult](),
		failSeen: make(map[string]bool),
	}

	patterns := o.exclusions
	if !o.skipDefaultRules {
		patterns = append(append([]string{}, DefaultExclusions...), patterns...)
	}
	for _, p := range patterns {
		if err := r.AddExclusion(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Scope returns the configured package prefixes.
func (r *Repository) Scope() []string {
	return append([]string(nil), r.scope...)
}

// InScope reports whether name lives in a package under one of the scope
// prefixes.
func (r *Repository) InScope(name string) bool {
	pkg := PackageOf(name)
	for _, prefix := range r.scope {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(pkg, prefix) {
				return true
			}
			continue
		}
		if pkg == prefix || strings.HasPrefix(pkg, prefix+"/") {
			return true
		}
	}
	return false
}

// AddExclusion adds a regex; matching type names disappear from AllTypes and
// ReferencedTypes. Cached results are dropped.
func (r *Repository) AddExclusion(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return errors.NewConfigurationError("type repository", "invalid exclusion %q: %v", pattern, err)
	}
	r.mu.Lock()
	r.exclusions = append(r.exclusions, re)
	r.resetLocked()
	r.mu.Unlock()
	r.refs.Clear()
	return nil
}

// ClearExclusions removes every exclusion, including the defaults.
func (r *Repository) ClearExclusions() {
	r.mu.Lock()
	r.exclusions = nil
	r.resetLocked()
	r.mu.Unlock()
	r.refs.Clear()
}

// Exclusions lists the active patterns.
func (r *Repository) Exclusions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.exclusions))
	for _, re := range r.exclusions {
		out = append(out, re.String())
	}
	return out
}

func (r *Repository) excludedLocked(name string) bool {
	for _, re := range r.exclusions {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (r *Repository) resetLocked() {
	r.all = nil
	r.allLoaded = false
}

// AllTypes returns every in-scope, non-excluded type sorted by name. The
// result is computed once.
func (r *Repository) AllTypes() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allLoaded {
		return append([]Type(nil), r.all...)
	}

	types, err := r.provider.Types()
	if err != nil {
		r.recordFailure("", OpEnumerate, err)
	}

	seen := make(map[string]bool, len(types))
	all := make([]Type, 0, len(types))
	for _, t := range types {
		if t.Name == "" || seen[t.Name] || !r.InScope(t.Name) || r.excludedLocked(t.Name) {
			continue
		}
		seen[t.Name] = true
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	r.all = all
	r.allLoaded = true
	return append([]Type(nil), all...)
}

// ReferencedTypes returns the names directly referenced by name, without name
// itself and without excluded names. Results are cached per name; a provider
// failure yields an empty result and is recorded.
func (r *Repository) ReferencedTypes(name string) []string {
	refs, _ := r.refs.LoadOrCompute(name, func() []string {
		raw, err := r.provider.References(name)
		if err != nil {
			r.recordFailure(name, OpReferences, err)
			return nil
		}
		r.mu.RLock()
		defer r.mu.RUnlock()

		seen := make(map[string]bool, len(raw))
		out := make([]string, 0, len(raw))
		for _, ref := range raw {
			if ref == "" || ref == name || seen[ref] || r.excludedLocked(ref) {
				continue
			}
			seen[ref] = true
			out = append(out, ref)
		}
		sort.Strings(out)
		return out
	})
	return append([]string(nil), refs...)
}

// CachedReferences reports how many reference sets have been computed.
func (r *Repository) CachedReferences() int {
	return r.refs.Size()
}

// Resolve loads the metadata of name.
func (r *Repository) Resolve(name string) (Type, error) {
	res, _ := r.lookups.LoadOrCompute(name, func() lookupResult {
		t, err := r.provider.Lookup(name)
		if err != nil {
			r.recordFailure(name, OpLookup, err)
			return lookupResult{err: err}
		}
		return lookupResult{t: t}
	})
	return res.t, res.err
}

// AssignableTo reports whether name implements or embeds target. Failures
// count as false.
func (r *Repository) AssignableTo(name, target string) bool {
	ok, err := r.provider.AssignableTo(name, target)
	if err != nil {
		r.recordFailure(name, OpAssignable, fmt.Errorf("against %s: %w", target, err))
		return false
	}
	return ok
}

// Failures returns the recorded failures in the order they happened.
func (r *Repository) Failures() []Failure {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	return append([]Failure(nil), r.failures...)
}

func (r *Repository) recordFailure(name, op string, err error) {
	key := op + "|" + name + "|" + err.Error()
	r.failMu.Lock()
	if r.failSeen[key] {
		r.failMu.Unlock()
		return
	}
	r.failSeen[key] = true
	r.failures = append(r.failures, Failure{Type: name, Op: op, Err: err})
	r.failMu.Unlock()

	entry := r.log.WithFields(logrus.Fields{"type": name, "op": op}).WithError(err)
	if errors.IsError(err, ErrTypeNotFound) {
		entry.Debug("type resolution failed")
		return
	}
	entry.Warn("type resolution failed")
}
