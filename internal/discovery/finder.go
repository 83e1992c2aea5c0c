// Package discovery turns a type universe into components and the "uses"
// relationships between them.
package discovery

import (
	stderrors "errors"

	"github.com/sirupsen/logrus"

	"archscan/internal/errors"
	"archscan/internal/graph"
	"archscan/internal/matcher"
	"archscan/internal/model"
	"archscan/internal/strategy"
	"archscan/internal/typerepo"
)

// ErrAlreadyRan is returned by a second call to Finder.Run.
var ErrAlreadyRan = stderrors.New("component finder has already run")

// Repository is the type repository as the finder uses it.
type Repository interface {
	strategy.TypeRepository
}

// Rule pairs a matcher with the strategies run on the components it found.
type Rule struct {
	Matcher    matcher.Matcher
	Strategies []strategy.Strategy
}

type Option func(*Finder)

func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Finder) { f.log = log }
}

// WithDuplicatePolicy replaces the default MergePolicy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(f *Finder) { f.policy = p }
}

// WithImplementationDependencies makes interface components inherit the
// dependencies of their first implementation.
func WithImplementationDependencies() Option {
	return func(f *Finder) { f.implementationDeps = true }
}

// Finder runs one discovery pass into a container.
type Finder struct {
	repo      Repository
	container *model.Container
	rules     []Rule

	log                logrus.FieldLogger
	policy             DuplicatePolicy
	implementationDeps bool
	ran                bool
}

// NewFinder validates the configuration. A rule may have no strategies but
// every matcher and strategy must be set.
func NewFinder(repo Repository, container *model.Container, rules []Rule, opts ...Option) (*Finder, error) {
	if repo == nil {
		return nil, errors.NewConfigurationError("component finder", "a type repository is required")
	}
	if container == nil {
		return nil, errors.NewConfigurationError("component finder", "a container is required")
	}
	if len(rules) == 0 {
		return nil, errors.NewConfigurationError("component finder", "at least one rule is required")
	}
	for i, rule := range rules {
		if rule.Matcher == nil {
			return nil, errors.NewConfigurationError("component finder", "rule %d has no matcher", i)
		}
		for j, s := range rule.Strategies {
			if s == nil {
				return nil, errors.NewConfigurationError("component finder", "rule %d: strategy %d is nil", i, j)
			}
		}
	}

	f := &Finder{
		repo:      repo,
		container: container,
		rules:     append([]Rule(nil), rules...),
		log:       logrus.StandardLogger(),
		policy:    MergePolicy{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Run matches components, attaches supporting types, enriches code elements
// and resolves dependencies. The returned graph is a snapshot of the
// container afterwards.
func (f *Finder) Run() (*graph.Graph, error) {
	if f.ran {
		return nil, ErrAlreadyRan
	}
	f.ran = true

	matched, err := f.match()
	if err != nil {
		return nil, err
	}
	f.support(matched)
	f.enrich()
	f.resolveDependencies()

	g := graph.FromContainer(f.container)
	f.log.WithFields(logrus.Fields{
		"container":     f.container.Name,
		"components":    len(g.Nodes),
		"relationships": len(g.Edges),
	}).Info("component discovery finished")
	return g, nil
}

// match returns, per rule, the components the rule's matcher produced.
func (f *Finder) match() ([][]*model.Component, error) {
	types := f.repo.AllTypes()
	registry := NewRegistry(f.container, f.policy, f.log)
	matched := make([][]*model.Component, len(f.rules))

	for i, rule := range f.rules {
		seen := make(map[*model.Component]bool)
		for j := range types {
			t := &types[j]
			if !rule.Matcher.Matches(t) {
				continue
			}
			c, err := registry.Add(Discovery{
				Name:        t.SimpleName(),
				Type:        t.Name,
				Description: rule.Matcher.Description(),
				Technology:  rule.Matcher.Technology(),
				SourcePath:  t.Filepath,
			})
			if err != nil {
				return nil, err
			}

			if c.Type == t.Name {
				c.AddPrimaryType(t.Name)
			} else {
				f.log.WithFields(logrus.Fields{
					"component": c.Name,
					"type":      t.Name,
					"owner":     c.Type,
				}).Warn("component name taken by another type, type added as supporting")
				c.AddSupportingType(t.Name)
			}
			if !seen[c] {
				seen[c] = true
				matched[i] = append(matched[i], c)
			}
			f.log.WithFields(logrus.Fields{"component": c.Name, "type": t.Name, "rule": i}).Debug("component matched")
		}
	}
	return matched, nil
}

// support adds the supporting types found by each rule's strategies. Types
// that are the primary type of a component are left to dependency
// resolution.
func (f *Finder) support(matched [][]*model.Component) {
	for i, rule := range f.rules {
		for _, c := range matched[i] {
			for _, s := range rule.Strategies {
				for _, name := range s.SupportingTypes(c) {
					if f.container.ComponentOfType(name) != nil {
						continue
					}
					c.AddSupportingType(name)
				}
			}
		}
	}
}

// enrich copies type metadata onto the code elements. Types that do not
// resolve keep their zero values.
func (f *Finder) enrich() {
	for _, c := range f.container.Components() {
		for _, e := range c.CodeElements() {
			t, err := f.repo.Resolve(e.Type)
			if err != nil {
				continue
			}
			e.Category = t.Category
			e.Visibility = t.Visibility
			e.SourcePath = t.Filepath
			e.StartLine = t.StartLine
			e.Size = t.Size()
			e.Ranges = t.Ranges()
			if e.Description == "" {
				e.Description = t.Doc
			}
		}
	}
}

func (f *Finder) resolveDependencies() {
	resolver := NewDependencyResolver(f.repo, f.container, f.log)
	for _, c := range f.container.Components() {
		resolver.Resolve(c)
		if !f.implementationDeps || c.Type == "" {
			continue
		}
		if impl, ok := strategy.FirstImplementationOf(f.repo, c.Type); ok {
			resolver.Walk(c, impl)
		}
	}
}

// Container returns the container the finder writes into.
func (f *Finder) Container() *model.Container { return f.container }

var _ Repository = (*typerepo.Repository)(nil)
