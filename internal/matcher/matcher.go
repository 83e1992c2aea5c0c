// Package matcher decides which types of the universe are architectural
// components.
package matcher

import (
	"regexp"
	"strings"

	"archscan/internal/errors"
	"archscan/internal/typerepo"
)

// Matcher is a predicate over types. Every matched type becomes a component
// described by Description and Technology. A nil type never matches.
type Matcher interface {
	Matches(t *typerepo.Type) bool
	Description() string
	Technology() string
}

// TypeResolver is the part of the type repository structural matchers need.
type TypeResolver interface {
	Resolve(name string) (typerepo.Type, error)
	AssignableTo(name, target string) bool
}

type described struct {
	description string
	technology  string
}

func (d described) Description() string { return d.description }
func (d described) Technology() string  { return d.technology }

// Marker matches types whose doc comment carries a directive such as
// "//arch:component". A directive with arguments ("//arch:component web")
// matches as well.
type Marker struct {
	described
	marker string
}

func NewMarker(marker, description, technology string) (*Marker, error) {
	marker = strings.TrimPrefix(strings.TrimSpace(marker), "//")
	if marker == "" {
		return nil, errors.NewConfigurationError("marker matcher", "a marker is required")
	}
	return &Marker{described: described{description, technology}, marker: marker}, nil
}

func (m *Marker) Matches(t *typerepo.Type) bool {
	if t == nil {
		return false
	}
	for _, directive := range t.Markers {
		if directive == m.marker || strings.HasPrefix(directive, m.marker+" ") {
			return true
		}
	}
	return false
}

// NameSuffix matches on the end of the simple type name.
type NameSuffix struct {
	described
	suffix string
}

func NewNameSuffix(suffix, description, technology string) (*NameSuffix, error) {
	if suffix == "" {
		return nil, errors.NewConfigurationError("name suffix matcher", "a suffix is required")
	}
	return &NameSuffix{described: described{description, technology}, suffix: suffix}, nil
}

func (m *NameSuffix) Matches(t *typerepo.Type) bool {
	return t != nil && strings.HasSuffix(t.SimpleName(), m.suffix)
}

// Regex matches the fully qualified type name.
type Regex struct {
	described
	re *regexp.Regexp
}

func NewRegex(pattern, description, technology string) (*Regex, error) {
	if pattern == "" {
		return nil, errors.NewConfigurationError("regex matcher", "a pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.NewConfigurationError("regex matcher", "invalid pattern %q: %v", pattern, err)
	}
	return &Regex{described: described{description, technology}, re: re}, nil
}

func (m *Regex) Matches(t *typerepo.Type) bool {
	return t != nil && m.re.MatchString(t.Name)
}

// ImplementsInterface matches concrete types whose value or pointer
// implements an interface. The interface itself and other interfaces never
// match.
type ImplementsInterface struct {
	described
	repo  TypeResolver
	iface string
}

func NewImplementsInterface(repo TypeResolver, iface, description, technology string) (*ImplementsInterface, error) {
	if repo == nil {
		return nil, errors.NewConfigurationError("implements matcher", "a type repository is required")
	}
	t, err := repo.Resolve(iface)
	if err != nil {
		return nil, errors.NewConfigurationError("implements matcher", "cannot resolve %q: %v", iface, err)
	}
	if !t.IsInterface() {
		return nil, errors.NewConfigurationError("implements matcher", "%q is not an interface", iface)
	}
	return &ImplementsInterface{described: described{description, technology}, repo: repo, iface: iface}, nil
}

func (m *ImplementsInterface) Matches(t *typerepo.Type) bool {
	if t == nil || t.Name == m.iface || t.IsInterface() {
		return false
	}
	return m.repo.AssignableTo(t.Name, m.iface)
}

// ExtendsClass matches types that embed a struct, directly or through other
// embedded structs. The struct itself does not match.
type ExtendsClass struct {
	described
	repo  TypeResolver
	class string
}

func NewExtendsClass(repo TypeResolver, class, description, technology string) (*ExtendsClass, error) {
	if repo == nil {
		return nil, errors.NewConfigurationError("extends matcher", "a type repository is required")
	}
	t, err := repo.Resolve(class)
	if err != nil {
		return nil, errors.NewConfigurationError("extends matcher", "cannot resolve %q: %v", class, err)
	}
	if t.IsInterface() || t.Category == typerepo.CategoryEnum {
		return nil, errors.NewConfigurationError("extends matcher", "%q is not a struct type", class)
	}
	return &ExtendsClass{described: described{description, technology}, repo: repo, class: class}, nil
}

func (m *ExtendsClass) Matches(t *typerepo.Type) bool {
	if t == nil || t.Name == m.class || t.IsInterface() {
		return false
	}
	return m.repo.AssignableTo(t.Name, m.class)
}
