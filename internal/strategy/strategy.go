// Package strategy finds the supporting types of a component: the
// implementation types that belong to it without being components
// themselves.
package strategy

import (
	"archscan/internal/model"
	"archscan/internal/typerepo"
)

// Strategy returns the names of types supporting c. The result may contain
// types that already belong to c or to other components; the caller decides
// what to keep.
type Strategy interface {
	SupportingTypes(c *model.Component) []string
}

// TypeRepository is the view of typerepo.Repository strategies work on.
type TypeRepository interface {
	AllTypes() []typerepo.Type
	ReferencedTypes(name string) []string
	Resolve(name string) (typerepo.Type, error)
	AssignableTo(name, target string) bool
	InScope(name string) bool
}

// FirstImplementation supports an interface component with the first
// concrete type implementing it.
type FirstImplementation struct {
	repo TypeRepository
}

func NewFirstImplementation(repo TypeRepository) *FirstImplementation {
	return &FirstImplementation{repo: repo}
}

func (s *FirstImplementation) SupportingTypes(c *model.Component) []string {
	if c == nil || c.Type == "" {
		return nil
	}
	if impl, ok := FirstImplementationOf(s.repo, c.Type); ok {
		return []string{impl}
	}
	return nil
}

// FirstImplementationOf returns the first concrete type, in AllTypes order,
// assignable to the interface iface. It reports false when iface is not an
// interface or has no implementation.
func FirstImplementationOf(repo TypeRepository, iface string) (string, bool) {
	t, err := repo.Resolve(iface)
	if err != nil || !t.IsInterface() {
		return "", false
	}
	for _, candidate := range repo.AllTypes() {
		if candidate.Name == iface || !candidate.IsConcrete() {
			continue
		}
		if repo.AssignableTo(candidate.Name, iface) {
			return candidate.Name, true
		}
	}
	return "", false
}

// ReferencedTypes collects the in-scope types referenced by the component's
// primary type and code elements. With Recursive set it keeps following the
// references of newly found types until nothing new turns up.
type ReferencedTypes struct {
	repo      TypeRepository
	Recursive bool
}

func NewReferencedTypes(repo TypeRepository, recursive bool) *ReferencedTypes {
	return &ReferencedTypes{repo: repo, Recursive: recursive}
}

func (s *ReferencedTypes) SupportingTypes(c *model.Component) []string {
	return referencedClosure(s.repo, c, s.Recursive)
}

// ReferencedTypesInSamePackage is ReferencedTypes limited to the package of
// the component's primary type.
type ReferencedTypesInSamePackage struct {
	repo      TypeRepository
	Recursive bool
}

func NewReferencedTypesInSamePackage(repo TypeRepository, recursive bool) *ReferencedTypesInSamePackage {
	return &ReferencedTypesInSamePackage{repo: repo, Recursive: recursive}
}

func (s *ReferencedTypesInSamePackage) SupportingTypes(c *model.Component) []string {
	if c == nil || c.Type == "" {
		return nil
	}
	pkg := typerepo.PackageOf(c.Type)
	var out []string
	for _, name := range referencedClosure(s.repo, c, s.Recursive) {
		if typerepo.PackageOf(name) == pkg {
			out = append(out, name)
		}
	}
	return out
}

// referencedClosure is a breadth-first walk over in-scope references. The
// seeds themselves are never returned.
func referencedClosure(repo TypeRepository, c *model.Component, recursive bool) []string {
	if c == nil {
		return nil
	}
	known := make(map[string]bool)
	var frontier []string
	seed := func(name string) {
		if name != "" && !known[name] {
			known[name] = true
			frontier = append(frontier, name)
		}
	}
	seed(c.Type)
	for _, e := range c.CodeElements() {
		seed(e.Type)
	}

	var found []string
	for len(frontier) > 0 {
		var next []string
		for _, name := range frontier {
			for _, ref := range repo.ReferencedTypes(name) {
				if known[ref] || !repo.InScope(ref) {
					continue
				}
				known[ref] = true
				found = append(found, ref)
				next = append(next, ref)
			}
		}
		if !recursive {
			break
		}
		frontier = next
	}
	return found
}
