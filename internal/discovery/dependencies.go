package discovery

import (
	"github.com/sirupsen/logrus"

	"archscan/internal/model"
)

// ReferenceSource answers direct type references, already filtered for
// exclusions, and tells which types belong to the analyzed code.
type ReferenceSource interface {
	ReferencedTypes(name string) []string
	InScope(name string) bool
}

// DependencyResolver derives "uses" relationships between the components of
// a container from type references. Chains of non-component types are
// followed until they reach another component's primary type.
type DependencyResolver struct {
	refs      ReferenceSource
	container *model.Container
	log       logrus.FieldLogger
}

func NewDependencyResolver(refs ReferenceSource, container *model.Container, log logrus.FieldLogger) *DependencyResolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DependencyResolver{refs: refs, container: container, log: log}
}

// Resolve walks every code element of c. It returns the number of
// relationships c has afterwards.
func (r *DependencyResolver) Resolve(c *model.Component) int {
	for _, e := range c.CodeElements() {
		r.Walk(c, e.Type)
	}
	return len(c.Relationships())
}

// Walk follows references depth first from start and adds an edge from c to
// every other component whose primary type is reached. Component types and
// types outside the scope end the walk on their branch. Each type is visited
// at most once per call.
func (r *DependencyResolver) Walk(c *model.Component, start string) {
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, ref := range r.refs.ReferencedTypes(current) {
			if d := r.container.ComponentOfType(ref); d != nil {
				if d != c {
					r.use(c, d, current)
				}
				continue
			}
			if visited[ref] {
				continue
			}
			visited[ref] = true
			if !r.refs.InScope(ref) {
				continue
			}
			stack = append(stack, ref)
		}
	}
}

func (r *DependencyResolver) use(c, d *model.Component, via string) {
	if _, err := c.Uses(d, ""); err != nil {
		r.log.WithFields(logrus.Fields{"component": c.Name, "destination": d.Name}).WithError(err).Warn("relationship refused")
		return
	}
	r.log.WithFields(logrus.Fields{"component": c.Name, "destination": d.Name, "via": via}).Trace("uses")
}
