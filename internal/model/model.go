// Package model is the component model discovery writes into: a container of
// components, their code elements and the "uses" relationships between them.
package model

import (
	"errors"
	"fmt"

	"archscan/internal/typerepo"
)

type Role string

const (
	RolePrimary    Role = "Primary"
	RoleSupporting Role = "Supporting"
)

var (
	ErrSelfRelationship = errors.New("a component cannot use itself")
	ErrForeignComponent = errors.New("components belong to different containers")
)

// CodeElement is one type that makes up a component.
type CodeElement struct {
	Role        Role                 `json:"role"`
	Type        string               `json:"type"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	SourcePath  string               `json:"source_path,omitempty"`
	StartLine   int                  `json:"start_line,omitempty"`
	Size        int                  `json:"size,omitempty"`
	Ranges      []typerepo.LineRange `json:"ranges,omitempty"`
	Category    typerepo.Category    `json:"category,omitempty"`
	Visibility  typerepo.Visibility  `json:"visibility,omitempty"`
}

// Relationship is a directed "uses" edge between two components of the same
// container.
type Relationship struct {
	Source      *Component
	Destination *Component
	Description string
}

// Component is a group of types with one primary type.
type Component struct {
	Name        string
	Type        string
	Description string
	Technology  string
	SourcePath  string

	container     *Container
	elements      []*CodeElement
	byType        map[string]*CodeElement
	relationships []*Relationship
}

// Container returns the container the component was added to.
func (c *Component) Container() *Container { return c.container }

// AddPrimaryType records typeName as the primary code element.
func (c *Component) AddPrimaryType(typeName string) *CodeElement {
	return c.addElement(RolePrimary, typeName)
}

// AddSupportingType records typeName as a supporting code element.
func (c *Component) AddSupportingType(typeName string) *CodeElement {
	return c.addElement(RoleSupporting, typeName)
}

// addElement is a no-op returning the existing element when typeName is
// already part of the component.
func (c *Component) addElement(role Role, typeName string) *CodeElement {
	if e, ok := c.byType[typeName]; ok {
		return e
	}
	e := &CodeElement{Role: role, Type: typeName, Name: typerepo.SimpleName(typeName)}
	c.elements = append(c.elements, e)
	c.byType[typeName] = e
	return e
}

// CodeElements returns the elements in the order they were added.
func (c *Component) CodeElements() []*CodeElement {
	return append([]*CodeElement(nil), c.elements...)
}

// CodeElement returns the element for typeName or nil.
func (c *Component) CodeElement(typeName string) *CodeElement {
	return c.byType[typeName]
}

// Size is the sum of the sizes of the code elements.
func (c *Component) Size() int {
	total := 0
	for _, e := range c.elements {
		total += e.Size
	}
	return total
}

// SetType makes typeName the primary type of the component.
func (c *Component) SetType(typeName string) error {
	return c.container.setType(c, typeName)
}

// Uses adds a relationship to dest. When an edge to dest already exists the
// call is suppressed and the existing edge returned if description is empty
// or equal to the existing description.
func (c *Component) Uses(dest *Component, description string) (*Relationship, error) {
	if dest == nil {
		return nil, fmt.Errorf("component %q: relationship destination is nil", c.Name)
	}
	if dest == c {
		return nil, fmt.Errorf("component %q: %w", c.Name, ErrSelfRelationship)
	}
	if dest.container != c.container {
		return nil, fmt.Errorf("%s -> %s: %w", c.Name, dest.Name, ErrForeignComponent)
	}

	var existing *Relationship
	for _, r := range c.relationships {
		if r.Destination != dest {
			continue
		}
		if r.Description == description {
			return r, nil
		}
		if existing == nil {
			existing = r
		}
	}
	if existing != nil && description == "" {
		return existing, nil
	}

	r := &Relationship{Source: c, Destination: dest, Description: description}
	c.relationships = append(c.relationships, r)
	return r, nil
}

// Relationships returns the outgoing edges in creation order.
func (c *Component) Relationships() []*Relationship {
	return append([]*Relationship(nil), c.relationships...)
}

// UsesComponent reports whether any outgoing edge points at dest.
func (c *Component) UsesComponent(dest *Component) bool {
	for _, r := range c.relationships {
		if r.Destination == dest {
			return true
		}
	}
	return false
}

// Container holds components unique by name and by primary type.
type Container struct {
	Name string

	components []*Component
	byName     map[string]*Component
	byType     map[string]*Component
}

func NewContainer(name string) *Container {
	return &Container{
		Name:   name,
		byName: make(map[string]*Component),
		byType: make(map[string]*Component),
	}
}

// AddComponent creates a component. typeName may be empty and set later.
func (c *Container) AddComponent(name, typeName string) (*Component, error) {
	if name == "" {
		return nil, fmt.Errorf("container %q: component name is required", c.Name)
	}
	if _, ok := c.byName[name]; ok {
		return nil, fmt.Errorf("container %q: component %q already exists", c.Name, name)
	}
	if owner, ok := c.byType[typeName]; ok && typeName != "" {
		return nil, fmt.Errorf("container %q: type %s already belongs to component %q", c.Name, typeName, owner.Name)
	}

	comp := &Component{
		Name:      name,
		Type:      typeName,
		container: c,
		byType:    make(map[string]*CodeElement),
	}
	c.components = append(c.components, comp)
	c.byName[name] = comp
	if typeName != "" {
		c.byType[typeName] = comp
	}
	return comp, nil
}

func (c *Container) setType(comp *Component, typeName string) error {
	if owner, ok := c.byType[typeName]; ok && owner != comp {
		return fmt.Errorf("container %q: type %s already belongs to component %q", c.Name, typeName, owner.Name)
	}
	if comp.Type != "" {
		delete(c.byType, comp.Type)
	}
	comp.Type = typeName
	if typeName != "" {
		c.byType[typeName] = comp
	}
	return nil
}

func (c *Container) ComponentWithName(name string) *Component {
	return c.byName[name]
}

// ComponentOfType returns the component whose primary type is typeName.
func (c *Container) ComponentOfType(typeName string) *Component {
	if typeName == "" {
		return nil
	}
	return c.byType[typeName]
}

// Components returns the components in the order they were added.
func (c *Container) Components() []*Component {
	return append([]*Component(nil), c.components...)
}
