package discovery

import (
	"github.com/sirupsen/logrus"

	"archscan/internal/errors"
	"archscan/internal/model"
)

// Discovery describes a component found by a matcher.
type Discovery struct {
	Name        string
	Type        string
	Description string
	Technology  string
	SourcePath  string
}

// Registry adds discovered components to a container, one per name and per
// primary type.
type Registry struct {
	container *model.Container
	policy    DuplicatePolicy
	log       logrus.FieldLogger
}

// NewRegistry uses MergePolicy when policy is nil.
func NewRegistry(container *model.Container, policy DuplicatePolicy, log logrus.FieldLogger) *Registry {
	if policy == nil {
		policy = MergePolicy{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{container: container, policy: policy, log: log}
}

// Add creates a component for d or hands the existing one to the duplicate
// policy. When the name and the type point at two different components the
// one owning the type is used.
func (r *Registry) Add(d Discovery) (*model.Component, error) {
	byType := r.container.ComponentOfType(d.Type)
	byName := r.container.ComponentWithName(d.Name)

	existing := byType
	if existing == nil {
		existing = byName
	}
	if existing == nil {
		c, err := r.container.AddComponent(d.Name, d.Type)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		c.Description = d.Description
		c.Technology = d.Technology
		c.SourcePath = d.SourcePath
		return c, nil
	}

	if byName != nil && byType != nil && byName != byType {
		r.log.WithFields(logrus.Fields{
			"component": d.Name,
			"type":      d.Type,
			"owner":     byType.Name,
		}).Warn("component name and type belong to different components")
	}
	if err := r.policy.Resolve(existing, d); err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{"component": existing.Name, "type": d.Type}).Debug("duplicate component resolved")
	return existing, nil
}
