package discovery

import (
	"archscan/internal/errors"
	"archscan/internal/model"
)

// DuplicatePolicy decides what happens when a discovery hits a component
// that already exists by name or by primary type.
type DuplicatePolicy interface {
	Resolve(existing *model.Component, incoming Discovery) error
}

// MergePolicy fills the empty fields of the existing component from the
// incoming discovery. Non-empty fields are never overwritten.
type MergePolicy struct{}

func (MergePolicy) Resolve(existing *model.Component, incoming Discovery) error {
	if existing.Type == "" && incoming.Type != "" {
		if err := existing.SetType(incoming.Type); err != nil {
			return errors.WithStackTrace(err)
		}
	}
	if existing.Description == "" {
		existing.Description = incoming.Description
	}
	if existing.Technology == "" {
		existing.Technology = incoming.Technology
	}
	if existing.SourcePath == "" {
		existing.SourcePath = incoming.SourcePath
	}
	return nil
}

// RejectPolicy refuses every duplicate.
type RejectPolicy struct{}

func (RejectPolicy) Resolve(existing *model.Component, incoming Discovery) error {
	return &errors.DuplicateComponentError{
		Container: existing.Container().Name,
		Existing:  existing.Name,
		Incoming:  incoming.Name,
		Type:      incoming.Type,
	}
}
