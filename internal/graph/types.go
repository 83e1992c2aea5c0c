package graph

import "archscan/internal/model"

// Node is a component as it was when the snapshot was taken.
type Node struct {
	Name        string              `json:"name"`
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Technology  string              `json:"technology,omitempty"`
	SourcePath  string              `json:"source_path,omitempty"`
	Size        int                 `json:"size"`
	Elements    []model.CodeElement `json:"code_elements"`
}

// Edge is a "uses" relationship between two components, by name.
type Edge struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Description string `json:"description,omitempty"`
}
