// Package analysis maps source changes onto the components of a graph.
package analysis

import (
	"sort"
	"strings"

	"archscan/internal/git"
	"archscan/internal/graph"
	"archscan/internal/model"
)

// ImpactReport lists the components touched by a set of changes and the
// components that depend on them, directly or transitively.
type ImpactReport struct {
	DirectlyAffected   []*graph.Node
	IndirectlyAffected []*graph.Node
}

// Analyzer performs impact analysis on a component graph.
type Analyzer struct {
	g *graph.Graph
}

func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact finds the components with a code element in a changed line
// range, then every component that uses one of them.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Node{},
		IndirectlyAffected: []*graph.Node{},
	}
	seen := make(map[string]bool)

	for _, name := range a.g.Names() {
		node := a.g.Nodes[name]
		for _, change := range changes {
			if touches(node, change) {
				report.DirectlyAffected = append(report.DirectlyAffected, node)
				seen[name] = true
				break
			}
		}
	}

	queue := append([]*graph.Node(nil), report.DirectlyAffected...)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.GetDependents(node.Name) {
			if seen[dep.Name] {
				continue
			}
			seen[dep.Name] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep)
		}
	}
	sort.Slice(report.IndirectlyAffected, func(i, j int) bool {
		return report.IndirectlyAffected[i].Name < report.IndirectlyAffected[j].Name
	})

	return report
}

func touches(node *graph.Node, change git.ChangedFile) bool {
	for _, e := range node.Elements {
		if isAffected(e, change) {
			return true
		}
	}
	return false
}

// samePath compares a module relative path with a repository relative one;
// the module may live in a subdirectory of the repository.
func samePath(elementPath, changed string) bool {
	if elementPath == "" {
		return false
	}
	return changed == elementPath || strings.HasSuffix(changed, "/"+elementPath)
}

// isAffected reports whether a changed line falls inside the declaration of
// the element or one of its methods. An element without a known position is
// affected by any change to its file.
func isAffected(e model.CodeElement, change git.ChangedFile) bool {
	if len(e.Ranges) == 0 {
		return samePath(e.SourcePath, change.Path)
	}
	for _, r := range e.Ranges {
		if !samePath(r.Filepath, change.Path) {
			continue
		}
		for _, line := range change.ChangedLines {
			if line >= r.Start && line <= r.End {
				return true
			}
		}
	}
	return false
}
