package graph

import "archscan/internal/model"

// FromContainer copies the components and relationships of c. Later changes
// to c do not show up in the snapshot.
func FromContainer(c *model.Container) *Graph {
	g := NewGraph()
	if c == nil {
		return g
	}
	g.Container = c.Name

	for _, comp := range c.Components() {
		node := &Node{
			Name:        comp.Name,
			Type:        comp.Type,
			Description: comp.Description,
			Technology:  comp.Technology,
			SourcePath:  comp.SourcePath,
			Size:        comp.Size(),
		}
		for _, e := range comp.CodeElements() {
			node.Elements = append(node.Elements, *e)
		}
		g.AddNode(node)
	}

	for _, comp := range c.Components() {
		for _, r := range comp.Relationships() {
			g.AddEdge(Edge{From: r.Source.Name, To: r.Destination.Name, Description: r.Description})
		}
	}
	return g
}
