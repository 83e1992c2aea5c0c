package graph

// Efferent is the number of distinct components name uses.
func (g *Graph) Efferent(name string) int {
	return len(g.GetDependencies(name))
}

// Afferent is the number of distinct components using name.
func (g *Graph) Afferent(name string) int {
	return len(g.GetDependents(name))
}

// Instability is Ce / (Ca + Ce): 0 for a component that uses nothing, 1 for
// one that nothing uses. Isolated components report 0.
func (g *Graph) Instability(name string) float64 {
	ce, ca := g.Efferent(name), g.Afferent(name)
	if ce+ca == 0 {
		return 0
	}
	return float64(ce) / float64(ce+ca)
}

// Coupling is the coupling summary of one component.
type Coupling struct {
	Name        string  `json:"name"`
	Afferent    int     `json:"afferent"`
	Efferent    int     `json:"efferent"`
	Instability float64 `json:"instability"`
}

// CouplingReport returns the coupling of every component, sorted by name.
func (g *Graph) CouplingReport() []Coupling {
	if g == nil {
		return nil
	}
	var out []Coupling
	for _, name := range g.Names() {
		out = append(out, Coupling{
			Name:        name,
			Afferent:    g.Afferent(name),
			Efferent:    g.Efferent(name),
			Instability: g.Instability(name),
		})
	}
	return out
}
