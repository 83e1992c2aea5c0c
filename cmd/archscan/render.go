package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"archscan/internal/analysis"
	"archscan/internal/graph"
	"archscan/internal/typerepo"
)

func printGraph(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "Container: %s\n", g.Container)
	fmt.Fprintf(w, "\nComponents (%d)\n", len(g.Nodes))
	for _, name := range g.Names() {
		n := g.Nodes[name]
		fmt.Fprintf(w, "\n  %s", n.Name)
		if n.Technology != "" {
			fmt.Fprintf(w, " [%s]", n.Technology)
		}
		fmt.Fprintf(w, "  %s, %d lines\n", n.Type, n.Size)
		if n.Description != "" {
			fmt.Fprintf(w, "    %s\n", n.Description)
		}
		for _, e := range n.Elements {
			fmt.Fprintf(w, "    - %-10s %s\n", e.Role, e.Type)
		}
	}

	fmt.Fprintf(w, "\nRelationships (%d)\n", len(g.Edges))
	for _, e := range g.Edges {
		if e.Description != "" {
			fmt.Fprintf(w, "  %s -> %s (%s)\n", e.From, e.To, e.Description)
			continue
		}
		fmt.Fprintf(w, "  %s -> %s\n", e.From, e.To)
	}
}

func printFailures(w io.Writer, failures []typerepo.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nUninspected types (%d)\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
}

func printCoupling(w io.Writer, g *graph.Graph) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPONENT\tCa\tCe\tI")
	for _, c := range g.CouplingReport() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", c.Name, c.Afferent, c.Efferent, c.Instability)
	}
	tw.Flush()
}

func printImpact(w io.Writer, r *analysis.ImpactReport) {
	if len(r.DirectlyAffected) == 0 {
		fmt.Fprintln(w, "No components affected.")
		return
	}
	fmt.Fprintf(w, "Changed components (%d)\n", len(r.DirectlyAffected))
	for _, n := range r.DirectlyAffected {
		fmt.Fprintf(w, "  %s\n", n.Name)
	}
	fmt.Fprintf(w, "Dependent components (%d)\n", len(r.IndirectlyAffected))
	for _, n := range r.IndirectlyAffected {
		fmt.Fprintf(w, "  %s\n", n.Name)
	}
}
