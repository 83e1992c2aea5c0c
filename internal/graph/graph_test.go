package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archscan/internal/model"
)

func buildContainer(t *testing.T) *model.Container {
	t.Helper()
	c := model.NewContainer("API")
	web, err := c.AddComponent("OrderController", "example.com/app/web.OrderController")
	require.NoError(t, err)
	web.Technology = "net/http"
	web.AddPrimaryType(web.Type).Size = 30
	web.AddSupportingType("example.com/app/web.view").Size = 12

	repo, err := c.AddComponent("OrderRepository", "example.com/app/orders.OrderRepository")
	require.NoError(t, err)
	repo.AddPrimaryType(repo.Type).Size = 5

	audit, err := c.AddComponent("Audit", "example.com/app/audit.Audit")
	require.NoError(t, err)
	audit.AddPrimaryType(audit.Type)

	_, err = web.Uses(repo, "")
	require.NoError(t, err)
	_, err = web.Uses(repo, "reads orders")
	require.NoError(t, err)
	_, err = web.Uses(audit, "")
	require.NoError(t, err)
	_, err = audit.Uses(repo, "")
	require.NoError(t, err)
	return c
}

func TestFromContainer(t *testing.T) {
	c := buildContainer(t)
	g := FromContainer(c)

	t.Run("Nodes", func(t *testing.T) {
		assert.Equal(t, "API", g.Container)
		assert.Equal(t, []string{"Audit", "OrderController", "OrderRepository"}, g.Names())
		web := g.Nodes["OrderController"]
		require.NotNil(t, web)
		assert.Equal(t, 42, web.Size)
		assert.Equal(t, "net/http", web.Technology)
		require.Len(t, web.Elements, 2)
		assert.Equal(t, model.RoleSupporting, web.Elements[1].Role)
	})

	t.Run("Edges keep creation order", func(t *testing.T) {
		assert.Equal(t, []Edge{
			{From: "OrderController", To: "OrderRepository"},
			{From: "OrderController", To: "OrderRepository", Description: "reads orders"},
			{From: "OrderController", To: "Audit"},
		}, g.EdgesFrom("OrderController"))
		assert.Len(t, g.Edges, 4)
	})

	t.Run("Snapshot is detached", func(t *testing.T) {
		extra, err := c.AddComponent("Late", "example.com/app.Late")
		require.NoError(t, err)
		extra.AddPrimaryType(extra.Type).Size = 100
		c.ComponentWithName("OrderController").CodeElements()[0].Size = 1000

		assert.Len(t, g.Nodes, 3)
		assert.Equal(t, 42, g.Nodes["OrderController"].Size)
		assert.Equal(t, 30, g.Nodes["OrderController"].Elements[0].Size)
	})
}

func TestGraph_Dependencies(t *testing.T) {
	g := FromContainer(buildContainer(t))

	var deps []string
	for _, n := range g.GetDependencies("OrderController") {
		deps = append(deps, n.Name)
	}
	assert.Equal(t, []string{"OrderRepository", "Audit"}, deps, "parallel edges count once")

	var dependents []string
	for _, n := range g.GetDependents("OrderRepository") {
		dependents = append(dependents, n.Name)
	}
	assert.Equal(t, []string{"OrderController", "Audit"}, dependents)
	assert.Empty(t, g.GetDependencies("OrderRepository"))
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	g.AddNode(&Node{Name: "A"})
	g.AddNode(&Node{Name: "B"})
	g.AddNode(nil)

	assert.True(t, g.AddEdge(Edge{From: "A", To: "B"}))
	assert.False(t, g.AddEdge(Edge{From: "A", To: "A"}), "self loops are dropped")
	assert.False(t, g.AddEdge(Edge{From: "A", To: "C"}), "unknown ends are dropped")
	assert.Len(t, g.Edges, 1)
}

func TestGraph_Coupling(t *testing.T) {
	g := FromContainer(buildContainer(t))

	assert.Equal(t, 2, g.Efferent("OrderController"))
	assert.Equal(t, 0, g.Afferent("OrderController"))
	assert.Equal(t, 1.0, g.Instability("OrderController"))
	assert.Equal(t, 0.0, g.Instability("OrderRepository"))
	assert.InDelta(t, 0.5, g.Instability("Audit"), 1e-9)
	assert.Equal(t, 0.0, g.Instability("Missing"))

	report := g.CouplingReport()
	require.Len(t, report, 3)
	assert.Equal(t, Coupling{Name: "OrderRepository", Afferent: 2, Efferent: 0, Instability: 0}, report[2])
}
