package scan

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archscan/internal/analysis"
	"archscan/internal/config"
	archerrors "archscan/internal/errors"
	"archscan/internal/git"
	"archscan/internal/graph"
)

func elementTypes(n *graph.Node) []string {
	var out []string
	for _, e := range n.Elements {
		out = append(out, e.Type)
	}
	return out
}

func TestRun_Snapshot(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.LoadConfig("testdata/archscan.yaml")
	require.NoError(t, err)

	res, err := Run(cfg, log)
	require.NoError(t, err)
	g := res.Graph

	assert.Equal(t, "Shop", g.Container)
	assert.Equal(t, []string{"OrderController", "OrderService", "sqlOrderRepository"}, g.Names())

	ctrl := g.Nodes["OrderController"]
	assert.Equal(t, "example.com/shop/web.OrderController", ctrl.Type)
	assert.Equal(t, "Go", ctrl.Technology)
	assert.ElementsMatch(t, []string{
		"example.com/shop/web.OrderController",
		"example.com/shop/web.viewModel",
	}, elementTypes(ctrl))
	assert.Equal(t, 48, ctrl.Size)

	svc := g.Nodes["OrderService"]
	assert.ElementsMatch(t, []string{
		"example.com/shop/orders.OrderService",
		"example.com/shop/orders.orderService",
		"example.com/shop/orders.Order",
		"example.com/shop/orders.OrderRepository",
	}, elementTypes(svc))

	repo := g.Nodes["sqlOrderRepository"]
	assert.Equal(t, "SQL", repo.Technology)
	assert.Equal(t, "Order storage", repo.Description)
	assert.Equal(t, "storage/sql.go", repo.SourcePath)

	assert.Equal(t, []graph.Edge{{From: "OrderController", To: "OrderService"}}, g.Edges)
	assert.Empty(t, res.Failures)
}

func TestRun_RejectsDuplicates(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.LoadConfig("testdata/archscan.yaml")
	require.NoError(t, err)
	cfg.DuplicatePolicy = config.PolicyReject
	cfg.Rules = append(cfg.Rules, config.Rule{
		Matcher: config.Matcher{Kind: config.MatchSuffix, Value: "Controller"},
	})

	_, err = Run(cfg, log)
	var dup *archerrors.DuplicateComponentError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "OrderController", dup.Existing)
}

func TestRun_SnapshotNeedsScope(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.LoadConfig("testdata/archscan.yaml")
	require.NoError(t, err)
	cfg.Scope = nil

	_, err = Run(cfg, log)
	var cfgErr *archerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "scope", cfgErr.Component)
}

func TestRun_InvalidConfig(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Rules[0].Matcher.Kind = "annotation"

	_, err := Run(cfg, log)
	assert.ErrorContains(t, err, "annotation")
}

func TestRun_UnknownInterface(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.LoadConfig("testdata/archscan.yaml")
	require.NoError(t, err)
	cfg.Rules[1].Matcher.Value = "example.com/shop/orders.Missing"

	_, err = Run(cfg, log)
	var cfgErr *archerrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "implements matcher", cfgErr.Component)
}

func TestRun_TypedProvider(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Project.Root = filepath.Join("..", "typerepo", "typed", "testdata", "shop")

	res, err := Run(cfg, log)
	require.NoError(t, err)

	require.Equal(t, []string{"Controller"}, res.Graph.Names())
	ctrl := res.Graph.Nodes["Controller"]
	assert.Equal(t, "example.com/shop/web.Controller", ctrl.Type)
	assert.ElementsMatch(t, []string{
		"example.com/shop/web.Controller",
		"example.com/shop/orders.Order",
		"example.com/shop/orders.Service",
		"example.com/shop/orders.Status",
	}, elementTypes(ctrl))
}

func TestRun_TypedProviderImpactOfMethodChange(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Project.Root = filepath.Join("..", "typerepo", "typed", "testdata", "shop")

	res, err := Run(cfg, log)
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "standard library types are not inspected")

	primary := res.Graph.Nodes["Controller"].Elements[0]
	require.Equal(t, "example.com/shop/web.Controller", primary.Type)
	assert.Equal(t, 7, primary.Size, "declaration plus the Show method")

	// Line 13 is inside the body of Controller.Show.
	report := analysis.NewAnalyzer(res.Graph).AnalyzeImpact([]git.ChangedFile{
		{Path: "web/controller.go", ChangedLines: []int{13}},
	})
	require.Len(t, report.DirectlyAffected, 1)
	assert.Equal(t, "Controller", report.DirectlyAffected[0].Name)
}

func TestSaveAndLoadGraph(t *testing.T) {
	log, _ := test.NewNullLogger()
	cfg, err := config.LoadConfig("testdata/archscan.yaml")
	require.NoError(t, err)
	res, err := Run(cfg, log)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, SaveGraph(res.Graph, path))

	loaded, err := LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, res.Graph.Names(), loaded.Names())
	assert.Equal(t, res.Graph.Edges, loaded.Edges)
	assert.Equal(t, res.Graph.Nodes["OrderService"].Elements, loaded.Nodes["OrderService"].Elements)

	_, err = LoadGraph(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
