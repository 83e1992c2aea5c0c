package typed

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archscan/internal/typerepo"
)

const shop = "example.com/shop"

func loadShop(t *testing.T) *Provider {
	t.Helper()
	p, err := Load(filepath.Join("testdata", "shop"), nil)
	require.NoError(t, err)
	return p
}

func TestLoad_Types(t *testing.T) {
	p := loadShop(t)
	assert.Equal(t, shop, p.ModulePath())

	all, err := p.Types()
	require.NoError(t, err)

	var names []string
	for _, ty := range all {
		names = append(names, ty.Name)
	}
	assert.Equal(t, []string{
		shop + "/broken.Widget",
		shop + "/orders.Base",
		shop + "/orders.Order",
		shop + "/orders.Repository",
		shop + "/orders.Service",
		shop + "/orders.Status",
		shop + "/orders.service",
		shop + "/web.Controller",
	}, names)
}

func TestLookup(t *testing.T) {
	p := loadShop(t)

	tests := []struct {
		name       string
		category   typerepo.Category
		visibility typerepo.Visibility
	}{
		{shop + "/orders.Service", typerepo.CategoryInterface, typerepo.VisibilityPublic},
		{shop + "/orders.Status", typerepo.CategoryEnum, typerepo.VisibilityPublic},
		{shop + "/orders.Order", typerepo.CategoryClass, typerepo.VisibilityPublic},
		{shop + "/orders.service", typerepo.CategoryClass, typerepo.VisibilityPackage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ty, err := p.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.category, ty.Category)
			assert.Equal(t, tt.visibility, ty.Visibility)
		})
	}

	t.Run("markers and position", func(t *testing.T) {
		ty, err := p.Lookup(shop + "/web.Controller")
		require.NoError(t, err)
		assert.Equal(t, []string{"arch:component web"}, ty.Markers)
		assert.Equal(t, "Controller serves orders.", ty.Doc)
		assert.Equal(t, "web/controller.go", ty.Filepath)
		assert.Equal(t, 8, ty.StartLine)
		assert.Equal(t, 3, ty.Lines)
	})

	t.Run("methods", func(t *testing.T) {
		ty, err := p.Lookup(shop + "/web.Controller")
		require.NoError(t, err)
		assert.Equal(t, []typerepo.LineRange{{Filepath: "web/controller.go", Start: 12, End: 15}}, ty.Methods)
		assert.Equal(t, 7, ty.Size())

		ty, err = p.Lookup(shop + "/orders.service")
		require.NoError(t, err)
		assert.Equal(t, []typerepo.LineRange{{Filepath: "orders/service.go", Start: 12, End: 15}}, ty.Methods)

		ty, err = p.Lookup(shop + "/orders.Order")
		require.NoError(t, err)
		assert.Empty(t, ty.Methods)
		assert.Equal(t, ty.Lines, ty.Size())
	})

	t.Run("predeclared", func(t *testing.T) {
		ty, err := p.Lookup("error")
		require.NoError(t, err)
		assert.Equal(t, typerepo.CategoryInterface, ty.Category)
		assert.Empty(t, ty.Filepath)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := p.Lookup(shop + "/orders.Missing")
		assert.ErrorIs(t, err, typerepo.ErrTypeNotFound)
	})
}

func TestReferences(t *testing.T) {
	p := loadShop(t)

	t.Run("implicit types of expressions are included", func(t *testing.T) {
		refs, err := p.References(shop + "/web.Controller")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"bool",
			"error",
			shop + "/orders.Order",
			shop + "/orders.Service",
			shop + "/orders.Status",
			"string",
		}, refs)
	})

	t.Run("embedded fields and method bodies", func(t *testing.T) {
		refs, err := p.References(shop + "/orders.service")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"error",
			shop + "/orders.Base",
			shop + "/orders.Order",
			shop + "/orders.Repository",
			"string",
		}, refs)
	})

	t.Run("type errors keep the declaration", func(t *testing.T) {
		refs, err := p.References(shop + "/broken.Widget")
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("only module types have references", func(t *testing.T) {
		_, err := p.References("error")
		assert.ErrorIs(t, err, typerepo.ErrTypeNotFound)
	})
}

func TestAssignableTo(t *testing.T) {
	p := loadShop(t)

	tests := []struct {
		name, target string
		want         bool
	}{
		{shop + "/orders.service", shop + "/orders.Service", true},
		{shop + "/orders.service", shop + "/orders.Base", true},
		{shop + "/orders.Order", shop + "/orders.Order", true},
		{shop + "/orders.Base", shop + "/orders.Service", false},
		{shop + "/orders.Base", "error", false},
		{shop + "/web.Controller", shop + "/orders.Repository", false},
		{shop + "/orders.Service", shop + "/orders.Repository", false},
		{shop + "/orders.Base", shop + "/orders.service", false},
	}
	for _, tt := range tests {
		got, err := p.AssignableTo(tt.name, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.name, tt.target)
	}

	_, err := p.AssignableTo(shop+"/orders.service", shop+"/orders.Missing")
	assert.ErrorIs(t, err, typerepo.ErrTypeNotFound)
}
