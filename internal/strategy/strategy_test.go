package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archscan/internal/model"
	"archscan/internal/typerepo"
	"archscan/internal/typerepo/memory"
)

const app = "example.com/app"

func newRepo(t *testing.T) *typerepo.Repository {
	t.Helper()
	u := memory.New()
	u.Interface(app+"/orders.Repository", app+"/orders.Order")
	u.Interface(app + "/orders.ReadWriter")
	u.Implements(app+"/orders.ReadWriter", app+"/orders.Repository")
	u.Class(app + "/orders.Order")
	u.Add(typerepo.Type{Name: app + "/storage.AbstractRepo", Category: typerepo.CategoryAbstractClass})
	u.Implements(app+"/storage.AbstractRepo", app+"/orders.Repository")
	u.Class(app + "/storage.AuditRepository")
	u.Implements(app+"/storage.AuditRepository", app+"/orders.Repository")
	u.Class(app+"/storage.SQLRepository",
		app+"/storage/sqlx.Conn", app+"/storage.rowMapper", "github.com/lib/pq.Driver", "database/sql.DB")
	u.Implements(app+"/storage.SQLRepository", app+"/orders.Repository")
	u.Class(app+"/storage.rowMapper", app+"/storage.columns")
	u.Class(app + "/storage.columns")
	u.Class(app+"/storage/sqlx.Conn", app+"/storage/sqlx.pool")
	u.Class(app + "/storage/sqlx.pool")
	u.Class(app+"/cycle.A", app+"/cycle.B")
	u.Class(app+"/cycle.B", app+"/cycle.A")

	repo, err := typerepo.NewRepository(u, []string{app})
	require.NoError(t, err)
	return repo
}

func component(t *testing.T, typeName string) *model.Component {
	t.Helper()
	c, err := model.NewContainer("API").AddComponent(typerepo.SimpleName(typeName), typeName)
	require.NoError(t, err)
	c.AddPrimaryType(typeName)
	return c
}

func TestFirstImplementation(t *testing.T) {
	repo := newRepo(t)
	s := NewFirstImplementation(repo)

	assert.Equal(t, []string{app + "/storage.AuditRepository"}, s.SupportingTypes(component(t, app+"/orders.Repository")),
		"interfaces and abstract types are skipped, the first concrete type by name wins")
	assert.Empty(t, s.SupportingTypes(component(t, app+"/storage.SQLRepository")), "not an interface")
	assert.Empty(t, s.SupportingTypes(component(t, app+"/orders.Missing")))
	assert.Empty(t, s.SupportingTypes(nil))

	impl, ok := FirstImplementationOf(repo, app+"/orders.ReadWriter")
	assert.False(t, ok)
	assert.Empty(t, impl)
}

func TestReferencedTypes(t *testing.T) {
	repo := newRepo(t)
	sql := app + "/storage.SQLRepository"

	t.Run("direct", func(t *testing.T) {
		s := NewReferencedTypes(repo, false)
		assert.Equal(t, []string{app + "/storage.rowMapper", app + "/storage/sqlx.Conn"}, s.SupportingTypes(component(t, sql)),
			"out of scope and excluded references are dropped")
	})

	t.Run("recursive", func(t *testing.T) {
		s := NewReferencedTypes(repo, true)
		assert.Equal(t, []string{
			app + "/storage.rowMapper",
			app + "/storage/sqlx.Conn",
			app + "/storage.columns",
			app + "/storage/sqlx.pool",
		}, s.SupportingTypes(component(t, sql)))
	})

	t.Run("code elements seed the walk", func(t *testing.T) {
		c := component(t, app+"/orders.Order")
		c.AddSupportingType(app + "/storage.rowMapper")
		s := NewReferencedTypes(repo, false)
		assert.Equal(t, []string{app + "/storage.columns"}, s.SupportingTypes(c))
	})

	t.Run("cycles terminate", func(t *testing.T) {
		s := NewReferencedTypes(repo, true)
		assert.Equal(t, []string{app + "/cycle.B"}, s.SupportingTypes(component(t, app+"/cycle.A")))
	})
}

func TestReferencedTypesInSamePackage(t *testing.T) {
	repo := newRepo(t)

	s := NewReferencedTypesInSamePackage(repo, true)
	assert.Equal(t, []string{app + "/storage.rowMapper", app + "/storage.columns"},
		s.SupportingTypes(component(t, app+"/storage.SQLRepository")))

	direct := NewReferencedTypesInSamePackage(repo, false)
	assert.Equal(t, []string{app + "/storage.rowMapper"},
		direct.SupportingTypes(component(t, app+"/storage.SQLRepository")))

	assert.Empty(t, s.SupportingTypes(nil))
}
