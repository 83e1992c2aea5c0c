package typerepo_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	archerrors "archscan/internal/errors"
	"archscan/internal/typerepo"
	"archscan/internal/typerepo/memory"
)

// countingProvider counts provider calls to observe caching.
type countingProvider struct {
	*memory.Universe
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingProvider) References(name string) ([]string, error) {
	p.mu.Lock()
	p.calls[name]++
	p.mu.Unlock()
	return p.Universe.References(name)
}

func newCounting() *countingProvider {
	return &countingProvider{Universe: memory.New(), calls: make(map[string]int)}
}

func TestNewRepository_Configuration(t *testing.T) {
	_, err := typerepo.NewRepository(nil, []string{"example.com/app"})
	var cfgErr *archerrors.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	_, err = typerepo.NewRepository(memory.New(), []string{" ", ""})
	assert.ErrorAs(t, err, &cfgErr)

	_, err = typerepo.NewRepository(memory.New(), []string{"example.com/app"}, typerepo.WithExclusions("("))
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRepository_AllTypes_ScopeAndExclusions(t *testing.T) {
	u := memory.New()
	u.Class("example.com/app/web.Controller")
	u.Class("example.com/app/web.ControllerTest")
	u.Class("example.com/app.Root")
	u.Class("example.com/application.Other")
	u.Class("net/http.Client")
	u.Class("error")

	repo, err := typerepo.NewRepository(u, []string{"example.com/app", "net/http"},
		typerepo.WithExclusions(`Test$`))
	require.NoError(t, err)

	var names []string
	for _, ty := range repo.AllTypes() {
		names = append(names, ty.Name)
	}
	assert.Equal(t, []string{"example.com/app.Root", "example.com/app/web.Controller"}, names,
		"scope is path-aware, stdlib and excluded names are dropped")
}

func TestRepository_ReferencedTypes(t *testing.T) {
	p := newCounting()
	p.Class("example.com/app.A", "example.com/app.A", "example.com/app.B", "fmt.Stringer", "string", "example.com/app.B", "example.com/app.Generated")
	p.Class("example.com/app.B")

	repo, err := typerepo.NewRepository(p, []string{"example.com/app"}, typerepo.WithExclusions(`Generated$`))
	require.NoError(t, err)

	t.Run("filters self and exclusions", func(t *testing.T) {
		assert.Equal(t, []string{"example.com/app.B"}, repo.ReferencedTypes("example.com/app.A"))
	})

	t.Run("cached", func(t *testing.T) {
		repo.ReferencedTypes("example.com/app.A")
		repo.ReferencedTypes("example.com/app.A")
		assert.Equal(t, 1, p.calls["example.com/app.A"])
		assert.Equal(t, 1, repo.CachedReferences())
	})

	t.Run("exclusion changes drop the cache", func(t *testing.T) {
		repo.ClearExclusions()
		assert.Empty(t, repo.Exclusions())
		assert.ElementsMatch(t,
			[]string{"example.com/app.B", "example.com/app.Generated", "fmt.Stringer", "string"},
			repo.ReferencedTypes("example.com/app.A"))
		assert.Equal(t, 2, p.calls["example.com/app.A"])
	})
}

func TestRepository_FailuresDegrade(t *testing.T) {
	u := memory.New()
	u.Class("example.com/app.Bad", "example.com/app.Good")
	u.Class("example.com/app.Good")
	u.Break("example.com/app.Bad", errors.New("malformed"))

	repo, err := typerepo.NewRepository(u, []string{"example.com/app"})
	require.NoError(t, err)

	assert.Empty(t, repo.ReferencedTypes("example.com/app.Bad"))
	assert.Empty(t, repo.ReferencedTypes("example.com/app.Unknown"))
	_, err = repo.Resolve("example.com/app.Unknown")
	assert.ErrorIs(t, err, typerepo.ErrTypeNotFound)
	assert.False(t, repo.AssignableTo("example.com/app.Bad", "example.com/app.Good"))

	failures := repo.Failures()
	require.Len(t, failures, 4)
	assert.Equal(t, typerepo.OpReferences, failures[0].Op)
	assert.Equal(t, "example.com/app.Bad", failures[0].Type)
	assert.Equal(t, typerepo.OpLookup, failures[2].Op)
	assert.Equal(t, typerepo.OpAssignable, failures[3].Op)

	// Repeated lookups are answered from cache and not recorded twice.
	repo.ReferencedTypes("example.com/app.Bad")
	_, _ = repo.Resolve("example.com/app.Unknown")
	assert.Len(t, repo.Failures(), 4)
}

func TestRepository_FailureLogLevels(t *testing.T) {
	u := memory.New()
	u.Class("example.com/app.Bad")
	u.Break("example.com/app.Bad", errors.New("malformed"))

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	repo, err := typerepo.NewRepository(u, []string{"example.com/app"}, typerepo.WithLogger(log))
	require.NoError(t, err)

	repo.ReferencedTypes("example.com/app.Missing")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level, "unknown names are expected")

	repo.ReferencedTypes("example.com/app.Bad")
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "example.com/app.Bad", hook.LastEntry().Data["type"])
}

func TestRepository_ConcurrentReferenceLookups(t *testing.T) {
	p := newCounting()
	p.Class("example.com/app.A", "example.com/app.B")
	p.Class("example.com/app.B")
	repo, err := typerepo.NewRepository(p, []string{"example.com/app"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []string{"example.com/app.B"}, repo.ReferencedTypes("example.com/app.A"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, p.calls["example.com/app.A"])
}

func TestNames(t *testing.T) {
	assert.Equal(t, "Client", typerepo.SimpleName("net/http.Client"))
	assert.Equal(t, "net/http", typerepo.PackageOf("net/http.Client"))
	assert.Equal(t, "Repo", typerepo.SimpleName("github.com/acme/app.Repo"))
	assert.Equal(t, "github.com/acme/app", typerepo.PackageOf("github.com/acme/app.Repo"))
	assert.Equal(t, "", typerepo.PackageOf("error"))
	assert.Equal(t, "github.com/acme", typerepo.SimpleName("github.com/acme"))
	assert.Equal(t, typerepo.VisibilityPackage, typerepo.VisibilityOf("helper"))
	assert.Equal(t, typerepo.VisibilityPublic, typerepo.VisibilityOf("Helper"))
}
