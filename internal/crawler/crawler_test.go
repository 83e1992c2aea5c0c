package crawler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archscan/internal/extractor"
)

func TestCrawler_ScanSelf(t *testing.T) {
	ext, err := extractor.NewExtractor("go")
	require.NoError(t, err)

	c := NewCrawler(ext, nil)

	// Project root is two levels up from internal/crawler.
	root, _ := filepath.Abs("../../")

	var files []*extractor.FileUnits
	err = c.ScanProject(root, func(file *extractor.FileUnits) {
		files = append(files, file)
	})
	require.NoError(t, err)

	t.Run("Extract core units", func(t *testing.T) {
		assert.Greater(t, len(files), 10, "Should find at least 10 files in this project")
	})

	t.Run("Crawler references Extractor", func(t *testing.T) {
		var crawlerUnit *extractor.CodeUnit
		for _, f := range files {
			for _, u := range f.Units {
				if u.Name == "Crawler" && u.UnitType == "struct" && f.Package == "crawler" {
					crawlerUnit = u
				}
			}
		}
		require.NotNil(t, crawlerUnit)
		assert.Contains(t, crawlerUnit.References, extractor.TypeRef{Qualifier: "extractor", Name: "Extractor"})
	})
}

func TestWalk_SkipsIgnoredDirectories(t *testing.T) {
	root := filepath.Join("testdata", "project")

	var visited []string
	err := Walk(root, nil, func(path string) error {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		visited = append(visited, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "api/handler.go"}, visited)
}

func TestPackageDirs(t *testing.T) {
	root := filepath.Join("testdata", "project")

	dirs, err := PackageDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{root, filepath.Join(root, "api")}, dirs)
}

func TestModulePath(t *testing.T) {
	modulePath, err := ModulePath("../../")
	require.NoError(t, err)
	assert.Equal(t, "archscan", modulePath)

	_, err = ModulePath(filepath.Join("testdata", "project"))
	assert.Error(t, err)
}
