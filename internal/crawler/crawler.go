package crawler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"

	"archscan/internal/extractor"
)

// Crawler scans a directory for Go source files.
type Crawler struct {
	extractor *extractor.Extractor
	ignored   []string
	log       logrus.FieldLogger
}

// NewCrawler creates a new crawler instance. A nil logger falls back to the
// logrus standard logger.
func NewCrawler(ext *extractor.Extractor, log logrus.FieldLogger) *Crawler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Crawler{
		extractor: ext,
		ignored:   []string{".git", "vendor", "node_modules", "testdata"},
		log:       log,
	}
}

// ScanProject walks root and hands every extracted file to onFile. Files
// that fail to parse are logged and skipped.
func (c *Crawler) ScanProject(root string, onFile func(*extractor.FileUnits)) error {
	return Walk(root, c.ignored, func(path string) error {
		file, err := c.extractor.ExtractFromFile(path)
		if err != nil {
			c.log.WithField("file", path).WithError(err).Warn("skipping unparsable file")
			return nil
		}
		onFile(file)
		return nil
	})
}

// ModulePath reads the module path declared in root/go.mod.
func ModulePath(root string) (string, error) {
	gomod := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(gomod)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return "", fmt.Errorf("no module directive in %s", gomod)
	}
	return modulePath, nil
}

// PackageDirs returns the directories under root holding at least one
// non-test Go file, sorted.
func PackageDirs(root string) ([]string, error) {
	seen := make(map[string]bool)
	err := Walk(root, nil, func(path string) error {
		seen[filepath.Dir(path)] = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Walk calls onFile for each non-test .go file under root. Hidden and
// underscore-prefixed directories are always skipped, as are the names in
// ignored (vendor, testdata and friends when nil).
func Walk(root string, ignored []string, onFile func(path string) error) error {
	if ignored == nil {
		ignored = []string{".git", "vendor", "node_modules", "testdata"}
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			for _, ign := range ignored {
				if name == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}
		return onFile(path)
	})
}
