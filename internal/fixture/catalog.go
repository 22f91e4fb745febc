// Package fixture resolves paired chart fixtures: an input payload submitted to
// the chart service and the expected artifact it should render.
//
// Fixtures live in two directories. A file's stem (name without extension) is
// its key, and only keys present in both directories are usable:
//
//	catalog, err := fixture.Load("./ping_files/data", "./ping_files/charts")
//	if err != nil {
//		return err
//	}
//	for _, key := range catalog.Keys() {
//		f, _ := catalog.Lookup(key)
//		...
//	}
//
// A [Catalog] is immutable after construction and safe for concurrent reads.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Fixture pairs an input payload with the artifact the service should return for it.
type Fixture struct {
	Key      string
	Input    string
	Expected string
}

// Catalog holds the fixtures whose key exists in both the input and expected sets.
type Catalog struct {
	fixtures map[string]Fixture
	keys     []string
}

// New builds a catalog from in-memory fixtures. Later duplicates replace earlier ones.
func New(fixtures ...Fixture) *Catalog {
	byKey := make(map[string]Fixture, len(fixtures))
	for _, f := range fixtures {
		byKey[f.Key] = f
	}
	return newCatalog(byKey)
}

// Load reads input payloads from dataDir and expected artifacts from chartDir.
// A key present in only one directory is skipped.
func Load(dataDir, chartDir string) (*Catalog, error) {
	inputs, err := listStems(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	expected, err := listStems(chartDir)
	if err != nil {
		return nil, fmt.Errorf("chart dir: %w", err)
	}

	byKey := make(map[string]Fixture)
	for key, inputPath := range inputs {
		chartPath, ok := expected[key]
		if !ok {
			continue
		}
		input, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read input %q: %w", key, err)
		}
		chart, err := os.ReadFile(chartPath)
		if err != nil {
			return nil, fmt.Errorf("read expected %q: %w", key, err)
		}
		byKey[key] = Fixture{Key: key, Input: string(input), Expected: string(chart)}
	}
	return newCatalog(byKey), nil
}

func newCatalog(byKey map[string]Fixture) *Catalog {
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return &Catalog{fixtures: byKey, keys: keys}
}

// Keys returns the usable keys in ascending order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Lookup returns the fixture for key.
func (c *Catalog) Lookup(key string) (Fixture, bool) {
	if c == nil {
		return Fixture{}, false
	}
	f, ok := c.fixtures[key]
	return f, ok
}

// Len returns the number of usable fixtures.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// listStems maps each regular file's stem to its path.
func listStems(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	stems := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		stems[stem(name)] = filepath.Join(dir, name)
	}
	return stems, nil
}

// stem strips the extension from name. Leading dots are part of the stem, so
// ".gitkeep" keeps its whole name and ".env.json" becomes ".env".
func stem(name string) string {
	trimmed := strings.TrimLeft(name, ".")
	ext := filepath.Ext(trimmed)
	return name[:len(name)-len(ext)]
}
