package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/load"

	"github.com/roach88/wiregraph/internal/registry"
)

// LoadDir loads every CUE file of the package in dir as one instance and
// compiles the descriptors under its "node" struct.
func (c *Catalog) LoadDir(dir string) ([]*registry.NodeDescriptor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("descriptor directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	v := c.ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return c.CompileValue(v)
}

// LoadDir is a convenience wrapper around Catalog.LoadDir.
func LoadDir(dir string) ([]*registry.NodeDescriptor, error) {
	c, err := NewCatalog()
	if err != nil {
		return nil, err
	}
	return c.LoadDir(dir)
}

// LoadRegistry builds a registry from the built-in catalog extended by the
// descriptors found in dir. A descriptor in dir replaces the built-in one of
// the same type. An empty dir yields the built-in catalog alone.
func LoadRegistry(dir string) (*registry.Registry, error) {
	c, err := NewCatalog()
	if err != nil {
		return nil, err
	}
	builtin, err := c.BuiltinDescriptors()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return NewRegistry(builtin)
	}

	extra, err := c.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	byType := make(map[string]*registry.NodeDescriptor, len(builtin)+len(extra))
	for _, d := range builtin {
		byType[d.Type] = d
	}
	for _, d := range extra {
		byType[d.Type] = d
	}
	merged := make([]*registry.NodeDescriptor, 0, len(byType))
	for _, d := range byType {
		merged = append(merged, d)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Type < merged[j].Type })
	return NewRegistry(merged)
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
