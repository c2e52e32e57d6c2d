package compiler

import (
	"embed"
	"fmt"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/wiregraph/internal/registry"
)

//go:embed catalog/schema.cue catalog/builtin.cue
var catalogFS embed.FS

// Catalog compiles node descriptors from CUE sources. Every source is
// unified with the #Catalog schema before its nodes are read, so unknown
// attributes and bad roles are rejected by CUE itself.
type Catalog struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewCatalog prepares a CUE context and the descriptor schema.
func NewCatalog() (*Catalog, error) {
	ctx := cuecontext.New()
	src, err := catalogFS.ReadFile("catalog/schema.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded schema: %w", err)
	}
	v := ctx.CompileBytes(src, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	schema := v.LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return &Catalog{ctx: ctx, schema: schema}, nil
}

// Context returns the CUE context sources should be built with.
func (c *Catalog) Context() *cue.Context {
	return c.ctx
}

// CompileSource compiles one CUE document and returns its descriptors.
func (c *Catalog) CompileSource(filename string, src []byte) ([]*registry.NodeDescriptor, error) {
	v := c.ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return c.CompileValue(v)
}

// CompileValue reads descriptors from the top-level "node" struct of v.
// Descriptors are returned in type-name order.
func (c *Catalog) CompileValue(v cue.Value) ([]*registry.NodeDescriptor, error) {
	nodesVal := v.LookupPath(cue.ParsePath("node"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "node",
			Message: "no node descriptors found",
			Pos:     v.Pos(),
		}
	}

	nodesVal = nodesVal.Unify(c.schema)
	if err := nodesVal.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var descs []*registry.NodeDescriptor
	for iter.Next() {
		desc, err := CompileDescriptor(iter.Value())
		if err != nil {
			return nil, err
		}
		desc.Type = iter.Label()
		descs = append(descs, desc)
	}

	sort.Slice(descs, func(i, j int) bool { return descs[i].Type < descs[j].Type })
	return descs, nil
}

// BuiltinDescriptors compiles the embedded built-in node catalog.
func (c *Catalog) BuiltinDescriptors() ([]*registry.NodeDescriptor, error) {
	src, err := catalogFS.ReadFile("catalog/builtin.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}
	return c.CompileSource("builtin.cue", src)
}

// NewRegistry builds a registry from descriptors, rejecting any that fail
// validation.
func NewRegistry(descs []*registry.NodeDescriptor) (*registry.Registry, error) {
	reg := registry.New()
	for _, d := range descs {
		if errs := Validate(d); len(errs) > 0 {
			return nil, fmt.Errorf("node %q: %w", d.Type, errs[0])
		}
		if err := reg.Register(d); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Builtin returns a registry holding the built-in catalog.
func Builtin() (*registry.Registry, error) {
	c, err := NewCatalog()
	if err != nil {
		return nil, err
	}
	descs, err := c.BuiltinDescriptors()
	if err != nil {
		return nil, err
	}
	return NewRegistry(descs)
}

// MustBuiltin is like Builtin but panics on error.
func MustBuiltin() *registry.Registry {
	reg, err := Builtin()
	if err != nil {
		panic(err)
	}
	return reg
}
