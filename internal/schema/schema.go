// Package schema reads world declarations from YAML or TOML files and
// applies them to an ecs.Builder through a Catalog of known Go types.
package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
)

// ComponentDecl declares one component store.
type ComponentDecl struct {
	Name    string `yaml:"name" toml:"name"`
	Storage string `yaml:"storage" toml:"storage"`
	Type    string `yaml:"type" toml:"type"`
}

// ResourceDecl declares one resource singleton.
type ResourceDecl struct {
	Name string `yaml:"name" toml:"name"`
	Type string `yaml:"type" toml:"type"`
}

// File is a parsed schema, in declaration order.
type File struct {
	Components []ComponentDecl `yaml:"components" toml:"components"`
	Resources  []ResourceDecl  `yaml:"resources" toml:"resources"`
}

// Load parses path, picking the format from its extension.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	f, err := Parse(raw, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes raw as "yaml"/"yml" or "toml" and checks the declarations.
func Parse(raw []byte, format string) (*File, error) {
	var f File
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(raw), &f)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) check() error {
	var errs error
	names := make(map[string]bool, len(f.Components))
	for i, c := range f.Components {
		if c.Name == "" || c.Type == "" {
			errs = multierr.Append(errs, fmt.Errorf("component #%d: name and type are required", i))
			continue
		}
		if names[c.Name] {
			errs = multierr.Append(errs, fmt.Errorf("component %q declared twice", c.Name))
		}
		names[c.Name] = true
	}
	names = make(map[string]bool, len(f.Resources))
	for i, r := range f.Resources {
		if r.Name == "" || r.Type == "" {
			errs = multierr.Append(errs, fmt.Errorf("resource #%d: name and type are required", i))
			continue
		}
		if names[r.Name] {
			errs = multierr.Append(errs, fmt.Errorf("resource %q declared twice", r.Name))
		}
		names[r.Name] = true
	}
	return errs
}

// Apply declares every entry of f on b, in file order. Type names must be
// known to c; every unknown name is reported.
func (f *File) Apply(c *Catalog, b *ecs.Builder) error {
	var errs error
	for _, d := range f.Components {
		declare, ok := c.components[d.Type]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("component %q: unknown type %q", d.Name, d.Type))
			continue
		}
		declare(b, d.Name, ecs.StorageKind(d.Storage))
	}
	for _, d := range f.Resources {
		declare, ok := c.resources[d.Type]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("resource %q: unknown type %q", d.Name, d.Type))
			continue
		}
		declare(b, d.Name)
	}
	return errs
}

// Build is Apply followed by Builder.Build.
func (f *File) Build(c *Catalog, opts ...ecs.WorldOption) (*ecs.World, error) {
	b := ecs.NewBuilder(opts...)
	if err := f.Apply(c, b); err != nil {
		return nil, err
	}
	return b.Build()
}
