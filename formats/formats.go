// Package formats loads and validates tournament format declarations.
package formats

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/models"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrFormatNotFound = errors.New("format not found")
)

// Catalog is a read-only lookup of formats by id.
type Catalog struct {
	formats map[string]*models.Format
}

// NewCatalog validates the given formats and indexes them by id.
func NewCatalog(formats ...*models.Format) (*Catalog, error) {
	c := &Catalog{formats: make(map[string]*models.Format, len(formats))}
	for _, f := range formats {
		if err := Validate(f); err != nil {
			return nil, err
		}
		c.formats[f.ID] = f
	}
	return c, nil
}

// LoadEmbedded returns the built-in catalog.
func LoadEmbedded() (*Catalog, error) {
	return load(catalogFS, "catalog", nil)
}

// Load returns the built-in catalog with the YAML files of dir layered on top.
// A file whose id matches a built-in format replaces it.
func Load(dir string) (*Catalog, error) {
	c, err := LoadEmbedded()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}
	return load(os.DirFS(dir), ".", c)
}

func load(fsys fs.FS, root string, base *Catalog) (*Catalog, error) {
	if base == nil {
		base = &Catalog{formats: make(map[string]*models.Format)}
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("error reading formats: %w", err)
	}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(root, entry.Name())))
		if err != nil {
			return nil, fmt.Errorf("error reading format %s: %w", entry.Name(), err)
		}
		f, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", entry.Name(), err)
		}
		base.formats[f.ID] = f
	}
	return base, nil
}

// Parse decodes and validates one YAML format document.
func Parse(data []byte) (*models.Format, error) {
	var f models.Format
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Catalog) Get(id string) (*models.Format, error) {
	f, ok := c.formats[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFormatNotFound, id)
	}
	return f, nil
}

// List returns every format ordered by id.
func (c *Catalog) List() []*models.Format {
	out := make([]*models.Format, 0, len(c.formats))
	for _, f := range c.formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Definitions returns the validated bracket definitions of a playoffs stage.
func Definitions(stage *models.Stage) ([]brackets.Definition, error) {
	defs := make([]brackets.Definition, 0, len(stage.Brackets))
	for _, b := range stage.Brackets {
		shape, err := brackets.ParseShape(b.Shape, b.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: stage %s bracket %s: %w", ErrInvalidFormat, stage.Key, b.Label, err)
		}
		defs = append(defs, brackets.Definition{Label: b.Label, Shape: shape})
	}
	return defs, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}
