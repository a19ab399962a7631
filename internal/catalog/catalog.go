// Package catalog loads the set of monitored installations and the region
// aliases bulletins use for them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-port-monitor/internal/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog is the parsed installation list.
type Catalog struct {
	Installations []Entry `yaml:"installations"`
}

// Entry is one installation and its aliases.
type Entry struct {
	Name     string   `yaml:"name"`
	Position Position `yaml:"position"`
	Aliases  []string `yaml:"aliases"`
}

// Position is the YAML form of a coordinate.
type Position struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Installations) == 0 {
		return errors.New("catalog has no installations")
	}
	seen := make(map[string]struct{}, len(c.Installations))
	for i, e := range c.Installations {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return fmt.Errorf("installation %d: name is required", i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("installation %q: duplicate name", name)
		}
		seen[key] = struct{}{}
		if e.Position.Lat < -90 || e.Position.Lat > 90 {
			return fmt.Errorf("installation %q: latitude %v out of range", name, e.Position.Lat)
		}
		if e.Position.Lon < -180 || e.Position.Lon > 180 {
			return fmt.Errorf("installation %q: longitude %v out of range", name, e.Position.Lon)
		}
	}
	return nil
}

// DomainInstallations converts the catalog to domain installations, in file order.
func (c *Catalog) DomainInstallations() []domain.Installation {
	out := make([]domain.Installation, 0, len(c.Installations))
	for _, e := range c.Installations {
		out = append(out, domain.Installation{
			Name:     strings.TrimSpace(e.Name),
			Position: domain.Coordinate{Lat: e.Position.Lat, Lon: e.Position.Lon},
		})
	}
	return out
}

// Resolver builds a signal resolver from the catalog aliases.
func (c *Catalog) Resolver() *domain.SignalResolver {
	aliases := make(map[string][]string, len(c.Installations))
	for _, e := range c.Installations {
		aliases[e.Name] = e.Aliases
	}
	return domain.NewSignalResolver(aliases)
}
