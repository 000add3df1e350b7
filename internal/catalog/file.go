// internal/catalog/file.go
package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"solar-pumping-workers/internal/sizing"
)

// File is the YAML form of a catalog, used by the CLI and for seeding.
type File struct {
	Assumptions *sizing.FinancialAssumptions `yaml:"assumptions"`
	Panels      []sizing.Panel               `yaml:"panels"`
	Pumps       []sizing.Pump                `yaml:"pumps"`
	Batteries   []sizing.Battery             `yaml:"batteries"`
}

// LoadFile reads a catalog file. IDs left at zero are numbered in file order.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range f.Panels {
		if f.Panels[i].ID == 0 {
			f.Panels[i].ID = int64(i + 1)
		}
	}
	for i := range f.Pumps {
		if f.Pumps[i].ID == 0 {
			f.Pumps[i].ID = int64(i + 1)
		}
	}
	for i := range f.Batteries {
		if f.Batteries[i].ID == 0 {
			f.Batteries[i].ID = int64(i + 1)
		}
	}
	return &f, nil
}

func (f *File) Catalog() sizing.Catalog {
	return sizing.Catalog{Panels: f.Panels, Pumps: f.Pumps, Batteries: f.Batteries}
}

// Source serves the file through the same interface as the repository.
func (f *File) Source() Source {
	return staticSource{file: f}
}

type staticSource struct {
	file *File
}

func (s staticSource) Snapshot(context.Context) (*sizing.Catalog, error) {
	c := s.file.Catalog()
	return &c, nil
}

func (s staticSource) Assumptions(context.Context) (*sizing.FinancialAssumptions, error) {
	return s.file.Assumptions, nil
}
