package plan

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Currency string `yaml:"currency"`
	Subunit  int64  `yaml:"subunit"`
	Plans    []Plan `yaml:"plans"`
}

// LoadFile reads a catalog from YAML:
//
//	currency: XOF
//	subunit: 100
//	plans:
//	  - id: essentiel
//	    name: Pack Essentiel
//	    amount: 5000
//	    credits: 25
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty plans file", ErrInvalidCatalog)
	}

	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if file.Subunit == 0 {
		file.Subunit = 100
	}
	return NewCatalog(file.Currency, file.Subunit, file.Plans)
}

// Load returns the catalog from path, or the default catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	return LoadFile(path)
}
