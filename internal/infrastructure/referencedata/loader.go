// Package referencedata loads unit and density tables from YAML files and
// keeps them current while the files change
package referencedata

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alchemorsel/ingredients/internal/domain/ingredient"
	"github.com/alchemorsel/ingredients/pkg/errors"
)

// Source describes where custom reference data lives. Empty paths keep
// the built-in table for that kind of data.
type Source struct {
	UnitsFile       string
	DensitiesFile   string
	ReplaceDefaults bool
}

// Paths returns the configured files
func (s Source) Paths() []string {
	var paths []string
	if s.UnitsFile != "" {
		paths = append(paths, s.UnitsFile)
	}
	if s.DensitiesFile != "" {
		paths = append(paths, s.DensitiesFile)
	}
	return paths
}

// unitsDocument is the layout of a units file:
//
//	units:
//	  - name: stick
//	    dimension: mass
//	    factor: 113
//	    synonyms: [sticks]
type unitsDocument struct {
	Units []ingredient.Unit `yaml:"units"`
}

// densitiesDocument is the layout of a densities file, grams per
// milliliter keyed by ingredient name
type densitiesDocument struct {
	Densities map[string]float64 `yaml:"densities"`
}

// Load builds the unit and density tables described by src. Files extend
// the built-in tables unless ReplaceDefaults is set.
func Load(src Source) (*ingredient.UnitTable, *ingredient.DensityTable, error) {
	units := ingredient.DefaultUnitTable()
	densities := ingredient.DefaultDensityTable()

	if src.UnitsFile != "" {
		defs, err := readUnits(src.UnitsFile)
		if err != nil {
			return nil, nil, errors.NewInvalidReferenceDataError(src.UnitsFile, err)
		}
		if src.ReplaceDefaults {
			units, err = ingredient.NewUnitTable(defs...)
		} else {
			units, err = units.Merge(defs...)
		}
		if err != nil {
			return nil, nil, errors.NewInvalidReferenceDataError(src.UnitsFile, err)
		}
	}

	if src.DensitiesFile != "" {
		entries, err := readDensities(src.DensitiesFile)
		if err != nil {
			return nil, nil, errors.NewInvalidReferenceDataError(src.DensitiesFile, err)
		}
		if src.ReplaceDefaults {
			densities, err = ingredient.NewDensityTable(entries)
		} else {
			densities, err = densities.Merge(entries)
		}
		if err != nil {
			return nil, nil, errors.NewInvalidReferenceDataError(src.DensitiesFile, err)
		}
	}

	return units, densities, nil
}

func readUnits(path string) ([]ingredient.Unit, error) {
	var doc unitsDocument
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Units) == 0 {
		return nil, fmt.Errorf("no units defined")
	}
	return doc.Units, nil
}

func readDensities(path string) (map[string]float64, error) {
	var doc densitiesDocument
	if err := decodeFile(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Densities) == 0 {
		return nil, fmt.Errorf("no densities defined")
	}
	return doc.Densities, nil
}

// decodeFile decodes YAML (and therefore JSON) rejecting unknown fields
func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if stderrors.Is(err, io.EOF) {
			return fmt.Errorf("file is empty")
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
