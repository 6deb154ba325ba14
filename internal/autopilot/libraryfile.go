package autopilot

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LibraryFile is the YAML layout of an autopilot library.
//
//	patterns:
//	  - type: noise
//	    parameters:
//	      - path: size
//	        scale: normalized
//	        min: 0.2
//	        max: 0.8
//	        range: 0.6
//	        min_period: 15
//	        max_period: 45
type LibraryFile struct {
	Patterns []PatternEntry `yaml:"patterns" validate:"dive"`
}

// PatternEntry describes one pattern type in a library file.
type PatternEntry struct {
	Type       string           `yaml:"type" validate:"required"`
	Parameters []ParameterEntry `yaml:"parameters" validate:"required,min=1,dive"`
}

// ParameterEntry describes one AutoParameter in a library file.
// Range and the period bounds are optional.
type ParameterEntry struct {
	Path      string   `yaml:"path" validate:"required"`
	Scale     string   `yaml:"scale" validate:"required,oneof=absolute normalized"`
	Min       float64  `yaml:"min"`
	Max       float64  `yaml:"max"`
	Range     *float64 `yaml:"range,omitempty" validate:"omitempty,gte=0"`
	MinPeriod *float64 `yaml:"min_period,omitempty" validate:"omitempty,gt=0"`
	MaxPeriod *float64 `yaml:"max_period,omitempty" validate:"omitempty,gt=0"`
}

// LoadLibrary reads and validates a library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("reading library file: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary decodes a library from YAML.
//
// Returns ErrInvalidLibrary wrapping the cause when the document fails
// validation, and ErrDuplicateDescriptor when a pattern type appears twice.
func ParseLibrary(data []byte) (*Library, error) {
	var file LibraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing yaml: %w", ErrInvalidLibrary, err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLibrary, err)
	}

	lib := NewLibrary()
	if err := file.Register(lib); err != nil {
		return nil, err
	}
	return lib, nil
}

// Register adds every pattern in the file to lib.
func (f LibraryFile) Register(lib *Library) error {
	for _, pe := range f.Patterns {
		pattern, err := lib.AddPattern(pe.Type)
		if err != nil {
			return err
		}
		for _, e := range pe.Parameters {
			scale, err := ParseScale(e.Scale)
			if err != nil {
				return fmt.Errorf("%w: %s.%s: %w", ErrInvalidLibrary, pe.Type, e.Path, err)
			}
			pattern.AddParameter(NewAutoParameter(e.Path, scale, e.Min, e.Max, e.options()...))
		}
	}
	return nil
}

func (e ParameterEntry) options() []ParameterOption {
	var opts []ParameterOption
	if e.Range != nil {
		opts = append(opts, WithRange(*e.Range))
	}
	if e.MinPeriod != nil || e.MaxPeriod != nil {
		lo, hi := DefaultMinPeriodSec, DefaultMaxPeriodSec
		if e.MinPeriod != nil {
			lo = *e.MinPeriod
		}
		if e.MaxPeriod != nil {
			hi = *e.MaxPeriod
		}
		opts = append(opts, WithPeriod(lo, hi))
	}
	return opts
}
