package tools

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// prop constrains one input property beyond what its Go type says. For
// array properties Enum applies to the items.
type prop struct {
	Enum    []any
	Min     *float64
	Max     *float64
	Default any
}

func choices(def any, values ...string) prop {
	p := prop{Default: def}
	for _, v := range values {
		p.Enum = append(p.Enum, v)
	}
	return p
}

func intChoices(def int, values ...int) prop {
	p := prop{Default: def}
	for _, v := range values {
		p.Enum = append(p.Enum, v)
	}
	return p
}

func limits(lo, hi float64, def any) prop {
	return prop{Min: &lo, Max: &hi, Default: def}
}

func atLeast(lo float64, def any) prop {
	return prop{Min: &lo, Default: def}
}

func (p prop) apply(s *jsonschema.Schema) error {
	if len(p.Enum) > 0 {
		if s.Items != nil {
			s.Items.Enum = p.Enum
		} else {
			s.Enum = p.Enum
		}
	}
	if p.Min != nil {
		s.Minimum = p.Min
	}
	if p.Max != nil {
		s.Maximum = p.Max
	}
	if p.Default != nil {
		raw, err := json.Marshal(p.Default)
		if err != nil {
			return err
		}
		s.Default = raw
	}
	return nil
}
