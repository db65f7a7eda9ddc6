package engine

import "storal-pricer/internal/catalog"

// CoefficientResolver returns the margin multiplier for a priced line.
// Lookup order: model override, then global default. OptionBase uses the
// model sales coefficient and the global default coefficient.
type CoefficientResolver func(m *catalog.Model, key catalog.OptionKey) float64

// DefaultResolver builds the resolver for a catalog's settings.
func DefaultResolver(s catalog.Settings) CoefficientResolver {
	return func(m *catalog.Model, key catalog.OptionKey) float64 {
		if key == catalog.OptionBase {
			if m.SalesCoefficient != nil {
				return *m.SalesCoefficient
			}
			return s.DefaultCoefficient
		}
		if c, ok := m.OptionsCoefficients[key]; ok {
			return c
		}
		if c, ok := s.OptionsCoefficients[key]; ok {
			return c
		}
		return 1
	}
}
