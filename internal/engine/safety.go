package engine

import (
	"fmt"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/units"
)

// SafetyResult partitions the catalog for a requested size. Excluded
// and Warnings are index-aligned.
type SafetyResult struct {
	Allowed  []string `json:"allowed"`
	Excluded []string `json:"excluded"`
	Warnings []string `json:"warnings"`
}

// EvaluateSafety excludes every model whose physical limits are smaller
// than the requested width or depth, in millimetres. Width is checked
// first, so a model over both limits gets the width warning.
func EvaluateSafety(cat *catalog.Catalog, width, depth int) SafetyResult {
	res := SafetyResult{
		Allowed:  []string{},
		Excluded: []string{},
		Warnings: []string{},
	}
	for _, m := range cat.Models() {
		limits := m.Compatibility
		switch {
		case width > limits.MaxWidth:
			res.Excluded = append(res.Excluded, m.ID)
			res.Warnings = append(res.Warnings, safetyWarning(m.Name, limits.MaxWidth, "largeur"))
		case depth > limits.MaxProjection:
			res.Excluded = append(res.Excluded, m.ID)
			res.Warnings = append(res.Warnings, safetyWarning(m.Name, limits.MaxProjection, "profondeur"))
		default:
			res.Allowed = append(res.Allowed, m.ID)
		}
	}
	return res
}

// EvaluateSafetyCm is EvaluateSafety for customer input in centimetres.
func EvaluateSafetyCm(cat *catalog.Catalog, widthCm, depthCm int) SafetyResult {
	return EvaluateSafety(cat, units.CmToMm(widthCm), units.CmToMm(depthCm))
}

func safetyWarning(name string, limitMm int, dimension string) string {
	return fmt.Sprintf("❌ %s: Nos fiches techniques indiquent une limite de %dcm pour la %s, je ne peux donc pas vous le proposer pour votre sécurité.",
		name, units.MmToCm(limitMm), dimension)
}

// Narrow keeps the preferred models that are allowed, in preferred order.
// When none survive, it returns every allowed model instead.
func (r SafetyResult) Narrow(preferred []string) []string {
	allowed := make(map[string]bool, len(r.Allowed))
	for _, id := range r.Allowed {
		allowed[id] = true
	}

	var out []string
	for _, id := range preferred {
		if allowed[id] {
			out = append(out, id)
			delete(allowed, id)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), r.Allowed...)
	}
	return out
}

// IsConform reports whether a model exists and fits the size in
// millimetres.
func IsConform(cat *catalog.Catalog, modelID string, width, depth int) bool {
	m, err := cat.Model(modelID)
	if err != nil {
		return false
	}
	return width <= m.Compatibility.MaxWidth && depth <= m.Compatibility.MaxProjection
}
