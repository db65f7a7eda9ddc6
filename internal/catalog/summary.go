package catalog

import (
	"fmt"
	"strings"

	"storal-pricer/internal/units"
)

var categoryOrder = []struct {
	category Category
	title    string
}{
	{CategoryCoffre, "🏠 STORES COFFRE"},
	{CategoryMonobloc, "🏗️ STORES MONOBLOC"},
	{CategoryTraditionnel, "⛱️ STORES TRADITIONNELS"},
	{CategorySpecialite, "✨ SPÉCIALITÉS"},
}

// Summary renders the catalog grouped by category with each model's
// physical limits. Promo models appear in their category and again in the
// promo section.
func Summary(c *Catalog) string {
	var b strings.Builder
	b.WriteString("📋 CATALOGUE STORAL\n")

	for _, group := range categoryOrder {
		var lines []string
		for _, m := range c.Models() {
			if m.Category != group.category {
				continue
			}
			lines = append(lines, summaryLine(m))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", group.title)
		for _, l := range lines {
			b.WriteString(l)
		}
	}

	var promos []string
	for _, m := range c.Models() {
		if m.Promo {
			promos = append(promos, summaryLine(m))
		}
	}
	if len(promos) > 0 {
		b.WriteString("\n🔥 OFFRES PROMO\n")
		for _, l := range promos {
			b.WriteString(l)
		}
	}
	return b.String()
}

func summaryLine(m *Model) string {
	d := m.Dimensions()
	return fmt.Sprintf("• %s (%s): largeur de %s à %sm, avancée max %dcm\n",
		m.Name, m.ID,
		units.FormatMetres(d.MinWidth), units.FormatMetres(d.MaxWidth),
		units.MmToCm(d.MaxProjection))
}
