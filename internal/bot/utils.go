package bot

import (
	"fmt"
	"strconv"
	"strings"

	"storal-pricer/internal/engine"
	"storal-pricer/internal/quote"
	"storal-pricer/internal/units"
)

// FormatEuros renders whole euros with French digit grouping: "12 345 €".
func FormatEuros(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(" €")
	return b.String()
}

func FormatQuote(q *engine.Quote) string {
	var b strings.Builder
	bd := q.Breakdown

	fmt.Fprintf(&b, "🧾 Devis %s (%s)\n", q.ModelName, q.ModelID)
	fmt.Fprintf(&b, "Largeur %sm × avancée %sm", units.FormatMetres(q.Width), units.FormatMetres(q.Projection))
	if bd.UsedProjection != q.Projection {
		fmt.Fprintf(&b, " (tarif avancée %sm)", units.FormatMetres(bd.UsedProjection))
	}
	fmt.Fprintf(&b, ", %d bras\n\n", bd.ArmCount)

	lines := []struct {
		label string
		value int64
	}{
		{"Store", bd.BasePriceHT},
		{"LED bras", bd.LedArmsPriceHT},
		{"LED coffre", bd.LedBoxPriceHT},
		{"Lambrequin enroulable", bd.LambrequinPriceHT},
		{"Lambrequin fixe", bd.LambrequinFixePriceHT},
		{"Pose plafond", bd.CeilingMountPriceHT},
		{"Couleur armature", bd.CustomColorPriceHT},
	}
	for _, l := range lines {
		if l.value == 0 && l.label != "Store" {
			continue
		}
		fmt.Fprintf(&b, "• %s : %s HT\n", l.label, FormatEuros(l.value))
	}
	if q.Transport.Applicable {
		fmt.Fprintf(&b, "• Transport : %s HT (%s)\n", FormatEuros(q.Transport.MontantHT), q.Transport.Raison)
	}

	fmt.Fprintf(&b, "\nTotal : %s HT / %s TTC (TVA %d%%)", FormatEuros(q.HT), FormatEuros(q.TTC), bd.TauxTVA)
	if q.DeliveryInTwoParts {
		b.WriteString("\n⚠️ Livraison en deux parties pour cette largeur.")
	}
	return b.String()
}

func FormatFailure(f *engine.Failure) string {
	if f.ModelID == "" {
		return "❌ " + f.Detail
	}
	return fmt.Sprintf("❌ %s : %s", f.ModelID, f.Detail)
}

func FormatComparison(cmp *quote.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📐 Votre projet : %sm × %sm\n", units.FormatMetres(cmp.Width), units.FormatMetres(cmp.Projection))

	if len(cmp.Quotes) == 0 {
		b.WriteString("\nAucun modèle ne peut être proposé pour ces dimensions.\n")
	} else {
		fmt.Fprintf(&b, "\n✅ %d modèle(s) disponible(s) :\n", len(cmp.Quotes))
		for _, q := range cmp.Quotes {
			fmt.Fprintf(&b, "• %s (%s) : %s HT / %s TTC\n", q.ModelName, q.ModelID, FormatEuros(q.HT), FormatEuros(q.TTC))
		}
	}

	if len(cmp.Failures) > 0 {
		b.WriteString("\n")
		for _, f := range cmp.Failures {
			b.WriteString(FormatFailure(f))
			b.WriteString("\n")
		}
	}

	if len(cmp.Safety.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range cmp.Safety.Warnings {
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
