// Package report exports comparisons and the quote log as Excel workbooks.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"storal-pricer/internal/quote"
	"storal-pricer/internal/storage"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	quotesSheet     = "Devis"
	exclusionsSheet = "Exclusions"
	logSheet        = "Journal"
)

var quoteHeaders = []string{
	"Modèle", "Nom", "Largeur (mm)", "Avancée (mm)", "Avancée tarifée (mm)", "Bras",
	"Base HT", "LED bras HT", "LED coffre HT", "Lambrequin enroulable HT",
	"Lambrequin fixe HT", "Pose plafond HT", "Couleur HT", "TVA %",
	"Transport HT", "Total HT", "Total TTC", "Livraison en 2 parties",
}

// ExportComparison writes cmp to a new workbook under dir and returns its
// path.
func ExportComparison(cmp *quote.Comparison, dir string) (string, error) {
	const operation = "report.ExportComparison"

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(quotesSheet)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create sheet: %w", operation, err)
	}
	if err := writeRow(f, quotesSheet, 1, toAny(quoteHeaders)); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}

	for i, q := range cmp.Quotes {
		b := q.Breakdown
		row := []any{
			q.ModelID,
			q.ModelName,
			q.Width,
			q.Projection,
			b.UsedProjection,
			b.ArmCount,
			b.BasePriceHT,
			b.LedArmsPriceHT,
			b.LedBoxPriceHT,
			b.LambrequinPriceHT,
			b.LambrequinFixePriceHT,
			b.CeilingMountPriceHT,
			b.CustomColorPriceHT,
			b.TauxTVA,
			q.Transport.MontantHT,
			q.HT,
			q.TTC,
			yesNo(q.DeliveryInTwoParts),
		}
		if err := writeRow(f, quotesSheet, i+2, row); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("%s: failed to create style: %w", operation, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(quoteHeaders), 1)
	f.SetCellStyle(quotesSheet, "A1", last, bold)

	if _, err := f.NewSheet(exclusionsSheet); err != nil {
		return "", fmt.Errorf("%s: failed to create sheet: %w", operation, err)
	}
	if err := writeRow(f, exclusionsSheet, 1, []any{"Modèle", "Motif", "Détail"}); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	row := 2
	for i, id := range cmp.Safety.Excluded {
		if err := writeRow(f, exclusionsSheet, row, []any{id, "sécurité", cmp.Safety.Warnings[i]}); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
		row++
	}
	for _, fl := range cmp.Failures {
		if err := writeRow(f, exclusionsSheet, row, []any{fl.ModelID, fl.Kind.String(), fl.Detail}); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
		row++
	}
	f.SetCellStyle(exclusionsSheet, "A1", "C1", bold)

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("%s: failed to drop default sheet: %w", operation, err)
	}

	name := fmt.Sprintf("comparatif_%dx%d_%s.xlsx", cmp.Width, cmp.Projection, uuid.NewString()[:8])
	return save(f, dir, name)
}

// ExportQuoteLog writes the quote log rows to a new workbook under dir.
func ExportQuoteLog(records []storage.QuoteRecord, dir string) (string, error) {
	const operation = "report.ExportQuoteLog"

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(logSheet)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create sheet: %w", operation, err)
	}

	headers := []any{
		"ID", "Requête", "Utilisateur", "Modèle", "Largeur (mm)", "Avancée (mm)",
		"Avancée tarifée (mm)", "Bras", "Total HT", "Total TTC", "Version catalogue", "Date",
	}
	if err := writeRow(f, logSheet, 1, headers); err != nil {
		return "", fmt.Errorf("%s: %w", operation, err)
	}
	for i, r := range records {
		row := []any{
			r.ID,
			r.RequestID,
			r.UserID,
			r.ModelID,
			r.Width,
			r.Projection,
			r.UsedProjection,
			r.ArmCount,
			r.TotalHT,
			r.TotalTTC,
			r.CatalogVersion,
			r.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, logSheet, i+2, row); err != nil {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("%s: failed to drop default sheet: %w", operation, err)
	}

	name := fmt.Sprintf("devis_%s.xlsx", time.Now().Format("20060102_150405"))
	return save(f, dir, name)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func save(f *excelize.File, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "oui"
	}
	return "non"
}
