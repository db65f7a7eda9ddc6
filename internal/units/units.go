// Package units holds the only conversions between the centimetres used by
// customer-facing inputs and the millimetres used everywhere inside the
// pricing engine.
package units

import "fmt"

const mmPerCm = 10

// CmToMm converts a length in centimetres to millimetres.
func CmToMm(cm int) int {
	return cm * mmPerCm
}

// MmToCm converts a length in millimetres to whole centimetres, truncating
// any remainder.
func MmToCm(mm int) int {
	return mm / mmPerCm
}

// FormatMetres renders a millimetre length as metres with two decimals ("6.00").
func FormatMetres(mm int) string {
	return fmt.Sprintf("%d.%02d", mm/1000, (mm%1000)/10)
}
