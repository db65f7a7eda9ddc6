package engine

import "storal-pricer/internal/catalog"

// ProjectionPolicy picks the price table used for a requested projection.
type ProjectionPolicy func(m *catalog.Model, projection int) (int, bool)

// NextLargerProjection uses the exact table when one exists, otherwise
// the smallest available projection above the request.
func NextLargerProjection(m *catalog.Model, projection int) (int, bool) {
	if _, ok := m.BuyPrices[projection]; ok {
		return projection, true
	}
	for _, p := range m.Projections() {
		if p > projection {
			return p, true
		}
	}
	return 0, false
}
