package engine

import (
	"storal-pricer/internal/catalog"
)

const (
	// Widths up to this bound always run on two arms.
	twoArmWidthLimit = 6000
	// Graduated arm counts are defined up to this width.
	graduatedWidthLimit = 12000
)

type deadZone struct {
	projection int
	from, to   int
	message    string
}

// Width ranges that cannot be manufactured at a given projection,
// whatever the model.
var deadZones = []deadZone{
	{3500, 6001, 6144, "Impossible de fabriquer ce store : largeur %dmm combinée à avancée %dmm crée un conflit mécanique des bras repliés."},
	{4000, 6001, 6894, "Impossible de fabriquer ce store : largeur %dmm combinée à avancée %dmm est incompatible avec la rétraction du mécanisme."},
}

// armBucket holds the width from which a graduated model needs four arms
// instead of three. The first bucket covers every projection up to its
// own; the others match their projection exactly.
type armBucket struct {
	projection   int
	fourArmsFrom int
}

var graduatedBuckets = []armBucket{
	{3000, 7737},
	{3250, 8175},
	{3500, 8613},
	{4000, 9533},
}

func graduatedBucket(projection int) (armBucket, bool) {
	if projection <= graduatedBuckets[0].projection {
		return graduatedBuckets[0], true
	}
	for _, b := range graduatedBuckets[1:] {
		if projection == b.projection {
			return b, true
		}
	}
	return armBucket{}, false
}

// CheckMinimum fails with BelowMinimum when width is under the minimum
// buildable width recorded for that exact projection.
func CheckMinimum(m *catalog.Model, width, projection int) error {
	minW, ok := m.MinWidth(projection)
	if ok && width < minW {
		return fail(BelowMinimum, m.ID,
			"Largeur minimale pour %s en avancée %dmm : %dmm (demandé %dmm).", m.Name, projection, minW, width)
	}
	return nil
}

// ResolveArmCount returns how many arms the store needs, or a
// MechanicalConflict failure when the pair falls in a dead zone.
func ResolveArmCount(m *catalog.Model, width, projection int) (int, error) {
	if width <= twoArmWidthLimit {
		return 2, nil
	}
	for _, z := range deadZones {
		if projection == z.projection && width >= z.from && width <= z.to {
			return 0, fail(MechanicalConflict, m.ID, z.message, width, projection)
		}
	}
	if m.ArmLogic != catalog.ArmLogicLargeFormatGraduated || width > graduatedWidthLimit {
		return 2, nil
	}

	bucket, ok := graduatedBucket(projection)
	if !ok {
		return 2, nil
	}
	if width < bucket.fourArmsFrom {
		return 3, nil
	}
	return 4, nil
}

// Validate runs every construction check and returns the arm count.
func Validate(m *catalog.Model, width, projection int) (int, error) {
	if err := CheckMinimum(m, width, projection); err != nil {
		return 0, err
	}
	return ResolveArmCount(m, width, projection)
}
