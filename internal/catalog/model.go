package catalog

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	CategoryCoffre       Category = "coffre"
	CategoryMonobloc     Category = "monobloc"
	CategoryTraditionnel Category = "traditionnel"
	CategorySpecialite   Category = "specialite"
)

// ArmLogic governs how many support arms a given width implies.
type ArmLogic string

const (
	ArmLogicStandard2            ArmLogic = "standard_2"
	ArmLogicForce234             ArmLogic = "force_2_3_4"
	ArmLogicCouples46            ArmLogic = "couples_4_6"
	ArmLogicLargeFormatGraduated ArmLogic = "large_format_graduated"
)

func (a ArmLogic) valid() bool {
	switch a {
	case ArmLogicStandard2, ArmLogicForce234, ArmLogicCouples46, ArmLogicLargeFormatGraduated:
		return true
	}
	return false
}

// OptionKey names a priced line for margin coefficient lookup.
type OptionKey string

const (
	OptionLedArms              OptionKey = "LED_ARMS"
	OptionLedCassette          OptionKey = "LED_CASSETTE"
	OptionLambrequinFixe       OptionKey = "LAMBREQUIN_FIXE"
	OptionLambrequinEnroulable OptionKey = "LAMBREQUIN_ENROULABLE"
	OptionCeilingMount         OptionKey = "CEILING_MOUNT"
	OptionAuvent               OptionKey = "AUVENT"
	OptionFabric               OptionKey = "FABRIC"
	OptionFrameColorCustom     OptionKey = "FRAME_COLOR_CUSTOM"
	OptionInstallation         OptionKey = "INSTALLATION"

	// OptionBase addresses the store's own sales coefficient in overrides.
	OptionBase OptionKey = "BASE"
)

// PriceTier is one bracket of a width-tiered table. In YAML it is written
// either as a [max_w, price] pair or as a {max_w, price} mapping.
type PriceTier struct {
	MaxW  int `yaml:"max_w"`
	Price int `yaml:"price"`
}

func (t *PriceTier) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var pair []int
		if err := node.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("line %d: price tier needs [max_w, price], got %d values", node.Line, len(pair))
		}
		t.MaxW, t.Price = pair[0], pair[1]
		return nil
	case yaml.MappingNode:
		type plain PriceTier
		return node.Decode((*plain)(t))
	default:
		return fmt.Errorf("line %d: unexpected price tier format", node.Line)
	}
}

// Tiers is ordered ascending by MaxW.
type Tiers []PriceTier

// FirstFit returns the first tier whose MaxW covers width.
func (ts Tiers) FirstFit(width int) (PriceTier, bool) {
	for _, t := range ts {
		if width <= t.MaxW {
			return t, true
		}
	}
	return PriceTier{}, false
}

// MaxWidth is the upper bound of the last tier, or 0 for an empty table.
func (ts Tiers) MaxWidth() int {
	if len(ts) == 0 {
		return 0
	}
	return ts[len(ts)-1].MaxW
}

func (ts Tiers) sorted() bool {
	for i := 1; i < len(ts); i++ {
		if ts[i].MaxW <= ts[i-1].MaxW {
			return false
		}
	}
	return true
}

type Compatibility struct {
	LedArms              bool `yaml:"led_arms"`
	LedBox               bool `yaml:"led_box"`
	LambrequinFixe       bool `yaml:"lambrequin_fixe"`
	LambrequinEnroulable bool `yaml:"lambrequin_enroulable"`
	// Physical safety limits in millimetres.
	MaxWidth      int `yaml:"max_width"`
	MaxProjection int `yaml:"max_projection"`
}

type LambrequinPrices struct {
	Manual    Tiers `yaml:"manual"`
	Motorized Tiers `yaml:"motorized"`
}

// Model is one product line. Values handed out by a Catalog are shared
// between goroutines and must be treated as read-only.
type Model struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	Category      Category      `yaml:"category"`
	Shape         string        `yaml:"shape"`
	Promo         bool          `yaml:"promo"`
	Compatibility Compatibility `yaml:"compatibility"`
	ArmLogic      ArmLogic      `yaml:"arm_logic"`

	MinWidths map[int]int   `yaml:"min_widths"`
	BuyPrices map[int]Tiers `yaml:"buy_prices"`

	SalesCoefficient    *float64              `yaml:"sales_coefficient"`
	OptionsCoefficients map[OptionKey]float64 `yaml:"options_coefficients"`

	CeilingMountPrices         Tiers             `yaml:"ceiling_mount_prices"`
	LambrequinEnroulablePrices *LambrequinPrices `yaml:"lambrequin_enroulable_prices"`
	LedCoffretPrice            *int              `yaml:"led_coffret_price"`

	// LambrequinEnroulableMaxProjection disables the roll-up lambrequin
	// above this projection. Zero means no restriction.
	LambrequinEnroulableMaxProjection int `yaml:"lambrequin_enroulable_max_projection"`

	// DeliveryWarningThreshold is the width above which the store ships in
	// two parts. Zero disables the warning.
	DeliveryWarningThreshold int `yaml:"delivery_warning_threshold"`
}

// Projections lists the projections with a price table, ascending.
func (m *Model) Projections() []int {
	out := make([]int, 0, len(m.BuyPrices))
	for p := range m.BuyPrices {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// MinWidth reports the minimum buildable width at an exact projection.
func (m *Model) MinWidth(projection int) (int, bool) {
	w, ok := m.MinWidths[projection]
	return w, ok
}

// Dimensions summarises what a model can be built at.
type Dimensions struct {
	MinWidth      int
	MaxWidth      int
	MinProjection int
	MaxProjection int
	Projections   []int
}

func (m *Model) Dimensions() Dimensions {
	d := Dimensions{
		MaxWidth:      m.Compatibility.MaxWidth,
		MaxProjection: m.Compatibility.MaxProjection,
		Projections:   m.Projections(),
	}
	if len(d.Projections) > 0 {
		d.MinProjection = d.Projections[0]
	}
	for _, w := range m.MinWidths {
		if d.MinWidth == 0 || w < d.MinWidth {
			d.MinWidth = w
		}
	}
	return d
}

func (m *Model) validate() error {
	if m.ID == "" {
		return fmt.Errorf("model without id")
	}
	if !m.ArmLogic.valid() {
		return fmt.Errorf("model %s: unknown arm logic %q", m.ID, m.ArmLogic)
	}
	if m.Compatibility.MaxWidth <= 0 || m.Compatibility.MaxProjection <= 0 {
		return fmt.Errorf("model %s: safety limits must be positive", m.ID)
	}
	if len(m.BuyPrices) == 0 {
		return fmt.Errorf("model %s: no buy prices", m.ID)
	}
	for proj, tiers := range m.BuyPrices {
		if len(tiers) == 0 {
			return fmt.Errorf("model %s: empty price table at projection %d", m.ID, proj)
		}
		if !tiers.sorted() {
			return fmt.Errorf("model %s: price tiers at projection %d are not sorted ascending", m.ID, proj)
		}
	}
	if !m.CeilingMountPrices.sorted() {
		return fmt.Errorf("model %s: ceiling mount tiers are not sorted ascending", m.ID)
	}
	if lp := m.LambrequinEnroulablePrices; lp != nil {
		if !lp.Manual.sorted() || !lp.Motorized.sorted() {
			return fmt.Errorf("model %s: roll-up lambrequin tiers are not sorted ascending", m.ID)
		}
	}
	if m.SalesCoefficient != nil && *m.SalesCoefficient <= 0 {
		return fmt.Errorf("model %s: sales coefficient must be positive", m.ID)
	}
	for key, c := range m.OptionsCoefficients {
		if c <= 0 {
			return fmt.Errorf("model %s: coefficient %s must be positive", m.ID, key)
		}
	}
	return nil
}

// clone copies the fields that coefficient overrides touch; price tables
// stay shared.
func (m *Model) clone() *Model {
	c := *m
	if m.SalesCoefficient != nil {
		v := *m.SalesCoefficient
		c.SalesCoefficient = &v
	}
	c.OptionsCoefficients = make(map[OptionKey]float64, len(m.OptionsCoefficients))
	for k, v := range m.OptionsCoefficients {
		c.OptionsCoefficients[k] = v
	}
	return &c
}
