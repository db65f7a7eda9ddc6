package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storal-pricer/internal/catalog"
)

// Roll-up lambrequin tiers above this width are never used.
const lambrequinEnroulableMaxWidth = 6000

type Options struct {
	LedArms              bool `json:"led_arms"`
	LedBox               bool `json:"led_box"`
	LambrequinFixe       bool `json:"lambrequin_fixe"`
	LambrequinEnroulable bool `json:"lambrequin_enroulable"`
	LambrequinMotorized  bool `json:"lambrequin_motorized"`
	PosePro              bool `json:"pose_pro"`
	CustomColor          bool `json:"custom_color"`
	PosePlafond          bool `json:"pose_plafond"`
}

// Request is a configuration to price. Lengths are millimetres.
type Request struct {
	ModelID    string  `json:"model_id"`
	Width      int     `json:"width"`
	Projection int     `json:"projection"`
	Options    Options `json:"options"`
}

// Breakdown lists the sale price of every line, HT and rounded.
type Breakdown struct {
	BasePriceHT           int64 `json:"base_price_ht"`
	LedArmsPriceHT        int64 `json:"led_arms_price_ht"`
	LedBoxPriceHT         int64 `json:"led_box_price_ht"`
	LambrequinPriceHT     int64 `json:"lambrequin_price_ht"`
	LambrequinFixePriceHT int64 `json:"lambrequin_fixe_price_ht"`
	CeilingMountPriceHT   int64 `json:"ceiling_mount_price_ht"`
	CustomColorPriceHT    int64 `json:"custom_color_price_ht"`
	TauxTVA               int64 `json:"taux_tva"`
	ArmCount              int   `json:"arm_count"`
	UsedProjection        int   `json:"used_projection"`
}

type Transport struct {
	Applicable bool   `json:"applicable"`
	MontantHT  int64  `json:"montant_ht"`
	MontantTTC int64  `json:"montant_ttc"`
	Raison     string `json:"raison,omitempty"`
}

type Quote struct {
	ModelID            string    `json:"model_id"`
	ModelName          string    `json:"model_name"`
	Width              int       `json:"width"`
	Projection         int       `json:"projection"`
	HT                 int64     `json:"ht"`
	TTC                int64     `json:"ttc"`
	Breakdown          Breakdown `json:"breakdown"`
	Transport          Transport `json:"transport"`
	DeliveryInTwoParts bool      `json:"delivery_in_two_parts"`
}

// Calculator prices configurations against one catalog.
type Calculator struct {
	catalog      *catalog.Catalog
	projection   ProjectionPolicy
	coefficients CoefficientResolver
}

func NewCalculator(cat *catalog.Catalog) *Calculator {
	return &Calculator{
		catalog:      cat,
		projection:   NextLargerProjection,
		coefficients: DefaultResolver(cat.Settings()),
	}
}

// WithProjectionPolicy returns a calculator using p to choose price tables.
func (c *Calculator) WithProjectionPolicy(p ProjectionPolicy) *Calculator {
	next := *c
	next.projection = p
	return &next
}

// Price is NewCalculator(cat).Price(req).
func Price(cat *catalog.Catalog, req Request) (*Quote, error) {
	return NewCalculator(cat).Price(req)
}

// Price computes the quote for req or returns a *Failure.
func (c *Calculator) Price(req Request) (*Quote, error) {
	m, err := c.catalog.Model(req.ModelID)
	if err != nil {
		return nil, fail(UnknownModel, req.ModelID, "Modèle inconnu : %s", req.ModelID)
	}
	if req.Width <= 0 {
		return nil, fail(WidthOutOfRange, m.ID, "Largeur invalide : %dmm", req.Width)
	}
	if req.Projection <= 0 {
		return nil, fail(ProjectionUnsupported, m.ID, "Avancée invalide : %dmm", req.Projection)
	}

	arms, err := Validate(m, req.Width, req.Projection)
	if err != nil {
		return nil, err
	}

	usedProjection, ok := c.projection(m, req.Projection)
	if !ok {
		return nil, fail(ProjectionUnsupported, m.ID,
			"Avancée %dmm non disponible pour %s (max %dmm).", req.Projection, m.Name, maxProjection(m))
	}
	tier, ok := m.BuyPrices[usedProjection].FirstFit(req.Width)
	if !ok {
		return nil, fail(WidthOutOfRange, m.ID,
			"Largeur %dmm hors grille pour %s en avancée %dmm (max %dmm).",
			req.Width, m.Name, usedProjection, m.BuyPrices[usedProjection].MaxWidth())
	}

	settings := c.catalog.Settings()
	opts := req.Options
	sale := func(purchase int, key catalog.OptionKey) decimal.Decimal {
		return decimal.NewFromInt(int64(purchase)).Mul(decimal.NewFromFloat(c.coefficients(m, key)))
	}

	var (
		base           = sale(tier.Price, catalog.OptionBase)
		ledArms        decimal.Decimal
		ledBox         decimal.Decimal
		customColor    decimal.Decimal
		ceilingMount   decimal.Decimal
		lambrequinFixe decimal.Decimal
		lambrequin     decimal.Decimal
	)

	if opts.LedArms && m.Compatibility.LedArms {
		ledArms = sale(ledArmsPrice(settings.Options.LedArms[usedProjection], arms), catalog.OptionLedArms)
	}
	if opts.LedBox && m.Compatibility.LedBox {
		price := settings.Options.LedBox
		if m.LedCoffretPrice != nil {
			price = *m.LedCoffretPrice
		}
		ledBox = sale(price, catalog.OptionLedCassette)
	}
	if opts.CustomColor {
		customColor = sale(settings.Options.FrameCustomColor, catalog.OptionFrameColorCustom)
	}
	if opts.PosePlafond {
		if t, ok := m.CeilingMountPrices.FirstFit(req.Width); ok {
			ceilingMount = sale(t.Price, catalog.OptionCeilingMount)
		}
	}
	if opts.LambrequinFixe && m.Compatibility.LambrequinFixe {
		lambrequinFixe = sale(settings.Options.LambrequinFixe, catalog.OptionLambrequinFixe)
	}
	if opts.LambrequinEnroulable && lambrequinEnroulableAllowed(m, req.Projection) {
		if price, ok := lambrequinEnroulablePrice(m, req.Width, opts.LambrequinMotorized); ok {
			lambrequin = sale(price, catalog.OptionLambrequinEnroulable)
		}
	}

	vat := settings.VAT.Standard
	if opts.PosePro {
		vat = settings.VAT.Reduced
	}
	vatRate := decimal.NewFromFloat(vat)

	totalHT := decimal.Sum(base, ledArms, ledBox, customColor, ceilingMount, lambrequinFixe, lambrequin)
	totalTTC := totalHT.Mul(vatRate)

	q := &Quote{
		ModelID:    m.ID,
		ModelName:  m.Name,
		Width:      req.Width,
		Projection: req.Projection,
		Breakdown: Breakdown{
			BasePriceHT:           round(base),
			LedArmsPriceHT:        round(ledArms),
			LedBoxPriceHT:         round(ledBox),
			LambrequinPriceHT:     round(lambrequin),
			LambrequinFixePriceHT: round(lambrequinFixe),
			CeilingMountPriceHT:   round(ceilingMount),
			CustomColorPriceHT:    round(customColor),
			TauxTVA:               round(vatRate.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))),
			ArmCount:              arms,
			UsedProjection:        usedProjection,
		},
		DeliveryInTwoParts: m.DeliveryWarningThreshold > 0 && req.Width > m.DeliveryWarningThreshold,
	}

	if req.Width > settings.Transport.WidthThreshold {
		feeHT := decimal.NewFromInt(int64(settings.Transport.FeeHT))
		feeTTC := feeHT.Mul(vatRate)
		totalHT = totalHT.Add(feeHT)
		totalTTC = totalTTC.Add(feeTTC)
		q.Transport = Transport{
			Applicable: true,
			MontantHT:  round(feeHT),
			MontantTTC: round(feeTTC),
			Raison:     fmt.Sprintf("Largeur %dmm > %dmm", req.Width, settings.Transport.WidthThreshold),
		}
	}

	q.HT = round(totalHT)
	q.TTC = round(totalTTC)
	return q, nil
}

// ledArmsPrice falls back to the two-arm kit when the table has no entry
// for the resolved arm count.
func ledArmsPrice(row map[int]int, arms int) int {
	if p, ok := row[arms]; ok && p > 0 {
		return p
	}
	return row[2]
}

func lambrequinEnroulableAllowed(m *catalog.Model, projection int) bool {
	if !m.Compatibility.LambrequinEnroulable {
		return false
	}
	limit := m.LambrequinEnroulableMaxProjection
	return limit == 0 || projection <= limit
}

func lambrequinEnroulablePrice(m *catalog.Model, width int, motorized bool) (int, bool) {
	if m.LambrequinEnroulablePrices == nil {
		return 0, false
	}
	tiers := m.LambrequinEnroulablePrices.Manual
	if motorized {
		tiers = m.LambrequinEnroulablePrices.Motorized
	}
	for _, t := range tiers {
		if t.MaxW > lambrequinEnroulableMaxWidth {
			break
		}
		if width <= t.MaxW {
			return t.Price, true
		}
	}
	return 0, false
}

func maxProjection(m *catalog.Model) int {
	ps := m.Projections()
	if len(ps) == 0 {
		return 0
	}
	return ps[len(ps)-1]
}

// round is half-up for the non-negative amounts the engine produces.
func round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
