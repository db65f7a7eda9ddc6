package engine

import (
	"sync"
	"testing"

	"storal-pricer/internal/catalog"
)

func TestPriceAllOptions(t *testing.T) {
	cat := fixtureCatalog(t)

	q, err := Price(cat, Request{
		ModelID:    "compact",
		Width:      3000,
		Projection: 1500,
		Options: Options{
			LedArms:              true,
			LedBox:               true,
			LambrequinFixe:       true,
			LambrequinEnroulable: true,
			CustomColor:          true,
			PosePlafond:          true,
		},
	})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}

	want := Breakdown{
		BasePriceHT:           1650, // 1100 * 1.5
		LedArmsPriceHT:        882,  // 441 * 2
		LedBoxPriceHT:         362,
		LambrequinPriceHT:     300,
		LambrequinFixePriceHT: 50,
		CeilingMountPriceHT:   40,
		CustomColorPriceHT:    138,
		TauxTVA:               20,
		ArmCount:              2,
		UsedProjection:        1500,
	}
	if q.Breakdown != want {
		t.Errorf("breakdown = %+v, want %+v", q.Breakdown, want)
	}
	if q.HT != 3422 {
		t.Errorf("HT = %d, want 3422", q.HT)
	}
	if q.TTC != 4106 {
		t.Errorf("TTC = %d, want 4106", q.TTC)
	}
	if q.Transport.Applicable {
		t.Error("transport applied below the threshold")
	}
}

func TestPriceTransport(t *testing.T) {
	cat := fixtureCatalog(t)

	tests := []struct {
		name      string
		width     int
		posePro   bool
		wantHT    int64
		wantTTC   int64
		transport Transport
	}{
		{
			name:      "at threshold",
			width:     3650,
			wantHT:    1950,
			wantTTC:   2340,
			transport: Transport{},
		},
		{
			name:      "above threshold",
			width:     4000,
			wantHT:    2089,
			wantTTC:   2507,
			transport: Transport{Applicable: true, MontantHT: 139, MontantTTC: 167, Raison: "Largeur 4000mm > 3650mm"},
		},
		{
			name:      "above threshold with reduced vat",
			width:     4000,
			posePro:   true,
			wantHT:    2089,
			wantTTC:   2298,
			transport: Transport{Applicable: true, MontantHT: 139, MontantTTC: 153, Raison: "Largeur 4000mm > 3650mm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Price(cat, Request{
				ModelID:    "compact",
				Width:      tt.width,
				Projection: 1500,
				Options:    Options{PosePro: tt.posePro},
			})
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}
			if q.HT != tt.wantHT || q.TTC != tt.wantTTC {
				t.Errorf("got HT %d TTC %d, want HT %d TTC %d", q.HT, q.TTC, tt.wantHT, tt.wantTTC)
			}
			if q.Transport != tt.transport {
				t.Errorf("transport = %+v, want %+v", q.Transport, tt.transport)
			}
		})
	}
}

func TestPosePro(t *testing.T) {
	cat := fixtureCatalog(t)
	req := Request{
		ModelID:    "compact",
		Width:      4500,
		Projection: 1500,
		Options:    Options{LedArms: true, PosePlafond: true},
	}

	standard, err := Price(cat, req)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	req.Options.PosePro = true
	reduced, err := Price(cat, req)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}

	if standard.HT != reduced.HT {
		t.Errorf("HT changed with the vat rate: %d != %d", standard.HT, reduced.HT)
	}
	if standard.Breakdown.TauxTVA != 20 || reduced.Breakdown.TauxTVA != 10 {
		t.Errorf("taux tva = %d / %d, want 20 / 10", standard.Breakdown.TauxTVA, reduced.Breakdown.TauxTVA)
	}

	// 1300*1.5 + 441*2 + 60 + 139 = 3031
	if standard.HT != 3031 {
		t.Errorf("HT = %d, want 3031", standard.HT)
	}
	if standard.TTC != 3637 {
		t.Errorf("standard TTC = %d, want 3637", standard.TTC)
	}
	if reduced.TTC != 3334 {
		t.Errorf("reduced TTC = %d, want 3334", reduced.TTC)
	}

	a, b := standard.Breakdown, reduced.Breakdown
	a.TauxTVA, b.TauxTVA = 0, 0
	if a != b {
		t.Errorf("breakdown lines changed with the vat rate: %+v != %+v", a, b)
	}
}

func TestProjectionBracket(t *testing.T) {
	cat := fixtureCatalog(t)

	q, err := Price(cat, Request{ModelID: "compact", Width: 3000, Projection: 2000})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if q.Breakdown.UsedProjection != 2500 {
		t.Errorf("used projection = %d, want 2500", q.Breakdown.UsedProjection)
	}
	if q.Breakdown.BasePriceHT != 1800 {
		t.Errorf("base = %d, want 1800", q.Breakdown.BasePriceHT)
	}
	if q.Projection != 2000 {
		t.Errorf("quote projection = %d, want the requested 2000", q.Projection)
	}

	_, err = Price(cat, Request{ModelID: "compact", Width: 3000, Projection: 3000})
	if !IsKind(err, ProjectionUnsupported) {
		t.Errorf("got %v, want ProjectionUnsupported", err)
	}
}

func TestNextLargerProjection(t *testing.T) {
	m := mustModel(t, fixtureCatalog(t), "compact")

	tests := []struct {
		projection int
		want       int
		ok         bool
	}{
		{1000, 1500, true},
		{1500, 1500, true},
		{1750, 2500, true},
		{2500, 2500, true},
		{2501, 0, false},
	}
	for _, tt := range tests {
		got, ok := NextLargerProjection(m, tt.projection)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NextLargerProjection(%d) = %d, %v; want %d, %v", tt.projection, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWithProjectionPolicy(t *testing.T) {
	exactOnly := func(m *catalog.Model, projection int) (int, bool) {
		_, ok := m.BuyPrices[projection]
		return projection, ok
	}
	calc := NewCalculator(fixtureCatalog(t)).WithProjectionPolicy(exactOnly)

	if _, err := calc.Price(Request{ModelID: "compact", Width: 3000, Projection: 2000}); !IsKind(err, ProjectionUnsupported) {
		t.Errorf("got %v, want ProjectionUnsupported", err)
	}
	if _, err := calc.Price(Request{ModelID: "compact", Width: 3000, Projection: 1500}); err != nil {
		t.Errorf("exact projection rejected: %v", err)
	}
}

func TestLedArmsUseRequestedProjection(t *testing.T) {
	cat := fixtureCatalog(t)

	tests := []struct {
		name       string
		width      int
		projection int
		arms       int
		led        int64
	}{
		// 3250 resolves four arms; the 3500 table supplies the kit price.
		{"bracketed projection", 8200, 3250, 4, 1057},
		// No four-arm kit in the 3000 row.
		{"two arm fallback", 8000, 3000, 4, 567},
		{"three arms", 6500, 3000, 3, 757},
		// Off-bucket projections run on two arms, priced from the bracket row.
		{"between graduated buckets", 7000, 3100, 2, 603},
		{"just under 4000", 7000, 3750, 2, 641},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Price(cat, Request{
				ModelID:    "grand",
				Width:      tt.width,
				Projection: tt.projection,
				Options:    Options{LedArms: true},
			})
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}
			if q.Breakdown.ArmCount != tt.arms {
				t.Errorf("arm count = %d, want %d", q.Breakdown.ArmCount, tt.arms)
			}
			if q.Breakdown.LedArmsPriceHT != tt.led {
				t.Errorf("led arms = %d, want %d", q.Breakdown.LedArmsPriceHT, tt.led)
			}
		})
	}
}

func TestWidthOutOfRange(t *testing.T) {
	cat := fixtureCatalog(t)

	for _, req := range []Request{
		{ModelID: "compact", Width: 5001, Projection: 1500},
		{ModelID: "grand", Width: 12001, Projection: 3000},
		{ModelID: "compact", Width: 0, Projection: 1500},
	} {
		_, err := Price(cat, req)
		if !IsKind(err, WidthOutOfRange) {
			t.Errorf("%+v: got %v, want WidthOutOfRange", req, err)
		}
	}
}

func TestInvalidProjection(t *testing.T) {
	cat := fixtureCatalog(t)

	for _, req := range []Request{
		{ModelID: "compact", Width: 3000, Projection: 0},
		{ModelID: "grand", Width: 7000, Projection: -3000},
	} {
		_, err := Price(cat, req)
		if !IsKind(err, ProjectionUnsupported) {
			t.Errorf("%+v: got %v, want ProjectionUnsupported", req, err)
		}
	}

	_, err := Price(cat, Request{ModelID: "compact", Width: 0, Projection: 0})
	if !IsKind(err, WidthOutOfRange) {
		t.Errorf("zero size: got %v, want WidthOutOfRange", err)
	}
}

func TestUnknownModel(t *testing.T) {
	_, err := Price(fixtureCatalog(t), Request{ModelID: "nope", Width: 3000, Projection: 1500})
	f, ok := AsFailure(err)
	if !ok || f.Kind != UnknownModel {
		t.Fatalf("got %v, want UnknownModel", err)
	}
	if f.Kind.Recoverable() {
		t.Error("unknown model reported as recoverable")
	}
	for _, k := range []Kind{BelowMinimum, WidthOutOfRange, ProjectionUnsupported, MechanicalConflict} {
		if !k.Recoverable() {
			t.Errorf("%s reported as not recoverable", k)
		}
	}
}

func TestLambrequinEnroulable(t *testing.T) {
	cat := fixtureCatalog(t)

	tests := []struct {
		name       string
		model      string
		width      int
		projection int
		motorized  bool
		want       int64
	}{
		{"manual tier", "wide", 5000, 1500, false, 600},
		{"motorized tier", "wide", 5000, 1500, true, 900},
		{"capped at six metres", "wide", 6500, 1500, false, 0},
		{"carve-out limit allowed", "carve", 5000, 3250, false, 400},
		{"carve-out above limit", "carve", 5000, 3500, false, 0},
		{"model without roll-up lambrequin", "grand", 5000, 3000, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Price(cat, Request{
				ModelID:    tt.model,
				Width:      tt.width,
				Projection: tt.projection,
				Options:    Options{LambrequinEnroulable: true, LambrequinMotorized: tt.motorized},
			})
			if err != nil {
				t.Fatalf("Price failed: %v", err)
			}
			if q.Breakdown.LambrequinPriceHT != tt.want {
				t.Errorf("lambrequin = %d, want %d", q.Breakdown.LambrequinPriceHT, tt.want)
			}
		})
	}
}

func TestUnsupportedOptionsAreIgnored(t *testing.T) {
	cat := fixtureCatalog(t)

	q, err := Price(cat, Request{
		ModelID:    "carve",
		Width:      4000,
		Projection: 3000,
		Options:    Options{LedArms: true, LedBox: true, LambrequinFixe: true, PosePlafond: true},
	})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	b := q.Breakdown
	if b.LedArmsPriceHT != 0 || b.LedBoxPriceHT != 0 || b.LambrequinFixePriceHT != 0 || b.CeilingMountPriceHT != 0 {
		t.Errorf("unsupported options priced: %+v", b)
	}
	if q.HT != 2000+139 {
		t.Errorf("HT = %d, want %d", q.HT, 2000+139)
	}
}

func TestRoundHalfUp(t *testing.T) {
	base := fixtureCatalog(t)
	cat, err := base.WithCoefficients([]catalog.CoefficientOverride{
		{ModelID: "compact", Option: catalog.OptionBase, Value: 1.0005},
	})
	if err != nil {
		t.Fatalf("WithCoefficients failed: %v", err)
	}

	q, err := Price(cat, Request{ModelID: "compact", Width: 2000, Projection: 1500})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	// 1000 * 1.0005 = 1000.5
	if q.HT != 1001 || q.Breakdown.BasePriceHT != 1001 {
		t.Errorf("HT = %d, base = %d, want 1001", q.HT, q.Breakdown.BasePriceHT)
	}
	// 1000.5 * 1.2 = 1200.6
	if q.TTC != 1201 {
		t.Errorf("TTC = %d, want 1201", q.TTC)
	}
}

func TestFirstFitTierSelection(t *testing.T) {
	cat := defaultCatalog(t)

	for _, m := range cat.Models() {
		for projection, tiers := range m.BuyPrices {
			prev := 0
			for _, tier := range tiers {
				for _, width := range []int{prev + 1, tier.MaxW} {
					if _, err := Validate(m, width, projection); err != nil {
						continue
					}
					q, err := Price(cat, Request{ModelID: m.ID, Width: width, Projection: projection})
					if err != nil {
						t.Errorf("%s %dx%d: %v", m.ID, width, projection, err)
						continue
					}
					if q.Breakdown.BasePriceHT != int64(tier.Price) {
						t.Errorf("%s %dx%d: base %d, want tier %d price %d",
							m.ID, width, projection, q.Breakdown.BasePriceHT, tier.MaxW, tier.Price)
					}
				}
				prev = tier.MaxW
			}
		}
	}
}

func TestPriceIsIdempotent(t *testing.T) {
	cat := defaultCatalog(t)
	req := Request{
		ModelID:    "belharra_2",
		Width:      7200,
		Projection: 3000,
		Options:    Options{LedArms: true, LedBox: true, PosePlafond: true, CustomColor: true},
	}

	first, err := Price(cat, req)
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Price(cat, req)
		if err != nil {
			t.Fatalf("Price failed: %v", err)
		}
		if *again != *first {
			t.Fatalf("run %d: %+v != %+v", i, again, first)
		}
	}
}

func TestLargeFormatScenario(t *testing.T) {
	cat := defaultCatalog(t)

	q, err := Price(cat, Request{ModelID: "dynasta", Width: 6500, Projection: 3000, Options: Options{LedArms: true}})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if q.Breakdown.ArmCount != 3 {
		t.Errorf("arm count = %d, want 3", q.Breakdown.ArmCount)
	}
	if q.Breakdown.LedArmsPriceHT != 757 {
		t.Errorf("led arms = %d, want 757", q.Breakdown.LedArmsPriceHT)
	}
	if !q.DeliveryInTwoParts {
		t.Error("6.5m store not flagged for two-part delivery")
	}

	q, err = Price(cat, Request{ModelID: "kalyo", Width: 6000, Projection: 3000})
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if q.DeliveryInTwoParts {
		t.Error("6m store flagged for two-part delivery")
	}
}

func TestPriceDuringCatalogReplace(t *testing.T) {
	base := fixtureCatalog(t)
	alt, err := base.WithCoefficients([]catalog.CoefficientOverride{
		{ModelID: "compact", Option: catalog.OptionBase, Value: 3},
	})
	if err != nil {
		t.Fatalf("WithCoefficients failed: %v", err)
	}

	req := Request{ModelID: "compact", Width: 3000, Projection: 1500, Options: Options{LedArms: true}}
	wantBase, _ := Price(base, req)
	wantAlt, _ := Price(alt, req)

	store := catalog.NewStore(base)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				store.Replace(alt)
			} else {
				store.Replace(base)
			}
		}
	}()

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				q, err := Price(store.Load(), req)
				if err != nil {
					t.Errorf("Price failed: %v", err)
					return
				}
				if *q != *wantBase && *q != *wantAlt {
					t.Errorf("quote from a mixed catalog: %+v", q)
					return
				}
			}
		}()
	}
	wg.Wait()
}
