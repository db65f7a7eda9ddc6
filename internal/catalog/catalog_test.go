package catalog

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

const minimalCatalog = `
settings:
  default_coefficient: 1.5
  vat: {standard: 1.2, reduced: 1.1}
  transport: {width_threshold: 3650, fee_ht: 139}
  options:
    led_arms:
      2000: {2: 481, 3: 624}
    led_box: 250
    lambrequin_fixe: 40
    frame_custom_color: 138
models:
  - id: alpha
    name: Alpha
    category: coffre
    compatibility: {led_arms: true, max_width: 5000, max_projection: 2500}
    arm_logic: standard_2
    min_widths: {2000: 2000}
    buy_prices:
      2000:
        - [3000, 1000]
        - {max_w: 5000, price: 1400}
`

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}

	models := cat.Models()
	if len(models) != 15 {
		t.Fatalf("got %d models, want 15", len(models))
	}
	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	if !sort.StringsAreSorted(ids) {
		t.Errorf("models not sorted by id: %v", ids)
	}

	kalyo, err := cat.Model("kalyo")
	if err != nil {
		t.Fatalf("Model(kalyo) failed: %v", err)
	}
	if kalyo.Compatibility.MaxWidth != 6000 || kalyo.Compatibility.MaxProjection != 3500 {
		t.Errorf("kalyo limits = %d x %d, want 6000 x 3500",
			kalyo.Compatibility.MaxWidth, kalyo.Compatibility.MaxProjection)
	}
	if kalyo.LambrequinEnroulableMaxProjection != 3250 {
		t.Errorf("kalyo roll-up lambrequin limit = %d, want 3250", kalyo.LambrequinEnroulableMaxProjection)
	}

	for _, id := range []string{"dynasta", "belharra", "belharra_2"} {
		m, err := cat.Model(id)
		if err != nil {
			t.Fatalf("Model(%s) failed: %v", id, err)
		}
		if m.ArmLogic != ArmLogicLargeFormatGraduated {
			t.Errorf("%s arm logic = %s, want %s", id, m.ArmLogic, ArmLogicLargeFormatGraduated)
		}
	}

	s := cat.Settings()
	if s.VAT.Standard != 1.2 || s.VAT.Reduced != 1.1 {
		t.Errorf("vat = %+v, want 1.2 / 1.1", s.VAT)
	}
	if got := s.Options.LedArms[3000][3]; got != 757 {
		t.Errorf("led arms 3000/3 = %d, want 757", got)
	}
}

func TestModelNotFound(t *testing.T) {
	cat, err := Load(strings.NewReader(minimalCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	_, err = cat.Model("nope")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("got %v, want ErrModelNotFound", err)
	}
}

func TestLoadTierForms(t *testing.T) {
	cat, err := Load(strings.NewReader(minimalCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m, _ := cat.Model("alpha")
	want := Tiers{{MaxW: 3000, Price: 1000}, {MaxW: 5000, Price: 1400}}
	got := m.BuyPrices[2000]
	if len(got) != len(want) {
		t.Fatalf("got %d tiers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tier %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
	}{
		{"unsorted tiers", [2]string{"- [3000, 1000]", "- [6000, 1000]"}},
		{"unknown arm logic", [2]string{"arm_logic: standard_2", "arm_logic: six_arms"}},
		{"unknown field", [2]string{"name: Alpha", "name: Alpha\n    colour: red"}},
		{"bad tier pair", [2]string{"- [3000, 1000]", "- [3000]"}},
		{"zero coefficient", [2]string{"default_coefficient: 1.5", "default_coefficient: 0"}},
		{"vat below one", [2]string{"standard: 1.2", "standard: 0.2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(minimalCatalog, tt.replace[0], tt.replace[1], 1)
			if doc == minimalCatalog {
				t.Fatalf("replacement %q not applied", tt.replace[0])
			}
			if _, err := Load(strings.NewReader(doc)); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	cat, err := Load(strings.NewReader(minimalCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	m, _ := cat.Model("alpha")
	if _, err := New(cat.Settings(), []Model{*m, *m}); err == nil {
		t.Error("expected duplicate id error, got nil")
	}
}

func TestFirstFit(t *testing.T) {
	tiers := Tiers{{MaxW: 2400, Price: 10}, {MaxW: 3580, Price: 20}, {MaxW: 6000, Price: 30}}

	tests := []struct {
		width int
		want  int
		ok    bool
	}{
		{1000, 10, true},
		{2400, 10, true},
		{2401, 20, true},
		{3580, 20, true},
		{6000, 30, true},
		{6001, 0, false},
	}

	for _, tt := range tests {
		got, ok := tiers.FirstFit(tt.width)
		if ok != tt.ok || got.Price != tt.want {
			t.Errorf("FirstFit(%d) = %d, %v; want %d, %v", tt.width, got.Price, ok, tt.want, tt.ok)
		}
	}
}

func TestWithCoefficients(t *testing.T) {
	base, err := Load(strings.NewReader(minimalCatalog))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	next, err := base.WithCoefficients([]CoefficientOverride{
		{ModelID: "alpha", Option: OptionBase, Value: 2},
		{ModelID: "alpha", Option: OptionLedArms, Value: 1.3},
	})
	if err != nil {
		t.Fatalf("WithCoefficients failed: %v", err)
	}

	orig, _ := base.Model("alpha")
	if orig.SalesCoefficient != nil || len(orig.OptionsCoefficients) != 0 {
		t.Errorf("base catalog was mutated: %+v", orig)
	}

	m, _ := next.Model("alpha")
	if m.SalesCoefficient == nil || *m.SalesCoefficient != 2 {
		t.Errorf("sales coefficient not applied: %v", m.SalesCoefficient)
	}
	if got := m.OptionsCoefficients[OptionLedArms]; got != 1.3 {
		t.Errorf("LED_ARMS coefficient = %v, want 1.3", got)
	}
	if next.Version() == base.Version() {
		t.Error("version did not change after overrides")
	}

	same, err := base.WithCoefficients(nil)
	if err != nil {
		t.Fatalf("WithCoefficients(nil) failed: %v", err)
	}
	if same.Version() != base.Version() {
		t.Errorf("empty overrides changed version: %s != %s", same.Version(), base.Version())
	}

	if _, err := base.WithCoefficients([]CoefficientOverride{{ModelID: "ghost", Option: OptionBase, Value: 1}}); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("got %v, want ErrModelNotFound", err)
	}
	if _, err := base.WithCoefficients([]CoefficientOverride{{ModelID: "alpha", Option: OptionBase, Value: -1}}); err == nil {
		t.Error("expected error for negative coefficient, got nil")
	}
}

func TestStoreReplace(t *testing.T) {
	first, _ := Load(strings.NewReader(minimalCatalog))
	second, _ := Default()

	s := NewStore(first)
	if s.Load() != first {
		t.Fatal("store does not hold the initial catalog")
	}
	if prev := s.Replace(second); prev != first {
		t.Error("Replace did not return the previous catalog")
	}
	if s.Load() != second {
		t.Error("store does not hold the replacement catalog")
	}
}

func TestDimensions(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	m, _ := cat.Model("kalyo")
	d := m.Dimensions()

	if d.MinWidth != 2160 || d.MaxWidth != 6000 {
		t.Errorf("width range = %d..%d, want 2160..6000", d.MinWidth, d.MaxWidth)
	}
	if d.MinProjection != 1500 || d.MaxProjection != 3500 {
		t.Errorf("projection range = %d..%d, want 1500..3500", d.MinProjection, d.MaxProjection)
	}
	if len(d.Projections) != 7 {
		t.Errorf("got %d projections, want 7", len(d.Projections))
	}
}

func TestSummary(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default() failed: %v", err)
	}
	text := Summary(cat)

	for _, want := range []string{
		"STORES COFFRE",
		"STORES MONOBLOC",
		"STORAL K (kalyo): largeur de 2.16 à 6.00m, avancée max 350cm",
		"OFFRES PROMO",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q", want)
		}
	}

	promo := text[strings.Index(text, "OFFRES PROMO"):]
	if !strings.Contains(promo, "kissimy_promo") {
		t.Error("promo model not listed in the promo section")
	}
	coffre := text[strings.Index(text, "STORES COFFRE"):strings.Index(text, "STORES MONOBLOC")]
	if !strings.Contains(coffre, "kissimy_promo") {
		t.Error("promo model not listed under its category")
	}
	if n := strings.Count(text, "(kissimy_promo)"); n != 2 {
		t.Errorf("promo model listed %d times, want 2", n)
	}
}
