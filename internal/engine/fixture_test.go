package engine

import (
	"testing"

	"storal-pricer/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func graduatedTiers(delta int) catalog.Tiers {
	return catalog.Tiers{
		{MaxW: 4760, Price: 2000 + delta},
		{MaxW: 6000, Price: 2300 + delta},
		{MaxW: 7110, Price: 3000 + delta},
		{MaxW: 9450, Price: 3600 + delta},
		{MaxW: 12000, Price: 4400 + delta},
	}
}

func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	settings := catalog.Settings{
		DefaultCoefficient: 1,
		VAT:                catalog.VAT{Standard: 1.2, Reduced: 1.1},
		Transport:          catalog.Transport{WidthThreshold: 3650, FeeHT: 139},
		Options: catalog.OptionPrices{
			LedArms: map[int]map[int]int{
				1500: {2: 441},
				3000: {2: 567, 3: 757},
				3500: {2: 603, 3: 815, 4: 1057},
				4000: {2: 641, 3: 881, 4: 1148},
			},
			LedBox:           100,
			LambrequinFixe:   50,
			FrameCustomColor: 138,
		},
	}

	models := []catalog.Model{
		{
			ID:       "compact",
			Name:     "Compact",
			Category: catalog.CategoryCoffre,
			Compatibility: catalog.Compatibility{
				LedArms: true, LedBox: true, LambrequinFixe: true, LambrequinEnroulable: true,
				MaxWidth: 5000, MaxProjection: 3000,
			},
			ArmLogic:  catalog.ArmLogicStandard2,
			MinWidths: map[int]int{1500: 1800, 2000: 2300},
			BuyPrices: map[int]catalog.Tiers{
				1500: {{MaxW: 2400, Price: 1000}, {MaxW: 3600, Price: 1100}, {MaxW: 5000, Price: 1300}},
				2500: {{MaxW: 3600, Price: 1200}, {MaxW: 5000, Price: 1400}},
			},
			SalesCoefficient:    ptr(1.5),
			OptionsCoefficients: map[catalog.OptionKey]float64{catalog.OptionLedArms: 2},
			CeilingMountPrices:  catalog.Tiers{{MaxW: 3000, Price: 40}, {MaxW: 5000, Price: 60}},
			LambrequinEnroulablePrices: &catalog.LambrequinPrices{
				Manual:    catalog.Tiers{{MaxW: 3000, Price: 300}, {MaxW: 5000, Price: 500}},
				Motorized: catalog.Tiers{{MaxW: 3000, Price: 550}, {MaxW: 5000, Price: 750}},
			},
			LedCoffretPrice: ptr(362),
		},
		{
			ID:       "grand",
			Name:     "Grand",
			Category: catalog.CategoryCoffre,
			Compatibility: catalog.Compatibility{
				LedArms: true, LambrequinFixe: true,
				MaxWidth: 12000, MaxProjection: 4000,
			},
			ArmLogic:  catalog.ArmLogicLargeFormatGraduated,
			MinWidths: map[int]int{3000: 3630, 3500: 4130, 4000: 4630},
			BuyPrices: map[int]catalog.Tiers{
				3000: graduatedTiers(0),
				3500: graduatedTiers(100),
				4000: graduatedTiers(200),
			},
			DeliveryWarningThreshold: 6000,
		},
		{
			ID:       "carve",
			Name:     "Carve",
			Category: catalog.CategoryCoffre,
			Compatibility: catalog.Compatibility{
				LambrequinEnroulable: true,
				MaxWidth:             6000,
				MaxProjection:        3500,
			},
			ArmLogic: catalog.ArmLogicStandard2,
			BuyPrices: map[int]catalog.Tiers{
				3000: {{MaxW: 6000, Price: 2000}},
				3500: {{MaxW: 6000, Price: 2100}},
			},
			LambrequinEnroulablePrices: &catalog.LambrequinPrices{
				Manual: catalog.Tiers{{MaxW: 6000, Price: 400}},
			},
			LambrequinEnroulableMaxProjection: 3250,
		},
		{
			ID:       "wide",
			Name:     "Wide",
			Category: catalog.CategoryMonobloc,
			Compatibility: catalog.Compatibility{
				LambrequinEnroulable: true,
				MaxWidth:             18000,
				MaxProjection:        4000,
			},
			ArmLogic: catalog.ArmLogicCouples46,
			BuyPrices: map[int]catalog.Tiers{
				1500: {{MaxW: 18000, Price: 5000}},
				3500: {{MaxW: 18000, Price: 5200}},
				4000: {{MaxW: 18000, Price: 5500}},
			},
			LambrequinEnroulablePrices: &catalog.LambrequinPrices{
				Manual:    catalog.Tiers{{MaxW: 3000, Price: 300}, {MaxW: 6000, Price: 600}, {MaxW: 7000, Price: 700}},
				Motorized: catalog.Tiers{{MaxW: 6000, Price: 900}},
			},
		},
	}

	cat, err := catalog.New(settings, models)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	return cat
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default failed: %v", err)
	}
	return cat
}

func mustModel(t *testing.T, cat *catalog.Catalog, id string) *catalog.Model {
	t.Helper()
	m, err := cat.Model(id)
	if err != nil {
		t.Fatalf("Model(%s) failed: %v", id, err)
	}
	return m
}
