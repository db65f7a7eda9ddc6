// Package catalog holds the immutable awning catalog: model definitions,
// tiered purchase prices, option prices and the global pricing settings.
//
// A Catalog is never modified after construction. Updates build a new
// Catalog and publish it through a Store.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

var ErrModelNotFound = errors.New("model not found")

//go:embed catalog.yaml
var defaultCatalog []byte

type VAT struct {
	Standard float64 `yaml:"standard"`
	Reduced  float64 `yaml:"reduced"`
}

type Transport struct {
	WidthThreshold int `yaml:"width_threshold"`
	FeeHT          int `yaml:"fee_ht"`
}

type OptionPrices struct {
	// LedArms maps projection to arm count to purchase price.
	LedArms          map[int]map[int]int `yaml:"led_arms"`
	LedBox           int                 `yaml:"led_box"`
	LambrequinFixe   int                 `yaml:"lambrequin_fixe"`
	FrameCustomColor int                 `yaml:"frame_custom_color"`
}

type Settings struct {
	DefaultCoefficient  float64               `yaml:"default_coefficient"`
	OptionsCoefficients map[OptionKey]float64 `yaml:"options_coefficients"`
	VAT                 VAT                   `yaml:"vat"`
	Transport           Transport             `yaml:"transport"`
	Options             OptionPrices          `yaml:"options"`
}

func (s Settings) validate() error {
	if s.DefaultCoefficient <= 0 {
		return fmt.Errorf("default coefficient must be positive")
	}
	if s.VAT.Standard < 1 || s.VAT.Reduced < 1 {
		return fmt.Errorf("vat rates are multipliers and must be at least 1")
	}
	if s.Transport.WidthThreshold <= 0 || s.Transport.FeeHT < 0 {
		return fmt.Errorf("invalid transport rule")
	}
	for key, c := range s.OptionsCoefficients {
		if c <= 0 {
			return fmt.Errorf("option coefficient %s must be positive", key)
		}
	}
	return nil
}

type Catalog struct {
	settings Settings
	models   map[string]*Model
	ids      []string
	version  string
}

type document struct {
	Settings Settings `yaml:"settings"`
	Models   []Model  `yaml:"models"`
}

// New validates the given data and builds a Catalog from it.
func New(settings Settings, models []Model) (*Catalog, error) {
	const operation = "catalog.New"

	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("%s: settings: %w", operation, err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%s: catalog has no models", operation)
	}

	c := &Catalog{
		settings: settings,
		models:   make(map[string]*Model, len(models)),
	}
	for i := range models {
		m := models[i]
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		if _, dup := c.models[m.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate model id %s", operation, m.ID)
		}
		c.models[m.ID] = &m
		c.ids = append(c.ids, m.ID)
	}
	sort.Strings(c.ids)
	c.version = strconv.FormatUint(c.fingerprint(), 16)
	return c, nil
}

// Load parses a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	const operation = "catalog.Load"

	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", operation, err)
	}
	return New(doc.Settings, doc.Models)
}

func LoadFile(path string) (*Catalog, error) {
	const operation = "catalog.LoadFile"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Model looks a model up by id.
func (c *Catalog) Model(id string) (*Model, error) {
	m, ok := c.models[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	return m, nil
}

// Models returns every model sorted by id.
func (c *Catalog) Models() []*Model {
	out := make([]*Model, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.models[id])
	}
	return out
}

func (c *Catalog) Settings() Settings { return c.settings }

// Version identifies the catalog content, coefficient overrides included.
// Two catalogs with equal versions price every request identically.
func (c *Catalog) Version() string { return c.version }

// CoefficientOverride is an admin edit of one margin coefficient. Option
// OptionBase targets the model's sales coefficient.
type CoefficientOverride struct {
	ModelID string    `db:"model_id"`
	Option  OptionKey `db:"option_key"`
	Value   float64   `db:"value"`
}

// WithCoefficients returns a copy of c with the overrides applied. The
// receiver is left untouched.
func (c *Catalog) WithCoefficients(overrides []CoefficientOverride) (*Catalog, error) {
	const operation = "catalog.WithCoefficients"

	next := &Catalog{
		settings: c.settings,
		models:   make(map[string]*Model, len(c.models)),
		ids:      c.ids,
	}
	for id, m := range c.models {
		next.models[id] = m
	}

	cloned := make(map[string]bool)
	for _, o := range overrides {
		if o.Value <= 0 {
			return nil, fmt.Errorf("%s: %s/%s: coefficient must be positive", operation, o.ModelID, o.Option)
		}
		m, ok := next.models[o.ModelID]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", operation, ErrModelNotFound, o.ModelID)
		}
		if !cloned[o.ModelID] {
			m = m.clone()
			next.models[o.ModelID] = m
			cloned[o.ModelID] = true
		}
		if o.Option == OptionBase {
			v := o.Value
			m.SalesCoefficient = &v
			continue
		}
		m.OptionsCoefficients[o.Option] = o.Value
	}
	next.version = strconv.FormatUint(next.fingerprint(), 16)
	return next, nil
}

func (c *Catalog) fingerprint() uint64 {
	// yaml.v3 sorts map keys, so the encoding is stable.
	raw, err := yaml.Marshal(document{Settings: c.settings, Models: c.sortedValues()})
	if err != nil {
		return 0
	}
	return xxhash.Sum64(raw)
}

func (c *Catalog) sortedValues() []Model {
	out := make([]Model, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, *c.models[id])
	}
	return out
}
