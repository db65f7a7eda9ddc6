package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storal-pricer/internal/catalog"
	"storal-pricer/internal/engine"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingArgs  = errors.New("missing arguments")
	ErrInvalidSize  = errors.New("invalid size")
	ErrUnknownToken = errors.New("unknown option")
)

// Customer sizes are accepted up to 30m.
const maxSizeCm = 3000

// ParseSizeCm reads a customer length: whole centimetres ("450", "450cm")
// or metres with a dot or comma ("4.5m", "4,50m").
func ParseSizeCm(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	var cm int
	switch {
	case strings.HasSuffix(s, "cm"):
		v, err := strconv.Atoi(strings.TrimSuffix(s, "cm"))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		cm = v
	case strings.HasSuffix(s, "m"):
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSuffix(s, "m"), ",", "."))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		cm = int(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	default:
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
		}
		cm = v
	}

	if cm <= 0 || cm > maxSizeCm {
		return 0, fmt.Errorf("%w: %q must be between 1 and %d cm", ErrInvalidSize, s, maxSizeCm)
	}
	return cm, nil
}

// Selection is a parsed set of option tokens.
type Selection struct {
	Options   engine.Options
	Preferred []string
}

// ParseOptions reads option tokens such as "led", "coffre",
// "lambrequin=enroulable", "motorise", "pose", "couleur", "plafond" and
// "modeles=kalyo,dynasta".
func ParseOptions(tokens []string) (Selection, error) {
	var (
		sel        Selection
		lambrequin engine.LambrequinChoice
	)
	lambrequin.Type = engine.LambrequinNone

	for _, raw := range tokens {
		tok := strings.ToLower(strings.TrimSpace(raw))
		key, value, _ := strings.Cut(tok, "=")

		switch key {
		case "":
		case "led", "led-bras":
			sel.Options.LedArms = true
		case "coffre", "led-coffre":
			sel.Options.LedBox = true
		case "lambrequin":
			if value == "" {
				value = string(engine.LambrequinFixe)
			}
			t, err := engine.ParseLambrequinType(value)
			if err != nil {
				return Selection{}, fmt.Errorf("%w: %s", ErrUnknownToken, raw)
			}
			lambrequin.Type = t
		case "enroulable":
			lambrequin.Type = engine.LambrequinEnroulable
		case "motorise", "motorisé":
			lambrequin.Motorized = true
		case "pose", "pose-pro":
			sel.Options.PosePro = true
		case "couleur", "ral":
			sel.Options.CustomColor = true
		case "plafond":
			sel.Options.PosePlafond = true
		case "modeles", "modèles":
			for _, id := range strings.Split(value, ",") {
				if id = strings.TrimSpace(id); id != "" {
					sel.Preferred = append(sel.Preferred, id)
				}
			}
		default:
			return Selection{}, fmt.Errorf("%w: %s", ErrUnknownToken, raw)
		}
	}

	if lambrequin.Motorized && lambrequin.Type == engine.LambrequinNone {
		lambrequin.Type = engine.LambrequinEnroulable
	}
	sel.Options = lambrequin.Apply(sel.Options)
	return sel, nil
}

// QuoteArgs is a parsed /devis or /bras command.
type QuoteArgs struct {
	ModelID   string
	WidthCm   int
	DepthCm   int
	Selection Selection
}

func ParseQuoteArgs(args []string) (QuoteArgs, error) {
	if len(args) < 3 {
		return QuoteArgs{}, ErrMissingArgs
	}
	w, err := ParseSizeCm(args[1])
	if err != nil {
		return QuoteArgs{}, err
	}
	d, err := ParseSizeCm(args[2])
	if err != nil {
		return QuoteArgs{}, err
	}
	sel, err := ParseOptions(args[3:])
	if err != nil {
		return QuoteArgs{}, err
	}
	return QuoteArgs{ModelID: strings.ToLower(args[0]), WidthCm: w, DepthCm: d, Selection: sel}, nil
}

// CompareArgs is a parsed /comparer command.
type CompareArgs struct {
	WidthCm   int
	DepthCm   int
	Selection Selection
}

func ParseCompareArgs(args []string) (CompareArgs, error) {
	if len(args) < 2 {
		return CompareArgs{}, ErrMissingArgs
	}
	w, err := ParseSizeCm(args[0])
	if err != nil {
		return CompareArgs{}, err
	}
	d, err := ParseSizeCm(args[1])
	if err != nil {
		return CompareArgs{}, err
	}
	sel, err := ParseOptions(args[2:])
	if err != nil {
		return CompareArgs{}, err
	}
	return CompareArgs{WidthCm: w, DepthCm: d, Selection: sel}, nil
}

// CoefArgs is a parsed /coef command. Reset means delete the override.
type CoefArgs struct {
	ModelID string
	Option  catalog.OptionKey
	Value   float64
	Reset   bool
}

var coefOptions = map[catalog.OptionKey]bool{
	catalog.OptionBase:                 true,
	catalog.OptionLedArms:              true,
	catalog.OptionLedCassette:          true,
	catalog.OptionLambrequinFixe:       true,
	catalog.OptionLambrequinEnroulable: true,
	catalog.OptionCeilingMount:         true,
	catalog.OptionAuvent:               true,
	catalog.OptionFabric:               true,
	catalog.OptionFrameColorCustom:     true,
	catalog.OptionInstallation:         true,
}

func ParseCoefArgs(args []string) (CoefArgs, error) {
	if len(args) != 3 {
		return CoefArgs{}, ErrMissingArgs
	}
	opt := catalog.OptionKey(strings.ToUpper(args[1]))
	if !coefOptions[opt] {
		return CoefArgs{}, fmt.Errorf("%w: %s", ErrUnknownToken, args[1])
	}
	out := CoefArgs{ModelID: strings.ToLower(args[0]), Option: opt}

	if strings.EqualFold(args[2], "reset") {
		out.Reset = true
		return out, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(args[2], ",", "."), 64)
	if err != nil || v <= 0 {
		return CoefArgs{}, fmt.Errorf("coefficient must be a positive number, got %q", args[2])
	}
	out.Value = v
	return out, nil
}
