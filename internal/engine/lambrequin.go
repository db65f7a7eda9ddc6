package engine

import "fmt"

type LambrequinType string

const (
	LambrequinNone       LambrequinType = "none"
	LambrequinFixe       LambrequinType = "fixe"
	LambrequinEnroulable LambrequinType = "enroulable"
)

// Fixed valances default to a 22cm drop.
const defaultLambrequinHeight = 220

// LambrequinChoice is the valance a customer picked.
type LambrequinChoice struct {
	Type      LambrequinType
	Motorized bool
	// Height in millimetres, fixed valances only.
	Height int
}

func ParseLambrequinType(s string) (LambrequinType, error) {
	switch t := LambrequinType(s); t {
	case "", LambrequinNone:
		return LambrequinNone, nil
	case LambrequinFixe, LambrequinEnroulable:
		return t, nil
	}
	return "", fmt.Errorf("unknown lambrequin type %q", s)
}

// Apply sets the lambrequin flags of opts for this choice.
func (c LambrequinChoice) Apply(opts Options) Options {
	opts.LambrequinFixe = c.Type == LambrequinFixe
	opts.LambrequinEnroulable = c.Type == LambrequinEnroulable
	opts.LambrequinMotorized = c.Type == LambrequinEnroulable && c.Motorized
	return opts
}

// DropHeight is the valance height in millimetres, zero for none.
func (c LambrequinChoice) DropHeight() int {
	if c.Type != LambrequinFixe {
		return 0
	}
	if c.Height > 0 {
		return c.Height
	}
	return defaultLambrequinHeight
}
