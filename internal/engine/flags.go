package engine

import "fmt"

type optionFlag struct {
	c   byte
	ptr func(*Options) *bool
}

var optionFlags = []optionFlag{
	{'a', func(o *Options) *bool { return &o.LedArms }},
	{'b', func(o *Options) *bool { return &o.LedBox }},
	{'f', func(o *Options) *bool { return &o.LambrequinFixe }},
	{'e', func(o *Options) *bool { return &o.LambrequinEnroulable }},
	{'m', func(o *Options) *bool { return &o.LambrequinMotorized }},
	{'p', func(o *Options) *bool { return &o.PosePro }},
	{'c', func(o *Options) *bool { return &o.CustomColor }},
	{'l', func(o *Options) *bool { return &o.PosePlafond }},
}

// Flags encodes the selected options as a compact letter string, "-"
// when none are set. ParseFlags reverses it.
func (o Options) Flags() string {
	out := make([]byte, 0, len(optionFlags))
	for _, f := range optionFlags {
		if *f.ptr(&o) {
			out = append(out, f.c)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return string(out)
}

func ParseFlags(s string) (Options, error) {
	var o Options
	if s == "-" || s == "" {
		return o, nil
	}
next:
	for i := 0; i < len(s); i++ {
		for _, f := range optionFlags {
			if f.c == s[i] {
				*f.ptr(&o) = true
				continue next
			}
		}
		return Options{}, fmt.Errorf("unknown option flag %q", s[i])
	}
	return o, nil
}
