package routing

// Transform is a linear value transform applied to a routed signal.
//
// Application order: invert, scale, offset, then clamp. A zero Transform
// is the identity. Invert negates the raw value, which suits both signed
// analog signals and 0-centred control values; digital inversion is
// expressed as Scale=-1, Offset=1.
type Transform struct {
	Invert bool     `json:"invert,omitempty"`
	Scale  *float64 `json:"scale,omitempty"`
	Offset *float64 `json:"offset,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// IsZero reports whether the transform is the identity.
func (t *Transform) IsZero() bool {
	return t == nil || (!t.Invert && t.Scale == nil && t.Offset == nil && t.Min == nil && t.Max == nil)
}

// Apply computes the transformed value. A nil transform is the identity.
func (t *Transform) Apply(v float64) float64 {
	if t == nil {
		return v
	}
	if t.Invert {
		v = -v
	}
	if t.Scale != nil {
		v *= *t.Scale
	}
	if t.Offset != nil {
		v += *t.Offset
	}
	if t.Min != nil && v < *t.Min {
		v = *t.Min
	}
	if t.Max != nil && v > *t.Max {
		v = *t.Max
	}
	return v
}
