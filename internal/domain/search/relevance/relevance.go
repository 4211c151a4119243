// Package relevance holds BM25+ ranking parameters.
package relevance

// Default BM25+ parameters.
const (
	DefaultK = 1.2
	DefaultB = 0.75
	DefaultD = 0.5
)

// Params is a possibly partial set of BM25+ parameters. A nil field is unset.
type Params struct {
	K *float64 `json:"k,omitempty" yaml:"k,omitempty"`
	B *float64 `json:"b,omitempty" yaml:"b,omitempty"`
	D *float64 `json:"d,omitempty" yaml:"d,omitempty"`
}

// Resolved is a complete set of BM25+ parameters.
type Resolved struct {
	K float64
	B float64
	D float64
}

// Defaults returns the engine default parameters.
func Defaults() Resolved {
	return Resolved{K: DefaultK, B: DefaultB, D: DefaultD}
}

// Resolve fills every unset field with its default. Explicit values,
// zero included, are kept.
func Resolve(p *Params) Resolved {
	out := Defaults()
	if p == nil {
		return out
	}
	if p.K != nil {
		out.K = *p.K
	}
	if p.B != nil {
		out.B = *p.B
	}
	if p.D != nil {
		out.D = *p.D
	}
	return out
}
