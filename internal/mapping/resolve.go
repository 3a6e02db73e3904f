package mapping

import "slices"

// Provenance records why a default was chosen. It drives console feedback
// only and has no effect on transformation.
type Provenance int

const (
	NoMatch Provenance = iota
	FromStore
	AutoMatched
)

func (p Provenance) String() string {
	switch p {
	case FromStore:
		return "store"
	case AutoMatched:
		return "auto"
	default:
		return "none"
	}
}

// Resolve picks the effective entry for one target column.
//
// Precedence: a stored constant, then a stored column reference that still
// exists in sourceHeaders, then an auto-match, then unmapped. A stored
// reference to a vanished source column is ignored rather than reported.
func Resolve(target string, persisted *Config, sourceHeaders []string) (Entry, Provenance) {
	if e, ok := persisted.Lookup(target); ok {
		switch e.Kind {
		case KindConstant:
			return e, FromStore
		case KindColumn:
			if slices.Contains(sourceHeaders, e.Value) {
				return e, FromStore
			}
		}
	}

	if s, ok := Suggest(target, sourceHeaders); ok {
		return ColumnRef(s, FormatGeneral), AutoMatched
	}

	return Unmapped(), NoMatch
}

// Resolution is the live mapping for one run together with per-target provenance.
type Resolution struct {
	Config     *Config
	Provenance map[string]Provenance
}

// ResolveAll resolves every target header and returns the live mapping.
// persisted may be nil when nothing is stored for the vendor.
func ResolveAll(vendor string, targets []string, persisted *Config, sourceHeaders []string) *Resolution {
	res := &Resolution{
		Config:     NewConfig(vendor),
		Provenance: make(map[string]Provenance, len(targets)),
	}

	for _, t := range targets {
		e, p := Resolve(t, persisted, sourceHeaders)
		res.Config.Set(t, e)
		res.Provenance[t] = p
	}

	return res
}

// Count returns how many targets resolved with provenance p.
func (r *Resolution) Count(p Provenance) int {
	n := 0

	for _, v := range r.Provenance {
		if v == p {
			n++
		}
	}

	return n
}
