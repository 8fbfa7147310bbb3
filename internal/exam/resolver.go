package exam

import "sort"

// Resolver maps exam variant codes to career paths. Unknown variants fall
// back to a fixed path.
type Resolver struct {
	table    map[string]CareerPath
	fallback CareerPath
}

// NewResolver builds a resolver from a variant table. Keys are normalized;
// the table is copied so later edits by the caller have no effect.
func NewResolver(table map[string]CareerPath, fallback CareerPath) *Resolver {
	copied := make(map[string]CareerPath, len(table))
	for variant, path := range table {
		copied[NormalizeVariant(variant)] = path
	}
	return &Resolver{table: copied, fallback: fallback}
}

// DefaultVariants returns the standard variant table.
func DefaultVariants() map[string]CareerPath {
	return map[string]CareerPath{
		"M": PathA, "N": PathA,
		"O": PathB, "X": PathB,
		"Y": PathC, "Z": PathC,
	}
}

// DefaultResolver resolves the standard variants and falls back to Humanidades.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultVariants(), PathB)
}

// Resolve returns the career path for a variant. The boolean is false when
// the variant is unknown and the fallback path was used.
func (r *Resolver) Resolve(variant string) (CareerPath, bool) {
	if p, ok := r.table[NormalizeVariant(variant)]; ok {
		return p, true
	}
	return r.fallback, false
}

// Fallback returns the path used for unknown variants.
func (r *Resolver) Fallback() CareerPath {
	return r.fallback
}

// Variants returns the variant codes assigned to a path.
func (r *Resolver) Variants(p CareerPath) []string {
	var out []string
	for variant, path := range r.table {
		if path == p {
			out = append(out, variant)
		}
	}
	sort.Strings(out)
	return out
}
