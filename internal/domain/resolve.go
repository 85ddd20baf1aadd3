package domain

// ResolveFamily walks one family's ordered fallback chain and returns the
// first variant whose series carries usable data. Errored attempts and empty
// series are skipped. When every variant failed, the family resolves to
// unavailable, a first-class state rather than an error: its parameters are
// null for the whole run.
func ResolveFamily(family string, outcomes []VariantOutcome) ResolvedFamily {
	for _, o := range outcomes {
		if o.Err != nil || o.Series.Empty() {
			continue
		}
		return ResolvedFamily{
			Family:    family,
			Variant:   o.Variant,
			Series:    o.Series,
			Available: true,
		}
	}
	return ResolvedFamily{Family: family}
}

// ResolveFamilies resolves every family in the input independently.
// Families absent from the input resolve to unavailable.
func ResolveFamilies(families map[string][]VariantOutcome) map[string]ResolvedFamily {
	resolved := make(map[string]ResolvedFamily, 3)
	for _, family := range []string{FamilyICON, FamilyECMWF, FamilyGFS} {
		resolved[family] = ResolveFamily(family, families[family])
	}
	return resolved
}
