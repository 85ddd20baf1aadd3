package domain

// ClassifyVariants runs every resolved deterministic variant through the
// coarse four-tier classifier, each on its own series independently of the
// fused profile. The results feed the model-disagreement hard rule.
func ClassifyVariants(resolved map[string]ResolvedFamily, site Site) []ModelVerdict {
	var verdicts []ModelVerdict
	for _, family := range []string{FamilyICON, FamilyECMWF, FamilyGFS} {
		fam := resolved[family]
		if !fam.Available {
			continue
		}
		verdicts = append(verdicts, classifyVariant(fam, site))
	}
	return verdicts
}

// classifyVariant builds a single-source profile from one variant's series
// and classifies it on its own reference-hour precipitation, thermal and
// flyable hour counts, and mid-level wind mean.
func classifyVariant(fam ResolvedFamily, site Site) ModelVerdict {
	profile := profileFromSeries(fam, site)
	thermal := detectOwnThermalWindow(profile, fam)
	flyable := DetectFlyableWindow(profile)

	rc := &ruleContext{profile: profile, site: site}
	winds700 := rc.window(ParamWindspeed700)
	highWind := len(winds700) > 0 && mean(winds700) > 5.0

	precip13 := profile.Value(ReferenceHour, ParamPrecipitation)
	hasPrecip := precip13 != nil && *precip13 > 0.5

	verdict := VerdictGo
	switch {
	case hasPrecip || flyable.Duration == 0 || highWind:
		verdict = VerdictReject
	case thermal.Duration <= 2 || flyable.Duration < 4:
		verdict = VerdictUnlikely
	case thermal.Duration <= 4:
		verdict = VerdictMaybe
	}

	return ModelVerdict{
		Variant:      fam.Variant,
		Family:       fam.Family,
		ThermalHours: thermal.Duration,
		FlyableHours: flyable.Duration,
		Verdict:      verdict,
	}
}

// profileFromSeries builds an hourly profile from a single variant, with
// derived fields computed from that variant's own values only.
func profileFromSeries(fam ResolvedFamily, site Site) HourlyProfile {
	hours := AnalysisHours()
	profile := HourlyProfile{Hours: make([]ProfileHour, 0, len(hours))}
	for _, h := range hours {
		fields := make(map[Param]FusedValue)
		for _, p := range sharedParams {
			fields[p] = fuseExclusive(fam, h, p)
		}
		for _, p := range gfsOnlyParams {
			fields[p] = fuseExclusive(fam, h, p)
		}
		fields[ParamUpdraft] = fuseExclusive(fam, h, ParamUpdraft)
		addDerivedFields(fields, site)
		profile.Hours = append(profile.Hours, ProfileHour{Hour: h, Fields: fields})
	}
	return profile
}

// detectOwnThermalWindow is the per-variant thermal window. Variants whose
// vocabulary lacks boundary-layer height can never compute wstar, so a
// fully-absent wstar is treated as non-disqualifying for that variant:
// otherwise every icon/ecmwf variant would classify unlikely structurally
// and the disagreement rule would fire on every good day. Variants that do
// carry wstar keep the strict criterion.
func detectOwnThermalWindow(profile HourlyProfile, fam ResolvedFamily) ThermalWindow {
	hasWStar := false
	for h := WindowStartHour; h <= WindowEndHour; h++ {
		if profile.Value(h, ParamWStar) != nil {
			hasWStar = true
			break
		}
	}
	if hasWStar {
		return DetectThermalWindow(profile)
	}

	start, length := longestRun(profile, func(p HourlyProfile, h int) bool {
		if v := p.Value(h, ParamPrecipitation); v != nil && *v > thermalMaxPrecip {
			return false
		}
		if v := p.Value(h, ParamCloudBaseMSL); v != nil && *v < thermalMinBaseMSL {
			return false
		}
		if v := p.Value(h, ParamCloudcover); v != nil && *v >= thermalMaxCloud {
			return false
		}
		// Require at least solar input as lift evidence when wstar is
		// unavailable for the variant.
		if v := p.Value(h, ParamShortwave); v == nil || *v <= 10 {
			return false
		}
		return true
	})
	if length == 0 {
		return ThermalWindow{}
	}
	return ThermalWindow{StartHour: start, EndHour: start + length - 1, PeakHour: start, Duration: length}
}

// Disagreement inspects the per-variant verdicts against the fused
// provisional status: any variant at reject or unlikely while the fused
// status sits in the top two tiers raises the disagreement signal.
type Disagreement struct {
	Variants []string
	Rejected bool
}

// CheckDisagreement returns the disagreement signal, or nil when no variant
// disagrees.
func CheckDisagreement(verdicts []ModelVerdict) *Disagreement {
	var d Disagreement
	for _, v := range verdicts {
		if v.Verdict == VerdictReject || v.Verdict == VerdictUnlikely {
			d.Variants = append(d.Variants, v.Variant)
			if v.Verdict == VerdictReject {
				d.Rejected = true
			}
		}
	}
	if len(d.Variants) == 0 {
		return nil
	}
	return &d
}
