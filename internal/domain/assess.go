package domain

import (
	"sort"
	"time"
)

// Assess runs the full engine for one location: resolve families, fuse the
// profile, detect windows, evaluate the rule tables, cross-check agreement,
// per-variant verdicts, and ensemble spread, then resolve score and status.
// It is a total function: even a fully-null input yields a valid Assessment
// (status no-data). Assessments for different locations share no state and
// may be computed in parallel by the caller.
func Assess(in AssessmentInput) Assessment {
	resolved := ResolveFamilies(in.Families)

	profile := BuildProfile(resolved, in.Site)
	thermal := DetectThermalWindow(profile)
	flyable := DetectFlyableWindow(profile)
	flags, positives := EvaluateRules(profile, in.Site, thermal, flyable)

	agreement := EvaluateAgreement(resolved[FamilyICON], resolved[FamilyECMWF])
	verdicts := ClassifyVariants(resolved, in.Site)
	ensembles := SummarizeEnsembles(in.Ensembles)

	baseScore := BaseScore(thermal.Duration)
	score := Score(baseScore, flags, positives)
	provisional := ProvisionalStatus(score)

	status, tags := ResolveStatus(provisional, &cascadeContext{
		flags:        flags,
		positives:    positives,
		thermal:      thermal,
		baseAtRef:    profile.Value(ReferenceHour, ParamCloudBaseMSL),
		disagreement: CheckDisagreement(verdicts),
		confidence:   agreement.Confidence,
		windSpread:   WindSpreadSignal(ensembles),
		energySpread: EnergySpreadSignal(ensembles),
	})

	return Assessment{
		Site:        in.Site,
		TargetDate:  in.TargetDate,
		Resolved:    resolved,
		Profile:     profile,
		Thermal:     thermal,
		Flyable:     flyable,
		Flags:       flags,
		Positives:   positives,
		Agreement:   agreement,
		Verdicts:    verdicts,
		Ensembles:   ensembles,
		BaseScore:   baseScore,
		Score:       score,
		Provisional: provisional,
		Status:      status,
		Tags:        tags,
		GeneratedAt: clock.Now().UTC(),
	}
}

// Rank orders assessments best-first by status, ties broken by site id for
// determinism.
func Rank(assessments []Assessment) {
	sort.SliceStable(assessments, func(i, j int) bool {
		ri, rj := assessments[i].Status.Rank(), assessments[j].Status.Rank()
		if ri != rj {
			return ri < rj
		}
		return assessments[i].Site.ID < assessments[j].Site.ID
	})
}

// NextSaturday returns the upcoming Saturday in the given location as
// YYYY-MM-DD. A Saturday today counts as upcoming.
func NextSaturday(loc *time.Location) string {
	today := clock.Now().In(loc)
	days := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, days).Format("2006-01-02")
}
