package domain

import (
	"fmt"
	"strings"
)

// hardBaseFloorMSL is the fused reference-hour cloud base below which a
// good/great day is capped at maybe.
const hardBaseFloorMSL = 2000.0

// BaseScore is the step function of thermal-window duration that anchors
// the score: the window size is the primary criterion.
func BaseScore(thermalHours int) int {
	switch {
	case thermalHours == 0:
		return -6
	case thermalHours <= 2:
		return -2
	case thermalHours <= 4:
		return 1
	case thermalHours <= 6:
		return 4
	default:
		return 6
	}
}

// Score sums the base score with the weighted flag deductions and positive
// bonuses. Weights are carried on the flags themselves (critical 3, major 2,
// minor/danger 1; positives 1, VERY_HIGH_BASE 2).
func Score(baseScore int, flags, positives []Flag) int {
	score := baseScore
	for _, f := range flags {
		score -= f.Weight
	}
	for _, p := range positives {
		score += p.Weight
	}
	return score
}

// ProvisionalStatus maps a score into the fixed status bands.
func ProvisionalStatus(score int) Status {
	switch {
	case score <= -5:
		return StatusReject
	case score <= -2:
		return StatusUnlikely
	case score <= 1:
		return StatusMaybe
	case score <= 4:
		return StatusGood
	default:
		return StatusGreat
	}
}

// cascadeContext is everything the hard rules may inspect.
type cascadeContext struct {
	flags        []Flag
	positives    []Flag
	thermal      ThermalWindow
	baseAtRef    *float64 // fused cloud_base_msl at the reference hour
	disagreement *Disagreement
	confidence   Confidence
	windSpread   []EnsembleSummary
	energySpread []EnsembleSummary
}

func (cx *cascadeContext) count(cat Category) int {
	n := 0
	for _, f := range cx.flags {
		if f.Category == cat {
			n++
		}
	}
	return n
}

func (cx *cascadeContext) has(id string) bool {
	for _, f := range cx.flags {
		if f.ID == id {
			return true
		}
	}
	return false
}

func topTier(s Status) bool {
	return s == StatusGood || s == StatusGreat
}

// hardRule is one entry of the ordered downgrade-only cascade: a predicate
// over the current status, the downgrade target, and the tag it attaches.
type hardRule struct {
	tag  string
	fire func(cx *cascadeContext, cur Status) (target Status, detail string, fired bool)
}

// hardRules is the fixed cascade order. Every target is at or below the
// statuses its predicate accepts, so the sequence can only move the status
// down the ordering; re-applying it to its own output changes nothing.
var hardRules = []hardRule{
	{
		tag: "MULTIPLE_CRITICAL",
		fire: func(cx *cascadeContext, _ Status) (Status, string, bool) {
			nCrit := cx.count(CategoryCritical)
			if nCrit >= 2 || (nCrit >= 1 && cx.has("LOW_BASE")) {
				return StatusReject, fmt.Sprintf("%d critical flags", nCrit), true
			}
			return "", "", false
		},
	},
	{
		tag: "CRITICAL_CAP",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if cx.count(CategoryCritical) >= 1 && topTier(cur) {
				return StatusMaybe, "critical flag present", true
			}
			return "", "", false
		},
	},
	{
		tag: "HARD_LOW_BASE",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if cx.baseAtRef != nil && *cx.baseAtRef < hardBaseFloorMSL && topTier(cur) {
				return StatusMaybe, fmt.Sprintf("base %.0fm MSL @13:00 < %.0fm", *cx.baseAtRef, hardBaseFloorMSL), true
			}
			return "", "", false
		},
	},
	{
		tag: "SHORT_THERMAL",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if cx.thermal.Duration <= 2 && topTier(cur) {
				return StatusMaybe, fmt.Sprintf("thermal window %dh ≤ 2h", cx.thermal.Duration), true
			}
			return "", "", false
		},
	},
	{
		tag: "MODEL_DISAGREEMENT",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if cx.disagreement == nil || !topTier(cur) {
				return "", "", false
			}
			target := StatusMaybe
			if cx.disagreement.Rejected {
				target = StatusUnlikely
			}
			return target, strings.Join(cx.disagreement.Variants, ", ") + " → no-fly/unlikely", true
		},
	},
	{
		tag: "LOW_CONFIDENCE",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if cx.confidence == ConfidenceLow && topTier(cur) {
				return StatusMaybe, "model agreement LOW", true
			}
			return "", "", false
		},
	},
	{
		tag: "ENSEMBLE_WIND_SPREAD",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if len(cx.windSpread) == 0 || !topTier(cur) {
				return "", "", false
			}
			return StatusMaybe, spreadDetail(cx.windSpread, ParamWindspeed10m, "wind spread %.1f m/s"), true
		},
	},
	{
		tag: "ENSEMBLE_CAPE_SPREAD",
		fire: func(cx *cascadeContext, cur Status) (Status, string, bool) {
			if len(cx.energySpread) == 0 || !topTier(cur) {
				return "", "", false
			}
			return StatusMaybe, spreadDetail(cx.energySpread, ParamCAPE, "CAPE spread %.0f J/kg"), true
		},
	},
	{
		tag: "NO_DATA",
		fire: func(cx *cascadeContext, _ Status) (Status, string, bool) {
			// Major and danger flags do not block: a half-null profile can
			// still fire LOW_BASE while carrying no flyable signal at all.
			usable := cx.count(CategoryCritical) + cx.count(CategoryMinor) + len(cx.positives)
			if usable == 0 && cx.thermal.Duration == 0 {
				return StatusNoData, "no usable signal in any source", true
			}
			return "", "", false
		},
	},
}

func spreadDetail(summaries []EnsembleSummary, p Param, format string) string {
	parts := make([]string, 0, len(summaries))
	for _, s := range summaries {
		parts = append(parts, s.Source+" "+fmt.Sprintf(format, s.Stats[p].Spread))
	}
	return strings.Join(parts, "; ")
}

// ResolveStatus applies the ordered hard-rule cascade to the provisional
// status. The cascade is downgrade-only: no rule ever raises the status, and
// reapplying it to its own output is a no-op. The no-data rule is the one
// exception to the ordering: it overrides everything with the distinct
// terminal value.
func ResolveStatus(provisional Status, cx *cascadeContext) (Status, []CascadeTag) {
	status := provisional
	var tags []CascadeTag
	for _, rule := range hardRules {
		target, detail, fired := rule.fire(cx, status)
		if !fired {
			continue
		}
		if target == StatusNoData || target.Rank() > status.Rank() {
			status = target
			tags = append(tags, CascadeTag{Rule: rule.tag, Detail: detail})
		}
	}
	return status, tags
}
