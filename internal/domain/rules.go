package domain

import "fmt"

// ruleContext exposes the fused profile to rule rows through window
// aggregates (09:00–18:00, nulls skipped) and reference-hour samples.
type ruleContext struct {
	profile HourlyProfile
	site    Site
	thermal ThermalWindow
	flyable FlyableWindow
}

// window collects the non-null values of a parameter over the 09:00–18:00
// sub-range, in hour order.
func (rc *ruleContext) window(p Param) []float64 {
	var out []float64
	for h := WindowStartHour; h <= WindowEndHour; h++ {
		if v := rc.profile.Value(h, p); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// atRef returns the parameter's fused value at the reference hour, or nil.
func (rc *ruleContext) atRef(p Param) *float64 {
	return rc.profile.Value(ReferenceHour, p)
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// ruleRow is one row of the declarative flag/positive table. Rows are
// evaluated independently and may co-occur; a row whose inputs are entirely
// null does not fire.
type ruleRow struct {
	id       string
	category Category
	weight   int
	fire     func(rc *ruleContext) (bool, string)
}

// Flag rule table. The gust flag (GUSTS_HIGH) aggregates by mean over the
// window: it gauges sustained safety margin, while the max-aggregated
// GUST_FACTOR row separately covers short turbulence spikes.
var flagRules = []ruleRow{
	{
		id: "SUSTAINED_WIND_700", category: CategoryCritical, weight: 3,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamWindspeed700)
			if len(w) == 0 || mean(w) <= 5.0 {
				return false, ""
			}
			return true, fmt.Sprintf("mean %.1f m/s over window > 5.0 (closed route threshold)", mean(w))
		},
	},
	{
		id: "GUSTS_HIGH", category: CategoryCritical, weight: 3,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamWindgusts10m)
			if len(w) == 0 || mean(w) <= 10.0 {
				return false, ""
			}
			return true, fmt.Sprintf("mean %.1f m/s > 10.0 in window", mean(w))
		},
	},
	{
		id: "PRECIP_13", category: CategoryCritical, weight: 3,
		fire: func(rc *ruleContext) (bool, string) {
			v := rc.atRef(ParamPrecipitation)
			if v == nil || *v <= 0.5 {
				return false, ""
			}
			return true, fmt.Sprintf("%.1f mm/h @13:00", *v)
		},
	},
	{
		id: "NO_FLYABLE_WINDOW", category: CategoryCritical, weight: 3,
		fire: func(rc *ruleContext) (bool, string) {
			if rc.flyable.Duration > 0 {
				return false, ""
			}
			return true, "no continuous flyable hour detected"
		},
	},
	{
		id: "LOW_BASE", category: CategoryMajor, weight: 2,
		fire: func(rc *ruleContext) (bool, string) {
			bases := rc.window(ParamCloudBaseMSL)
			if len(bases) == 0 {
				return false, ""
			}
			minBase := minOf(bases)
			margin := minBase - rc.site.PeaksElevation
			if margin >= 1000 {
				return false, ""
			}
			return true, fmt.Sprintf("min base %.0fm MSL, margin %.0fm < 1000m over %.0fm peaks",
				minBase, margin, rc.site.PeaksElevation)
		},
	},
	{
		id: "OVERCAST", category: CategoryMinor, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			v := rc.atRef(ParamCloudcover)
			if v == nil || *v <= 80 {
				return false, ""
			}
			return true, fmt.Sprintf("%.0f%% @13:00", *v)
		},
	},
	{
		id: "STABLE", category: CategoryMinor, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamLapseRate)
			if len(w) == 0 || mean(w) >= 5.5 {
				return false, ""
			}
			return true, fmt.Sprintf("mean lapse %.1f°C/km < 5.5 (weak thermals)", mean(w))
		},
	},
	{
		id: "SHORT_WINDOW", category: CategoryMinor, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			d := rc.thermal.Duration
			if d <= 0 || d >= 5 {
				return false, ""
			}
			return true, fmt.Sprintf("thermal window %dh < 5h", d)
		},
	},
	{
		id: "GUST_FACTOR", category: CategoryMinor, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamGustFactor)
			if len(w) == 0 || maxOf(w) <= 7.0 {
				return false, ""
			}
			return true, fmt.Sprintf("max gust−mean %.1f m/s (turbulence risk)", maxOf(w))
		},
	},
	{
		id: "HIGH_CAPE", category: CategoryDanger, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamCAPE)
			if len(w) == 0 || maxOf(w) <= 1500 {
				return false, ""
			}
			return true, fmt.Sprintf("max %.0f J/kg — overdevelopment risk", maxOf(w))
		},
	},
	{
		id: "CAPE_RISING", category: CategoryDanger, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamCAPE)
			if len(w) < 4 || maxOf(w) <= 1500 {
				return false, ""
			}
			early := mean(w[:2])
			late := mean(w[len(w)-2:])
			if late <= early*1.5 || late <= 800 {
				return false, ""
			}
			return true, fmt.Sprintf("CAPE rising: %.0f→%.0f J/kg", early, late)
		},
	},
	{
		id: "VERY_UNSTABLE", category: CategoryDanger, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			v := rc.atRef(ParamLiftedIndex)
			if v == nil || *v >= -4 {
				return false, ""
			}
			return true, fmt.Sprintf("LI=%.1f — storm risk", *v)
		},
	},
}

// Positive rule table. Positives always add to the score, never subtract.
var positiveRules = []ruleRow{
	{
		id: "STRONG_LAPSE", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamLapseRate)
			if len(w) == 0 || maxOf(w) <= 7.0 {
				return false, ""
			}
			return true, fmt.Sprintf("max %.1f°C/km", maxOf(w))
		},
	},
	{
		id: "GOOD_CAPE", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamCAPE)
			if len(w) == 0 {
				return false, ""
			}
			peak := maxOf(w)
			if peak <= 300 || peak >= 1500 {
				return false, ""
			}
			return true, fmt.Sprintf("peak %.0f J/kg", peak)
		},
	},
	{
		id: "DEEP_BL", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamBoundaryLayer)
			if len(w) == 0 || maxOf(w) <= 1500 {
				return false, ""
			}
			return true, fmt.Sprintf("max %.0fm", maxOf(w))
		},
	},
	{
		id: "VERY_HIGH_BASE", category: CategoryPositive, weight: 2,
		fire: func(rc *ruleContext) (bool, string) {
			bases := rc.window(ParamCloudBaseMSL)
			if len(bases) == 0 || maxOf(bases) <= 3500 {
				return false, ""
			}
			maxBase := maxOf(bases)
			return true, fmt.Sprintf("max %.0fm MSL (+%.0fm over peaks)", maxBase, maxBase-rc.site.PeaksElevation)
		},
	},
	{
		id: "HIGH_BASE", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			bases := rc.window(ParamCloudBaseMSL)
			if len(bases) == 0 {
				return false, ""
			}
			maxBase := maxOf(bases)
			margin := maxBase - rc.site.PeaksElevation
			if margin <= 1500 {
				return false, ""
			}
			return true, fmt.Sprintf("max %.0fm MSL (+%.0fm over peaks)", maxBase, margin)
		},
	},
	{
		id: "LONG_WINDOW", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			if rc.thermal.Duration < 7 {
				return false, ""
			}
			return true, fmt.Sprintf("%dh thermal window", rc.thermal.Duration)
		},
	},
	{
		id: "CLEAR_SKY", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			v := rc.atRef(ParamCloudcover)
			if v == nil || *v >= 30 {
				return false, ""
			}
			return true, fmt.Sprintf("%.0f%% @13:00", *v)
		},
	},
	{
		id: "GOOD_WSTAR", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamWStar)
			if len(w) == 0 || maxOf(w) < 1.5 {
				return false, ""
			}
			return true, fmt.Sprintf("max W*=%.1f m/s", maxOf(w))
		},
	},
	{
		id: "STRONG_SUN", category: CategoryPositive, weight: 1,
		fire: func(rc *ruleContext) (bool, string) {
			w := rc.window(ParamShortwave)
			if len(w) == 0 || maxOf(w) <= 600 {
				return false, ""
			}
			return true, fmt.Sprintf("max SW radiation %.0f W/m²", maxOf(w))
		},
	},
}

// EvaluateRules runs the declarative rule tables against the fused profile
// and returns the fired flags and positives. The single declared exclusivity
// is applied as a post-pass: VERY_HIGH_BASE suppresses HIGH_BASE when both
// thresholds are met.
func EvaluateRules(profile HourlyProfile, site Site, thermal ThermalWindow, flyable FlyableWindow) (flags, positives []Flag) {
	rc := &ruleContext{profile: profile, site: site, thermal: thermal, flyable: flyable}

	for _, row := range flagRules {
		if fired, detail := row.fire(rc); fired {
			flags = append(flags, Flag{ID: row.id, Category: row.category, Weight: row.weight, Detail: detail})
		}
	}
	for _, row := range positiveRules {
		if fired, detail := row.fire(rc); fired {
			positives = append(positives, Flag{ID: row.id, Category: row.category, Weight: row.weight, Detail: detail})
		}
	}

	positives = applyBaseExclusivity(positives)
	return flags, positives
}

// applyBaseExclusivity keeps only the stronger of the VERY_HIGH_BASE /
// HIGH_BASE pair when both fired.
func applyBaseExclusivity(positives []Flag) []Flag {
	veryHigh := false
	for _, p := range positives {
		if p.ID == "VERY_HIGH_BASE" {
			veryHigh = true
			break
		}
	}
	if !veryHigh {
		return positives
	}
	out := positives[:0]
	for _, p := range positives {
		if p.ID == "HIGH_BASE" {
			continue
		}
		out = append(out, p)
	}
	return out
}
