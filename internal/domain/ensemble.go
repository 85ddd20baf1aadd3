package domain

import "sort"

// ensembleParams are the parameters summarized per ensemble source.
var ensembleParams = []Param{
	ParamTemperature2m, ParamWindspeed10m, ParamWindgusts10m,
	ParamCloudcover, ParamPrecipitation, ParamCAPE,
	ParamWindspeed850,
}

// Ensemble spread thresholds for the dedicated downgrade signals.
const (
	ensembleWindSpreadMax   = 5.0    // m/s, windspeed_10m
	ensembleEnergySpreadMax = 1000.0 // J/kg, cape
)

// SummarizeEnsembles computes reference-hour member statistics for every
// available ensemble source.
func SummarizeEnsembles(series []EnsembleSeries) []EnsembleSummary {
	var out []EnsembleSummary
	for _, es := range series {
		if s := summarizeEnsemble(es); len(s.Stats) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// summarizeEnsemble collects each parameter's non-null member values at the
// reference hour and derives p10/p50/p90 and spread. Parameters with fewer
// than three reporting members yield no statistics.
func summarizeEnsemble(es EnsembleSeries) EnsembleSummary {
	summary := EnsembleSummary{Source: es.Source, Stats: make(map[Param]EnsembleStats)}

	refIdx := -1
	for i, h := range es.Hours {
		if h == ReferenceHour {
			refIdx = i
			break
		}
	}
	if refIdx < 0 {
		return summary
	}

	for _, p := range ensembleParams {
		var vals []float64
		for _, member := range es.Members[p] {
			if refIdx < len(member) && member[refIdx] != nil {
				vals = append(vals, *member[refIdx])
			}
		}
		if len(vals) < 3 {
			continue
		}
		sort.Float64s(vals)
		n := len(vals)
		i10 := int(float64(n) * 0.1)
		i90 := int(float64(n) * 0.9)
		if i90 > n-1 {
			i90 = n - 1
		}
		summary.Stats[p] = EnsembleStats{
			P10:     vals[i10],
			P50:     vals[n/2],
			P90:     vals[i90],
			Spread:  vals[i90] - vals[i10],
			Members: n,
		}
	}
	return summary
}

// WindSpreadSignal reports ensemble sources whose 10 m wind spread exceeds
// the downgrade threshold.
func WindSpreadSignal(summaries []EnsembleSummary) []EnsembleSummary {
	return spreadSignal(summaries, ParamWindspeed10m, ensembleWindSpreadMax)
}

// EnergySpreadSignal reports ensemble sources whose CAPE spread exceeds the
// downgrade threshold.
func EnergySpreadSignal(summaries []EnsembleSummary) []EnsembleSummary {
	return spreadSignal(summaries, ParamCAPE, ensembleEnergySpreadMax)
}

func spreadSignal(summaries []EnsembleSummary, p Param, threshold float64) []EnsembleSummary {
	var out []EnsembleSummary
	for _, s := range summaries {
		if st, ok := s.Stats[p]; ok && st.Spread > threshold {
			out = append(out, s)
		}
	}
	return out
}
