// Package report turns assessments into the delivery formats: a JSON
// document, a Markdown briefing, and a console summary.
package report

import (
	"time"

	"github.com/couchcryptid/flight-triage/internal/domain"
)

// Document is the complete output of one run, already ranked best-first.
type Document struct {
	RunID       string       `json:"run_id"`
	TargetDate  string       `json:"target_date"`
	GeneratedAt time.Time    `json:"generated_at"`
	Sites       []SiteReport `json:"sites"`
}

// SiteReport is one site's assessment projected for delivery.
type SiteReport struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	DriveHours float64 `json:"drive_hours"`

	Status      string `json:"status"`
	Provisional string `json:"provisional_status"`
	Score       int    `json:"score"`
	BaseScore   int    `json:"base_score"`

	Thermal WindowInfo `json:"thermal_window"`
	Flyable WindowInfo `json:"flyable_window"`

	Ref   RefMetrics `json:"reference_hour"`
	Hours []HourRow  `json:"hours,omitempty"`

	Flags     []FlagInfo `json:"flags,omitempty"`
	Positives []FlagInfo `json:"positives,omitempty"`
	Cascade   []TagInfo  `json:"cascade,omitempty"`

	Agreement AgreementInfo  `json:"model_agreement"`
	Verdicts  []VerdictInfo  `json:"per_model,omitempty"`
	Ensembles []EnsembleInfo `json:"ensembles,omitempty"`
	Models    []string       `json:"models_used,omitempty"`

	Regional []RegionalSample `json:"regional,omitempty"`
}

// WindowInfo is a detected window in local hours.
type WindowInfo struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
	PeakHour  int `json:"peak_hour,omitempty"`
	Duration  int `json:"duration_hours"`
}

// RefMetrics are the fused values at the reference hour, plus the window
// aggregates the rules score on. Nil means no model reported the value.
type RefMetrics struct {
	CloudBaseMSL  *float64 `json:"cloud_base_msl,omitempty"`
	BaseMargin    *float64 `json:"base_margin_over_peaks,omitempty"`
	Wind700       *float64 `json:"wind_700hPa,omitempty"`
	Gusts         *float64 `json:"gusts_10m,omitempty"`
	CAPE          *float64 `json:"cape,omitempty"`
	LiftedIndex   *float64 `json:"lifted_index,omitempty"`
	LapseRate     *float64 `json:"lapse_rate,omitempty"`
	BoundaryLayer *float64 `json:"boundary_layer_height,omitempty"`
	WStar         *float64 `json:"wstar,omitempty"`
	Cloudcover    *float64 `json:"cloudcover,omitempty"`
	Shortwave     *float64 `json:"shortwave_radiation,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
}

// HourRow is one hour of the fused profile, trimmed to the parameters the
// briefing tables show.
type HourRow struct {
	Hour          int      `json:"hour"`
	CloudBaseMSL  *float64 `json:"cloud_base_msl,omitempty"`
	WStar         *float64 `json:"wstar,omitempty"`
	Wind700       *float64 `json:"wind_700hPa,omitempty"`
	Gusts         *float64 `json:"gusts_10m,omitempty"`
	CAPE          *float64 `json:"cape,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
}

// FlagInfo is one fired rule row.
type FlagInfo struct {
	ID     string `json:"id"`
	Detail string `json:"detail"`
	Weight int    `json:"weight"`
}

// TagInfo is one cascade downgrade that actually moved the status.
type TagInfo struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// AgreementInfo is the icon-vs-ecmwf cross-check.
type AgreementInfo struct {
	Score      *float64 `json:"score,omitempty"`
	Confidence string   `json:"confidence"`
}

// VerdictInfo is one variant's standalone classification.
type VerdictInfo struct {
	Variant      string `json:"variant"`
	Verdict      string `json:"verdict"`
	ThermalHours int    `json:"thermal_hours"`
	FlyableHours int    `json:"flyable_hours"`
}

// EnsembleInfo is one ensemble source's reference-hour spread summary.
type EnsembleInfo struct {
	Source string               `json:"source"`
	Stats  map[string]StatsInfo `json:"stats"`
}

// StatsInfo is the member distribution of one parameter.
type StatsInfo struct {
	P10     float64 `json:"p10"`
	P50     float64 `json:"p50"`
	P90     float64 `json:"p90"`
	Spread  float64 `json:"spread"`
	Members int     `json:"members"`
}

// RegionalSample is a reference-hour snapshot from a regional model outside
// the fused stack.
type RegionalSample struct {
	Source string              `json:"source"`
	Label  string              `json:"label"`
	Values map[string]*float64 `json:"values"`
}

// Build projects ranked assessments into a delivery document. Regional
// samples are keyed by site id; sites without samples simply omit them.
func Build(runID, targetDate string, generatedAt time.Time, assessments []domain.Assessment, regional map[string][]domain.ReferenceSample) Document {
	doc := Document{
		RunID:       runID,
		TargetDate:  targetDate,
		GeneratedAt: generatedAt,
		Sites:       make([]SiteReport, 0, len(assessments)),
	}
	for _, a := range assessments {
		doc.Sites = append(doc.Sites, buildSite(a, regional[a.Site.ID]))
	}
	return doc
}

func buildSite(a domain.Assessment, regional []domain.ReferenceSample) SiteReport {
	sr := SiteReport{
		ID:          a.Site.ID,
		Name:        a.Site.Name,
		DriveHours:  a.Site.DriveHours,
		Status:      string(a.Status),
		Provisional: string(a.Provisional),
		Score:       a.Score,
		BaseScore:   a.BaseScore,
		Thermal: WindowInfo{
			StartHour: a.Thermal.StartHour,
			EndHour:   a.Thermal.EndHour,
			PeakHour:  a.Thermal.PeakHour,
			Duration:  a.Thermal.Duration,
		},
		Flyable: WindowInfo{
			StartHour: a.Flyable.StartHour,
			EndHour:   a.Flyable.EndHour,
			Duration:  a.Flyable.Duration,
		},
		Ref:   refMetrics(a),
		Hours: hourRows(a.Profile),
		Agreement: AgreementInfo{
			Score:      a.Agreement.Score,
			Confidence: string(a.Agreement.Confidence),
		},
	}
	for _, f := range a.Flags {
		sr.Flags = append(sr.Flags, FlagInfo{ID: f.ID, Detail: f.Detail, Weight: f.Weight})
	}
	for _, p := range a.Positives {
		sr.Positives = append(sr.Positives, FlagInfo{ID: p.ID, Detail: p.Detail, Weight: p.Weight})
	}
	for _, t := range a.Tags {
		sr.Cascade = append(sr.Cascade, TagInfo{Rule: t.Rule, Detail: t.Detail})
	}
	for _, v := range a.Verdicts {
		sr.Verdicts = append(sr.Verdicts, VerdictInfo{
			Variant:      v.Variant,
			Verdict:      string(v.Verdict),
			ThermalHours: v.ThermalHours,
			FlyableHours: v.FlyableHours,
		})
	}
	for _, e := range a.Ensembles {
		info := EnsembleInfo{Source: e.Source, Stats: make(map[string]StatsInfo, len(e.Stats))}
		for p, st := range e.Stats {
			info.Stats[string(p)] = StatsInfo{
				P10: st.P10, P50: st.P50, P90: st.P90,
				Spread: st.Spread, Members: st.Members,
			}
		}
		sr.Ensembles = append(sr.Ensembles, info)
	}
	for _, family := range []string{domain.FamilyICON, domain.FamilyECMWF, domain.FamilyGFS} {
		if rf := a.Resolved[family]; rf.Available {
			sr.Models = append(sr.Models, rf.Variant)
		}
	}
	for _, s := range regional {
		rs := RegionalSample{Source: s.Source, Label: s.Label, Values: make(map[string]*float64, len(s.Values))}
		for p, v := range s.Values {
			rs.Values[string(p)] = v
		}
		sr.Regional = append(sr.Regional, rs)
	}
	return sr
}

func hourRows(p domain.HourlyProfile) []HourRow {
	rows := make([]HourRow, 0, len(p.Hours))
	for _, ph := range p.Hours {
		rows = append(rows, HourRow{
			Hour:          ph.Hour,
			CloudBaseMSL:  ph.Fields[domain.ParamCloudBaseMSL].Value,
			WStar:         ph.Fields[domain.ParamWStar].Value,
			Wind700:       ph.Fields[domain.ParamWindspeed700].Value,
			Gusts:         ph.Fields[domain.ParamWindgusts10m].Value,
			CAPE:          ph.Fields[domain.ParamCAPE].Value,
			Precipitation: ph.Fields[domain.ParamPrecipitation].Value,
		})
	}
	return rows
}

func refMetrics(a domain.Assessment) RefMetrics {
	at := func(p domain.Param) *float64 {
		return a.Profile.Value(domain.ReferenceHour, p)
	}
	m := RefMetrics{
		CloudBaseMSL:  at(domain.ParamCloudBaseMSL),
		Wind700:       at(domain.ParamWindspeed700),
		Gusts:         at(domain.ParamWindgusts10m),
		CAPE:          at(domain.ParamCAPE),
		LiftedIndex:   at(domain.ParamLiftedIndex),
		LapseRate:     at(domain.ParamLapseRate),
		BoundaryLayer: at(domain.ParamBoundaryLayer),
		WStar:         at(domain.ParamWStar),
		Cloudcover:    at(domain.ParamCloudcover),
		Shortwave:     at(domain.ParamShortwave),
		Precipitation: at(domain.ParamPrecipitation),
	}
	if m.CloudBaseMSL != nil {
		margin := *m.CloudBaseMSL - a.Site.PeaksElevation
		m.BaseMargin = &margin
	}
	return m
}
