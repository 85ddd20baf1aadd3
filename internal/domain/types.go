package domain

import "time"

// Deterministic model family identifiers. Families resolve independently and
// never substitute for each other.
const (
	FamilyICON  = "icon"
	FamilyECMWF = "ecmwf"
	FamilyGFS   = "gfs"
)

// Analysis hour range (local time). The profile covers 08:00–18:00; window
// detection and flag aggregation use the 09:00–18:00 sub-range.
const (
	AnalysisStartHour = 8
	AnalysisEndHour   = 18
	WindowStartHour   = 9
	WindowEndHour     = 18

	// ReferenceHour is the fixed local hour used for point comparisons:
	// model agreement, ensemble spread, and the @13 flag rows.
	ReferenceHour = 13
)

// AnalysisHours returns the local hours covered by an hourly profile.
func AnalysisHours() []int {
	hours := make([]int, 0, AnalysisEndHour-AnalysisStartHour+1)
	for h := AnalysisStartHour; h <= AnalysisEndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Param names a forecast parameter in the fixed vocabulary shared with the
// fetch layer. Derived parameters are computed by the fuser, never fetched.
type Param string

// Fetched parameters.
const (
	ParamTemperature2m     Param = "temperature_2m"
	ParamDewpoint2m        Param = "dewpoint_2m"
	ParamRelHumidity2m     Param = "relative_humidity_2m"
	ParamWindspeed10m      Param = "windspeed_10m"
	ParamWindgusts10m      Param = "windgusts_10m"
	ParamWinddirection10m  Param = "winddirection_10m"
	ParamCloudcover        Param = "cloudcover"
	ParamCloudcoverLow     Param = "cloudcover_low"
	ParamCloudcoverMid     Param = "cloudcover_mid"
	ParamCloudcoverHigh    Param = "cloudcover_high"
	ParamPrecipitation     Param = "precipitation"
	ParamCAPE              Param = "cape"
	ParamShortwave         Param = "shortwave_radiation"
	ParamDirectRadiation   Param = "direct_radiation"
	ParamSunshineDuration  Param = "sunshine_duration"
	ParamTemperature850    Param = "temperature_850hPa"
	ParamTemperature700    Param = "temperature_700hPa"
	ParamTemperature500    Param = "temperature_500hPa"
	ParamRelHumidity850    Param = "relative_humidity_850hPa"
	ParamRelHumidity700    Param = "relative_humidity_700hPa"
	ParamWindspeed850      Param = "windspeed_850hPa"
	ParamWindspeed700      Param = "windspeed_700hPa"
	ParamWinddirection850  Param = "winddirection_850hPa"
	ParamWinddirection700  Param = "winddirection_700hPa"
	ParamBoundaryLayer     Param = "boundary_layer_height"
	ParamLiftedIndex       Param = "lifted_index"
	ParamConvInhibition    Param = "convective_inhibition"
	ParamUpdraft           Param = "updraft"
	ParamSnowLine          Param = "snow_line"
)

// Derived parameters, computed from fused inputs.
const (
	ParamCloudBaseMSL Param = "cloud_base_msl"
	ParamLapseRate    Param = "lapse_rate"
	ParamWStar        Param = "wstar"
	ParamGustFactor   Param = "gust_factor"
)

// Site describes one launch from the location catalog. Catalogs are
// configuration data loaded once and passed read-only into the engine.
type Site struct {
	ID             string
	Name           string
	Lat            float64
	Lon            float64
	Elevation      float64 // launch elevation, m MSL
	PeaksElevation float64 // surrounding peak height, m MSL
	GeoSphereID    string  // GeoSphere station id, empty outside AROME coverage
	MOSMIXStation  string  // DWD MOSMIX station id, empty if none
	DriveHours     float64
}

// HourlySeries is one variant's decoded series over the analysis hours.
// Values are aligned index-wise with Hours; a nil entry means the model did
// not report the parameter for that hour.
type HourlySeries struct {
	Hours  []int
	Values map[Param][]*float64
}

// At returns the value for a parameter at a local hour, or nil.
func (s *HourlySeries) At(hour int, p Param) *float64 {
	if s == nil {
		return nil
	}
	for i, h := range s.Hours {
		if h == hour {
			vals := s.Values[p]
			if i < len(vals) {
				return vals[i]
			}
			return nil
		}
	}
	return nil
}

// Empty reports whether the series carries no usable data at all.
func (s *HourlySeries) Empty() bool {
	if s == nil || len(s.Hours) == 0 {
		return true
	}
	for _, vals := range s.Values {
		for _, v := range vals {
			if v != nil {
				return false
			}
		}
	}
	return true
}

// VariantOutcome is one fetch attempt within a family's fallback chain:
// either a decoded series or the error that prevented one.
type VariantOutcome struct {
	Variant string
	Series  *HourlySeries
	Err     error
}

// ResolvedFamily is the result of walking one family's fallback chain.
// Available is false when every variant failed; the family's parameters are
// then null for the whole run.
type ResolvedFamily struct {
	Family    string
	Variant   string
	Series    *HourlySeries
	Available bool
}

// FusedValue is one fused field with provenance: the variant id(s) that
// contributed and an optional override note.
type FusedValue struct {
	Value   *float64
	Sources []string
	Note    string
}

// ProfileHour is the fused parameter map for one local hour.
type ProfileHour struct {
	Hour   int
	Fields map[Param]FusedValue
}

// HourlyProfile is the canonical fused series used for scoring, distinct
// from any single model's raw series. Hours are strictly increasing, with
// one value per parameter per hour.
type HourlyProfile struct {
	Hours []ProfileHour
}

// At returns the fused field for a parameter at a local hour.
func (p HourlyProfile) At(hour int, param Param) FusedValue {
	for _, ph := range p.Hours {
		if ph.Hour == hour {
			return ph.Fields[param]
		}
	}
	return FusedValue{}
}

// Value returns the fused value for a parameter at a local hour, or nil.
func (p HourlyProfile) Value(hour int, param Param) *float64 {
	return p.At(hour, param).Value
}

// ThermalWindow is the maximal contiguous run of hours meeting joint
// lift/sky/precipitation criteria. Duration 0 means no qualifying hour and
// is itself meaningful input to scoring; the remaining fields are then zero.
type ThermalWindow struct {
	StartHour int
	EndHour   int
	PeakHour  int
	Duration  int
}

// FlyableWindow is the longest contiguous run of hours meeting joint safety
// criteria. Duration 0 unconditionally raises a critical flag.
type FlyableWindow struct {
	StartHour int
	EndHour   int
	Duration  int
}

// Category classifies a flag row for scoring. Each category carries a fixed
// deduction (or bonus, for positive) weight.
type Category string

const (
	CategoryCritical Category = "critical"
	CategoryMajor    Category = "major"
	CategoryMinor    Category = "minor"
	CategoryDanger   Category = "danger"
	CategoryPositive Category = "positive"
)

// Flag is one fired rule row. Weight is the score deduction (or bonus for
// positives) contributed by this flag.
type Flag struct {
	ID       string
	Category Category
	Weight   int
	Detail   string
}

// Confidence grades icon/ecmwf agreement at the reference hour. UNKNOWN is
// distinct from LOW: only LOW triggers the low-confidence downgrade rule.
type Confidence string

const (
	ConfidenceHigh    Confidence = "HIGH"
	ConfidenceMedium  Confidence = "MEDIUM"
	ConfidenceLow     Confidence = "LOW"
	ConfidenceUnknown Confidence = "UNKNOWN"
)

// AgreementDetail is the per-parameter comparison behind an agreement score.
type AgreementDetail struct {
	ICON  float64
	ECMWF float64
	Diff  float64
	Agree bool
}

// Agreement is the icon-vs-ecmwf cross-check at the reference hour.
// Score is nil when nothing was comparable.
type Agreement struct {
	Score      *float64
	Confidence Confidence
	Details    map[Param]AgreementDetail
}

// Verdict is the coarse per-variant classification used by the disagreement
// check, ordered reject < unlikely < maybe < go.
type Verdict string

const (
	VerdictReject   Verdict = "reject"
	VerdictUnlikely Verdict = "unlikely"
	VerdictMaybe    Verdict = "maybe"
	VerdictGo       Verdict = "go"
)

// ModelVerdict is one resolved variant's standalone classification, computed
// on that variant's own series independently of the fused profile.
type ModelVerdict struct {
	Variant      string
	Family       string
	ThermalHours int
	FlyableHours int
	Verdict      Verdict
}

// EnsembleSeries is one ensemble source's raw member data: for each
// parameter, member series aligned index-wise with Hours.
type EnsembleSeries struct {
	Source  string
	Hours   []int
	Members map[Param][][]*float64
}

// EnsembleStats is the member distribution of one parameter at the
// reference hour.
type EnsembleStats struct {
	P10     float64
	P50     float64
	P90     float64
	Spread  float64
	Members int
}

// EnsembleSummary is one ensemble source's reference-hour statistics.
// Parameters with fewer than three reporting members are absent.
type EnsembleSummary struct {
	Source string
	Stats  map[Param]EnsembleStats
}

// Status is the terminal assessment value. The downgrade ordering is
// great > good > maybe > unlikely > reject; no-data sits outside it and is
// not reachable by ordinary downgrade.
type Status string

const (
	StatusReject   Status = "reject"
	StatusUnlikely Status = "unlikely"
	StatusMaybe    Status = "maybe"
	StatusGood     Status = "good"
	StatusGreat    Status = "great"
	StatusNoData   Status = "no-data"
)

// statusRank orders statuses for downgrade checks and ranking. Lower is
// better. NoData ranks last for display but is outside the downgrade
// ordering.
var statusRank = map[Status]int{
	StatusGreat:    0,
	StatusGood:     1,
	StatusMaybe:    2,
	StatusUnlikely: 3,
	StatusReject:   4,
	StatusNoData:   5,
}

// Rank returns the display ordering of a status, best first.
func (s Status) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return len(statusRank)
	}
	return r
}

// CascadeTag records one hard rule that fired during status resolution.
type CascadeTag struct {
	Rule   string
	Detail string
}

// AssessmentInput is the engine's complete input for one location: every
// fetch attempt per family plus any ensemble series, fully materialized
// before assessment begins.
type AssessmentInput struct {
	Site       Site
	TargetDate string
	Families   map[string][]VariantOutcome
	Ensembles  []EnsembleSeries
}

// Assessment is the terminal, immutable artifact of one engine run for one
// location, sufficient for the report layer to display every number and its
// origin without re-derivation.
type Assessment struct {
	Site       Site
	TargetDate string

	Resolved map[string]ResolvedFamily
	Profile  HourlyProfile
	Thermal  ThermalWindow
	Flyable  FlyableWindow

	Flags     []Flag
	Positives []Flag

	Agreement Agreement
	Verdicts  []ModelVerdict
	Ensembles []EnsembleSummary

	BaseScore   int
	Score       int
	Provisional Status
	Status      Status
	Tags        []CascadeTag

	GeneratedAt time.Time
}

// ReferenceSample is a report-only reference-hour sample from a regional
// model outside the fused stack (GeoSphere AROME, DWD MOSMIX).
type ReferenceSample struct {
	Source string
	Label  string
	Values map[Param]*float64
}
