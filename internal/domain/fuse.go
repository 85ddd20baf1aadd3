package domain

import "math"

// sharedParams are available from both icon and ecmwf; the fused value is
// the mean of whichever family values are present.
var sharedParams = []Param{
	ParamTemperature2m, ParamDewpoint2m, ParamRelHumidity2m,
	ParamWindspeed10m, ParamWindgusts10m, ParamWinddirection10m,
	ParamCloudcover, ParamCloudcoverLow, ParamCloudcoverMid, ParamCloudcoverHigh,
	ParamPrecipitation, ParamCAPE,
	ParamShortwave, ParamDirectRadiation, ParamSunshineDuration,
	ParamTemperature850, ParamTemperature700,
	ParamRelHumidity850, ParamRelHumidity700,
	ParamWindspeed850, ParamWindspeed700,
	ParamWinddirection850, ParamWinddirection700,
}

// gfsOnlyParams are exclusive to the gfs family: never substituted from
// another family, null when gfs is unavailable.
var gfsOnlyParams = []Param{
	ParamBoundaryLayer, ParamLiftedIndex, ParamConvInhibition,
}

// gfsFallbackParams may be backfilled from gfs when both icon and ecmwf are
// null. This is the sole cross-family substitution and is surfaced as a
// provenance note on the field.
var gfsFallbackParams = []Param{ParamShortwave, ParamCAPE}

// CloudBaseMSL estimates the cumulus cloud base above mean sea level from
// the 2 m spread: 125 m per °C of temperature/dewpoint difference.
func CloudBaseMSL(t2m, td2m *float64, elevation float64) *float64 {
	if t2m == nil || td2m == nil {
		return nil
	}
	v := 125.0*(*t2m-*td2m) + elevation
	return &v
}

// LapseRate is the 850→700 hPa temperature lapse in °C/km, assuming 1.5 km
// between the two levels.
func LapseRate(t850, t700 *float64) *float64 {
	if t850 == nil || t700 == nil {
		return nil
	}
	v := (*t850 - *t700) / 1.5
	return &v
}

// WStar is the Deardorff convective velocity scale in m/s, the thermal
// strength index used for window detection. Undefined (nil) when the
// boundary-layer height or shortwave radiation is missing or negligible, or
// the temperature is implausible.
func WStar(blHeight, shortwave, t2m *float64) *float64 {
	if blHeight == nil || *blHeight <= 10 || shortwave == nil || *shortwave <= 10 || t2m == nil {
		return nil
	}
	tk := *t2m + 273.15
	if tk < 200 {
		return nil
	}
	// Surface sensible heat flux approximated as 40% of shortwave radiation;
	// air density 1.1 kg/m³, specific heat 1005 J/(kg·K).
	heatFlux := 0.4 * *shortwave
	arg := (9.81 / tk) * *blHeight * heatFlux / (1.1 * 1005.0)
	if arg <= 0 {
		return nil
	}
	v := math.Cbrt(arg)
	return &v
}

// GustFactor is the 10 m gust excess over sustained wind, a turbulence
// proxy.
func GustFactor(gusts, wind *float64) *float64 {
	if gusts == nil || wind == nil {
		return nil
	}
	v := *gusts - *wind
	return &v
}

// BuildProfile fuses the resolved families into the canonical hourly
// profile over the analysis hours, recording per-field provenance, then
// computes the derived fields from the already-fused inputs.
func BuildProfile(resolved map[string]ResolvedFamily, site Site) HourlyProfile {
	icon := resolved[FamilyICON]
	ecmwf := resolved[FamilyECMWF]
	gfs := resolved[FamilyGFS]

	hours := AnalysisHours()
	profile := HourlyProfile{Hours: make([]ProfileHour, 0, len(hours))}

	for _, h := range hours {
		fields := make(map[Param]FusedValue)

		for _, p := range sharedParams {
			fields[p] = fuseShared(icon, ecmwf, h, p)
		}
		for _, p := range gfsFallbackParams {
			if fields[p].Value == nil && gfs.Available {
				if v := gfs.Series.At(h, p); v != nil {
					fields[p] = FusedValue{
						Value:   v,
						Sources: []string{gfs.Variant},
						Note:    "gfs fallback: " + gfs.Variant,
					}
				}
			}
		}
		for _, p := range gfsOnlyParams {
			fields[p] = fuseExclusive(gfs, h, p)
		}
		fields[ParamUpdraft] = fuseExclusive(icon, h, ParamUpdraft)

		addDerivedFields(fields, site)

		profile.Hours = append(profile.Hours, ProfileHour{Hour: h, Fields: fields})
	}
	return profile
}

// fuseShared averages the icon and ecmwf values when both are present, uses
// whichever one is, and yields null with no provenance when neither is.
func fuseShared(icon, ecmwf ResolvedFamily, hour int, p Param) FusedValue {
	var iv, ev *float64
	if icon.Available {
		iv = icon.Series.At(hour, p)
	}
	if ecmwf.Available {
		ev = ecmwf.Series.At(hour, p)
	}

	switch {
	case iv != nil && ev != nil:
		v := (*iv + *ev) / 2
		return FusedValue{Value: &v, Sources: []string{icon.Variant, ecmwf.Variant}}
	case iv != nil:
		return FusedValue{Value: iv, Sources: []string{icon.Variant}}
	case ev != nil:
		return FusedValue{Value: ev, Sources: []string{ecmwf.Variant}}
	default:
		return FusedValue{}
	}
}

// fuseExclusive takes a single-family-exclusive parameter from its family or
// leaves it null. No cross-family substitution.
func fuseExclusive(fam ResolvedFamily, hour int, p Param) FusedValue {
	if !fam.Available {
		return FusedValue{}
	}
	v := fam.Series.At(hour, p)
	if v == nil {
		return FusedValue{}
	}
	return FusedValue{Value: v, Sources: []string{fam.Variant}}
}

// addDerivedFields computes the derived parameters from the fused fields of
// one hour. A derived field inherits the union of its inputs' sources plus a
// "derived" note; a null input makes the derived field null.
func addDerivedFields(fields map[Param]FusedValue, site Site) {
	fields[ParamCloudBaseMSL] = derive(
		CloudBaseMSL(fields[ParamTemperature2m].Value, fields[ParamDewpoint2m].Value, site.Elevation),
		fields[ParamTemperature2m], fields[ParamDewpoint2m],
	)
	fields[ParamLapseRate] = derive(
		LapseRate(fields[ParamTemperature850].Value, fields[ParamTemperature700].Value),
		fields[ParamTemperature850], fields[ParamTemperature700],
	)
	fields[ParamWStar] = derive(
		WStar(fields[ParamBoundaryLayer].Value, fields[ParamShortwave].Value, fields[ParamTemperature2m].Value),
		fields[ParamBoundaryLayer], fields[ParamShortwave], fields[ParamTemperature2m],
	)
	fields[ParamGustFactor] = derive(
		GustFactor(fields[ParamWindgusts10m].Value, fields[ParamWindspeed10m].Value),
		fields[ParamWindgusts10m], fields[ParamWindspeed10m],
	)
}

func derive(v *float64, inputs ...FusedValue) FusedValue {
	if v == nil {
		return FusedValue{}
	}
	var sources []string
	seen := make(map[string]bool)
	for _, in := range inputs {
		for _, s := range in.Sources {
			if !seen[s] {
				seen[s] = true
				sources = append(sources, s)
			}
		}
	}
	return FusedValue{Value: v, Sources: sources, Note: "derived"}
}
