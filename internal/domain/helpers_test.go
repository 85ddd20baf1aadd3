package domain

// Shared fixture builders for the engine tests.

func f(v float64) *float64 { return &v }

var testSite = Site{
	ID:             "lenggries",
	Name:           "Lenggries",
	Lat:            47.68,
	Lon:            11.57,
	Elevation:      700,
	PeaksElevation: 1800,
	DriveHours:     1.0,
}

// constSeries builds a series over the analysis hours carrying the same
// value for every hour of each parameter.
func constSeries(values map[Param]float64) *HourlySeries {
	hours := AnalysisHours()
	s := &HourlySeries{Hours: hours, Values: make(map[Param][]*float64, len(values))}
	for p, v := range values {
		col := make([]*float64, len(hours))
		for i := range col {
			vv := v
			col[i] = &vv
		}
		s.Values[p] = col
	}
	return s
}

// setAt overrides one parameter at one local hour; nil clears the value.
func setAt(s *HourlySeries, hour int, p Param, v *float64) {
	for i, h := range s.Hours {
		if h != hour {
			continue
		}
		if _, ok := s.Values[p]; !ok {
			s.Values[p] = make([]*float64, len(s.Hours))
		}
		s.Values[p][i] = v
		return
	}
}

// clearSW clears shortwave radiation outside [from, to], pinning the
// thermal window to exactly that hour range (wstar is null without solar
// input).
func clearSW(s *HourlySeries, from, to int) {
	for _, h := range s.Hours {
		if h < from || h > to {
			setAt(s, h, ParamShortwave, nil)
		}
	}
}

// goodICONSeries is a benign icon/ecmwf shared-parameter day: dry, light
// wind, high base, moderate CAPE.
func goodICONSeries() *HourlySeries {
	return constSeries(map[Param]float64{
		ParamTemperature2m: 25, ParamDewpoint2m: 5,
		ParamWindspeed10m: 3, ParamWindgusts10m: 5,
		ParamCloudcover:    20,
		ParamPrecipitation: 0,
		ParamCAPE:          500,
		ParamShortwave:     700,
		ParamTemperature850: 12, ParamTemperature700: 2,
		ParamWindspeed850: 4, ParamWindspeed700: 3,
	})
}

// goodGFSSeries carries the gfs-exclusive parameters for the same day.
func goodGFSSeries() *HourlySeries {
	s := goodICONSeries()
	for p, v := range map[Param]float64{
		ParamBoundaryLayer:  1800,
		ParamLiftedIndex:    0,
		ParamConvInhibition: -20,
	} {
		col := make([]*float64, len(s.Hours))
		for i := range col {
			vv := v
			col[i] = &vv
		}
		s.Values[p] = col
	}
	return s
}

// goodDayInput is a complete three-family input for a flyable day.
func goodDayInput() AssessmentInput {
	return AssessmentInput{
		Site:       testSite,
		TargetDate: "2026-09-05",
		Families: map[string][]VariantOutcome{
			FamilyICON:  {{Variant: "icon_d2", Series: goodICONSeries()}},
			FamilyECMWF: {{Variant: "ecmwf_ifs025", Series: goodICONSeries()}},
			FamilyGFS:   {{Variant: "gfs_seamless", Series: goodGFSSeries()}},
		},
	}
}
