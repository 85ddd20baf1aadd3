package domain

// agreementTolerances are the per-parameter absolute tolerances for the
// icon-vs-ecmwf cross-check at the reference hour.
var agreementTolerances = map[Param]float64{
	ParamTemperature2m: 2.0,
	ParamWindspeed10m:  2.0,
	ParamWindgusts10m:  3.0,
	ParamCloudcover:    20.0,
	ParamPrecipitation: 0.5,
	ParamCAPE:          200.0,
	ParamWindspeed700:  2.0,
}

// EvaluateAgreement compares the best-resolved icon variant against the
// best-resolved ecmwf variant at the reference hour. The agreement score is
// the fraction of comparable parameters within tolerance; parameters null on
// either side are skipped. Confidence is UNKNOWN (not LOW) when either
// family failed to resolve or nothing was comparable, because only LOW
// triggers the low-confidence downgrade rule.
func EvaluateAgreement(icon, ecmwf ResolvedFamily) Agreement {
	if !icon.Available || !ecmwf.Available {
		return Agreement{Confidence: ConfidenceUnknown, Details: map[Param]AgreementDetail{}}
	}

	details := make(map[Param]AgreementDetail)
	agreed, compared := 0, 0
	for p, tol := range agreementTolerances {
		iv := icon.Series.At(ReferenceHour, p)
		ev := ecmwf.Series.At(ReferenceHour, p)
		if iv == nil || ev == nil {
			continue
		}
		diff := *iv - *ev
		if diff < 0 {
			diff = -diff
		}
		ok := diff <= tol
		details[p] = AgreementDetail{ICON: *iv, ECMWF: *ev, Diff: diff, Agree: ok}
		compared++
		if ok {
			agreed++
		}
	}

	if compared == 0 {
		return Agreement{Confidence: ConfidenceUnknown, Details: details}
	}

	score := float64(agreed) / float64(compared)
	conf := ConfidenceLow
	switch {
	case score >= 0.8:
		conf = ConfidenceHigh
	case score >= 0.5:
		conf = ConfidenceMedium
	}
	return Agreement{Score: &score, Confidence: conf, Details: details}
}
