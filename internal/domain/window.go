package domain

// Window detection thresholds.
const (
	thermalMinWStar     = 1.5  // m/s
	thermalMaxPrecip    = 0.5  // mm/h
	thermalMinBaseMSL   = 1000 // m MSL
	thermalMaxCloud     = 70   // %
	flyableMaxPrecip    = 0.5  // mm/h
	flyableMaxGusts     = 12   // m/s
	flyableMaxWind      = 8    // m/s
)

// DetectThermalWindow finds the maximal contiguous run of hours in
// 09:00–18:00 where thermals are strong enough to fly a task: wstar present
// and ≥ 1.5 m/s, with precipitation, cloud base, and total cloud cover not
// disqualifying. A null wstar disqualifies (no evidence of lift); nulls in
// the remaining criteria pass (no evidence against). The peak hour is the
// run's hour maximizing lapse rate + CAPE/1000, ties broken earliest.
func DetectThermalWindow(p HourlyProfile) ThermalWindow {
	start, length := longestRun(p, thermalHourQualifies)
	if length == 0 {
		return ThermalWindow{}
	}
	w := ThermalWindow{
		StartHour: start,
		EndHour:   start + length - 1,
		Duration:  length,
	}

	best := -1e18
	for h := w.StartHour; h <= w.EndHour; h++ {
		lapse := -999.0
		if v := p.Value(h, ParamLapseRate); v != nil {
			lapse = *v
		}
		energy := 0.0
		if v := p.Value(h, ParamCAPE); v != nil {
			energy = *v / 1000.0
		}
		if score := lapse + energy; score > best {
			best = score
			w.PeakHour = h
		}
	}
	return w
}

func thermalHourQualifies(p HourlyProfile, h int) bool {
	w := p.Value(h, ParamWStar)
	if w == nil || *w < thermalMinWStar {
		return false
	}
	if v := p.Value(h, ParamPrecipitation); v != nil && *v > thermalMaxPrecip {
		return false
	}
	if v := p.Value(h, ParamCloudBaseMSL); v != nil && *v < thermalMinBaseMSL {
		return false
	}
	if v := p.Value(h, ParamCloudcover); v != nil && *v >= thermalMaxCloud {
		return false
	}
	return true
}

// DetectFlyableWindow finds the longest contiguous run of hours in
// 09:00–18:00 with no disqualifying precipitation, gusts, or surface wind.
// Nulls pass. Ties break toward the earliest start.
func DetectFlyableWindow(p HourlyProfile) FlyableWindow {
	start, length := longestRun(p, flyableHourQualifies)
	if length == 0 {
		return FlyableWindow{}
	}
	return FlyableWindow{
		StartHour: start,
		EndHour:   start + length - 1,
		Duration:  length,
	}
}

func flyableHourQualifies(p HourlyProfile, h int) bool {
	if v := p.Value(h, ParamPrecipitation); v != nil && *v > flyableMaxPrecip {
		return false
	}
	if v := p.Value(h, ParamWindgusts10m); v != nil && *v > flyableMaxGusts {
		return false
	}
	if v := p.Value(h, ParamWindspeed10m); v != nil && *v > flyableMaxWind {
		return false
	}
	return true
}

// longestRun scans hours 09:00–18:00 and returns the start and length of the
// longest contiguous run of qualifying hours, keeping the earliest on ties.
func longestRun(p HourlyProfile, qualifies func(HourlyProfile, int) bool) (start, length int) {
	curStart, curLen := 0, 0
	for h := WindowStartHour; h <= WindowEndHour; h++ {
		if !qualifies(p, h) {
			curLen = 0
			continue
		}
		if curLen == 0 {
			curStart = h
		}
		curLen++
		if curLen > length {
			start, length = curStart, curLen
		}
	}
	return start, length
}
