// Package domain implements the flight-suitability assessment engine.
//
// # Model Stack
//
// Forecasts come from three deterministic model families, each an ordered
// fallback chain from finest to coarsest resolution:
//
//	icon:  icon_d2 (2 km, 48 h) → icon_eu (7 km, 120 h) → icon_global (13 km) → icon_seamless (legacy)
//	ecmwf: ecmwf_ifs025 (0.25°) → ecmwf_ifs04 (0.4°) → ecmwf_hres (legacy)
//	gfs:   gfs_seamless → gfs (legacy)
//
// Resolution is independent per family: the first variant with usable data
// wins, and a family with no usable variant is "unavailable", a first-class
// state consumed downstream as null values, never an error. Families never
// substitute for each other; the gfs family is the sole source of
// boundary-layer height, lifted index, and convective inhibition, and the
// icon family the sole source of native convective updraft speed.
//
// # Fused Profile
//
// The fused hourly profile covers 08:00–18:00 local time. Parameters shared
// by icon and ecmwf are averaged when both are present; single-family
// parameters are taken as-is or left null. Every fused value records which
// variant(s) contributed, so the report layer can disclose any number's
// origin without re-derivation. Derived fields:
//
//	cloud_base_msl = 125 × (T2m − Td2m) + launch elevation          [m MSL]
//	lapse_rate     = (T850 − T700) / 1.5                            [°C/km]
//	wstar          = ((g/T2m_K) · BL height · 0.4·SW / (ρ·cp))^1/3  [m/s] (Deardorff)
//	gust_factor    = gusts_10m − windspeed_10m                      [m/s]
//
// A derived field whose input is null is itself null, never approximated.
//
// # Decision Cascade
//
// Window detection, the declarative flag/positive rule table, model
// agreement, per-variant verdicts, and ensemble spread all feed a numeric
// score. The score maps to a provisional status which a fixed, ordered,
// downgrade-only hard-rule cascade can lower but never raise. The status
// ordering is great > good > maybe > unlikely > reject, with "no-data" a
// separate terminal value outside the ordering.
//
// Everything in this package is a pure function over fully materialized
// inputs: no I/O, no context, no locks. The only ambient state is the
// package clock used to stamp assessments, swappable in tests via
// [SetClock].
package domain
