package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfile_SharedParameters(t *testing.T) {
	icon := constSeries(map[Param]float64{ParamTemperature2m: 20})
	ecmwf := constSeries(map[Param]float64{ParamTemperature2m: 24})

	t.Run("both present averages with dual provenance", func(t *testing.T) {
		resolved := map[string]ResolvedFamily{
			FamilyICON:  {Family: FamilyICON, Variant: "icon_d2", Series: icon, Available: true},
			FamilyECMWF: {Family: FamilyECMWF, Variant: "ecmwf_ifs025", Series: ecmwf, Available: true},
			FamilyGFS:   {Family: FamilyGFS},
		}
		p := BuildProfile(resolved, testSite)

		fv := p.At(12, ParamTemperature2m)
		require.NotNil(t, fv.Value)
		assert.Equal(t, 22.0, *fv.Value)
		assert.Equal(t, []string{"icon_d2", "ecmwf_ifs025"}, fv.Sources)
	})

	t.Run("one present uses it verbatim", func(t *testing.T) {
		resolved := map[string]ResolvedFamily{
			FamilyICON:  {Family: FamilyICON},
			FamilyECMWF: {Family: FamilyECMWF, Variant: "ecmwf_ifs04", Series: ecmwf, Available: true},
			FamilyGFS:   {Family: FamilyGFS},
		}
		p := BuildProfile(resolved, testSite)

		fv := p.At(12, ParamTemperature2m)
		require.NotNil(t, fv.Value)
		assert.Equal(t, 24.0, *fv.Value)
		assert.Equal(t, []string{"ecmwf_ifs04"}, fv.Sources)
	})

	t.Run("neither present yields null without provenance", func(t *testing.T) {
		resolved := map[string]ResolvedFamily{
			FamilyICON: {Family: FamilyICON}, FamilyECMWF: {Family: FamilyECMWF}, FamilyGFS: {Family: FamilyGFS},
		}
		p := BuildProfile(resolved, testSite)

		fv := p.At(12, ParamTemperature2m)
		assert.Nil(t, fv.Value)
		assert.Empty(t, fv.Sources)
	})
}

func TestBuildProfile_ExclusiveParameters(t *testing.T) {
	gfs := constSeries(map[Param]float64{ParamBoundaryLayer: 1600, ParamLiftedIndex: -2})
	icon := constSeries(map[Param]float64{ParamUpdraft: 1.2})

	resolved := map[string]ResolvedFamily{
		FamilyICON:  {Family: FamilyICON, Variant: "icon_d2", Series: icon, Available: true},
		FamilyECMWF: {Family: FamilyECMWF},
		FamilyGFS:   {Family: FamilyGFS, Variant: "gfs_seamless", Series: gfs, Available: true},
	}
	p := BuildProfile(resolved, testSite)

	bl := p.At(13, ParamBoundaryLayer)
	require.NotNil(t, bl.Value)
	assert.Equal(t, 1600.0, *bl.Value)
	assert.Equal(t, []string{"gfs_seamless"}, bl.Sources)

	up := p.At(13, ParamUpdraft)
	require.NotNil(t, up.Value)
	assert.Equal(t, []string{"icon_d2"}, up.Sources)

	t.Run("gfs exclusives never substituted when gfs unavailable", func(t *testing.T) {
		noGFS := map[string]ResolvedFamily{
			FamilyICON:  resolved[FamilyICON],
			FamilyECMWF: {Family: FamilyECMWF},
			FamilyGFS:   {Family: FamilyGFS},
		}
		p := BuildProfile(noGFS, testSite)
		assert.Nil(t, p.Value(13, ParamBoundaryLayer))
		assert.Nil(t, p.Value(13, ParamLiftedIndex))
		assert.Nil(t, p.Value(13, ParamConvInhibition))
	})
}

func TestBuildProfile_GFSFallbackNote(t *testing.T) {
	// icon and ecmwf carry no cape/shortwave; gfs does.
	icon := constSeries(map[Param]float64{ParamTemperature2m: 20})
	gfs := constSeries(map[Param]float64{ParamCAPE: 800, ParamShortwave: 650})

	resolved := map[string]ResolvedFamily{
		FamilyICON:  {Family: FamilyICON, Variant: "icon_eu", Series: icon, Available: true},
		FamilyECMWF: {Family: FamilyECMWF},
		FamilyGFS:   {Family: FamilyGFS, Variant: "gfs_seamless", Series: gfs, Available: true},
	}
	p := BuildProfile(resolved, testSite)

	cape := p.At(13, ParamCAPE)
	require.NotNil(t, cape.Value)
	assert.Equal(t, 800.0, *cape.Value)
	assert.Equal(t, []string{"gfs_seamless"}, cape.Sources)
	assert.Equal(t, "gfs fallback: gfs_seamless", cape.Note)

	sw := p.At(13, ParamShortwave)
	require.NotNil(t, sw.Value)
	assert.Equal(t, "gfs fallback: gfs_seamless", sw.Note)
}

func TestBuildProfile_DerivedFields(t *testing.T) {
	icon := goodICONSeries()
	gfs := goodGFSSeries()
	resolved := map[string]ResolvedFamily{
		FamilyICON:  {Family: FamilyICON, Variant: "icon_d2", Series: icon, Available: true},
		FamilyECMWF: {Family: FamilyECMWF},
		FamilyGFS:   {Family: FamilyGFS, Variant: "gfs_seamless", Series: gfs, Available: true},
	}
	p := BuildProfile(resolved, testSite)

	t.Run("cloud base from 2m spread plus elevation", func(t *testing.T) {
		base := p.At(13, ParamCloudBaseMSL)
		require.NotNil(t, base.Value)
		// 125 × (25 − 5) + 700
		assert.InDelta(t, 3200.0, *base.Value, 0.001)
		assert.Equal(t, "derived", base.Note)
		assert.Equal(t, []string{"icon_d2"}, base.Sources)
	})

	t.Run("lapse rate over 1.5 km", func(t *testing.T) {
		lr := p.Value(13, ParamLapseRate)
		require.NotNil(t, lr)
		assert.InDelta(t, (12.0-2.0)/1.5, *lr, 0.001)
	})

	t.Run("wstar from bl height and shortwave", func(t *testing.T) {
		w := p.Value(13, ParamWStar)
		require.NotNil(t, w)
		assert.InDelta(t, 2.46, *w, 0.05)
	})

	t.Run("gust factor", func(t *testing.T) {
		gf := p.Value(13, ParamGustFactor)
		require.NotNil(t, gf)
		assert.InDelta(t, 2.0, *gf, 0.001)
	})

	t.Run("null input nulls the derived field", func(t *testing.T) {
		noGFS := map[string]ResolvedFamily{
			FamilyICON:  resolved[FamilyICON],
			FamilyECMWF: {Family: FamilyECMWF},
			FamilyGFS:   {Family: FamilyGFS},
		}
		p := BuildProfile(noGFS, testSite)
		assert.Nil(t, p.Value(13, ParamWStar), "wstar needs gfs bl height")
		assert.NotNil(t, p.Value(13, ParamCloudBaseMSL), "cloud base needs only 2m fields")
	})
}

func TestBuildProfile_HoursStrictlyIncreasing(t *testing.T) {
	p := BuildProfile(ResolveFamilies(nil), testSite)
	require.Len(t, p.Hours, 11)
	for i := 1; i < len(p.Hours); i++ {
		assert.Greater(t, p.Hours[i].Hour, p.Hours[i-1].Hour)
	}
	assert.Equal(t, AnalysisStartHour, p.Hours[0].Hour)
	assert.Equal(t, AnalysisEndHour, p.Hours[len(p.Hours)-1].Hour)
}

func TestWStar_Guards(t *testing.T) {
	tests := []struct {
		name string
		bl   *float64
		sw   *float64
		t2m  *float64
	}{
		{"nil bl", nil, f(700), f(25)},
		{"negligible bl", f(5), f(700), f(25)},
		{"nil shortwave", f(1800), nil, f(25)},
		{"negligible shortwave", f(1800), f(8), f(25)},
		{"nil temperature", f(1800), f(700), nil},
		{"implausible temperature", f(1800), f(700), f(-100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, WStar(tt.bl, tt.sw, tt.t2m))
		})
	}
}
