package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
)

const testDate = "2026-09-05"

var testSite = domain.Site{ID: "lenggries", Lat: 47.68, Lon: 11.57, Elevation: 700, PeaksElevation: 1800}

// forecastJSON builds a minimal Open-Meteo response covering 00:00-23:00
// local with constant values per column.
func forecastJSON(t *testing.T, columns map[string]float64) []byte {
	t.Helper()
	hourly := map[string]any{}
	times := make([]string, 24)
	for h := range 24 {
		times[h] = fmt.Sprintf("%sT%02d:00", testDate, h)
	}
	hourly["time"] = times
	for name, v := range columns {
		col := make([]float64, 24)
		for i := range col {
			col[i] = v
		}
		hourly[name] = col
	}
	b, err := json.Marshal(map[string]any{"hourly": hourly})
	require.NoError(t, err)
	return b
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	fetch := httpfetch.NewClient(5*time.Second, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
	c := NewClient(fetch, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
	c.forecastBaseURL = baseURL
	c.ensembleBaseURL = baseURL + "/ensemble"
	return c
}

func TestFetchFamilies(t *testing.T) {
	t.Run("first variant wins", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "ms", r.URL.Query().Get("windspeed_unit"))
			assert.Equal(t, testDate, r.URL.Query().Get("start_date"))
			w.Write(forecastJSON(t, map[string]float64{"temperature_2m": 21}))
		}))
		defer srv.Close()

		families := newTestClient(t, srv.URL).FetchFamilies(context.Background(), testSite, testDate)

		require.Len(t, families[domain.FamilyICON], 1)
		out := families[domain.FamilyICON][0]
		assert.Equal(t, "icon_d2", out.Variant)
		require.NoError(t, out.Err)
		v := out.Series.At(13, domain.ParamTemperature2m)
		require.NotNil(t, v)
		assert.Equal(t, 21.0, *v)
	})

	t.Run("chain falls through failed variants", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("models") == "icon_d2" {
				calls.Add(1)
				http.Error(w, "out of range", http.StatusBadRequest)
				return
			}
			w.Write(forecastJSON(t, map[string]float64{"temperature_2m": 18}))
		}))
		defer srv.Close()

		families := newTestClient(t, srv.URL).FetchFamilies(context.Background(), testSite, testDate)

		outcomes := families[domain.FamilyICON]
		require.Len(t, outcomes, 2)
		assert.Error(t, outcomes[0].Err)
		assert.Equal(t, "icon_eu", outcomes[1].Variant)
		require.NoError(t, outcomes[1].Err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("every family present even when all variants fail", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer srv.Close()

		families := newTestClient(t, srv.URL).FetchFamilies(context.Background(), testSite, testDate)

		for _, family := range []string{domain.FamilyICON, domain.FamilyECMWF, domain.FamilyGFS} {
			require.NotEmpty(t, families[family], family)
			for _, out := range families[family] {
				assert.Error(t, out.Err)
			}
		}
		assert.Len(t, families[domain.FamilyICON], 3)
		assert.Len(t, families[domain.FamilyECMWF], 2)
		assert.Len(t, families[domain.FamilyGFS], 1)
	})
}

func TestDecodeSeries(t *testing.T) {
	t.Run("clips to analysis hours", func(t *testing.T) {
		body := forecastJSON(t, map[string]float64{"cape": 450, "precipitation": 0})
		s, err := decodeSeries(body, testDate, []domain.Param{domain.ParamCAPE, domain.ParamPrecipitation})
		require.NoError(t, err)

		assert.Equal(t, domain.AnalysisHours(), s.Hours)
		require.Len(t, s.Values[domain.ParamCAPE], 11)
		v := s.At(8, domain.ParamCAPE)
		require.NotNil(t, v)
		assert.Equal(t, 450.0, *v)
		assert.Nil(t, s.At(7, domain.ParamCAPE))
	})

	t.Run("missing parameter column is absent, not zero", func(t *testing.T) {
		body := forecastJSON(t, map[string]float64{"cape": 450})
		s, err := decodeSeries(body, testDate, []domain.Param{domain.ParamCAPE, domain.ParamUpdraft})
		require.NoError(t, err)
		_, ok := s.Values[domain.ParamUpdraft]
		assert.False(t, ok)
	})

	t.Run("null entries survive decoding", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"hourly":{"time":["%sT13:00"],"cape":[null]}}`, testDate))
		s, err := decodeSeries(body, testDate, []domain.Param{domain.ParamCAPE})
		require.NoError(t, err)
		assert.Nil(t, s.At(13, domain.ParamCAPE))
	})

	t.Run("wrong date yields empty series", func(t *testing.T) {
		body := forecastJSON(t, map[string]float64{"cape": 450})
		s, err := decodeSeries(body, "2026-09-06", []domain.Param{domain.ParamCAPE})
		require.NoError(t, err)
		assert.True(t, s.Empty())
	})

	t.Run("missing time axis is an error", func(t *testing.T) {
		_, err := decodeSeries([]byte(`{"hourly":{}}`), testDate, nil)
		require.Error(t, err)
	})
}

func TestDecodeEnsemble(t *testing.T) {
	ensembleJSON := func(members map[string][]any) []byte {
		hourly := map[string]any{"time": []string{testDate + "T12:00", testDate + "T13:00"}}
		for k, v := range members {
			hourly[k] = v
		}
		b, err := json.Marshal(map[string]any{"hourly": hourly})
		require.NoError(t, err)
		return b
	}

	t.Run("member columns collected in sorted order", func(t *testing.T) {
		body := ensembleJSON(map[string][]any{
			"cape_member02": {200.0, 220.0},
			"cape_member01": {100.0, 110.0},
			"cape_member03": {300.0, 330.0},
		})
		es, err := decodeEnsemble(body, "ecmwf_ens", testDate)
		require.NoError(t, err)

		assert.Equal(t, "ecmwf_ens", es.Source)
		members := es.Members[domain.ParamCAPE]
		require.Len(t, members, 3)
		// Hour 13 sits at index 5 of the analysis axis.
		refIdx := 13 - domain.AnalysisStartHour
		require.NotNil(t, members[0][refIdx])
		assert.Equal(t, 110.0, *members[0][refIdx])
		assert.Equal(t, 330.0, *members[2][refIdx])
	})

	t.Run("bare control column is not a member", func(t *testing.T) {
		body := ensembleJSON(map[string][]any{
			"cape":          {50.0, 55.0},
			"cape_member01": {100.0, 110.0},
		})
		es, err := decodeEnsemble(body, "ecmwf_ens", testDate)
		require.NoError(t, err)
		assert.Len(t, es.Members[domain.ParamCAPE], 1)
	})

	t.Run("no member columns is an error", func(t *testing.T) {
		body := ensembleJSON(map[string][]any{"cape": {50.0, 55.0}})
		_, err := decodeEnsemble(body, "ecmwf_ens", testDate)
		require.Error(t, err)
	})
}

func TestFetchEnsembles_SkipsFailedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("models") == "ecmwf_ifs025" {
			http.Error(w, "down", http.StatusNotFound)
			return
		}
		hourly := map[string]any{
			"time":          []string{testDate + "T13:00"},
			"cape_member01": []float64{100},
			"cape_member02": []float64{200},
			"cape_member03": []float64{300},
		}
		b, _ := json.Marshal(map[string]any{"hourly": hourly})
		w.Write(b)
	}))
	defer srv.Close()

	out := newTestClient(t, srv.URL).FetchEnsembles(context.Background(), testSite, testDate)
	require.Len(t, out, 1)
	assert.Equal(t, "icon_eu_eps", out[0].Source)
}
