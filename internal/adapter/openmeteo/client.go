// Package openmeteo fetches deterministic and ensemble forecasts from the
// Open-Meteo APIs and decodes them into hourly series.
//
// Each model family is tried in resolution order (fallback chain); the first
// variant returning usable data for the target date wins. Failed attempts
// are recorded, not discarded, so the engine can show what was tried.
package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
)

const (
	defaultForecastBaseURL = "https://api.open-meteo.com/v1"
	defaultEnsembleBaseURL = "https://ensemble-api.open-meteo.com/v1/ensemble"
)

// sharedParams is the parameter set every deterministic variant reports.
var sharedParams = []domain.Param{
	domain.ParamTemperature2m, domain.ParamDewpoint2m, domain.ParamRelHumidity2m,
	domain.ParamWindspeed10m, domain.ParamWindgusts10m, domain.ParamWinddirection10m,
	domain.ParamCloudcover, domain.ParamCloudcoverLow, domain.ParamCloudcoverMid, domain.ParamCloudcoverHigh,
	domain.ParamPrecipitation, domain.ParamCAPE,
	domain.ParamShortwave, domain.ParamDirectRadiation, domain.ParamSunshineDuration,
	domain.ParamTemperature850, domain.ParamTemperature700,
	domain.ParamRelHumidity850, domain.ParamRelHumidity700,
	domain.ParamWindspeed850, domain.ParamWinddirection850,
	domain.ParamWindspeed700, domain.ParamWinddirection700,
}

var (
	iconParams = append(append([]domain.Param{}, sharedParams...), domain.ParamUpdraft)
	gfsParams  = append(append([]domain.Param{}, sharedParams...),
		domain.ParamBoundaryLayer, domain.ParamConvInhibition,
		domain.ParamLiftedIndex, domain.ParamTemperature500)
)

// ensembleParams mirrors the engine's spread vocabulary.
var ensembleParams = []domain.Param{
	domain.ParamTemperature2m, domain.ParamWindspeed10m, domain.ParamWindgusts10m,
	domain.ParamCloudcover, domain.ParamPrecipitation, domain.ParamCAPE,
	domain.ParamWindspeed850,
}

// variant is one entry of a family's fallback chain.
type variant struct {
	key      string
	endpoint string
	model    string
	params   []domain.Param
}

// Fallback chains, finest resolution first.
var chains = map[string][]variant{
	domain.FamilyICON: {
		{key: "icon_d2", endpoint: "dwd-icon", model: "icon_d2", params: iconParams},
		{key: "icon_eu", endpoint: "dwd-icon", model: "icon_eu", params: iconParams},
		{key: "icon_global", endpoint: "dwd-icon", model: "icon_global", params: iconParams},
	},
	domain.FamilyECMWF: {
		{key: "ecmwf_ifs025", endpoint: "forecast", model: "ecmwf_ifs025", params: sharedParams},
		{key: "ecmwf_ifs04", endpoint: "forecast", model: "ecmwf_ifs04", params: sharedParams},
	},
	domain.FamilyGFS: {
		{key: "gfs_seamless", endpoint: "gfs", model: "gfs_seamless", params: gfsParams},
	},
}

// ensembleSources are the member forecasts used for spread checks.
var ensembleSources = []struct {
	key   string
	model string
}{
	{key: "ecmwf_ens", model: "ecmwf_ifs025"},
	{key: "icon_eu_eps", model: "icon_eu"},
}

// Client fetches Open-Meteo forecasts for one site and date.
type Client struct {
	fetch   *httpfetch.Client
	logger  *slog.Logger
	metrics *observability.Metrics

	forecastBaseURL string
	ensembleBaseURL string
}

// NewClient creates an Open-Meteo client on top of the shared fetch layer.
func NewClient(fetch *httpfetch.Client, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		fetch:           fetch,
		logger:          logger,
		metrics:         metrics,
		forecastBaseURL: defaultForecastBaseURL,
		ensembleBaseURL: defaultEnsembleBaseURL,
	}
}

// FetchFamilies walks every family's fallback chain for the site and target
// date. Chains stop at the first variant with usable data; families never
// substitute for one another.
func (c *Client) FetchFamilies(ctx context.Context, site domain.Site, date string) map[string][]domain.VariantOutcome {
	families := make(map[string][]domain.VariantOutcome, len(chains))
	for family, chain := range chains {
		var outcomes []domain.VariantOutcome
		for _, v := range chain {
			series, err := c.fetchVariant(ctx, v, site, date)
			outcomes = append(outcomes, domain.VariantOutcome{Variant: v.key, Series: series, Err: err})
			if err == nil && !series.Empty() {
				break
			}
			c.logger.Warn("model variant unusable, falling back",
				"site", site.ID, "family", family, "variant", v.key, "error", err)
		}
		families[family] = outcomes
	}
	return families
}

func (c *Client) fetchVariant(ctx context.Context, v variant, site domain.Site, date string) (*domain.HourlySeries, error) {
	q := url.Values{
		"latitude":       {fmt.Sprintf("%.4f", site.Lat)},
		"longitude":      {fmt.Sprintf("%.4f", site.Lon)},
		"hourly":         {joinParams(v.params)},
		"start_date":     {date},
		"end_date":       {date},
		"timezone":       {"Europe/Berlin"},
		"windspeed_unit": {"ms"},
		"models":         {v.model},
	}
	u := fmt.Sprintf("%s/%s?%s", c.forecastBaseURL, v.endpoint, q.Encode())

	start := time.Now()
	body, err := c.fetch.Get(ctx, u)
	c.metrics.FetchDuration.WithLabelValues(v.key).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(v.key, "error").Inc()
		return nil, fmt.Errorf("%s: %w", v.key, err)
	}

	series, err := decodeSeries(body, date, v.params)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(v.key, "error").Inc()
		return nil, fmt.Errorf("%s: %w", v.key, err)
	}
	c.metrics.FetchRequests.WithLabelValues(v.key, "success").Inc()
	return series, nil
}

// FetchEnsembles fetches raw member series for every ensemble source. A
// failed source is logged and skipped: ensembles refine an assessment, they
// never block one.
func (c *Client) FetchEnsembles(ctx context.Context, site domain.Site, date string) []domain.EnsembleSeries {
	var out []domain.EnsembleSeries
	for _, src := range ensembleSources {
		es, err := c.fetchEnsemble(ctx, src.key, src.model, site, date)
		if err != nil {
			c.metrics.FetchRequests.WithLabelValues(src.key, "error").Inc()
			c.logger.Warn("ensemble source unavailable",
				"site", site.ID, "source", src.key, "error", err)
			continue
		}
		c.metrics.FetchRequests.WithLabelValues(src.key, "success").Inc()
		out = append(out, es)
	}
	return out
}

func (c *Client) fetchEnsemble(ctx context.Context, key, model string, site domain.Site, date string) (domain.EnsembleSeries, error) {
	q := url.Values{
		"latitude":       {fmt.Sprintf("%.4f", site.Lat)},
		"longitude":      {fmt.Sprintf("%.4f", site.Lon)},
		"hourly":         {joinParams(ensembleParams)},
		"start_date":     {date},
		"end_date":       {date},
		"timezone":       {"Europe/Berlin"},
		"windspeed_unit": {"ms"},
		"models":         {model},
	}
	u := c.ensembleBaseURL + "?" + q.Encode()

	start := time.Now()
	body, err := c.fetch.Get(ctx, u)
	c.metrics.FetchDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.EnsembleSeries{}, fmt.Errorf("%s: %w", key, err)
	}
	return decodeEnsemble(body, key, date)
}

func joinParams(params []domain.Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
