// Package geosphere fetches the GeoSphere Austria AROME 2.5 km nowcast for
// sites inside its coverage. AROME never joins the fused profile; it
// contributes a reference-hour sample shown alongside the verdict.
package geosphere

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"time"

	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
)

const defaultBaseURL = "https://dataset.api.hub.geosphere.at/v1/timeseries/forecast/nwp-v1-1h-2500m"

const requestParams = "t2m,cape,cin,tcc,lcc,mcc,hcc,u10m,v10m,ugust,vgust,snowlmt,rr,grad"

// paramMap translates GeoSphere names into the shared vocabulary. Wind
// components are handled separately.
var paramMap = map[string]domain.Param{
	"t2m":     domain.ParamTemperature2m,
	"cape":    domain.ParamCAPE,
	"cin":     domain.ParamConvInhibition,
	"tcc":     domain.ParamCloudcover,
	"lcc":     domain.ParamCloudcoverLow,
	"mcc":     domain.ParamCloudcoverMid,
	"hcc":     domain.ParamCloudcoverHigh,
	"snowlmt": domain.ParamSnowLine,
	"rr":      domain.ParamPrecipitation,
	"grad":    domain.ParamShortwave,
}

// Client samples the AROME forecast at the reference hour.
type Client struct {
	fetch   *httpfetch.Client
	logger  *slog.Logger
	metrics *observability.Metrics
	baseURL string
	local   *time.Location
}

// NewClient creates an AROME client reporting in the given local timezone.
func NewClient(fetch *httpfetch.Client, local *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		fetch:   fetch,
		logger:  logger,
		metrics: metrics,
		baseURL: defaultBaseURL,
		local:   local,
	}
}

type apiResponse struct {
	Timestamps []string `json:"timestamps"`
	Features   []struct {
		Properties struct {
			Parameters map[string]struct {
				Data []*float64 `json:"data"`
			} `json:"parameters"`
		} `json:"properties"`
	} `json:"features"`
}

// FetchSample returns the reference-hour sample for the site and target
// date, or an error when the date is outside the forecast horizon.
func (c *Client) FetchSample(ctx context.Context, site domain.Site, date string) (domain.ReferenceSample, error) {
	q := url.Values{
		"parameters":    {requestParams},
		"lat_lon":       {fmt.Sprintf("%.4f,%.4f", site.Lat, site.Lon)},
		"output_format": {"geojson"},
	}

	start := time.Now()
	body, err := c.fetch.Get(ctx, c.baseURL+"?"+q.Encode())
	c.metrics.FetchDuration.WithLabelValues("geosphere_arome").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("geosphere_arome", "error").Inc()
		return domain.ReferenceSample{}, fmt.Errorf("geosphere: %w", err)
	}

	sample, err := decodeSample(body, date, c.local)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("geosphere_arome", "error").Inc()
		return domain.ReferenceSample{}, fmt.Errorf("geosphere: %w", err)
	}
	c.metrics.FetchRequests.WithLabelValues("geosphere_arome", "success").Inc()
	return sample, nil
}

// decodeSample finds the timestamp matching the reference hour in local
// time. AROME timestamps are UTC.
func decodeSample(body []byte, date string, local *time.Location) (domain.ReferenceSample, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ReferenceSample{}, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Features) == 0 {
		return domain.ReferenceSample{}, fmt.Errorf("no features in response")
	}

	refIdx := -1
	for i, ts := range resp.Timestamps {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		lt := t.In(local)
		if lt.Format("2006-01-02") == date && lt.Hour() == domain.ReferenceHour {
			refIdx = i
			break
		}
	}
	if refIdx < 0 {
		return domain.ReferenceSample{}, fmt.Errorf("no timestamp for %s %02d:00 local", date, domain.ReferenceHour)
	}

	raw := resp.Features[0].Properties.Parameters
	at := func(name string) *float64 {
		p, ok := raw[name]
		if !ok || refIdx >= len(p.Data) {
			return nil
		}
		return p.Data[refIdx]
	}

	sample := domain.ReferenceSample{
		Source: "geosphere_arome",
		Label:  "GeoSphere AROME 2.5 km",
		Values: make(map[domain.Param]*float64),
	}
	for geoName, p := range paramMap {
		if v := at(geoName); v != nil {
			sample.Values[p] = v
		}
	}
	if speed, dir, ok := windFromUV(at("u10m"), at("v10m")); ok {
		sample.Values[domain.ParamWindspeed10m] = &speed
		sample.Values[domain.ParamWinddirection10m] = &dir
	}
	if speed, _, ok := windFromUV(at("ugust"), at("vgust")); ok {
		sample.Values[domain.ParamWindgusts10m] = &speed
	}
	return sample, nil
}

// windFromUV converts u/v components to meteorological speed and direction
// (direction the wind blows from, degrees clockwise from north).
func windFromUV(u, v *float64) (speed, direction float64, ok bool) {
	if u == nil || v == nil {
		return 0, 0, false
	}
	uu, vv := *u, *v
	speed = math.Sqrt(uu*uu + vv*vv)
	direction = math.Mod(270-(math.Atan2(vv, uu)*180/math.Pi), 360)
	if direction < 0 {
		direction += 360
	}
	return speed, direction, true
}
