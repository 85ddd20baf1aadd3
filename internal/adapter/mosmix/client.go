// Package mosmix fetches DWD MOSMIX_L statistical point forecasts. Like
// AROME, MOSMIX stays outside the fused profile and contributes a
// reference-hour sample per station.
//
// The upstream format is a KMZ: a zip archive holding one KML document with
// forecast columns as whitespace-separated value strings.
package mosmix

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
)

const defaultBaseURL = "https://opendata.dwd.de/weather/local_forecasts/mos/MOSMIX_L/single_stations"

// sentinel marks a missing value in MOSMIX columns.
const sentinel = "-999.00"

// element describes one MOSMIX column we carry into the sample. Kelvin
// temperatures are converted to Celsius.
type element struct {
	param  domain.Param
	kelvin bool
}

var elements = map[string]element{
	"TTT":   {param: domain.ParamTemperature2m, kelvin: true},
	"Td":    {param: domain.ParamDewpoint2m, kelvin: true},
	"FF":    {param: domain.ParamWindspeed10m},
	"FX1":   {param: domain.ParamWindgusts10m},
	"DD":    {param: domain.ParamWinddirection10m},
	"N":     {param: domain.ParamCloudcover},
	"Nl":    {param: domain.ParamCloudcoverLow},
	"Nm":    {param: domain.ParamCloudcoverMid},
	"Nh":    {param: domain.ParamCloudcoverHigh},
	"RR1c":  {param: domain.ParamPrecipitation},
	"Rad1h": {param: domain.ParamShortwave},
	"SunD1": {param: domain.ParamSunshineDuration},
}

// Client fetches MOSMIX_L station forecasts.
type Client struct {
	fetch   *httpfetch.Client
	logger  *slog.Logger
	metrics *observability.Metrics
	baseURL string
	local   *time.Location
}

// NewClient creates a MOSMIX client reporting in the given local timezone.
func NewClient(fetch *httpfetch.Client, local *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		fetch:   fetch,
		logger:  logger,
		metrics: metrics,
		baseURL: defaultBaseURL,
		local:   local,
	}
}

// FetchSample downloads the latest station KMZ and extracts the
// reference-hour sample for the target date.
func (c *Client) FetchSample(ctx context.Context, site domain.Site, date string) (domain.ReferenceSample, error) {
	u := fmt.Sprintf("%s/%s/kml/MOSMIX_L_LATEST_%s.kmz", c.baseURL, site.MOSMIXStation, site.MOSMIXStation)

	start := time.Now()
	raw, err := c.fetch.Get(ctx, u)
	c.metrics.FetchDuration.WithLabelValues("mosmix").Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("mosmix", "error").Inc()
		return domain.ReferenceSample{}, fmt.Errorf("mosmix %s: %w", site.MOSMIXStation, err)
	}

	sample, err := decodeKMZ(raw, date, c.local)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("mosmix", "error").Inc()
		return domain.ReferenceSample{}, fmt.Errorf("mosmix %s: %w", site.MOSMIXStation, err)
	}
	c.metrics.FetchRequests.WithLabelValues("mosmix", "success").Inc()
	return sample, nil
}

type kmlDocument struct {
	TimeSteps  []string    `xml:"Document>ExtendedData>ProductDefinition>ForecastTimeSteps>TimeStep"`
	Placemarks []placemark `xml:"Document>Placemark"`
}

type placemark struct {
	Name      string        `xml:"name"`
	Forecasts []forecastCol `xml:"ExtendedData>Forecast"`
}

type forecastCol struct {
	ElementName string `xml:"elementName,attr"`
	Value       string `xml:"value"`
}

func decodeKMZ(raw []byte, date string, local *time.Location) (domain.ReferenceSample, error) {
	kml, err := extractKML(raw)
	if err != nil {
		return domain.ReferenceSample{}, err
	}
	return decodeKML(kml, date, local)
}

// extractKML opens the KMZ archive and returns its KML entry.
func extractKML(raw []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open kmz: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("no kml entry in archive")
}

func decodeKML(kml []byte, date string, local *time.Location) (domain.ReferenceSample, error) {
	var doc kmlDocument
	if err := xml.Unmarshal(kml, &doc); err != nil {
		return domain.ReferenceSample{}, fmt.Errorf("decode kml: %w", err)
	}
	if len(doc.Placemarks) == 0 {
		return domain.ReferenceSample{}, fmt.Errorf("no placemark in kml")
	}

	// MOSMIX timestamps are UTC; the reference hour is local.
	refIdx := -1
	for i, ts := range doc.TimeSteps {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(ts))
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
		return domain.ReferenceSample{}, fmt.Errorf("no timestep for %s %02d:00 local", date, domain.ReferenceHour)
	}

	pm := doc.Placemarks[0]
	sample := domain.ReferenceSample{
		Source: "mosmix",
		Label:  "DWD MOSMIX_L " + strings.TrimSpace(pm.Name),
		Values: make(map[domain.Param]*float64),
	}
	for _, col := range pm.Forecasts {
		el, ok := elements[col.ElementName]
		if !ok {
			continue
		}
		fields := strings.Fields(col.Value)
		if refIdx >= len(fields) {
			continue
		}
		v, ok := parseValue(fields[refIdx], el.kelvin)
		if !ok {
			continue
		}
		sample.Values[el.param] = &v
	}
	return sample, nil
}

func parseValue(field string, kelvin bool) (float64, bool) {
	if field == sentinel || field == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, false
	}
	if kelvin {
		v -= 273.15
	}
	return v, true
}
