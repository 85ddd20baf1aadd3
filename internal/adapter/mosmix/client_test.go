package mosmix

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
)

var berlin = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(err)
	}
	return loc
}()

// Timestamps are UTC; 2026-09-05 is CEST, so 11:00Z is the 13:00 local
// reference hour (column index 1).
const testKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml:kml xmlns:kml="http://www.opengis.net/kml/2.2" xmlns:dwd="https://opendata.dwd.de/weather/lib/pointforecast_dwd_extension_V1_0.xsd">
<kml:Document>
<kml:ExtendedData>
<dwd:ProductDefinition>
<dwd:ForecastTimeSteps>
<dwd:TimeStep>2026-09-05T10:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2026-09-05T11:00:00.000Z</dwd:TimeStep>
<dwd:TimeStep>2026-09-05T12:00:00.000Z</dwd:TimeStep>
</dwd:ForecastTimeSteps>
</dwd:ProductDefinition>
</kml:ExtendedData>
<kml:Placemark>
<kml:name>LENGGRIES</kml:name>
<kml:ExtendedData>
<dwd:Forecast dwd:elementName="TTT"><dwd:value>294.15 298.15 297.15</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="Td"><dwd:value>280.15 281.15 281.15</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="FF"><dwd:value>2.5 3.6 4.0</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="FX1"><dwd:value>5.0 -999.00 7.0</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="N"><dwd:value>10 25 40</dwd:value></dwd:Forecast>
<dwd:Forecast dwd:elementName="PPPP"><dwd:value>101300.0 101250.0 101200.0</dwd:value></dwd:Forecast>
</kml:ExtendedData>
</kml:Placemark>
</kml:Document>
</kml:kml>`

func buildKMZ(t *testing.T, kml string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("MOSMIX_L_LATEST_10963.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(kml))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecodeKMZ(t *testing.T) {
	sample, err := decodeKMZ(buildKMZ(t, testKML), "2026-09-05", berlin)
	require.NoError(t, err)

	assert.Equal(t, "mosmix", sample.Source)
	assert.Equal(t, "DWD MOSMIX_L LENGGRIES", sample.Label)

	// Kelvin converted to Celsius at the reference column.
	require.NotNil(t, sample.Values[domain.ParamTemperature2m])
	assert.InDelta(t, 25.0, *sample.Values[domain.ParamTemperature2m], 1e-9)
	require.NotNil(t, sample.Values[domain.ParamDewpoint2m])
	assert.InDelta(t, 8.0, *sample.Values[domain.ParamDewpoint2m], 1e-9)

	require.NotNil(t, sample.Values[domain.ParamWindspeed10m])
	assert.Equal(t, 3.6, *sample.Values[domain.ParamWindspeed10m])
	require.NotNil(t, sample.Values[domain.ParamCloudcover])
	assert.Equal(t, 25.0, *sample.Values[domain.ParamCloudcover])

	// Sentinel value at the reference column drops the field.
	assert.NotContains(t, sample.Values, domain.ParamWindgusts10m)
	// Unmapped columns never appear.
	assert.Len(t, sample.Values, 4)
}

func TestDecodeKMZ_Errors(t *testing.T) {
	t.Run("wrong date", func(t *testing.T) {
		_, err := decodeKMZ(buildKMZ(t, testKML), "2026-09-06", berlin)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no timestep")
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := decodeKMZ([]byte("plain text"), "2026-09-05", berlin)
		require.Error(t, err)
	})

	t.Run("archive without kml", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("readme.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("nothing"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		_, err = decodeKMZ(buf.Bytes(), "2026-09-05", berlin)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no kml entry")
	})
}

func TestFetchSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "10963")
		w.Write(buildKMZ(t, testKML))
	}))
	defer srv.Close()

	fetch := httpfetch.NewClient(5*time.Second, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
	c := NewClient(fetch, berlin, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
	c.baseURL = srv.URL

	site := domain.Site{ID: "lenggries", MOSMIXStation: "10963"}
	sample, err := c.FetchSample(context.Background(), site, "2026-09-05")
	require.NoError(t, err)
	require.NotNil(t, sample.Values[domain.ParamTemperature2m])
	assert.InDelta(t, 25.0, *sample.Values[domain.ParamTemperature2m], 1e-9)
}
