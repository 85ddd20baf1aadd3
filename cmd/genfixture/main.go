// Command genfixture writes synthetic Open-Meteo response bundles for
// offline development and adapter tests. Each scenario is one directory of
// per-variant JSON files shaped like real API responses.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

var variants = map[string][]string{
	"icon_d2": {
		"temperature_2m", "dewpoint_2m", "windspeed_10m", "windgusts_10m",
		"cloudcover", "precipitation", "cape", "shortwave_radiation",
		"temperature_850hPa", "temperature_700hPa",
		"windspeed_850hPa", "windspeed_700hPa", "updraft",
	},
	"ecmwf_ifs025": {
		"temperature_2m", "dewpoint_2m", "windspeed_10m", "windgusts_10m",
		"cloudcover", "precipitation", "cape", "shortwave_radiation",
		"temperature_850hPa", "temperature_700hPa",
		"windspeed_850hPa", "windspeed_700hPa",
	},
	"gfs_seamless": {
		"temperature_2m", "dewpoint_2m", "windspeed_10m", "windgusts_10m",
		"cloudcover", "precipitation", "cape", "shortwave_radiation",
		"temperature_850hPa", "temperature_700hPa", "temperature_500hPa",
		"windspeed_850hPa", "windspeed_700hPa",
		"boundary_layer_height", "lifted_index", "convective_inhibition",
	},
}

var ensembleParams = []string{
	"cape", "windspeed_850hPa", "precipitation", "cloudcover",
	"temperature_2m", "windgusts_10m", "shortwave_radiation",
}

// A scenario reshapes the baseline day. nullDay drops every value.
type scenario struct {
	name   string
	adjust func(param string, v float64) float64
	null   bool
}

var scenarios = []scenario{
	{name: "clear-thermal-day", adjust: func(_ string, v float64) float64 { return v }},
	{name: "windy-day", adjust: func(param string, v float64) float64 {
		switch param {
		case "windspeed_10m", "windspeed_850hPa", "windspeed_700hPa":
			return v + 8
		case "windgusts_10m":
			return v + 12
		}
		return v
	}},
	{name: "rainy-day", adjust: func(param string, v float64) float64 {
		switch param {
		case "precipitation":
			return 2.5
		case "cloudcover":
			return 95
		case "shortwave_radiation":
			return v * 0.15
		}
		return v
	}},
	{name: "null-day", null: true},
}

func main() {
	out := flag.String("out", "testdata", "output directory")
	date := flag.String("date", "2026-09-05", "forecast date (YYYY-MM-DD)")
	flag.Parse()

	for _, sc := range scenarios {
		dir := filepath.Join(*out, sc.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
		for variant, params := range variants {
			if err := write(filepath.Join(dir, variant+".json"), forecastDoc(*date, params, sc)); err != nil {
				fatal(err)
			}
		}
		for _, source := range []string{"ecmwf_ens", "icon_eu_eps"} {
			if err := write(filepath.Join(dir, source+".json"), ensembleDoc(*date, 20, sc)); err != nil {
				fatal(err)
			}
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func write(path string, doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

func forecastDoc(date string, params []string, sc scenario) map[string]any {
	hourly := map[string]any{"time": timeAxis(date)}
	for _, p := range params {
		hourly[p] = column(p, sc)
	}
	return map[string]any{"hourly": hourly}
}

func ensembleDoc(date string, members int, sc scenario) map[string]any {
	hourly := map[string]any{"time": timeAxis(date)}
	for _, p := range ensembleParams {
		hourly[p] = column(p, sc)
		for m := 1; m <= members; m++ {
			col := column(p, sc)
			// Spread members around the control.
			for i, v := range col {
				if v != nil {
					spread := *v * (1 + 0.02*float64(m-members/2))
					col[i] = &spread
				}
			}
			hourly[fmt.Sprintf("%s_member%02d", p, m)] = col
		}
	}
	return map[string]any{"hourly": hourly}
}

func timeAxis(date string) []string {
	axis := make([]string, 24)
	for h := range 24 {
		axis[h] = fmt.Sprintf("%sT%02d:00", date, h)
	}
	return axis
}

func column(param string, sc scenario) []*float64 {
	col := make([]*float64, 24)
	if sc.null {
		return col
	}
	for h := range 24 {
		v := sc.adjust(param, value(param, h))
		col[h] = &v
	}
	return col
}

// value sketches a diurnal curve per parameter. Solar-driven fields follow
// a sine bump between 06 and 20 local.
func value(param string, hour int) float64 {
	sun := 0.0
	if hour >= 6 && hour <= 20 {
		sun = math.Sin(math.Pi * float64(hour-6) / 14)
	}
	switch param {
	case "temperature_2m":
		return 16 + 10*sun
	case "dewpoint_2m":
		return 6
	case "windspeed_10m":
		return 2 + 2*sun
	case "windgusts_10m":
		return 4 + 4*sun
	case "cloudcover":
		return 15 + 20*sun
	case "precipitation":
		return 0
	case "cape":
		return 800 * sun
	case "shortwave_radiation":
		return 750 * sun
	case "temperature_850hPa":
		return 11
	case "temperature_700hPa":
		return 1
	case "temperature_500hPa":
		return -14
	case "windspeed_850hPa":
		return 4
	case "windspeed_700hPa":
		return 5
	case "boundary_layer_height":
		return 400 + 1600*sun
	case "lifted_index":
		return -1
	case "convective_inhibition":
		return -25
	case "updraft":
		return 1.2 * sun
	default:
		return 0
	}
}
