package openmeteo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/couchcryptid/flight-triage/internal/domain"
)

// hourlyBlock is the "hourly" object of an Open-Meteo response: a time axis
// plus one numeric column per requested parameter. Ensemble responses add
// one column per member ("cape_member01", ...).
type hourlyBlock struct {
	Time    []string
	Columns map[string][]*float64
}

func (h *hourlyBlock) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.Columns = make(map[string][]*float64, len(raw))
	for k, v := range raw {
		if k == "time" {
			if err := json.Unmarshal(v, &h.Time); err != nil {
				return fmt.Errorf("time axis: %w", err)
			}
			continue
		}
		var col []*float64
		if err := json.Unmarshal(v, &col); err != nil {
			// Non-numeric columns (units blocks etc.) are irrelevant here.
			continue
		}
		h.Columns[k] = col
	}
	return nil
}

type apiResponse struct {
	Hourly hourlyBlock `json:"hourly"`
}

// hourIndex maps each analysis hour to its index on the response time axis,
// -1 where the model did not cover the hour. Open-Meteo returns local times
// ("2026-09-05T13:00") because the request pins a timezone.
func hourIndex(times []string, date string) []int {
	idx := make([]int, 0, domain.AnalysisEndHour-domain.AnalysisStartHour+1)
	for h := domain.AnalysisStartHour; h <= domain.AnalysisEndHour; h++ {
		stamp := fmt.Sprintf("%sT%02d:00", date, h)
		found := -1
		for i, t := range times {
			if t == stamp {
				found = i
				break
			}
		}
		idx = append(idx, found)
	}
	return idx
}

// decodeSeries extracts the analysis-hour series for the target date.
func decodeSeries(body []byte, date string, params []domain.Param) (*domain.HourlySeries, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Hourly.Time) == 0 {
		return nil, fmt.Errorf("response has no time axis")
	}

	idx := hourIndex(resp.Hourly.Time, date)
	series := &domain.HourlySeries{
		Hours:  domain.AnalysisHours(),
		Values: make(map[domain.Param][]*float64, len(params)),
	}
	for _, p := range params {
		col, ok := resp.Hourly.Columns[string(p)]
		if !ok {
			continue
		}
		vals := make([]*float64, len(idx))
		for i, at := range idx {
			if at >= 0 && at < len(col) {
				vals[i] = col[at]
			}
		}
		series.Values[p] = vals
	}
	return series, nil
}

// decodeEnsemble extracts raw member columns for the target date. Member
// columns follow the "<param>_memberNN" convention; ordering is made
// deterministic by sorting the keys.
func decodeEnsemble(body []byte, source, date string) (domain.EnsembleSeries, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.EnsembleSeries{}, fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Hourly.Time) == 0 {
		return domain.EnsembleSeries{}, fmt.Errorf("response has no time axis")
	}

	idx := hourIndex(resp.Hourly.Time, date)
	es := domain.EnsembleSeries{
		Source:  source,
		Hours:   domain.AnalysisHours(),
		Members: make(map[domain.Param][][]*float64, len(ensembleParams)),
	}
	for _, p := range ensembleParams {
		prefix := string(p) + "_member"
		var keys []string
		for k := range resp.Hourly.Columns {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)

		members := make([][]*float64, 0, len(keys))
		for _, k := range keys {
			col := resp.Hourly.Columns[k]
			vals := make([]*float64, len(idx))
			for i, at := range idx {
				if at >= 0 && at < len(col) {
					vals[i] = col[at]
				}
			}
			members = append(members, vals)
		}
		es.Members[p] = members
	}
	if len(es.Members) == 0 {
		return domain.EnsembleSeries{}, fmt.Errorf("%s: no member columns for %s", source, date)
	}
	return es, nil
}
