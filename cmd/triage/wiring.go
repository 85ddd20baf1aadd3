package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/flight-triage/internal/adapter/geosphere"
	"github.com/couchcryptid/flight-triage/internal/adapter/httpfetch"
	kafkaadapter "github.com/couchcryptid/flight-triage/internal/adapter/kafka"
	"github.com/couchcryptid/flight-triage/internal/adapter/mosmix"
	"github.com/couchcryptid/flight-triage/internal/adapter/openmeteo"
	"github.com/couchcryptid/flight-triage/internal/config"
	"github.com/couchcryptid/flight-triage/internal/domain"
	"github.com/couchcryptid/flight-triage/internal/observability"
	"github.com/couchcryptid/flight-triage/internal/pipeline"
)

// buildPipeline assembles the fetch stack and pipeline from config. The
// returned publisher is nil unless Kafka is enabled; the caller owns its
// Close.
func buildPipeline(cfg *config.Config, sites []domain.Site, logger *slog.Logger, metrics *observability.Metrics) (*pipeline.Pipeline, *kafkaadapter.Publisher) {
	fetch := httpfetch.NewClient(cfg.FetchTimeout, logger, metrics)
	forecasts := openmeteo.NewClient(fetch, logger, metrics)

	local := cfg.Location()
	regional := []pipeline.RegionalSource{
		{
			Name:    "geosphere_arome",
			Sampler: geosphere.NewClient(fetch, local, logger, metrics),
			Enabled: func(s domain.Site) bool { return s.GeoSphereID != "" },
		},
		{
			Name:    "mosmix",
			Sampler: mosmix.NewClient(fetch, local, logger, metrics),
			Enabled: func(s domain.Site) bool { return s.MOSMIXStation != "" },
		},
	}

	var publisher *kafkaadapter.Publisher
	var pub pipeline.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		pub = publisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(sites, forecasts, regional, pub, cfg.OutputDir, cfg.FetchConcurrency, logger, metrics)
	return p, publisher
}

// filterSites narrows the catalog to the requested ids. An empty filter
// keeps everything.
func filterSites(sites []domain.Site, ids []string) ([]domain.Site, error) {
	if len(ids) == 0 {
		return sites, nil
	}
	byID := make(map[string]domain.Site, len(sites))
	for _, s := range sites {
		byID[s.ID] = s
	}
	out := make([]domain.Site, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown location %q", id)
		}
		out = append(out, s)
	}
	return out, nil
}
