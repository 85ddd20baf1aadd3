package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/flight-triage/internal/domain"
)

//go:embed sites.yaml
var embeddedCatalog []byte

type catalogFile struct {
	Sites []catalogSite `yaml:"sites"`
}

type catalogSite struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Lat            float64 `yaml:"lat"`
	Lon            float64 `yaml:"lon"`
	Elevation      float64 `yaml:"elevation"`
	PeaksElevation float64 `yaml:"peaks_elevation"`
	GeoSphereID    string  `yaml:"geosphere_id"`
	MOSMIXStation  string  `yaml:"mosmix_station"`
	DriveHours     float64 `yaml:"drive_hours"`
}

// LoadCatalog reads the launch catalog from path, or the embedded default
// when path is empty.
func LoadCatalog(path string) ([]domain.Site, error) {
	raw := embeddedCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		raw = b
	}
	return parseCatalog(raw)
}

func parseCatalog(raw []byte) ([]domain.Site, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Sites) == 0 {
		return nil, fmt.Errorf("catalog has no sites")
	}

	seen := make(map[string]bool, len(file.Sites))
	sites := make([]domain.Site, 0, len(file.Sites))
	for i, cs := range file.Sites {
		if err := validateSite(cs); err != nil {
			return nil, fmt.Errorf("catalog site %d: %w", i, err)
		}
		if seen[cs.ID] {
			return nil, fmt.Errorf("catalog site %d: duplicate id %q", i, cs.ID)
		}
		seen[cs.ID] = true
		sites = append(sites, domain.Site{
			ID:             cs.ID,
			Name:           cs.Name,
			Lat:            cs.Lat,
			Lon:            cs.Lon,
			Elevation:      cs.Elevation,
			PeaksElevation: cs.PeaksElevation,
			GeoSphereID:    cs.GeoSphereID,
			MOSMIXStation:  cs.MOSMIXStation,
			DriveHours:     cs.DriveHours,
		})
	}
	return sites, nil
}

func validateSite(cs catalogSite) error {
	switch {
	case cs.ID == "":
		return fmt.Errorf("id is required")
	case cs.Name == "":
		return fmt.Errorf("name is required")
	case cs.Lat < -90 || cs.Lat > 90:
		return fmt.Errorf("lat %.2f out of range", cs.Lat)
	case cs.Lon < -180 || cs.Lon > 180:
		return fmt.Errorf("lon %.2f out of range", cs.Lon)
	case cs.PeaksElevation < cs.Elevation:
		return fmt.Errorf("peaks_elevation %.0f below launch elevation %.0f", cs.PeaksElevation, cs.Elevation)
	}
	return nil
}
