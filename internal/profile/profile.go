// Package profile loads named export profiles from a YAML file. A profile
// bundles the pipeline knobs for a recurring export so repeat invocations
// stay reproducible.
package profile

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Profile is one named export configuration.
type Profile struct {
	Location             string   `yaml:"location"`
	FeatureClasses       []string `yaml:"feature_classes"`
	AddElevation         bool     `yaml:"add_elevation"`
	MaxElevationRequests int      `yaml:"max_elevation_requests"`
	Units                string   `yaml:"units"`
	Output               string   `yaml:"output"`
	PrimaryLayer         string   `yaml:"primary_layer,omitempty"`
	SecondaryLayer       string   `yaml:"secondary_layer,omitempty"`
	JoinColumn           string   `yaml:"join_column,omitempty"`
	ClearCacheAfter      bool     `yaml:"clear_cache_after"`
}

// Defaults fill in profile fields left unset.
type Defaults struct {
	Units                string `yaml:"units"`
	MaxElevationRequests int    `yaml:"max_elevation_requests"`
}

// Set holds every profile from one file.
type Set struct {
	Defaults Defaults           `yaml:"defaults"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// Load reads profiles from a YAML file and applies the file's defaults to
// profiles that leave units or the elevation budget unset.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read %s", path)
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, eris.Wrapf(err, "profile: parse %s", path)
	}

	for name, p := range set.Profiles {
		if p.Units == "" {
			p.Units = set.Defaults.Units
		}
		if p.MaxElevationRequests == 0 {
			p.MaxElevationRequests = set.Defaults.MaxElevationRequests
		}
		set.Profiles[name] = p
	}

	return &set, nil
}

// Names returns the profile names, sorted.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the named profile. Unknown names error with the available
// names listed.
func (s *Set) Get(name string) (Profile, error) {
	p, ok := s.Profiles[name]
	if !ok {
		return Profile{}, eris.Errorf("profile: %q not found (available: %s)",
			name, strings.Join(s.Names(), ", "))
	}
	return p, nil
}
