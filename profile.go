// SPDX-License-Identifier: MIT

package fragtree

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mzkit/fragtree/internal/chem"
	"github.com/mzkit/fragtree/internal/decomp"
	"github.com/mzkit/fragtree/internal/ftree"
	"github.com/mzkit/fragtree/internal/pipeline"
	"github.com/mzkit/fragtree/internal/recal"
	"github.com/mzkit/fragtree/internal/score"
)

// ProfileConfig is the serialized form of an analysis profile. Zero
// fields keep their defaults, so a profile file only states what differs
// from DefaultAnalysis.
type ProfileConfig struct {
	MassDeviationPPM     float64        `yaml:"mass_deviation_ppm"`
	MassDeviationAbs     float64        `yaml:"mass_deviation_abs"`
	IntensityDeviation   float64        `yaml:"intensity_deviation"`
	MedianNoiseIntensity float64        `yaml:"median_noise_intensity"`
	Normalization        string         `yaml:"normalization"` // "global" or "local"
	Elements             map[string]int `yaml:"elements"`
	MinRDBE              *float64       `yaml:"min_rdbe"`

	TreeSizeBonus  *float64 `yaml:"tree_size_bonus"`
	NoiseThreshold float64  `yaml:"noise_threshold"`
	PeakLimit      int      `yaml:"peak_limit"`
	MaxColors      int      `yaml:"max_colors"`

	Recalibration struct {
		Disabled      bool    `yaml:"disabled"`
		Degree        int     `yaml:"degree"`
		MinReferences int     `yaml:"min_references"`
		OutlierPPM    float64 `yaml:"outlier_ppm"`
	} `yaml:"recalibration"`
}

// LoadProfile reads a YAML profile.
func LoadProfile(r io.Reader) (*ProfileConfig, error) {
	var cfg ProfileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return &cfg, nil
}

// LoadProfileFile reads a YAML profile from disk.
func LoadProfileFile(path string) (*ProfileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadProfile(f)
}

// Analysis builds a configured analysis from the profile.
func (c *ProfileConfig) Analysis() (*Analysis, error) {
	a := DefaultAnalysis()

	if c.MassDeviationPPM > 0 {
		a.Profile.AllowedMassDeviation.Ppm = c.MassDeviationPPM
	}
	if c.MassDeviationAbs > 0 {
		a.Profile.AllowedMassDeviation.Abs = c.MassDeviationAbs
	}
	if c.IntensityDeviation > 0 {
		a.Profile.IntensityDeviation = c.IntensityDeviation
	}
	if c.MedianNoiseIntensity > 0 {
		a.Profile.MedianNoiseIntensity = c.MedianNoiseIntensity
	}
	switch c.Normalization {
	case "", "global":
		a.Profile.Normalization = pipeline.NormalizeGlobal
	case "local":
		a.Profile.Normalization = pipeline.NormalizeLocal
	default:
		return nil, fmt.Errorf("unknown normalization %q", c.Normalization)
	}

	if len(c.Elements) > 0 {
		counts := make(map[chem.Element]int, len(c.Elements))
		for sym, n := range c.Elements {
			e, ok := chem.ElementBySymbol(sym)
			if !ok {
				return nil, fmt.Errorf("profile elements: unknown element %q", sym)
			}
			counts[e] = n
		}
		a.Profile.Constraints = decomp.NewConstraints(counts)
	}
	if c.MinRDBE != nil {
		a.Profile.Constraints.MinRDBE = *c.MinRDBE
	}

	if c.TreeSizeBonus != nil {
		for i, s := range a.Scoring.PeakScorers {
			if _, ok := s.(score.TreeSizeScorer); ok {
				a.Scoring.PeakScorers[i] = score.TreeSizeScorer{Bonus: *c.TreeSizeBonus}
			}
		}
	}
	if c.NoiseThreshold > 0 || c.PeakLimit > 0 {
		a.PostProcessors = []pipeline.PostProcessor{
			pipeline.NoiseThresholdFilter{Threshold: c.NoiseThreshold},
			pipeline.LimitNumberOfPeaksFilter{Limit: c.PeakLimit},
		}
	}
	if c.MaxColors > 0 {
		a.Builder = ftree.DPBuilder{MaxColors: c.MaxColors}
	}

	if c.Recalibration.Disabled {
		a.Recalibration = nil
	} else if c.Recalibration.Degree > 0 || c.Recalibration.MinReferences > 0 || c.Recalibration.OutlierPPM > 0 {
		m := recal.DefaultMethod()
		if c.Recalibration.Degree > 0 {
			m.Degree = c.Recalibration.Degree
		}
		if c.Recalibration.MinReferences > 0 {
			m.MinReferences = c.Recalibration.MinReferences
		}
		if c.Recalibration.OutlierPPM > 0 {
			m.OutlierPPM = c.Recalibration.OutlierPPM
		}
		a.Recalibration = m
	}
	return a, nil
}
