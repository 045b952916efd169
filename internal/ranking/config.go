package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight overrides
}

// LoadCalibration loads ranking weights from a JSON calibration file.
// Partial configurations are merged with defaults, so a calibration file may
// override just one or two weights. On any error the defaults are returned
// alongside the error so callers can degrade gracefully.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights onto base weights. Only non-zero
// override values are applied, which allows partial calibration files. A zero
// weight cannot be expressed through calibration; disable a signal by editing
// the defaults instead.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base

	if override.Topic != 0 {
		result.Topic = override.Topic
	}
	if override.Semantic != 0 {
		result.Semantic = override.Semantic
	}
	if override.PubRecency != 0 {
		result.PubRecency = override.PubRecency
	}
	if override.PCRecency != 0 {
		result.PCRecency = override.PCRecency
	}
	if override.Impact != 0 {
		result.Impact = override.Impact
	}
	if override.PageRank != 0 {
		result.PageRank = override.PageRank
	}
	if override.Experience != 0 {
		result.Experience = override.Experience
	}
	if override.Newcomer != 0 {
		result.Newcomer = override.Newcomer
	}

	return &result
}

// logCalibrationOverrides logs which weights differ from the defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	add := func(name string, def, got float64) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, def, got))
		}
	}

	add("topic", defaults.Topic, loaded.Topic)
	add("semantic", defaults.Semantic, loaded.Semantic)
	add("pub_recency", defaults.PubRecency, loaded.PubRecency)
	add("pc_recency", defaults.PCRecency, loaded.PCRecency)
	add("impact", defaults.Impact, loaded.Impact)
	add("pagerank", defaults.PageRank, loaded.PageRank)
	add("experience", defaults.Experience, loaded.Experience)
	add("newcomer", defaults.Newcomer, loaded.Newcomer)

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
