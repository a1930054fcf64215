package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for guidance tuning
// parameters. All fields are pointers so partial JSON files are safe:
// omitted fields fall back to the defaults baked into the Get* accessors.
type TuningConfig struct {
	// Recording / tick cadences (duration strings like "100ms")
	TickInterval  *string `json:"tick_interval,omitempty"`
	MatchInterval *string `json:"match_interval,omitempty"`

	// Path simplification thresholds (radians of cumulative heading change)
	SimplifyAngleStandard   *float64 `json:"simplify_angle_standard_rad,omitempty"`
	SimplifyAngleAccessible *float64 `json:"simplify_angle_accessible_rad,omitempty"`

	// Direction resolution
	ArrivalRadiusMeters *float64 `json:"arrival_radius_meters,omitempty"`
	SlopeThreshold      *float64 `json:"slope_threshold,omitempty"`

	// Heading calibration
	CalibrationWindow       *int     `json:"calibration_window,omitempty"`
	CalibrationMinDistance  *float64 `json:"calibration_min_distance_meters,omitempty"`
	CalibrationHeadingDevia *float64 `json:"calibration_heading_deviation_rad,omitempty"`
	CalibrationLinearDevia  *float64 `json:"calibration_linear_deviation_meters,omitempty"`

	// Alignment
	SoftAlignMinSegment *float64 `json:"soft_align_min_segment_meters,omitempty"`

	// Path matching
	MatchGateMeters     *float64 `json:"match_gate_meters,omitempty"`
	MatchMaxIterations  *int     `json:"match_max_iterations,omitempty"`
	MatchConvergeMeters *float64 `json:"match_converge_meters,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath. It searches for the file in the current directory and
// common parent directories. Panics if the file cannot be loaded; intended
// for test setup and binaries that have already validated config availability.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/nav/session/
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}
	if c.MatchInterval != nil && *c.MatchInterval != "" {
		if _, err := time.ParseDuration(*c.MatchInterval); err != nil {
			return fmt.Errorf("invalid match_interval '%s': %w", *c.MatchInterval, err)
		}
	}
	if c.SimplifyAngleStandard != nil {
		if *c.SimplifyAngleStandard <= 0 || *c.SimplifyAngleStandard >= math.Pi {
			return fmt.Errorf("simplify_angle_standard_rad must be in (0, π), got %f", *c.SimplifyAngleStandard)
		}
	}
	if c.SimplifyAngleAccessible != nil {
		if *c.SimplifyAngleAccessible <= 0 || *c.SimplifyAngleAccessible >= math.Pi {
			return fmt.Errorf("simplify_angle_accessible_rad must be in (0, π), got %f", *c.SimplifyAngleAccessible)
		}
	}
	// The accessible threshold must not exceed the standard one, or haptic
	// guidance would get sparser keypoints than spoken guidance.
	if c.SimplifyAngleAccessible != nil && c.SimplifyAngleStandard != nil {
		if *c.SimplifyAngleAccessible > *c.SimplifyAngleStandard {
			return fmt.Errorf("simplify_angle_accessible_rad (%f) must not exceed simplify_angle_standard_rad (%f)",
				*c.SimplifyAngleAccessible, *c.SimplifyAngleStandard)
		}
	}
	if c.ArrivalRadiusMeters != nil && *c.ArrivalRadiusMeters <= 0 {
		return fmt.Errorf("arrival_radius_meters must be positive, got %f", *c.ArrivalRadiusMeters)
	}
	if c.SlopeThreshold != nil && *c.SlopeThreshold <= 0 {
		return fmt.Errorf("slope_threshold must be positive, got %f", *c.SlopeThreshold)
	}
	if c.CalibrationWindow != nil && *c.CalibrationWindow < 2 {
		return fmt.Errorf("calibration_window must be at least 2, got %d", *c.CalibrationWindow)
	}
	if c.CalibrationMinDistance != nil && *c.CalibrationMinDistance <= 0 {
		return fmt.Errorf("calibration_min_distance_meters must be positive, got %f", *c.CalibrationMinDistance)
	}
	if c.CalibrationHeadingDevia != nil && *c.CalibrationHeadingDevia <= 0 {
		return fmt.Errorf("calibration_heading_deviation_rad must be positive, got %f", *c.CalibrationHeadingDevia)
	}
	if c.CalibrationLinearDevia != nil && *c.CalibrationLinearDevia <= 0 {
		return fmt.Errorf("calibration_linear_deviation_meters must be positive, got %f", *c.CalibrationLinearDevia)
	}
	if c.SoftAlignMinSegment != nil && *c.SoftAlignMinSegment <= 0 {
		return fmt.Errorf("soft_align_min_segment_meters must be positive, got %f", *c.SoftAlignMinSegment)
	}
	if c.MatchGateMeters != nil && *c.MatchGateMeters <= 0 {
		return fmt.Errorf("match_gate_meters must be positive, got %f", *c.MatchGateMeters)
	}
	if c.MatchMaxIterations != nil && *c.MatchMaxIterations < 1 {
		return fmt.Errorf("match_max_iterations must be at least 1, got %d", *c.MatchMaxIterations)
	}
	if c.MatchConvergeMeters != nil && *c.MatchConvergeMeters <= 0 {
		return fmt.Errorf("match_converge_meters must be positive, got %f", *c.MatchConvergeMeters)
	}
	return nil
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *TuningConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetMatchInterval parses and returns the MatchInterval as a time.Duration.
func (c *TuningConfig) GetMatchInterval() time.Duration {
	if c.MatchInterval == nil || *c.MatchInterval == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.MatchInterval)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetSimplifyAngleStandard returns the simplify_angle_standard_rad value or the default.
func (c *TuningConfig) GetSimplifyAngleStandard() float64 {
	if c.SimplifyAngleStandard == nil {
		return 0.52 // ~30°
	}
	return *c.SimplifyAngleStandard
}

// GetSimplifyAngleAccessible returns the simplify_angle_accessible_rad value or the default.
func (c *TuningConfig) GetSimplifyAngleAccessible() float64 {
	if c.SimplifyAngleAccessible == nil {
		return 0.26 // ~15°, denser keypoints for haptic guidance
	}
	return *c.SimplifyAngleAccessible
}

// GetArrivalRadiusMeters returns the arrival_radius_meters value or the default.
func (c *TuningConfig) GetArrivalRadiusMeters() float64 {
	if c.ArrivalRadiusMeters == nil {
		return 1.5
	}
	return *c.ArrivalRadiusMeters
}

// GetSlopeThreshold returns the slope_threshold value or the default.
func (c *TuningConfig) GetSlopeThreshold() float64 {
	if c.SlopeThreshold == nil {
		return 0.3 // rise over run
	}
	return *c.SlopeThreshold
}

// GetCalibrationWindow returns the calibration_window value or the default.
func (c *TuningConfig) GetCalibrationWindow() int {
	if c.CalibrationWindow == nil {
		return 25 // ~2.5s of samples at the default tick interval
	}
	return *c.CalibrationWindow
}

// GetCalibrationMinDistance returns the calibration_min_distance_meters value or the default.
func (c *TuningConfig) GetCalibrationMinDistance() float64 {
	if c.CalibrationMinDistance == nil {
		return 2.0
	}
	return *c.CalibrationMinDistance
}

// GetCalibrationHeadingDeviation returns the calibration_heading_deviation_rad value or the default.
func (c *TuningConfig) GetCalibrationHeadingDeviation() float64 {
	if c.CalibrationHeadingDevia == nil {
		return 0.3
	}
	return *c.CalibrationHeadingDevia
}

// GetCalibrationLinearDeviation returns the calibration_linear_deviation_meters value or the default.
func (c *TuningConfig) GetCalibrationLinearDeviation() float64 {
	if c.CalibrationLinearDevia == nil {
		return 0.5
	}
	return *c.CalibrationLinearDevia
}

// GetSoftAlignMinSegment returns the soft_align_min_segment_meters value or the default.
func (c *TuningConfig) GetSoftAlignMinSegment() float64 {
	if c.SoftAlignMinSegment == nil {
		return 0.5
	}
	return *c.SoftAlignMinSegment
}

// GetMatchGateMeters returns the match_gate_meters value or the default.
func (c *TuningConfig) GetMatchGateMeters() float64 {
	if c.MatchGateMeters == nil {
		return 2.0
	}
	return *c.MatchGateMeters
}

// GetMatchMaxIterations returns the match_max_iterations value or the default.
func (c *TuningConfig) GetMatchMaxIterations() int {
	if c.MatchMaxIterations == nil {
		return 8
	}
	return *c.MatchMaxIterations
}

// GetMatchConvergeMeters returns the match_converge_meters value or the default.
func (c *TuningConfig) GetMatchConvergeMeters() float64 {
	if c.MatchConvergeMeters == nil {
		return 0.001
	}
	return *c.MatchConvergeMeters
}
