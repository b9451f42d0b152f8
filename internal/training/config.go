package training

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// ModeBasic is the default training mode
	ModeBasic     Mode = "basic"
	ModeReaction  Mode = "reaction"
	ModePrecision Mode = "precision"
	ModeStress    Mode = "stress"
	ModeMulti     Mode = "multi"

	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	// PatternRandom is the default target pattern
	PatternRandom   TargetPattern = "random"
	PatternSequence TargetPattern = "sequence"
	PatternWave     TargetPattern = "wave"
	PatternSpiral   TargetPattern = "spiral"

	// MovementStatic disables target movement
	MovementStatic   MovementPattern = "static"
	MovementLinear   MovementPattern = "linear"
	MovementCircular MovementPattern = "circular"
	MovementRandom   MovementPattern = "random"

	FeedbackImmediate FeedbackMode = "immediate"
	FeedbackDelayed   FeedbackMode = "delayed"
	FeedbackBatch     FeedbackMode = "batch"
	FeedbackNone      FeedbackMode = "none"

	ScoringStandard  ScoringSystem = "standard"
	ScoringTime      ScoringSystem = "time"
	ScoringCombo     ScoringSystem = "combo"
	ScoringPrecision ScoringSystem = "precision"
)

const (
	DurationMin = 60
	DurationMax = 3600

	TargetCountMin = 1
	TargetCountMax = 100

	ReactTimeMin = 200
	ReactTimeMax = 5000

	BrightnessMin = 0
	BrightnessMax = 100
)

var (
	validModes = map[Mode]struct{}{
		ModeBasic:     {},
		ModeReaction:  {},
		ModePrecision: {},
		ModeStress:    {},
		ModeMulti:     {},
	}

	validDifficulties = map[Difficulty]struct{}{
		DifficultyEasy:   {},
		DifficultyMedium: {},
		DifficultyHard:   {},
	}

	validTargetPatterns = map[TargetPattern]struct{}{
		PatternRandom:   {},
		PatternSequence: {},
		PatternWave:     {},
		PatternSpiral:   {},
	}

	validMovementPatterns = map[MovementPattern]struct{}{
		MovementStatic:   {},
		MovementLinear:   {},
		MovementCircular: {},
		MovementRandom:   {},
	}

	validFeedbackModes = map[FeedbackMode]struct{}{
		FeedbackImmediate: {},
		FeedbackDelayed:   {},
		FeedbackBatch:     {},
		FeedbackNone:      {},
	}

	validScoringSystems = map[ScoringSystem]struct{}{
		ScoringStandard:  {},
		ScoringTime:      {},
		ScoringCombo:     {},
		ScoringPrecision: {},
	}
)

type Mode string

func (m Mode) String() string {
	return string(m)
}

type Difficulty string

func (d Difficulty) String() string {
	return string(d)
}

type TargetPattern string

func (p TargetPattern) String() string {
	return string(p)
}

type MovementPattern string

func (p MovementPattern) String() string {
	return string(p)
}

type FeedbackMode string

func (m FeedbackMode) String() string {
	return string(m)
}

type ScoringSystem string

func (s ScoringSystem) String() string {
	return string(s)
}

// Config describes a single training run. It is validated before a session
// starts and must not be mutated afterwards.
type Config struct {
	Mode            Mode            `json:"mode" yaml:"mode"`
	Difficulty      Difficulty      `json:"difficulty" yaml:"difficulty"`
	Duration        int             `json:"duration" yaml:"duration"`       // seconds
	TargetCount     int             `json:"targetCount" yaml:"targetCount"` // number of targets to present
	ReactTime       int             `json:"reactTime" yaml:"reactTime"`     // milliseconds per target
	Sound           bool            `json:"sound" yaml:"sound"`
	Stressors       bool            `json:"stressors" yaml:"stressors"`
	Brightness      int             `json:"brightness" yaml:"brightness"` // percent
	TargetPattern   TargetPattern   `json:"targetPattern" yaml:"targetPattern"`
	MovementPattern MovementPattern `json:"movementPattern" yaml:"movementPattern"`
	FeedbackMode    FeedbackMode    `json:"feedbackMode" yaml:"feedbackMode"`
	ScoringSystem   ScoringSystem   `json:"scoringSystem" yaml:"scoringSystem"`
}

// Modifier scales mode defaults for a difficulty tier.
type Modifier struct {
	ReactTime       float64
	TargetSize      float64
	StressIntensity float64
}

var defaultConfigs = map[Mode]Config{
	ModeBasic: {
		Duration:        300,
		TargetCount:     10,
		ReactTime:       1000,
		Sound:           true,
		Brightness:      75,
		TargetPattern:   PatternRandom,
		MovementPattern: MovementStatic,
		FeedbackMode:    FeedbackImmediate,
		ScoringSystem:   ScoringStandard,
	},
	ModeReaction: {
		Duration:        180,
		TargetCount:     20,
		ReactTime:       500,
		Sound:           true,
		Brightness:      100,
		TargetPattern:   PatternRandom,
		MovementPattern: MovementStatic,
		FeedbackMode:    FeedbackImmediate,
		ScoringSystem:   ScoringTime,
	},
	ModePrecision: {
		Duration:        420,
		TargetCount:     15,
		ReactTime:       2000,
		Sound:           true,
		Brightness:      50,
		TargetPattern:   PatternSequence,
		MovementPattern: MovementStatic,
		FeedbackMode:    FeedbackImmediate,
		ScoringSystem:   ScoringPrecision,
	},
	ModeStress: {
		Duration:        240,
		TargetCount:     30,
		ReactTime:       750,
		Sound:           true,
		Stressors:       true,
		Brightness:      100,
		TargetPattern:   PatternRandom,
		MovementPattern: MovementRandom,
		FeedbackMode:    FeedbackDelayed,
		ScoringSystem:   ScoringCombo,
	},
	ModeMulti: {
		Duration:        360,
		TargetCount:     40,
		ReactTime:       1500,
		Sound:           true,
		Brightness:      85,
		TargetPattern:   PatternWave,
		MovementPattern: MovementCircular,
		FeedbackMode:    FeedbackBatch,
		ScoringSystem:   ScoringStandard,
	},
}

var difficultyModifiers = map[Difficulty]Modifier{
	DifficultyEasy:   {ReactTime: 1.5, TargetSize: 1.5, StressIntensity: 0.5},
	DifficultyMedium: {ReactTime: 1.0, TargetSize: 1.0, StressIntensity: 1.0},
	DifficultyHard:   {ReactTime: 0.7, TargetSize: 0.7, StressIntensity: 1.5},
}

// DefaultConfig returns the base configuration for the given mode at medium
// difficulty. Unknown modes fall back to basic.
func DefaultConfig(mode Mode) Config {
	config, ok := defaultConfigs[mode]
	if !ok {
		mode = ModeBasic
		config = defaultConfigs[ModeBasic]
	}

	config.Mode = mode
	config.Difficulty = DifficultyMedium
	return config
}

// NewConfig builds a configuration for the given mode with difficulty
// modifiers applied to the mode defaults.
func NewConfig(mode Mode, difficulty Difficulty) Config {
	config := DefaultConfig(mode)

	modifier, ok := difficultyModifiers[difficulty]
	if !ok {
		difficulty = DifficultyMedium
		modifier = difficultyModifiers[DifficultyMedium]
	}

	config.Difficulty = difficulty
	config.ReactTime = clampInt(int(float64(config.ReactTime)*modifier.ReactTime+0.5), ReactTimeMin, ReactTimeMax)
	return config
}

// DifficultyModifier returns the scaling factors for a difficulty tier.
// Unknown tiers return the medium modifier.
func DifficultyModifier(difficulty Difficulty) Modifier {
	if modifier, ok := difficultyModifiers[difficulty]; ok {
		return modifier
	}
	return difficultyModifiers[DifficultyMedium]
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	Fields map[string]string // field name to reason
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	problems := make([]string, len(names))
	for i, name := range names {
		problems[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return fmt.Sprintf("invalid training config: %s", strings.Join(problems, "; "))
}

// Has reports whether the given field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Validate checks all configuration fields against their allowed ranges.
// It returns a *ValidationError listing every offending field, or nil when
// the configuration is valid.
func (c Config) Validate() error {
	fields := make(map[string]string)

	if c.Mode == "" {
		fields["mode"] = "mode is required"
	} else if _, ok := validModes[c.Mode]; !ok {
		fields["mode"] = fmt.Sprintf("unknown mode '%s'", c.Mode)
	}

	if c.Difficulty == "" {
		fields["difficulty"] = "difficulty is required"
	} else if _, ok := validDifficulties[c.Difficulty]; !ok {
		fields["difficulty"] = fmt.Sprintf("unknown difficulty '%s'", c.Difficulty)
	}

	if c.Duration < DurationMin || c.Duration > DurationMax {
		fields["duration"] = fmt.Sprintf("duration must be between %d and %d seconds", DurationMin, DurationMax)
	}
	if c.TargetCount < TargetCountMin || c.TargetCount > TargetCountMax {
		fields["targetCount"] = fmt.Sprintf("target count must be between %d and %d", TargetCountMin, TargetCountMax)
	}
	if c.ReactTime < ReactTimeMin || c.ReactTime > ReactTimeMax {
		fields["reactTime"] = fmt.Sprintf("react time must be between %dms and %dms", ReactTimeMin, ReactTimeMax)
	}
	if c.Brightness < BrightnessMin || c.Brightness > BrightnessMax {
		fields["brightness"] = fmt.Sprintf("brightness must be between %d%% and %d%%", BrightnessMin, BrightnessMax)
	}

	if c.TargetPattern != "" {
		if _, ok := validTargetPatterns[c.TargetPattern]; !ok {
			fields["targetPattern"] = fmt.Sprintf("unknown target pattern '%s'", c.TargetPattern)
		}
	}
	if c.MovementPattern != "" {
		if _, ok := validMovementPatterns[c.MovementPattern]; !ok {
			fields["movementPattern"] = fmt.Sprintf("unknown movement pattern '%s'", c.MovementPattern)
		}
	}
	if c.FeedbackMode != "" {
		if _, ok := validFeedbackModes[c.FeedbackMode]; !ok {
			fields["feedbackMode"] = fmt.Sprintf("unknown feedback mode '%s'", c.FeedbackMode)
		}
	}
	if c.ScoringSystem != "" {
		if _, ok := validScoringSystems[c.ScoringSystem]; !ok {
			fields["scoringSystem"] = fmt.Sprintf("unknown scoring system '%s'", c.ScoringSystem)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
