package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultSymbols are the eight tile faces of the classic match deck
var DefaultSymbols = []string{"pikachu", "bulbasaur", "charmander", "squirtle", "jigglypuff", "meowth", "psyduck", "eevee"}

// ValidateGameConfig validates a preset for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	switch config.Kind {
	case KindMerge:
		if len(config.Symbols) > 0 {
			return fmt.Errorf("config validation: symbols are only valid for %q presets", KindMatch)
		}
	case KindMatch:
		if len(config.Symbols) < MinSymbols || len(config.Symbols) > MaxSymbols {
			return fmt.Errorf("config validation: symbols must have between %d and %d entries, got %d",
				MinSymbols, MaxSymbols, len(config.Symbols))
		}
		seen := make(map[string]bool, len(config.Symbols))
		for i, s := range config.Symbols {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("config validation: symbol %d is empty", i+1)
			}
			if seen[s] {
				return fmt.Errorf("config validation: symbol %q appears more than once", s)
			}
			seen[s] = true
		}
	case "":
		return fmt.Errorf("config validation: kind is required")
	default:
		return fmt.Errorf("config validation: unknown kind %q (want %q or %q)", config.Kind, KindMerge, KindMatch)
	}

	if config.HideDelayMS < 0 || config.HideDelayMS > MaxHideDelayMS {
		return fmt.Errorf("config validation: hide_delay_ms must be between 0 and %d, got %d", MaxHideDelayMS, config.HideDelayMS)
	}
	if config.Kind == KindMerge && config.HideDelayMS != 0 {
		return fmt.Errorf("config validation: hide_delay_ms is only valid for %q presets", KindMatch)
	}

	return nil
}

// LoadGameConfig loads and validates a preset from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", filename, err)
	}

	return &config, nil
}

// DefaultMergeConfig returns the built-in 2048 preset
func DefaultMergeConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Classic 4x4 sliding-merge puzzle. Reach the 2048 tile.",
		Kind:        KindMerge,
		Welcome:     "Use the arrow keys to slide the tiles. Equal tiles merge!",
	}
}

// DefaultMatchConfig returns the built-in memory preset
func DefaultMatchConfig() *GameConfig {
	return &GameConfig{
		Name:        "peek-a-chu",
		Description: "Memory game: flip two tiles at a time and find all eight pairs.",
		Kind:        KindMatch,
		Symbols:     append([]string(nil), DefaultSymbols...),
		HideDelayMS: int(DefaultHideDelay.Milliseconds()),
		Welcome:     "Find all the matching pairs!",
	}
}

// NewEngineForConfig builds the engine matching the preset kind. Exactly
// one of the returned engines is non-nil.
func NewEngineForConfig(config *GameConfig, rng Rand) (*GridEngine, *MatchEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, nil, err
	}
	if config.Kind == KindMatch {
		return nil, NewMatchEngine(config.Symbols, rng), nil
	}
	return NewGridEngine(rng), nil, nil
}
