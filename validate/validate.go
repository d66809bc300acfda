// Package validate checks preset JSON files before they are served. It
// covers:
//   - JSON structure, with unknown fields rejected
//   - the rules enforced at load time (kind, symbols, hide delay)
//   - symbols that only differ in case or surrounding space, which render
//     as look-alike tiles
//   - hide delays too short for a player to read a mismatch
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/puzzlebox/game/engine"
)

// MinReadableHideDelayMS is the shortest mismatch display that is not
// reported as a warning
const MinReadableHideDelayMS = 300

// Result captures the outcome of validating a single file. Info holds
// facts about a valid preset, Warnings never make a preset invalid.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single preset file
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Kind: %s", config.Kind),
	)

	switch config.Kind {
	case engine.KindMerge:
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Grid: %dx%d", engine.GridSize, engine.GridSize),
			fmt.Sprintf("✓ Goal: %d", engine.WinValue),
		)
	case engine.KindMatch:
		checkLookAlikes(&result, config.Symbols)
		if config.HideDelayMS > 0 && config.HideDelayMS < MinReadableHideDelayMS {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("hide_delay_ms %d is shorter than %dms, mismatches may be unreadable", config.HideDelayMS, MinReadableHideDelayMS))
		}
		result.Info = append(result.Info,
			fmt.Sprintf("✓ Pairs: %d (%d tiles)", len(config.Symbols), 2*len(config.Symbols)),
			fmt.Sprintf("✓ Hide delay: %s", config.HideDelay()),
		)
	}

	return result
}

func checkLookAlikes(result *Result, symbols []string) {
	seen := make(map[string]string, len(symbols))
	for _, s := range symbols {
		key := strings.ToLower(strings.TrimSpace(s))
		if prev, ok := seen[key]; ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("symbols %q and %q look alike", prev, s))
			continue
		}
		seen[key] = s
	}
}

// Dir validates every *.json file in dir, sorted by name
func Dir(dir string) ([]Result, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("error finding config files: %w", err)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints a concise report and returns whether every preset is valid
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			allValid = false
			fmt.Fprintln(w, "❌ INVALID")
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No configuration files found")
	case allValid:
		fmt.Fprintln(w, "✅ All configurations are valid!")
	default:
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
