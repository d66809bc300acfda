// Package config loads, caches and saves game presets.
//
// A preset is a JSON file in the config directory; its file name without
// the .json suffix is the id used to create sessions. Two presets are built
// in and used whenever no file shadows them:
//   - classic: the 4x4 merge puzzle
//   - peek-a-chu: the eight-pair memory game
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal().Err(err).Msg("config")
//	}
//
//	preset, err := manager.LoadConfig("mini-match")
//	presets, err := manager.ListConfigs()
//
// Every preset is checked with engine.ValidateGameConfig before it is cached
// or written.
package config
