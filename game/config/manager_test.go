package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/puzzlebox/game/engine"
)

func writePreset(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

const duoPreset = `{
	"name": "duo",
	"description": "two pairs",
	"kind": "match",
	"symbols": ["sun", "moon"],
	"hide_delay_ms": 300
}`

func TestNewManager_MissingDir(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestManager_EmptyDirUsesBuiltins(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	def := m.GetDefault()
	require.NotNil(t, def)
	assert.Equal(t, "classic", def.Name)
	assert.Equal(t, engine.KindMerge, def.Kind)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "classic", configs[0].ConfigID)
	assert.Equal(t, "peek-a-chu", configs[1].ConfigID)
	assert.Equal(t, engine.KindMatch, configs[1].Kind)
	assert.Equal(t, 8, configs[1].Pairs)
	assert.Equal(t, 1000, configs[1].HideDelayMS)
	assert.Empty(t, configs[1].Filename)
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duo.json", duoPreset)
	m, err := NewManager(dir)
	require.NoError(t, err)

	config, err := m.LoadConfig("duo")
	require.NoError(t, err)
	assert.Equal(t, []string{"sun", "moon"}, config.Symbols)

	again, err := m.LoadConfig("duo.json")
	require.NoError(t, err)
	assert.Same(t, config, again)

	_, err = m.LoadConfig("missing")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = m.LoadConfig("../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestManager_InvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "broken.json", `{"name":`)
	writePreset(t, dir, "bad.json", `{"name":"bad","description":"x","kind":"match","symbols":["a"]}`)
	writePreset(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))
	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.LoadConfig("broken")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = m.LoadConfig("bad")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	ids := make([]string, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.ConfigID)
	}
	assert.Equal(t, []string{"classic", "peek-a-chu"}, ids)
}

func TestManager_FileShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "classic.json", `{"name":"classic","description":"house rules","kind":"merge"}`)
	m, err := NewManager(dir)
	require.NoError(t, err)

	assert.Equal(t, "house rules", m.GetDefault().Description)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "classic.json", configs[0].Filename)
}

func TestManager_DefaultFallsBackToFirstMergePreset(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duo.json", duoPreset)
	writePreset(t, dir, "zen.json", `{"name":"zen","description":"calm","kind":"merge"}`)
	// a broken classic.json hides the built-in
	writePreset(t, dir, "classic.json", `{`)

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, "zen", m.GetDefault().Name)

	require.NoError(t, m.SetDefault("duo"))
	assert.Equal(t, "duo", m.GetDefault().Name)
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	preset := &engine.GameConfig{
		Name:        "trio",
		Description: "three pairs",
		Kind:        engine.KindMatch,
		Symbols:     []string{"a", "b", "c"},
	}
	require.NoError(t, m.SaveConfig("trio", preset))
	assert.FileExists(t, filepath.Join(dir, "trio.json"))

	m.RefreshCache()
	loaded, err := m.LoadConfig("trio")
	require.NoError(t, err)
	assert.Equal(t, preset.Symbols, loaded.Symbols)
	assert.NotSame(t, preset, loaded)

	err = m.SaveConfig("broken", &engine.GameConfig{Name: "broken"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.NoFileExists(t, filepath.Join(dir, "broken.json"))

	assert.ErrorIs(t, m.SaveConfig("a/b", preset), ErrInvalidName)
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "duo.json", duoPreset)
	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.LoadConfig("duo")
			assert.NoError(t, err)
			_, err = m.ListConfigs()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestShippedPresets(t *testing.T) {
	m, err := NewManager(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)

	for _, id := range []string{"classic", "peek-a-chu", "mini-match"} {
		config, err := m.LoadConfig(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, config.Name)
	}
}
