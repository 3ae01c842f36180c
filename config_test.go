package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	result := loadConfigFromPath(filepath.Join(t.TempDir(), "missing.json"))

	if result.Status != "Default" {
		t.Errorf("Expected status Default, got %q", result.Status)
	}
	if result.HasError {
		t.Error("Missing config file must not be an error")
	}

	config := result.Config
	if config.WindowWidth != defaultWidth || config.WindowHeight != defaultHeight {
		t.Errorf("Expected default window %dx%d, got %dx%d",
			defaultWidth, defaultHeight, config.WindowWidth, config.WindowHeight)
	}
	if config.Scaling != "width" {
		t.Errorf("Expected default scaling width, got %q", config.Scaling)
	}
	if config.SortMethod != SortNatural {
		t.Errorf("Expected natural sort default, got %d", config.SortMethod)
	}
	if config.CacheSize != 16 {
		t.Errorf("Expected default cache size 16, got %d", config.CacheSize)
	}
	if config.DoubleClickMS != 300 {
		t.Errorf("Expected default double click 300ms, got %d", config.DoubleClickMS)
	}
	if len(config.Keybindings) == 0 {
		t.Error("Expected default keybindings")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "{not json")
	result := loadConfigFromPath(path)

	if result.Status != "Error" || !result.HasError {
		t.Errorf("Expected error status, got %q (HasError=%v)", result.Status, result.HasError)
	}
	if result.Config.WindowWidth != defaultWidth {
		t.Errorf("Expected defaults after parse error, got width %d", result.Config.WindowWidth)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning about the invalid file")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, config Config)
	}{
		{
			"Window size below minimum",
			`{"window_width": 100, "window_height": 100}`,
			func(t *testing.T, config Config) {
				if config.WindowWidth != defaultWidth || config.WindowHeight != defaultHeight {
					t.Errorf("Expected %dx%d, got %dx%d",
						defaultWidth, defaultHeight, config.WindowWidth, config.WindowHeight)
				}
			},
		},
		{
			"Sort method out of range",
			`{"sort_method": 9}`,
			func(t *testing.T, config Config) {
				if config.SortMethod != SortNatural {
					t.Errorf("Expected natural sort, got %d", config.SortMethod)
				}
			},
		},
		{
			"Cache size too small",
			`{"cache_size": 0}`,
			func(t *testing.T, config Config) {
				if config.CacheSize != 16 {
					t.Errorf("Expected cache size 16, got %d", config.CacheSize)
				}
			},
		},
		{
			"Cache size too large",
			`{"cache_size": 1000}`,
			func(t *testing.T, config Config) {
				if config.CacheSize != 64 {
					t.Errorf("Expected cache size 64, got %d", config.CacheSize)
				}
			},
		},
		{
			"Negative offlimit resistance",
			`{"offlimit_resistance": -5}`,
			func(t *testing.T, config Config) {
				if config.OfflimitResistance != 0 {
					t.Errorf("Expected resistance 0, got %v", config.OfflimitResistance)
				}
			},
		},
		{
			"Double click window too short",
			`{"double_click_ms": 50}`,
			func(t *testing.T, config Config) {
				if config.DoubleClickMS != 300 {
					t.Errorf("Expected 300ms, got %d", config.DoubleClickMS)
				}
			},
		},
		{
			"Double click window too long",
			`{"double_click_ms": 5000}`,
			func(t *testing.T, config Config) {
				if config.DoubleClickMS != 1000 {
					t.Errorf("Expected 1000ms, got %d", config.DoubleClickMS)
				}
			},
		},
		{
			"Info font size too small",
			`{"info_font_size": 5}`,
			func(t *testing.T, config Config) {
				if config.InfoFontSize != 24.0 {
					t.Errorf("Expected font size 24, got %v", config.InfoFontSize)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := loadConfigFromPath(writeConfigFile(t, tt.content))
			tt.check(t, result.Config)
		})
	}
}

func TestLoadConfigScalingFallback(t *testing.T) {
	result := loadConfigFromPath(writeConfigFile(t, `{"scaling": "sideways"}`))

	if result.Config.Scaling != "width" {
		t.Errorf("Expected fallback to width, got %q", result.Config.Scaling)
	}
	if result.Status != "Warning" {
		t.Errorf("Expected warning status, got %q", result.Status)
	}
	if len(result.Warnings) == 0 {
		t.Error("Expected a warning about the scaling mode")
	}
}

func TestLoadConfigKeybindings(t *testing.T) {
	t.Run("MissingActionsFilled", func(t *testing.T) {
		result := loadConfigFromPath(writeConfigFile(t, `{"keybindings": {"exit": ["KeyQ"]}}`))

		config := result.Config
		if len(config.Keybindings["exit"]) != 1 || config.Keybindings["exit"][0] != "KeyQ" {
			t.Errorf("Expected custom exit binding kept, got %v", config.Keybindings["exit"])
		}
		if len(config.Keybindings["scroll_down"]) == 0 {
			t.Error("Expected missing actions filled with defaults")
		}
	})

	t.Run("ConflictFallsBackToDefaults", func(t *testing.T) {
		content := `{"keybindings": {"exit": ["KeyQ"], "info": ["KeyQ"]}}`
		result := loadConfigFromPath(writeConfigFile(t, content))

		if result.Status != "Warning" {
			t.Errorf("Expected warning status, got %q", result.Status)
		}
		defaults := getDefaultKeybindings()
		if len(result.Config.Keybindings["exit"]) != len(defaults["exit"]) {
			t.Errorf("Expected default exit bindings, got %v", result.Config.Keybindings["exit"])
		}
	})

	t.Run("UnknownKeyFallsBackToDefaults", func(t *testing.T) {
		result := loadConfigFromPath(writeConfigFile(t, `{"keybindings": {"exit": ["hyperkey"]}}`))

		if result.Status != "Warning" {
			t.Errorf("Expected warning status, got %q", result.Status)
		}
	})
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	config := Config{
		WindowWidth:        1024,
		WindowHeight:       768,
		Fullscreen:         true,
		Scaling:            "screen",
		CropBorders:        true,
		LandscapeZoom:      true,
		SortMethod:         SortSimple,
		CacheSize:          32,
		OfflimitResistance: 150,
		DoubleClickMS:      250,
		InfoFontSize:       18,
		Keybindings:        getDefaultKeybindings(),
	}
	saveConfigToPath(config, path)

	result := loadConfigFromPath(path)
	if result.Status != "OK" {
		t.Fatalf("Expected OK status, got %q", result.Status)
	}

	loaded := result.Config
	if loaded.WindowWidth != 1024 || loaded.WindowHeight != 768 {
		t.Errorf("Expected 1024x768, got %dx%d", loaded.WindowWidth, loaded.WindowHeight)
	}
	if !loaded.Fullscreen || !loaded.CropBorders || !loaded.LandscapeZoom {
		t.Error("Expected boolean options to survive the roundtrip")
	}
	if loaded.Scaling != "screen" || loaded.SortMethod != SortSimple {
		t.Errorf("Expected scaling/sort kept, got %q/%d", loaded.Scaling, loaded.SortMethod)
	}
	if loaded.OfflimitResistance != 150 || loaded.DoubleClickMS != 250 {
		t.Errorf("Expected resistance/double click kept, got %v/%d",
			loaded.OfflimitResistance, loaded.DoubleClickMS)
	}
}

func TestSaveConfigRejectsTinyWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	saveConfigToPath(Config{WindowWidth: 100, WindowHeight: 100}, path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected config with invalid window size not to be saved")
	}
}

func TestConfigSurfaceOptions(t *testing.T) {
	config := Config{
		Scaling:       "screen",
		CropBorders:   true,
		LandscapeZoom: true,
		DoubleClickMS: 250,
	}

	opts := config.SurfaceOptions()
	if opts.Scaling != ScalingScreen {
		t.Errorf("Expected screen scaling, got %v", opts.Scaling)
	}
	if !opts.Crop || !opts.LandscapeZoom || !opts.CanZoom {
		t.Error("Expected crop, landscape zoom and zoom enabled")
	}
	if opts.DoubleClickWindow != 250*time.Millisecond {
		t.Errorf("Expected 250ms double click window, got %v", opts.DoubleClickWindow)
	}
}

func TestGetSortMethodName(t *testing.T) {
	if name := getSortMethodName(SortNatural); name != "Natural" {
		t.Errorf("Expected Natural, got %q", name)
	}
	if name := getSortMethodName(SortEntryOrder); name != "Entry Order" {
		t.Errorf("Expected Entry Order, got %q", name)
	}
}
