package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "taskdeck.db"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Edit    string `toml:"edit"`
	Search  string `toml:"search"`
	Filter  string `toml:"filter"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
	Logout  string `toml:"logout"`
}

type Config struct {
	DBPath            string `toml:"db_path"`
	DefaultFilter     string `toml:"default_filter"`
	SearchDebounceMS  int    `toml:"search_debounce_ms"`
	NotifyIntervalMin int    `toml:"notify_interval_min"`
	WebEnabled        bool   `toml:"web_enabled"`
	WebPort           int    `toml:"web_port"`
	Keys              Keymap `toml:"keys"`
}

// ResolveConfigPath places the config next to the user's other app
// configs, falling back to the working directory when no config dir
// exists.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "taskdeck", DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBName
	}
	if cfg.SearchDebounceMS <= 0 {
		cfg.SearchDebounceMS = 300
	}
	if cfg.NotifyIntervalMin <= 0 {
		cfg.NotifyIntervalMin = 20
	}
	if cfg.WebPort <= 0 {
		cfg.WebPort = 8080
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath:            DefaultDBName,
		DefaultFilter:     "all",
		SearchDebounceMS:  300,
		NotifyIntervalMin: 20,
		WebEnabled:        false,
		WebPort:           8080,
		Keys: Keymap{
			Quit:    "q",
			Add:     "a",
			Up:      "k",
			Down:    "j",
			Toggle:  " ",
			Delete:  "d",
			Edit:    "e",
			Search:  "/",
			Filter:  "f",
			Confirm: "enter",
			Cancel:  "esc",
			Logout:  "L",
		},
	}
}
