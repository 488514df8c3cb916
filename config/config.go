// Package config resolves settings from flags, EASYBINGO_* environment
// variables, <config-dir>/config.yaml and defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"easybingo/locale"
)

const (
	FileName  = "config.yaml"
	envPrefix = "EASYBINGO"
)

type Config struct {
	DataDir       string        `mapstructure:"data_dir"`
	LogPath       string        `mapstructure:"log_path"`
	Locale        string        `mapstructure:"locale"`
	Theme         string        `mapstructure:"theme"`
	Recognizer    string        `mapstructure:"recognizer"`
	DeepgramKey   string        `mapstructure:"deepgram_key"`
	Device        string        `mapstructure:"device"`
	Speech        string        `mapstructure:"speech"`
	EspeakCmd     string        `mapstructure:"espeak_cmd"`
	Store         string        `mapstructure:"store"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisKey      string        `mapstructure:"redis_key"`
	DesktopNotify bool          `mapstructure:"desktop_notify"`
	Hotkey        bool          `mapstructure:"hotkey"`
	SilenceEnd    time.Duration `mapstructure:"silence_end"`
	SessionMax    time.Duration `mapstructure:"session_max"`
}

var (
	themes      = []string{"dark", "light"}
	recognizers = []string{"deepgram", "none"}
	speakers    = []string{"espeak", "aura", "none"}
	stores      = []string{"file", "redis"}
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":       "data_dir",
	"log-path":       "log_path",
	"locale":         "locale",
	"theme":          "theme",
	"recognizer":     "recognizer",
	"device":         "device",
	"speech":         "speech",
	"espeak-cmd":     "espeak_cmd",
	"store":          "store",
	"redis-addr":     "redis_addr",
	"redis-key":      "redis_key",
	"desktop-notify": "desktop_notify",
	"hotkey":         "hotkey",
	"silence-end":    "silence_end",
	"session-max":    "session_max",
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("data_dir", dir)
	v.SetDefault("log_path", "")
	v.SetDefault("locale", locale.Default)
	v.SetDefault("theme", "dark")
	v.SetDefault("recognizer", "deepgram")
	v.SetDefault("deepgram_key", "")
	v.SetDefault("device", "")
	v.SetDefault("speech", "espeak")
	v.SetDefault("espeak_cmd", "espeak-ng")
	v.SetDefault("store", "file")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_key", "easybingo:cards")
	v.SetDefault("desktop_notify", false)
	v.SetDefault("hotkey", false)
	v.SetDefault("silence_end", 8*time.Second)
	v.SetDefault("session_max", 60*time.Second)
}

// Dir returns the configuration directory: EASYBINGO_CONFIG_DIR, else
// <user-config-dir>/easybingo.
func Dir() (string, error) {
	if d := os.Getenv(envPrefix + "_CONFIG_DIR"); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "easybingo"), nil
}

// Load reads dir/config.yaml if present and overlays env and any flags in
// fs that were set. fs may be nil.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, dir)

	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv("deepgram_key", envPrefix+"_DEEPGRAM_KEY", "DEEPGRAM_API_KEY"); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func oneOf(key, val string, allowed []string) error {
	if slices.Contains(allowed, val) {
		return nil
	}
	return fmt.Errorf("%s: %q is not one of %s", key, val, strings.Join(allowed, ", "))
}

func (c *Config) normalize() error {
	c.Theme = strings.ToLower(c.Theme)
	c.Recognizer = strings.ToLower(c.Recognizer)
	c.Speech = strings.ToLower(c.Speech)
	c.Store = strings.ToLower(c.Store)

	matched, ok := locale.Match(c.Locale)
	if !ok {
		return fmt.Errorf("locale: %q is not one of %s", c.Locale, strings.Join(locale.Supported, ", "))
	}
	c.Locale = matched

	if err := oneOf("theme", c.Theme, themes); err != nil {
		return err
	}
	if err := oneOf("recognizer", c.Recognizer, recognizers); err != nil {
		return err
	}
	if err := oneOf("speech", c.Speech, speakers); err != nil {
		return err
	}
	if err := oneOf("store", c.Store, stores); err != nil {
		return err
	}
	if c.SilenceEnd < 0 || c.SessionMax < 0 {
		return errors.New("silence_end and session_max must not be negative")
	}
	return nil
}

// SaveSettings writes locale and theme into dir/config.yaml, keeping every
// other key already in the file.
func SaveSettings(dir, loc, theme string) error {
	path := filepath.Join(dir, FileName)
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", FileName, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read %s: %w", FileName, err)
	}

	if loc != "" {
		matched, ok := locale.Match(loc)
		if !ok {
			return fmt.Errorf("locale: %q is not one of %s", loc, strings.Join(locale.Supported, ", "))
		}
		doc["locale"] = matched
	}
	if theme != "" {
		theme = strings.ToLower(theme)
		if err := oneOf("theme", theme, themes); err != nil {
			return err
		}
		doc["theme"] = theme
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
