package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// ErrMissingToken is returned by Validate when no bot token is configured.
var ErrMissingToken = errors.New("BOT_TOKEN is required")

// PluginConfig stores plugin-specific configuration as key-value pairs.
type PluginConfig map[string]interface{}

// Config wraps viper and provides typed accessors.
type Config struct {
	v       *viper.Viper
	plugins map[string]PluginConfig
}

// envAliases maps config keys to the environment variable names used by
// container deployments.
var envAliases = map[string]string{
	"BOT_TOKEN":        "BOT_TOKEN",
	"WEBHOOK_BASE_URL": "WEBHOOK_BASE_URL",
	"PORT":             "PORT",
	"BotAdmin":         "ADMIN_IDS",
	"SearchResults":    "SEARCH_RESULTS",
	"AudioQuality":     "AUDIO_QUALITY",
	"AudioFormat":      "AUDIO_FORMAT",
	"CookieFile":       "COOKIE_FILE",
	"WebhookSecret":    "WEBHOOK_SECRET",
	"Database":         "DATABASE_PATH",
}

// Load reads an optional INI (or any viper-supported) config file, a .env
// file in the working directory and the process environment. A missing
// config file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, env := range envAliases {
		_ = v.BindEnv(key, env)
	}

	setDefaults(v)

	c := &Config{
		v:       v,
		plugins: make(map[string]PluginConfig),
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".ini") {
		cfg, err := loadINI(v, path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		loadPlugins(cfg, c)
		return c, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return c, nil
}

// Validate reports configuration problems that must stop startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GetString("BOT_TOKEN")) == "" {
		return ErrMissingToken
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("BotAPI", "https://api.telegram.org")
	v.SetDefault("BotDebug", false)
	v.SetDefault("PORT", 8080)
	v.SetDefault("MetricsListen", "")
	v.SetDefault("TempDir", filepath.Join(os.TempDir(), "musifyyy"))
	v.SetDefault("Database", "musifyyy.db")
	v.SetDefault("DBMaxOpenConns", 1)
	v.SetDefault("DBMaxIdleConns", 1)
	v.SetDefault("DBConnMaxLifetimeSec", 3600)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
	v.SetDefault("LogSource", false)
	v.SetDefault("LogDir", "log")
	v.SetDefault("GormLogLevel", "warn")
	v.SetDefault("SearchPlatforms", "soundcloud,youtube")
	v.SetDefault("SearchResults", 30)
	v.SetDefault("InlineResults", 10)
	v.SetDefault("PageSize", 6)
	v.SetDefault("SearchTimeout", 25)
	v.SetDefault("AudioFormat", "mp3")
	v.SetDefault("AudioQuality", "192")
	v.SetDefault("Proxy", "")
	v.SetDefault("UploadLimitMB", 50)
	v.SetDefault("FFmpegPath", "ffmpeg")
	v.SetDefault("DownloadConcurrency", 3)
	v.SetDefault("WorkerPoolSize", 4)
	v.SetDefault("AlbumMaxTracks", 50)
	v.SetDefault("RateLimitPerSecond", 1.0)
	v.SetDefault("RateLimitBurst", 3)
	v.SetDefault("BroadcastConcurrency", 8)
	v.SetDefault("BroadcastRatePerSecond", 25.0)
}

// GetString returns a string value.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns an int value.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 returns a float64 value.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool returns a bool value.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetSeconds reads an integer number of seconds as a duration.
func (c *Config) GetSeconds(key string) time.Duration {
	return time.Duration(c.v.GetInt(key)) * time.Second
}

// GetStringList splits a comma or whitespace separated value.
func (c *Config) GetStringList(key string) []string {
	return splitList(c.v.GetString(key))
}

// GetInt64List parses a comma or whitespace separated list of ids.
// Invalid entries are skipped.
func (c *Config) GetInt64List(key string) []int64 {
	var ids []int64
	for _, token := range splitList(c.v.GetString(key)) {
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// GetPluginConfig retrieves plugin-specific configuration by plugin name.
func (c *Config) GetPluginConfig(name string) (PluginConfig, bool) {
	cfg, ok := c.plugins[name]
	return cfg, ok
}

// PluginNames returns the configured plugin names.
func (c *Config) PluginNames() []string {
	if len(c.plugins) == 0 {
		return nil
	}
	nameList := make([]string, 0, len(c.plugins))
	for name := range c.plugins {
		nameList = append(nameList, name)
	}
	sort.Strings(nameList)
	return nameList
}

// GetPluginString returns a string value from plugin configuration.
// Returns empty string if plugin or key not found.
func (c *Config) GetPluginString(plugin, key string) string {
	cfg, ok := c.plugins[plugin]
	if !ok {
		return ""
	}
	val, ok := cfg[key]
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", val)
}

// GetPluginBool returns a bool value from plugin configuration.
func (c *Config) GetPluginBool(plugin, key string) bool {
	cfg, ok := c.plugins[plugin]
	if !ok {
		return false
	}
	val, ok := cfg[key]
	if !ok {
		return false
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || v == "1"
	default:
		return false
	}
}

// PluginEnabled reports whether a plugin is enabled. Plugins without an
// explicit "enabled" key are enabled.
func (c *Config) PluginEnabled(name string) bool {
	pluginCfg, ok := c.plugins[name]
	if !ok {
		return true
	}
	if _, hasKey := pluginCfg["enabled"]; !hasKey {
		return true
	}
	return c.GetPluginBool(name, "enabled")
}

// ResolveCookieFile returns the configured cookie file, or the first cookie
// file found in the usual deployment locations. Files under /etc/secrets are
// read-only mounts, so they are copied into tempDir first because yt-dlp
// writes refreshed cookies back.
func (c *Config) ResolveCookieFile(tempDir string) string {
	if configured := strings.TrimSpace(c.GetString("CookieFile")); configured != "" {
		if fileExists(configured) {
			return configured
		}
		return ""
	}

	const secretPath = "/etc/secrets/cookies.txt"
	if fileExists(secretPath) {
		if tempDir == "" {
			tempDir = os.TempDir()
		}
		target := filepath.Join(tempDir, "cookies.txt")
		if err := copyFile(secretPath, target); err == nil {
			return target
		}
		return secretPath
	}

	for _, candidate := range []string{"cookies.txt", "/app/cookies.txt"} {
		if fileExists(candidate) {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
			return candidate
		}
	}
	return ""
}

func loadINI(v *viper.Viper, path string) (*ini.File, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}

	for _, key := range cfg.Section("").Keys() {
		if val, fromEnv := os.LookupEnv(envName(key.Name())); fromEnv && val != "" {
			continue
		}
		v.Set(key.Name(), key.Value())
	}

	return cfg, nil
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	return strings.ToUpper(key)
}

func loadPlugins(cfg *ini.File, c *Config) {
	const pluginPrefix = "plugins."

	for _, section := range cfg.Sections() {
		sectionName := section.Name()
		if sectionName == "" || sectionName == ini.DefaultSection {
			continue
		}

		if strings.HasPrefix(sectionName, pluginPrefix) {
			pluginName := strings.TrimPrefix(sectionName, pluginPrefix)
			pluginCfg := make(PluginConfig)

			for _, key := range section.Keys() {
				pluginCfg[key.Name()] = key.Value()
			}

			c.plugins[pluginName] = pluginCfg
		}
	}
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}
