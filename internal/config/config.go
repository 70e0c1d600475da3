package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the lmrdecode configuration
type Config struct {
	filename string
	doc      document
}

// document mirrors the YAML layout. Missing keys keep the defaults set by
// NewConfig.
type document struct {
	Log      logSection      `yaml:"log"`
	Database databaseSection `yaml:"database"`
	RadioID  radioIDSection  `yaml:"radioid"`
	Lookup   lookupSection   `yaml:"lookup"`
	MQTT     mqttSection     `yaml:"mqtt"`
	Metrics  metricsSection  `yaml:"metrics"`
	DMR      dmrSection      `yaml:"dmr"`
	NXDN     nxdnSection     `yaml:"nxdn"`
	Capture  captureSection  `yaml:"capture"`
}

type logSection struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"file_path"`
	FileRoot   string `yaml:"file_root"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type databaseSection struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	CacheSize   int    `yaml:"cache_size"`
	CacheExpiry int    `yaml:"cache_expiry_minutes"`
	LogEvents   bool   `yaml:"log_events"`
	Debug       bool   `yaml:"debug"`
}

type radioIDSection struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	SyncHours int    `yaml:"sync_hours"`
	Timeout   int    `yaml:"timeout_seconds"`
}

// lookupSection names a flat alias file used when the database is disabled.
type lookupSection struct {
	File          string `yaml:"file"`
	ReloadMinutes int    `yaml:"reload_minutes"`
}

type mqttSection struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
	ValidOnly   bool   `yaml:"valid_only"`
}

type metricsSection struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// ResidualOverride accepts an extra RS(12,9) residual for the link control
// opcode with the given feature set ID and FLCO.
type ResidualOverride struct {
	FID      int `yaml:"fid"`
	FLCO     int `yaml:"flco"`
	Residual int `yaml:"residual"`
}

type dmrSection struct {
	AliasCharset   string             `yaml:"alias_charset"`
	HeaderMask     int                `yaml:"header_mask"`
	TerminatorMask int                `yaml:"terminator_mask"`
	Residuals      []ResidualOverride `yaml:"residuals"`
}

type nxdnSection struct {
	Direction string `yaml:"direction"`
}

type captureSection struct {
	Path      string `yaml:"path"`
	Direction string `yaml:"direction"`
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,
		doc: document{
			Log: logSection{
				Level:      "info",
				FileRoot:   "lmrdecode",
				MaxSizeMB:  10,
				MaxBackups: 5,
				MaxAgeDays: 30,
			},
			Database: databaseSection{
				Path:        "data/lmrdecode.db",
				CacheSize:   1000,
				CacheExpiry: 5,
			},
			RadioID: radioIDSection{
				URL:       "https://radioid.net/static/user.csv",
				SyncHours: 24, // Sync every 24 hours
				Timeout:   300,
			},
			Lookup: lookupSection{ReloadMinutes: 60},
			MQTT: mqttSection{
				Broker:      "tcp://localhost:1883",
				TopicPrefix: "lmrdecode",
			},
			Metrics: metricsSection{
				Listen: "127.0.0.1:9464",
				Path:   "/metrics",
			},
			DMR: dmrSection{
				HeaderMask:     0x96,
				TerminatorMask: 0x99,
			},
			NXDN:    nxdnSection{Direction: "outbound"},
			Capture: captureSection{Direction: "outbound"},
		},
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	defer file.Close()

	return c.parse(file)
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parse(strings.NewReader(data))
}

func (c *Config) parse(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c.doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return c.Validate()
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch strings.ToLower(c.doc.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.doc.Log.Level)
	}
	if c.doc.MQTT.QoS < 0 || c.doc.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos: %d is not 0, 1 or 2", c.doc.MQTT.QoS)
	}
	if c.doc.MQTT.Enabled && c.doc.MQTT.Broker == "" {
		return errors.New("mqtt.broker: required when mqtt is enabled")
	}
	for name, mask := range map[string]int{"dmr.header_mask": c.doc.DMR.HeaderMask, "dmr.terminator_mask": c.doc.DMR.TerminatorMask} {
		if mask < 0 || mask > 0xFF {
			return fmt.Errorf("%s: 0x%X does not fit in a byte", name, mask)
		}
	}
	for i, r := range c.doc.DMR.Residuals {
		if r.Residual < 0 || r.Residual > 0xFFFFFF {
			return fmt.Errorf("dmr.residuals[%d]: 0x%X is wider than 24 bits", i, r.Residual)
		}
	}
	if c.doc.Lookup.ReloadMinutes < 0 {
		return fmt.Errorf("lookup.reload_minutes: %d is negative", c.doc.Lookup.ReloadMinutes)
	}
	if c.doc.RadioID.Enabled && !c.doc.Database.Enabled {
		return errors.New("radioid: requires database.enabled")
	}
	return nil
}

// Log section getters
func (c *Config) GetLogLevel() string    { return strings.ToLower(c.doc.Log.Level) }
func (c *Config) GetLogFilePath() string { return c.doc.Log.FilePath }
func (c *Config) GetLogFileRoot() string { return c.doc.Log.FileRoot }
func (c *Config) GetLogMaxSizeMB() int   { return c.doc.Log.MaxSizeMB }
func (c *Config) GetLogMaxBackups() int  { return c.doc.Log.MaxBackups }
func (c *Config) GetLogMaxAgeDays() int  { return c.doc.Log.MaxAgeDays }
func (c *Config) GetLogCompress() bool   { return c.doc.Log.Compress }

// Database section getters
func (c *Config) GetDatabaseEnabled() bool   { return c.doc.Database.Enabled }
func (c *Config) GetDatabasePath() string    { return c.doc.Database.Path }
func (c *Config) GetDatabaseCacheSize() int  { return c.doc.Database.CacheSize }
func (c *Config) GetDatabaseLogEvents() bool { return c.doc.Database.LogEvents }
func (c *Config) GetDatabaseDebug() bool     { return c.doc.Database.Debug }
func (c *Config) GetDatabaseCacheExpiry() time.Duration {
	return time.Duration(c.doc.Database.CacheExpiry) * time.Minute
}

// RadioID section getters
func (c *Config) GetRadioIDEnabled() bool { return c.doc.RadioID.Enabled }
func (c *Config) GetRadioIDURL() string   { return c.doc.RadioID.URL }
func (c *Config) GetRadioIDSyncInterval() time.Duration {
	return time.Duration(c.doc.RadioID.SyncHours) * time.Hour
}
func (c *Config) GetRadioIDTimeout() time.Duration {
	return time.Duration(c.doc.RadioID.Timeout) * time.Second
}

// Lookup section getters
func (c *Config) GetLookupFile() string { return c.doc.Lookup.File }
func (c *Config) GetLookupReload() time.Duration {
	return time.Duration(c.doc.Lookup.ReloadMinutes) * time.Minute
}

// MQTT section getters
func (c *Config) GetMQTTEnabled() bool       { return c.doc.MQTT.Enabled }
func (c *Config) GetMQTTBroker() string      { return c.doc.MQTT.Broker }
func (c *Config) GetMQTTUsername() string    { return c.doc.MQTT.Username }
func (c *Config) GetMQTTPassword() string    { return c.doc.MQTT.Password }
func (c *Config) GetMQTTTopicPrefix() string { return strings.TrimSuffix(c.doc.MQTT.TopicPrefix, "/") }
func (c *Config) GetMQTTQoS() byte           { return byte(c.doc.MQTT.QoS) }
func (c *Config) GetMQTTValidOnly() bool     { return c.doc.MQTT.ValidOnly }

// Metrics section getters
func (c *Config) GetMetricsEnabled() bool  { return c.doc.Metrics.Enabled }
func (c *Config) GetMetricsListen() string { return c.doc.Metrics.Listen }
func (c *Config) GetMetricsPath() string   { return c.doc.Metrics.Path }

// DMR section getters
func (c *Config) GetDMRAliasCharset() string          { return c.doc.DMR.AliasCharset }
func (c *Config) GetDMRHeaderMask() byte              { return byte(c.doc.DMR.HeaderMask) }
func (c *Config) GetDMRTerminatorMask() byte          { return byte(c.doc.DMR.TerminatorMask) }
func (c *Config) GetDMRResiduals() []ResidualOverride { return c.doc.DMR.Residuals }

// NXDN and capture section getters
func (c *Config) GetNXDNDirection() string    { return c.doc.NXDN.Direction }
func (c *Config) GetCapturePath() string      { return c.doc.Capture.Path }
func (c *Config) GetCaptureDirection() string { return c.doc.Capture.Direction }
