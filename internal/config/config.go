// ===== internal/config/config.go =====
package config

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/ini.v1"

	"autoauth/pkg/models"
)

const (
	DefaultPortalURL = "http://10.10.102.50:801/eportal/portal/login"
	DefaultProbeURL  = "https://www.baidu.com/"
)

// Config holds all application configuration
type Config struct {
	// Portal credentials
	Account  string
	Password string

	// Address overrides; nil means auto-detect
	IPv4 *string
	IPv6 *string

	// Preferred interface for address detection, empty scans all
	Interface string

	// Endpoints
	PortalURL     string
	PortalTimeout time.Duration
	ProbeURL      string
	ProbeTimeout  time.Duration

	// Scheduling
	Interval  time.Duration
	AutoStart bool
	BootDelay time.Duration

	// Local surfaces
	LogDir     string
	HTTPListen string
	LogLevel   string
	ProbeQPS   float64
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		PortalURL:     DefaultPortalURL,
		PortalTimeout: 10 * time.Second,
		ProbeURL:      DefaultProbeURL,
		ProbeTimeout:  5 * time.Second,
		Interval:      10 * time.Second,
		AutoStart:     true,
		BootDelay:     8 * time.Second,
		LogDir:        "/var/lib/autoauth",
		HTTPListen:    "127.0.0.1:8068",
		LogLevel:      "info",
		ProbeQPS:      0.2,
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		zap.S().Infof("Skipping config file %s: %s", filename, err)
		return err
	}

	section := cfg.Section("")
	c.Account = section.Key("account").MustString(c.Account)
	c.Password = section.Key("password").MustString(c.Password)
	c.Interface = section.Key("interface").MustString(c.Interface)
	c.PortalURL = section.Key("portalurl").MustString(c.PortalURL)
	c.PortalTimeout = section.Key("portaltimeout").MustDuration(c.PortalTimeout)
	c.ProbeURL = section.Key("probeurl").MustString(c.ProbeURL)
	c.ProbeTimeout = section.Key("probetimeout").MustDuration(c.ProbeTimeout)
	c.Interval = section.Key("interval").MustDuration(c.Interval)
	c.AutoStart = section.Key("autostart").MustBool(c.AutoStart)
	c.BootDelay = section.Key("bootdelay").MustDuration(c.BootDelay)
	c.LogDir = section.Key("logdir").MustString(c.LogDir)
	c.HTTPListen = section.Key("httplisten").MustString(c.HTTPListen)
	c.LogLevel = section.Key("loglevel").MustString(c.LogLevel)
	c.ProbeQPS = section.Key("probeqps").MustFloat64(c.ProbeQPS)

	// An empty "ipv4 =" line is an explicit empty override, so presence
	// of the key decides, not its value.
	if section.HasKey("ipv4") {
		c.IPv4 = models.StringPtr(section.Key("ipv4").String())
	}
	if section.HasKey("ipv6") {
		c.IPv6 = models.StringPtr(section.Key("ipv6").String())
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("AUTOAUTH_ACCOUNT"); v != "" {
		c.Account = v
	}
	if v := os.Getenv("AUTOAUTH_PASSWORD"); v != "" {
		c.Password = v
	}
	if v, ok := os.LookupEnv("AUTOAUTH_IPV4"); ok {
		c.IPv4 = models.StringPtr(v)
	}
	if v, ok := os.LookupEnv("AUTOAUTH_IPV6"); ok {
		c.IPv6 = models.StringPtr(v)
	}
	if v := os.Getenv("AUTOAUTH_INTERFACE"); v != "" {
		c.Interface = v
	}
	if v := os.Getenv("AUTOAUTH_PORTALURL"); v != "" {
		c.PortalURL = v
	}
	if v := os.Getenv("AUTOAUTH_PROBEURL"); v != "" {
		c.ProbeURL = v
	}
	if v := os.Getenv("AUTOAUTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interval = d
		}
	}
	if v := os.Getenv("AUTOAUTH_AUTOSTART"); v != "" {
		c.AutoStart, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AUTOAUTH_LOGDIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("AUTOAUTH_HTTPLISTEN"); v != "" {
		c.HTTPListen = v
	}
	if v := os.Getenv("AUTOAUTH_LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Credentials returns the configured portal account
func (c *Config) Credentials() models.Credentials {
	return models.Credentials{Account: c.Account, Password: c.Password}
}

// Override returns the configured address override
func (c *Config) Override() models.AddressOverride {
	return models.AddressOverride{IPv4: c.IPv4, IPv6: c.IPv6}
}

// New creates a new configuration instance
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	// Load from file first; a missing file leaves the defaults in place
	cfg.LoadFromFile(configFile)

	// Override with environment variables
	cfg.LoadFromEnv()

	return cfg, nil
}
