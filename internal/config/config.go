package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "SIEVEFILTERS_CONFIG"

	envSessionKey = "SIEVEFILTERS_SESSION_KEY"
	envUser       = "SIEVEFILTERS_USER"
	envPass       = "SIEVEFILTERS_PASS"
	envS3Endpoint = "SIEVEFILTERS_S3_ENDPOINT"
	envS3Region   = "SIEVEFILTERS_S3_REGION"
	envS3Bucket   = "SIEVEFILTERS_S3_BUCKET"
	envS3Key      = "SIEVEFILTERS_S3_KEY"
	envS3Secret   = "SIEVEFILTERS_S3_SECRET"
	envOTLPDSN    = "SIEVEFILTERS_OTLP_DSN"
)

const (
	DefaultListen          = ":8080"
	DefaultSievePort       = 4190
	DefaultIMAPPort        = 993
	DefaultTimeout         = 30 * time.Second
	DefaultSessionLifetime = 12 * time.Hour
)

// Config holds non-secret configuration loaded from YAML.
type Config struct {
	Listen      string      `yaml:"listen"`
	ManageSieve ManageSieve `yaml:"managesieve"`
	IMAP        IMAP        `yaml:"imap"`
	Session     Session     `yaml:"session"`
	Backup      Backup      `yaml:"backup"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

// ManageSieve locates the script server.
type ManageSieve struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	StartTLS           bool   `yaml:"starttls"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	ValidateLocally    *bool  `yaml:"validate_locally"`
	Timeout            string `yaml:"timeout"`
}

// IMAP locates the server used for the folder list.
type IMAP struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Security           string `yaml:"security"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
}

type Session struct {
	Lifetime     string `yaml:"lifetime"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// Backup configures where the backup command stores scripts.
type Backup struct {
	Prefix         string `yaml:"prefix"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// Telemetry configures the OpenTelemetry exporters.
type Telemetry struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	GRPCEndpoint string `yaml:"grpc_endpoint"`
	// LogExporter is "otlp" or "stdout".
	LogExporter string `yaml:"log_exporter"`
}

// Credentials are the mail account used by the non-interactive commands.
type Credentials struct {
	User string
	Pass string
}

// S3Env holds the object storage details from environment variables.
type S3Env struct {
	Endpoint string
	Region   string
	Bucket   string
	Key      string
	Secret   string
}

// Load reads configuration from a YAML file and fills defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.ManageSieve.Port == 0 {
		cfg.ManageSieve.Port = DefaultSievePort
	}
	if strings.TrimSpace(cfg.IMAP.Host) == "" {
		cfg.IMAP.Host = cfg.ManageSieve.Host
	}
	if cfg.IMAP.Port == 0 {
		cfg.IMAP.Port = DefaultIMAPPort
	}
	if strings.TrimSpace(cfg.IMAP.Security) == "" {
		cfg.IMAP.Security = "tls"
	}
	if strings.TrimSpace(cfg.Backup.Prefix) == "" {
		cfg.Backup.Prefix = "sievefilters"
	}
	if strings.TrimSpace(cfg.Telemetry.LogExporter) == "" {
		cfg.Telemetry.LogExporter = "otlp"
	}
}

// Validate performs basic validation on non-secret config.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ManageSieve.Host) == "" {
		return errors.New("config must define managesieve.host")
	}
	if cfg.ManageSieve.Port <= 0 || cfg.ManageSieve.Port > 65535 {
		return fmt.Errorf("invalid managesieve.port %d", cfg.ManageSieve.Port)
	}
	if cfg.IMAP.Port <= 0 || cfg.IMAP.Port > 65535 {
		return fmt.Errorf("invalid imap.port %d", cfg.IMAP.Port)
	}
	switch cfg.IMAP.Security {
	case "tls", "starttls", "none":
	default:
		return fmt.Errorf("invalid imap.security %q (want tls, starttls or none)", cfg.IMAP.Security)
	}
	if _, err := parseDuration(cfg.ManageSieve.Timeout, DefaultTimeout); err != nil {
		return fmt.Errorf("invalid managesieve.timeout: %w", err)
	}
	if _, err := parseDuration(cfg.Session.Lifetime, DefaultSessionLifetime); err != nil {
		return fmt.Errorf("invalid session.lifetime: %w", err)
	}
	switch cfg.Telemetry.LogExporter {
	case "otlp", "stdout":
	default:
		return fmt.Errorf("invalid telemetry.log_exporter %q (want otlp or stdout)", cfg.Telemetry.LogExporter)
	}
	return nil
}

// Summary returns a concise config summary for validation runs.
func Summary(cfg Config) string {
	telemetryStatus := "disabled"
	if cfg.Telemetry.Enabled {
		telemetryStatus = "enabled (logs: " + cfg.Telemetry.LogExporter + ")"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- listen: %s\n"+
			"- managesieve: %s (starttls: %t, local validation: %t)\n"+
			"- imap: %s (%s)\n"+
			"- backup prefix: %s\n"+
			"- telemetry: %s",
		cfg.Listen,
		cfg.ManageSieveAddr(), cfg.ManageSieve.StartTLS, cfg.ValidateLocally(),
		cfg.IMAPAddr(), cfg.IMAP.Security,
		cfg.Backup.Prefix,
		telemetryStatus,
	)
}

func (cfg Config) ManageSieveAddr() string {
	return net.JoinHostPort(cfg.ManageSieve.Host, strconv.Itoa(cfg.ManageSieve.Port))
}

func (cfg Config) IMAPAddr() string {
	return net.JoinHostPort(cfg.IMAP.Host, strconv.Itoa(cfg.IMAP.Port))
}

// ValidateLocally defaults to true.
func (cfg Config) ValidateLocally() bool {
	return cfg.ManageSieve.ValidateLocally == nil || *cfg.ManageSieve.ValidateLocally
}

func (cfg Config) Timeout() time.Duration {
	d, _ := parseDuration(cfg.ManageSieve.Timeout, DefaultTimeout)
	return d
}

func (cfg Config) SessionLifetime() time.Duration {
	d, _ := parseDuration(cfg.Session.Lifetime, DefaultSessionLifetime)
	return d
}

// SessionKey returns the optional session cookie key from the environment.
func SessionKey() string {
	return strings.TrimSpace(os.Getenv(envSessionKey))
}

// ValidateSessionKey checks that key is usable by the cookie encryption
// middleware: base64 of a 16, 24 or 32 byte AES key. An empty key is
// accepted and leaves cookies unencrypted.
func ValidateSessionKey(key string) error {
	if key == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return fmt.Errorf("invalid %s: not base64: %w", envSessionKey, err)
	}
	switch len(raw) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("invalid %s: decodes to %d bytes (want 16, 24 or 32)", envSessionKey, len(raw))
	}
}

// OTLPDSN returns the telemetry DSN header value, if any.
func OTLPDSN() string {
	return strings.TrimSpace(os.Getenv(envOTLPDSN))
}

// CredentialsFromEnv loads the account used by download and backup.
func CredentialsFromEnv() (Credentials, error) {
	values, err := requireEnv(envUser, envPass)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: strings.TrimSpace(values[envUser]), Pass: values[envPass]}, nil
}

// S3EnvFromEnv loads object storage details and validates required entries.
func S3EnvFromEnv() (S3Env, error) {
	values, err := requireEnv(envS3Region, envS3Bucket, envS3Key, envS3Secret)
	if err != nil {
		return S3Env{}, err
	}
	return S3Env{
		Endpoint: strings.TrimSpace(os.Getenv(envS3Endpoint)),
		Region:   strings.TrimSpace(values[envS3Region]),
		Bucket:   strings.TrimSpace(values[envS3Bucket]),
		Key:      values[envS3Key],
		Secret:   values[envS3Secret],
	}, nil
}

// requireEnv returns the raw values of names. Secrets are kept verbatim,
// callers trim the others.
func requireEnv(names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	missing := []string{}
	for _, name := range names {
		value := os.Getenv(name)
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return values, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if dur <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return dur, nil
}
