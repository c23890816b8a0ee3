// Package config loads service configuration from defaults, an optional YAML
// file, an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Keys read from the YAML file, the .env file and the environment.
const (
	KeyConfigFile      = "CONFIG_FILE"
	KeyEnvFile         = "ENV_FILE"
	KeyPort            = "PORT"
	KeyAPIPrefix       = "API_PREFIX"
	KeySourceMode      = "SOURCE_MODE"
	KeyLocalXLSXPath   = "LOCAL_XLSX_PATH"
	KeyBaseDir         = "BASE_DIR"
	KeyCacheRoot       = "CACHE_ROOT"
	KeyCatalogCacheTTL = "CATALOG_CACHE_TTL"
	KeyRedisURL        = "REDIS_URL"
	KeyAllowedOrigins  = "ALLOWED_ORIGINS"
	KeyLogFormat       = "LOG_FORMAT"
	KeyLogLevel        = "LOG_LEVEL"
	KeyMetricsEnabled  = "METRICS_ENABLED"
	KeyMetricsEndpoint = "METRICS_ENDPOINT"
	KeyTenantID        = "MS_TENANT_ID"
	KeyClientID        = "MS_CLIENT_ID"
	KeyClientSecret    = "MS_CLIENT_SECRET"
	KeyFileURL         = "MS_FILE_URL"
	KeyDriveID         = "GRAPH_DRIVE_ID"
	KeyItemID          = "GRAPH_ITEM_ID"
	KeySiteID          = "GRAPH_SITE_ID"
	KeyFilePath        = "GRAPH_FILE_PATH"
	KeyScopes          = "GRAPH_SCOPES"
	KeyGraphBaseURL    = "GRAPH_BASE_URL"
	KeyAuthorityURL    = "GRAPH_AUTHORITY_URL"
	KeyGraphTimeout    = "GRAPH_TIMEOUT_SECONDS"
	KeyWorkbookPath    = "GRAPH_WORKBOOK_PATH"
)

var knownKeys = []string{
	KeyPort, KeyAPIPrefix, KeySourceMode, KeyLocalXLSXPath, KeyBaseDir,
	KeyCacheRoot, KeyCatalogCacheTTL, KeyRedisURL, KeyAllowedOrigins,
	KeyLogFormat, KeyLogLevel, KeyMetricsEnabled, KeyMetricsEndpoint,
	KeyTenantID, KeyClientID, KeyClientSecret, KeyFileURL, KeyDriveID,
	KeyItemID, KeySiteID, KeyFilePath, KeyScopes, KeyGraphBaseURL,
	KeyAuthorityURL, KeyGraphTimeout, KeyWorkbookPath,
}

// Source modes.
const (
	SourceLocal = "local"
	SourceGraph = "graph"
)

// Config holds the service configuration.
type Config struct {
	Port      string
	APIPrefix string
	// SourceMode is "local" or "graph".
	SourceMode string
	// LocalXLSXPath is absolute once loaded (relative values resolve
	// against BaseDir).
	LocalXLSXPath   string
	BaseDir         string
	CacheRoot       string
	CatalogCacheTTL time.Duration
	RedisURL        string
	AllowedOrigins  []string
	LogFormat       string
	LogLevel        string
	MetricsEnabled  bool
	MetricsEndpoint string
	Graph           GraphConfig
}

// GraphConfig holds Microsoft Graph credentials and the workbook locator.
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	FileURL      string
	DriveID      string
	ItemID       string
	SiteID       string
	FilePath     string
	Scopes       []string
	BaseURL      string
	AuthorityURL string
	Timeout      time.Duration
	// WorkbookPath is where the downloaded workbook is kept.
	WorkbookPath string
}

// HasCredentials reports whether all client-credential fields are set.
func (g GraphConfig) HasCredentials() bool {
	return g.TenantID != "" && g.ClientID != "" && g.ClientSecret != ""
}

func defaults() map[string]string {
	return map[string]string{
		KeyPort:            "8000",
		KeyCacheRoot:       filepath.Join(os.TempDir(), "artwork_cache"),
		KeyCatalogCacheTTL: "60",
		KeyAllowedOrigins:  "http://localhost:5173",
		KeyLogFormat:       "text",
		KeyLogLevel:        "info",
		KeyMetricsEnabled:  "false",
		KeyMetricsEndpoint: "/metrics",
		KeyScopes:          "https://graph.microsoft.com/.default",
		KeyGraphBaseURL:    "https://graph.microsoft.com/v1.0",
		KeyAuthorityURL:    "https://login.microsoftonline.com",
		KeyGraphTimeout:    "30",
		KeyWorkbookPath:    filepath.Join(os.TempDir(), "artwork_graph.xlsx"),
	}
}

// Load reads configuration using the process environment.
func Load() (*Config, error) {
	return LoadWith(os.LookupEnv)
}

// LoadWith reads configuration using lookupEnv for environment values.
// The .env file (ENV_FILE, default ".env") and the YAML file (CONFIG_FILE)
// are both optional; a configured YAML file that cannot be read is an error.
func LoadWith(lookupEnv func(string) (string, bool)) (*Config, error) {
	envFile := ".env"
	if v, ok := lookupEnv(KeyEnvFile); ok && v != "" {
		envFile = v
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		dotenv = map[string]string{}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	values := defaults()
	if configFile, ok := lookup(KeyConfigFile); ok && configFile != "" {
		fileValues, err := readYAML(configFile, lookup)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}
	for _, key := range knownKeys {
		if v, ok := lookup(key); ok {
			values[key] = v
		}
	}

	return parse(values)
}

func parse(values map[string]string) (*Config, error) {
	get := func(key string) string {
		return strings.TrimSpace(values[key])
	}

	ttl, err := parseSeconds(get(KeyCatalogCacheTTL))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyCatalogCacheTTL, err)
	}
	graphTimeout, err := parseSeconds(get(KeyGraphTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyGraphTimeout, err)
	}
	metricsEnabled := false
	if v := get(KeyMetricsEnabled); v != "" {
		metricsEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", KeyMetricsEnabled, err)
		}
	}

	baseDir := get(KeyBaseDir)
	if baseDir == "" {
		if baseDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	cfg := &Config{
		Port:            get(KeyPort),
		APIPrefix:       normalizePrefix(get(KeyAPIPrefix)),
		SourceMode:      strings.ToLower(get(KeySourceMode)),
		LocalXLSXPath:   resolvePath(baseDir, get(KeyLocalXLSXPath)),
		BaseDir:         baseDir,
		CacheRoot:       resolvePath(baseDir, get(KeyCacheRoot)),
		CatalogCacheTTL: ttl,
		RedisURL:        get(KeyRedisURL),
		AllowedOrigins:  ParseOrigins(get(KeyAllowedOrigins)),
		LogFormat:       strings.ToLower(get(KeyLogFormat)),
		LogLevel:        strings.ToLower(get(KeyLogLevel)),
		MetricsEnabled:  metricsEnabled,
		MetricsEndpoint: get(KeyMetricsEndpoint),
		Graph: GraphConfig{
			TenantID:     get(KeyTenantID),
			ClientID:     get(KeyClientID),
			ClientSecret: get(KeyClientSecret),
			FileURL:      get(KeyFileURL),
			DriveID:      get(KeyDriveID),
			ItemID:       get(KeyItemID),
			SiteID:       get(KeySiteID),
			FilePath:     get(KeyFilePath),
			Scopes:       splitList(get(KeyScopes), " ,"),
			BaseURL:      strings.TrimRight(get(KeyGraphBaseURL), "/"),
			AuthorityURL: strings.TrimRight(get(KeyAuthorityURL), "/"),
			Timeout:      graphTimeout,
			WorkbookPath: resolvePath(baseDir, get(KeyWorkbookPath)),
		},
	}

	if cfg.SourceMode == "" {
		// A configured local workbook wins; otherwise the Graph client is used.
		cfg.SourceMode = SourceGraph
		if cfg.LocalXLSXPath != "" {
			cfg.SourceMode = SourceLocal
		}
	}

	return cfg, nil
}

// parseSeconds accepts a number of seconds or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative value %q", v)
		}
		return time.Duration(n * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative value %q", v)
	}
	return d, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

// ParseOrigins splits a comma-separated origin list, trimming whitespace and
// trailing slashes and dropping empty items.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func splitList(raw, seps string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}
