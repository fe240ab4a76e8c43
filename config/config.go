package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration holds everything one export run needs: the directory
// endpoint, bind identity, provenance labels and sink settings. One env file
// per directory domain, selected by name.
type Configuration struct {
	Domain string

	Server   string
	Port     string
	Protocol string
	BaseDN   string
	BindDN   string
	Password string
	PageSize uint32

	SourceType  string
	SourceValue string

	S3Region  string
	S3Bucket  string
	S3Prefix  string
	S3Timeout time.Duration
	S3Retries int

	KafkaBrokers []string
	KafkaTopic   string

	PostgresDSN string

	LogLevel  string
	LogPretty bool
}

// LoadDomainConfig reads <dir>/<domain>.env. An unknown domain is reported
// together with the domains that are configured.
func LoadDomainConfig(dir, domain string) (*Configuration, error) {
	path := filepath.Join(dir, domain+".env")
	if err := godotenv.Overload(path); err != nil {
		return nil, fmt.Errorf("needs a valid domain as input, valid domains are: %s",
			strings.Join(configuredDomains(dir), ", "))
	}

	cfg := &Configuration{
		Domain:      domain,
		Server:      os.Getenv("LDAP_SERVER"),
		Port:        getenvDefault("LDAP_PORT", "389"),
		Protocol:    getenvDefault("LDAP_PROTOCOL", "ldap"),
		BaseDN:      os.Getenv("LDAP_BASEDN"),
		BindDN:      os.Getenv("LDAP_BINDDN"),
		Password:    os.Getenv("LDAP_PASSWORD"),
		PageSize:    1000,
		SourceType:  os.Getenv("SOURCE_TYPE"),
		SourceValue: os.Getenv("SOURCE_VALUE"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Prefix:    getenvDefault("S3_PREFIX", "raw/"),
		S3Timeout:   5 * time.Second,
		S3Retries:   3,
		KafkaTopic:  os.Getenv("KAFKA_TOPIC"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		LogPretty:   os.Getenv("LOG_PRETTY") == "true",
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("LDAP_PAGESIZE"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("invalid LDAP_PAGESIZE %q", raw)
		}
		cfg.PageSize = uint32(size)
	}
	if raw := os.Getenv("S3_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid S3_TIMEOUT %q", raw)
		}
		cfg.S3Timeout = timeout
	}

	required := []struct {
		key   string
		value string
	}{
		{"LDAP_SERVER", cfg.Server},
		{"LDAP_BASEDN", cfg.BaseDN},
		{"LDAP_BINDDN", cfg.BindDN},
		{"LDAP_PASSWORD", cfg.Password},
		{"SOURCE_TYPE", cfg.SourceType},
		{"SOURCE_VALUE", cfg.SourceValue},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("missing required setting %s in %s", r.key, path)
		}
	}

	return cfg, nil
}

func configuredDomains(dir string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.env"))
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(filepath.Base(m), ".env")
	}
	return names
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
