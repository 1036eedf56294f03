// Package config loads service configuration from the environment so main
// stays lean. All variables use the PRAISA_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// SourceEntry is one configured hospital source. Order matters: the candidate
// dispatcher consults sources in the order they are configured.
type SourceEntry struct {
	ID    string
	Label string
}

// SourceList decodes an ordered "id:label,id:label" string. A plain map would
// lose the registry order the dispatcher depends on.
type SourceList []SourceEntry

// Decode implements envconfig.Decoder.
func (s *SourceList) Decode(value string) error {
	var entries []SourceEntry
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, label, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("source entry %q: want id:label", part)
		}
		entries = append(entries, SourceEntry{ID: strings.TrimSpace(id), Label: strings.TrimSpace(label)})
	}
	*s = entries
	return nil
}

// AliasEntry is one configured substring rewrite used by the fallback
// resolver. First matching key wins, so order is preserved.
type AliasEntry struct {
	Key   string
	Alias string
}

// AliasList decodes an ordered "key=alias,key=alias" string.
type AliasList []AliasEntry

// Decode implements envconfig.Decoder.
func (a *AliasList) Decode(value string) error {
	var entries []AliasEntry
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, alias, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("alias entry %q: want key=alias", part)
		}
		entries = append(entries, AliasEntry{Key: strings.TrimSpace(key), Alias: strings.TrimSpace(alias)})
	}
	*a = entries
	return nil
}

// Config is the full service configuration.
type Config struct {
	Addr     string `envconfig:"ADDR" default:":8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Sources is the ordered hospital registry. The default mirrors the
	// five-hospital demo deployment.
	Sources SourceList `envconfig:"SOURCES" default:"hospital_a:City Hospital A,hospital_b:City Hospital B,hospital_c:City Hospital C,hospital_d:City Hospital D,hospital_e:City Hospital E"`

	// Aliases is the ordered near-miss rewrite table consulted when direct
	// search finds nothing. Defaults cover the known demo identities.
	Aliases AliasList `envconfig:"ALIASES" default:"Ramesh=Ramehs,Anita=Ainta,Sita=iSta"`

	// MatcherURL is the base URL of the external identity matcher service.
	MatcherURL string `envconfig:"MATCHER_URL" default:"http://localhost:8000"`

	// SourceBackend selects the record source adapter: memory, sqlite or http.
	SourceBackend string `envconfig:"SOURCE_BACKEND" default:"sqlite"`

	// SQLitePath locates the demo database used by the sqlite backend.
	SQLitePath string `envconfig:"SQLITE_PATH" default:"praisa_demo.db"`

	// SourceURLs maps source IDs to base URLs for the http backend.
	SourceURLs map[string]string `envconfig:"SOURCE_URLS"`

	// KafkaBrokers enables the Kafka audit sink when non-empty; otherwise
	// audit events stay in the in-memory store.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	AuditTopic   string   `envconfig:"AUDIT_TOPIC" default:"praisa.audit"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
}

// FromEnv builds a Config from PRAISA_* environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("praisa", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
