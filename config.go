package pgwire

import (
	"crypto/tls"
	"fmt"
	"strconv"
	"strings"

	"github.com/wtemperley/pgwire/internal/scram"
)

// ChannelBindingPolicy controls whether SCRAM channel binding is
// mandatory, attempted opportunistically, or skipped outright.
type ChannelBindingPolicy int

const (
	ChannelBindingPreferred ChannelBindingPolicy = iota
	ChannelBindingRequired
	ChannelBindingDisabled
)

func (p ChannelBindingPolicy) toSCRAM() scram.ChannelBindingPolicy {
	switch p {
	case ChannelBindingRequired:
		return scram.ChannelBindingRequired
	case ChannelBindingDisabled:
		return scram.ChannelBindingDisabled
	default:
		return scram.ChannelBindingPreferred
	}
}

// Credential supplies the identity used during the startup and
// authentication phases.
type Credential struct {
	Username string
	Password string
}

// Config holds everything needed to open a Conn. The zero value is not
// usable; construct one directly or via ParseConfig, then call Validate
// (Connect calls it automatically).
type Config struct {
	Host                 string
	Port                 int
	Database             string
	Credential           Credential
	ApplicationName      string
	SocketTimeoutSeconds int
	ChannelBindingPolicy ChannelBindingPolicy
	TLSConfig            *tls.Config // nil disables TLS entirely
	Logger               Logger
}

// Validate fills in defaults (host localhost, port 5432, database
// postgres, application name pgwire) and rejects configurations that can
// never authenticate.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.Credential.Username == "" {
		return fmt.Errorf("pgwire: config requires a username")
	}
	if c.Database == "" {
		c.Database = "postgres"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "pgwire"
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return nil
}

func (c Config) address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ParseConfig parses a libpq-style keyword=value connection string:
// whitespace-separated "keyword = value" pairs, with single quotes
// available to wrap a value containing spaces. Recognized keywords:
// host, port, dbname, user, password, application_name, sslmode
// (disable, require, verify-ca, verify-full), connect_timeout.
func ParseConfig(connString string) (*Config, error) {
	values, err := parseKeywordValuePairs(connString)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:     values["host"],
		Database: values["dbname"],
		Credential: Credential{
			Username: values["user"],
			Password: values["password"],
		},
		ApplicationName: values["application_name"],
	}

	if portStr := values["port"]; portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid port %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if timeoutStr := values["connect_timeout"]; timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("pgwire: invalid connect_timeout %q: %w", timeoutStr, err)
		}
		cfg.SocketTimeoutSeconds = timeout
	}

	switch values["sslmode"] {
	case "", "disable":
		cfg.TLSConfig = nil
	case "require":
		cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	case "verify-ca", "verify-full":
		cfg.TLSConfig = &tls.Config{ServerName: cfg.Host}
	default:
		return nil, fmt.Errorf("pgwire: unsupported sslmode %q", values["sslmode"])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseKeywordValuePairs tokenizes a libpq-style connection string into
// its keyword/value pairs, honoring single-quoted values.
func parseKeywordValuePairs(s string) (map[string]string, error) {
	values := make(map[string]string)
	for len(s) > 0 {
		s = strings.TrimLeft(s, " \t\r\n")
		if s == "" {
			break
		}

		eq := strings.IndexByte(s, '=')
		if eq == -1 {
			return nil, fmt.Errorf("pgwire: malformed connection string near %q", s)
		}
		key := strings.TrimSpace(s[:eq])
		rest := strings.TrimLeft(s[eq+1:], " \t\r\n")

		var value string
		if strings.HasPrefix(rest, "'") {
			end := strings.IndexByte(rest[1:], '\'')
			if end == -1 {
				return nil, fmt.Errorf("pgwire: unterminated quoted value for %q", key)
			}
			value = rest[1 : 1+end]
			rest = rest[1+end+1:]
		} else {
			idx := strings.IndexAny(rest, " \t\r\n")
			if idx == -1 {
				value, rest = rest, ""
			} else {
				value, rest = rest[:idx], rest[idx:]
			}
		}
		values[key] = value
		s = rest
	}
	return values, nil
}
