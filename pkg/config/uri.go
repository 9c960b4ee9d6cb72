package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// connectionURIPattern mirrors ConnectionUri::parse's regex in
// original_source/src/core/uri.rs: db://[user:pass+]host[:port][/db][?k=v&...].
// The '+' separator between auth and host avoids ambiguity with ":port".
var connectionURIPattern = regexp.MustCompile(`^db://(?:([^:]+):([^@+]+)[@+])?([^:/?]+)(?::(\d+))?(?:/([^?]+))?(?:\?(.*))?$`)

const defaultURIPort = 8569

// ConnectionURI is a parsed db:// connection string.
type ConnectionURI struct {
	Username string
	Password string
	Host     string
	Port     uint16
	DBName   string
	Query    map[string]string
}

// ParseURI parses a db:// connection string. Port defaults to 8569 when
// absent; DBName defaults to "" (callers should use DBNameDefault).
func ParseURI(uri string) (ConnectionURI, error) {
	m := connectionURIPattern.FindStringSubmatch(uri)
	if m == nil {
		return ConnectionURI{}, fmt.Errorf("config: invalid URI format, expected db://[user:pass+]host[:port][/...][?...]")
	}

	result := ConnectionURI{
		Username: m[1],
		Password: m[2],
		Host:     m[3],
		Port:     defaultURIPort,
		DBName:   m[5],
		Query:    map[string]string{},
	}

	if m[4] != "" {
		port, err := strconv.ParseUint(m[4], 10, 16)
		if err != nil {
			return ConnectionURI{}, fmt.Errorf("config: invalid port in URI: %w", err)
		}
		result.Port = uint16(port)
	}

	if m[6] != "" {
		for _, pair := range strings.Split(m[6], "&") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 {
				result.Query[kv[0]] = kv[1]
			}
		}
	}

	return result, nil
}

// ToAddr returns "host:port".
func (u ConnectionURI) ToAddr() string {
	return fmt.Sprintf("%s:%d", u.Host, u.Port)
}

// DBNameDefault returns u.DBName, or "data" if it wasn't present in the URI.
func (u ConnectionURI) DBNameDefault() string {
	if u.DBName == "" {
		return "data"
	}
	return u.DBName
}
