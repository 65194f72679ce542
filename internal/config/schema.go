// Package config loads the optional YAML file that seeds CLI defaults.
//
// Example:
//
//	traffic:
//	  url: "http://localhost:3001"
//	  path: /health
//	  requests: 100
//	  timeout: 5s
//	  headers:
//	    X-Env: staging
//	server:
//	  addr: ":3001"
//	  mode: release
//	  rateLimit: 200
//	  burst: 50
//	log:
//	  mode: release
package config

import (
	_ "embed"
	"time"
)

//go:embed schema.json
var fileSchema string

// File is the root of a configuration file. Every section is optional.
type File struct {
	Traffic TrafficConfig `json:"traffic,omitempty" yaml:"traffic,omitempty"`
	Server  ServerConfig  `json:"server,omitempty" yaml:"server,omitempty"`
	Log     LogConfig     `json:"log,omitempty" yaml:"log,omitempty"`
}

// TrafficConfig seeds the traffic command.
type TrafficConfig struct {
	URL                string            `json:"url,omitempty" yaml:"url,omitempty"`
	Path               string            `json:"path,omitempty" yaml:"path,omitempty"`
	Requests           *int              `json:"requests,omitempty" yaml:"requests,omitempty"`
	Timeout            Duration          `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Headers            map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	InsecureSkipVerify bool              `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`
	Format             string            `json:"format,omitempty" yaml:"format,omitempty"`
	Output             string            `json:"output,omitempty" yaml:"output,omitempty"`
}

// ServerConfig seeds the serve command.
type ServerConfig struct {
	Addr            string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	Mode            string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	RateLimit       float64  `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
	Burst           int      `json:"burst,omitempty" yaml:"burst,omitempty"`
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// LogConfig selects the logger mode (debug, release, quiet).
type LogConfig struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
}

// Defaults used when neither the file nor a flag sets a value.
const (
	DefaultServerAddr      = ":3001"
	DefaultServerMode      = "release"
	DefaultShutdownTimeout = 5 * time.Second
	DefaultFormat          = "text"
)

// Duration is a time.Duration that can be unmarshaled from JSON/YAML strings.
type Duration time.Duration

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = 0
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}
