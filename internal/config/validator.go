package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FieldError is one rejected setting, addressed by its dotted path.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every rejected setting so a user sees them all
// in one run.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "config is valid"
	case 1:
		return "invalid config: " + e.Errors[0].Error()
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config (%d problems): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

func (e *ValidationErrors) HasErrors() bool { return len(e.Errors) > 0 }

// Validate checks rules the schema cannot express.
func (f *File) Validate() error {
	errs := &ValidationErrors{}

	ValidateTraffic("traffic", &f.Traffic, false, errs)
	validateServer(&f.Server, errs)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateTraffic validates traffic settings. requireURL is set once flags
// and file have been merged and a target must be known.
func ValidateTraffic(prefix string, t *TrafficConfig, requireURL bool, errs *ValidationErrors) {
	if t.URL == "" {
		if requireURL {
			errs.Add(prefix+".url", "a target URL is required")
		}
	} else if u, err := url.Parse(t.URL); err != nil {
		errs.Add(prefix+".url", fmt.Sprintf("invalid URL: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add(prefix+".url", fmt.Sprintf("unsupported scheme %q, want http or https", u.Scheme))
	} else if u.Host == "" {
		errs.Add(prefix+".url", "URL has no host")
	}

	if t.Requests != nil && *t.Requests < 0 {
		errs.Add(prefix+".requests", "must not be negative")
	}
	if t.Timeout < 0 {
		errs.Add(prefix+".timeout", "must not be negative")
	}

	switch t.Format {
	case "", "text", "json", "yaml":
	default:
		errs.Add(prefix+".format", fmt.Sprintf("unknown format %q", t.Format))
	}
}

func validateServer(s *ServerConfig, errs *ValidationErrors) {
	if s.Addr != "" {
		if _, _, err := net.SplitHostPort(s.Addr); err != nil {
			errs.Add("server.addr", fmt.Sprintf("invalid listen address: %v", err))
		}
	}
	if s.RateLimit < 0 {
		errs.Add("server.rateLimit", "must not be negative")
	}
	if s.Burst < 0 {
		errs.Add("server.burst", "must not be negative")
	}
	if s.RateLimit > 0 && s.Burst == 0 {
		errs.Add("server.burst", "must be at least 1 when rateLimit is set")
	}
	if s.ShutdownTimeout < 0 {
		errs.Add("server.shutdownTimeout", "must not be negative")
	}
}
