package crossref

import (
	"slices"
	"time"
)

const (
	// DefaultPrefix is the Crossref test prefix assumed when none is configured.
	DefaultPrefix = "10.5555"

	// ProductionURL and TestURL are the deposit hosts selected by TestMode
	// when no explicit URL is configured.
	ProductionURL = "https://doi.crossref.org"
	TestURL       = "https://test.crossref.org"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pidstore/1.0"
)

// Config carries the credentials and endpoint of the registration service.
type Config struct {
	Username string
	Password string
	// Prefixes lists the DOI prefixes this account may deposit under.
	Prefixes []string
	TestMode bool
	URL      string
	Timeout  time.Duration

	// BreakerThreshold consecutive transport or 5xx failures suspend calls
	// for BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// WithDefaults returns a copy of c with unset fields defaulted.
func (c Config) WithDefaults() Config {
	out := c
	out.Prefixes = slices.Clone(c.Prefixes)
	if len(out.Prefixes) == 0 {
		out.Prefixes = []string{DefaultPrefix}
	}
	if out.URL == "" {
		out.URL = ProductionURL
		if out.TestMode {
			out.URL = TestURL
		}
	}
	if out.Timeout <= 0 {
		out.Timeout = defaultTimeout
	}
	return out
}
