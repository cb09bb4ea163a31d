package checkout

import (
	"net/http"
	"time"
)

const (
	defaultAttemptTimeout = 5 * time.Second
	defaultTotalBudget    = 20 * time.Second
)

// ClientConfig is built once at startup and passed around explicitly. The
// provider key and endpoint list live here instead of on shared mutable
// state, so two orchestrators with different configs can coexist and tests
// need no global patching.
type ClientConfig struct {
	PrimaryURL   string
	SecondaryURL string

	// EmergencyURLs is the ordered endpoint list the last-resort probe walks
	// with a generic fallback descriptor.
	EmergencyURLs []string

	SuccessURL string
	CancelURL  string

	// ProviderSecretKey enables the direct-provider backend. The direct path
	// skips server-side bookkeeping entirely, so it is off unless
	// AllowDirectFallback is set.
	ProviderSecretKey   string
	AllowDirectFallback bool

	// AttemptTimeout bounds a single backend attempt including response
	// classification. TotalBudget bounds the whole chain.
	AttemptTimeout time.Duration
	TotalBudget    time.Duration

	HTTPClient *http.Client
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}

	if c.TotalBudget <= 0 {
		c.TotalBudget = defaultTotalBudget
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}

	return c
}
