package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/slimmermetai/checkout-api/internal/domain"
)

// Orchestrator tries each backend in order until one yields a redirect
// target. Attempts are sequential; there is no hedging, so the provider never
// sees two sessions for one order.
type Orchestrator struct {
	cfg      ClientConfig
	backends []CheckoutBackend
	logger   *slog.Logger
}

// NewOrchestrator builds the default chain from cfg: primary API, secondary
// mirror, optionally the direct provider path, then the emergency probe.
func NewOrchestrator(cfg ClientConfig, logger *slog.Logger) *Orchestrator {
	cfg = cfg.withDefaults()

	var backends []CheckoutBackend

	if cfg.PrimaryURL != "" {
		backends = append(backends, NewAPIBackend("primary", cfg.PrimaryURL, cfg.HTTPClient))
	}

	if cfg.SecondaryURL != "" {
		backends = append(backends, NewAPIBackend("secondary", cfg.SecondaryURL, cfg.HTTPClient))
	}

	if cfg.AllowDirectFallback && cfg.ProviderSecretKey != "" {
		backends = append(backends, NewDirectProviderBackend(cfg.ProviderSecretKey))
	}

	if len(cfg.EmergencyURLs) > 0 {
		backends = append(backends, NewEmergencyProbeBackend(cfg.EmergencyURLs, cfg.HTTPClient))
	}

	return &Orchestrator{cfg: cfg, backends: backends, logger: logger}
}

// NewOrchestratorWithBackends wires an explicit chain. Used in tests and by
// callers with non-standard topologies.
func NewOrchestratorWithBackends(cfg ClientConfig, logger *slog.Logger, backends ...CheckoutBackend) *Orchestrator {
	return &Orchestrator{cfg: cfg.withDefaults(), backends: backends, logger: logger}
}

// InitiateCheckout validates the payload and walks the backend chain. An
// empty or invalid payload fails synchronously before any network call. A
// terminal classification or cancellation of the caller's context stops the
// chain immediately; retryable failures move on to the next backend.
func (o *Orchestrator) InitiateCheckout(ctx context.Context, payload *CheckoutPayload) (*RedirectTarget, error) {
	if payload == nil || len(payload.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	for _, item := range payload.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	if payload.SuccessURL == "" {
		payload.SuccessURL = o.cfg.SuccessURL
	}
	if payload.CancelURL == "" {
		payload.CancelURL = o.cfg.CancelURL
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.TotalBudget)
	defer cancel()

	var lastErr error

	for _, backend := range o.backends {
		if err := ctx.Err(); err != nil {
			return nil, o.abort(lastErr, err)
		}

		attemptCtx, attemptCancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		target, err := backend.Attempt(attemptCtx, payload)
		attemptCancel()

		if err == nil {
			o.logger.InfoContext(ctx, "checkout session created",
				"backend", backend.Name(),
				"sessionID", target.SessionID,
			)
			return target, nil
		}

		// The caller walking away, or the total budget running out, is not
		// an upstream failure: stop rather than probe further backends on a
		// dead request.
		if ctx.Err() != nil {
			return nil, o.abort(err, ctx.Err())
		}

		if !Retryable(err) {
			o.logger.WarnContext(ctx, "checkout attempt rejected",
				"backend", backend.Name(),
				"error", err,
			)
			return nil, err
		}

		o.logger.WarnContext(ctx, "checkout attempt failed, trying next backend",
			"backend", backend.Name(),
			"error", err,
		)
		lastErr = err
	}

	return nil, o.exhausted(lastErr, nil)
}

// abort decides how a dead context surfaces. Caller cancellation is not an
// exhausted chain: it wraps context.Canceled so the caller can tell "user
// walked away" from "every backend failed". The total budget running out is
// exhaustion.
func (o *Orchestrator) abort(lastErr, ctxErr error) error {
	if errors.Is(ctxErr, context.Canceled) {
		if lastErr != nil {
			return fmt.Errorf("checkout cancelled: %w (last attempt: %v)", ctxErr, lastErr)
		}

		return fmt.Errorf("checkout cancelled: %w", ctxErr)
	}

	return o.exhausted(lastErr, ctxErr)
}

func (o *Orchestrator) exhausted(lastErr, ctxErr error) error {
	switch {
	case ctxErr != nil && lastErr != nil:
		return fmt.Errorf("%w: %v (last attempt: %v)", ErrAllBackendsFailed, ctxErr, lastErr)
	case ctxErr != nil:
		return fmt.Errorf("%w: %v", ErrAllBackendsFailed, ctxErr)
	case lastErr != nil:
		return fmt.Errorf("%w: last attempt: %v", ErrAllBackendsFailed, lastErr)
	default:
		return ErrAllBackendsFailed
	}
}
