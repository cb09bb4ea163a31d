// Command checkout-client drives the checkout fallback chain from the command
// line: it reads line items, walks the configured backends in order and prints
// the redirect target for the winning backend. It is the headless counterpart
// of the storefront checkout button, useful for smoke-testing deployments and
// for kiosk-style integrations that have no browser.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/slimmermetai/checkout-api/internal/checkout"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

type itemInput struct {
	ProductID   string `json:"productId"`
	ProductType string `json:"productType"`
	Name        string `json:"name"`
	UnitAmount  int64  `json:"unitAmount"`
	Quantity    int    `json:"quantity"`
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var cfg checkout.ClientConfig

	var (
		emergencyUrls string
		currency      string
		email         string
		itemsPath     string
	)

	flag.StringVar(&cfg.PrimaryURL, "primary-url", "", "Primary checkout API endpoint")
	flag.StringVar(&cfg.SecondaryURL, "secondary-url", "", "Secondary checkout API endpoint")
	flag.StringVar(&emergencyUrls, "emergency-urls", "", "Comma-separated emergency checkout endpoints")
	flag.StringVar(&cfg.SuccessURL, "success-url", "https://slimmermetai.com/bedankt", "Payment success page")
	flag.StringVar(&cfg.CancelURL, "cancel-url", "https://slimmermetai.com/winkelwagen", "Payment cancel page")
	flag.StringVar(&cfg.ProviderSecretKey, "stripe-key", "", "Stripe secret key for the direct fallback")
	flag.BoolVar(&cfg.AllowDirectFallback, "allow-direct", false, "Allow the direct provider fallback")
	flag.DurationVar(&cfg.AttemptTimeout, "attempt-timeout", 5*time.Second, "Timeout per backend attempt")
	flag.DurationVar(&cfg.TotalBudget, "total-budget", 20*time.Second, "Total time budget for the chain")

	flag.StringVar(&currency, "currency", "eur", "ISO-4217 currency code")
	flag.StringVar(&email, "email", "", "Customer email hint")
	flag.StringVar(&itemsPath, "items", "-", "Path to a JSON array of line items, or - for stdin")

	flag.Parse()

	cfg.EmergencyURLs = splitNonEmpty(emergencyUrls)

	items, err := readItems(itemsPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Ctrl-C is the CLI equivalent of the customer navigating away: the
	// in-flight attempt is aborted and no further backends are tried.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orchestrator := checkout.NewOrchestrator(cfg, logger)

	target, err := orchestrator.InitiateCheckout(ctx, &checkout.CheckoutPayload{
		Items:         items,
		Currency:      strings.ToLower(currency),
		CustomerEmail: email,
	})
	if err != nil {
		return err
	}

	out := struct {
		SessionID string `json:"sessionId"`
		URL       string `json:"redirectUrl"`
		Backend   string `json:"backend"`
		Direct    bool   `json:"direct,omitempty"`
	}{target.SessionID, target.URL, target.Backend, target.Direct}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(out)
}

func readItems(path string) ([]domain.LineItem, error) {
	var reader io.Reader = os.Stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		reader = f
	}

	var inputs []itemInput

	err := json.NewDecoder(reader).Decode(&inputs)
	if err != nil {
		return nil, fmt.Errorf("parsing line items: %w", err)
	}

	items := make([]domain.LineItem, len(inputs))
	for i, in := range inputs {
		items[i] = domain.LineItem{
			ProductID:   in.ProductID,
			ProductType: domain.ProductType(in.ProductType),
			Name:        in.Name,
			UnitAmount:  in.UnitAmount,
			Quantity:    in.Quantity,
		}
	}

	return items, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	urls := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}

	return urls
}
