package httputil_test

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/httputil"
	"github.com/wonny/pesowatch/pkg/logger"
)

// Example shows the scraper setup the daemon uses against the
// upstream rate page: identified User-Agent, tight timeout, patient
// retries.
func Example() {
	cfg := &config.Config{Env: "production", LogLevel: "info"}
	log := logger.New(cfg)

	client := httputil.NewWithTimeout(cfg, log, 20*time.Second).
		WithUserAgent("pesowatch/1.0").
		WithRetry(3, 2*time.Second)

	resp, err := client.Get(context.Background(),
		"https://www.exchange-rates.org/exchange-rate-history/usd-php")
	if err != nil {
		fmt.Printf("Rate page unreachable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Printf("Status: %d\n", resp.StatusCode)
}

// Example_oneShot disables retries for probes where a failure should
// surface immediately instead of burning the backoff budget.
func Example_oneShot() {
	cfg := &config.Config{Env: "production", LogLevel: "info"}
	log := logger.New(cfg)

	client := httputil.New(cfg, log).DisableRetry()

	resp, err := client.Get(context.Background(), "https://www.exchange-rates.org/")
	if err != nil {
		fmt.Printf("Probe failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	fmt.Println("Upstream reachable")
}
