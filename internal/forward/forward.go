package forward

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/lead-intake-api/internal/events"
)

// Forwarder pushes transformed bundles to the downstream CRM webhook. It
// consumes bundle events off the in-process bus so the transform response
// never waits on the CRM side.
type Forwarder struct {
	URL     string
	Pub     events.Publisher
	http    *retryablehttp.Client
	limiter *rate.Limiter
}

func New(url string, pub events.Publisher, rps float64) *Forwarder {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 6 * time.Second
	rc.Logger = nil

	if rps <= 0 {
		rps = 2
	}
	return &Forwarder{
		URL:     url,
		Pub:     pub,
		http:    rc,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Run consumes events until ctx is canceled. Delivery failures are logged
// and dropped; the CRM side dedupes on the idempotency header if we ever
// double-send after a partial failure.
func (f *Forwarder) Run(ctx context.Context) {
	sub := f.Pub.SubscribeBundleTransformed()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub:
			if err := f.deliver(ctx, evt); err != nil {
				log.Printf("[WARN] forward: delivery of %d record(s) failed: %v", evt.RecordCount, err)
			} else {
				log.Printf("[INFO] forward: delivered %d record(s) to CRM webhook", evt.RecordCount)
			}
		}
	}
}

func (f *Forwarder) deliver(ctx context.Context, evt events.BundleTransformed) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, f.URL, bytes.NewReader(evt.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if evt.Digest != "" {
		req.Header.Set("X-Idempotency-Key", evt.Digest)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("crm webhook status %d", resp.StatusCode)
	}
	return nil
}
