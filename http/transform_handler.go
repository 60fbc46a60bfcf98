package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/yourorg/lead-intake-api/batchdata"
	"github.com/yourorg/lead-intake-api/internal/events"
	"github.com/yourorg/lead-intake-api/internal/redisx"
	"github.com/yourorg/lead-intake-api/internal/store"
)

const maxBodyBytes = 8 << 20 // provider bundles run well under this; guard anyway

type TransformDeps struct {
	Cache    *redisx.Client // optional response cache
	Store    *store.Store   // optional snapshot/audit store
	Pub      events.Publisher
	CacheTTL time.Duration
}

func RegisterTransform(r chi.Router, d TransformDeps) {
	r.Post("/transform", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes+1))
		if err != nil {
			render.Status(req, http.StatusBadRequest)
			render.JSON(w, req, map[string]any{"error": "read_error", "detail": err.Error()})
			return
		}
		if int64(len(body)) > maxBodyBytes {
			render.Status(req, http.StatusRequestEntityTooLarge)
			render.JSON(w, req, map[string]any{"error": "payload_too_large"})
			return
		}

		// Provider/webhook retries resend identical payloads; serve the
		// cached response so the transform stays idempotent end to end.
		digest := payloadDigest(body)
		if d.Cache != nil {
			if val, err := d.Cache.Get(req.Context(), cacheKey(digest)); err == nil && val != "" {
				render.JSON(w, req, json.RawMessage(val))
				return
			}
		}

		records, err := batchdata.MapBundlePayloadToRecords(body)
		if err != nil {
			if errors.Is(err, batchdata.ErrMalformedPayload) {
				render.Status(req, http.StatusBadRequest)
				render.JSON(w, req, map[string]any{"error": "malformed_payload", "detail": err.Error()})
				return
			}
			log.Printf("[WARN] transform failed: %v", err)
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "transform_error"})
			return
		}

		payload, err := json.Marshal(records)
		if err != nil {
			log.Printf("[WARN] transform encode failed: %v", err)
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]any{"error": "transform_error"})
			return
		}

		if d.Cache != nil {
			ttl := d.CacheTTL
			if ttl <= 0 {
				ttl = 10 * time.Minute
			}
			if err := d.Cache.Set(req.Context(), cacheKey(digest), string(payload), ttl); err != nil {
				log.Printf("[WARN] cache write failed: %v", err)
			}
		}

		persistSnapshot(req.Context(), d.Store, digest, body, records)

		if d.Pub != nil {
			d.Pub.PublishBundleTransformed(req.Context(), events.BundleTransformed{
				Digest:      digest,
				RecordCount: len(records),
				Payload:     payload,
			})
		}

		render.JSON(w, req, json.RawMessage(payload))
	})
}

func payloadDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func cacheKey(digest string) string { return "bundle:" + digest }
