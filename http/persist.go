package httpapi

import (
	"context"
	"log"

	"github.com/yourorg/lead-intake-api/batchdata"
	"github.com/yourorg/lead-intake-api/internal/canon"
	"github.com/yourorg/lead-intake-api/internal/store"
)

// persistSnapshot writes the raw payload plus the canonical address index,
// best effort. The caller's response never depends on it.
func persistSnapshot(ctx context.Context, st *store.Store, digest string, raw []byte, records []batchdata.FlatRecord) {
	if st == nil || len(records) == 0 {
		return
	}
	refs := make([]store.PropertyRef, 0, len(records))
	for _, rec := range records {
		addr := rec.AddressText()
		if addr == "" {
			continue
		}
		pk := canon.PropertyKey(addr)
		if pk == "" {
			continue
		}
		refs = append(refs, store.PropertyRef{PropertyKey: pk, Address: addr})
	}
	err := st.WriteSnapshot(ctx, store.SnapshotInput{
		Provider: "makecom.bundle",
		Endpoint: "transform",
		Digest:   digest,
		Payload:  raw,
		Records:  refs,
	})
	if err != nil {
		log.Printf("[WARN] snapshot write failed: %v", err)
	}
}
