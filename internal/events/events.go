package events

import (
	"context"
)

// BundleTransformed is published after a bundle maps successfully. Payload
// is the marshaled flat-record array exactly as served to the caller.
type BundleTransformed struct {
	Digest      string // sha256 of the inbound payload
	RecordCount int
	Payload     []byte
}

type Publisher interface {
	PublishBundleTransformed(ctx context.Context, evt BundleTransformed)
	SubscribeBundleTransformed() <-chan BundleTransformed
}

type inMemory struct{ ch chan BundleTransformed }

func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan BundleTransformed, buffer)}
}

func (m *inMemory) PublishBundleTransformed(_ context.Context, evt BundleTransformed) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) SubscribeBundleTransformed() <-chan BundleTransformed { return m.ch }
