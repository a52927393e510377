package studio

import (
	"context"
	"sync"

	"archviz-studio/internal/gateway"
	"archviz-studio/internal/history"
	"archviz-studio/internal/media"
	"archviz-studio/internal/watermark"
)

type mockSender struct {
	mu       sync.Mutex
	payloads []gateway.Payload
	img      media.Image
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (m *mockSender) Send(ctx context.Context, p gateway.Payload) (media.Image, error) {
	m.mu.Lock()
	m.payloads = append(m.payloads, p)
	m.mu.Unlock()
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.gate != nil {
		<-m.gate
	}
	return m.img, m.err
}

func (m *mockSender) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

type mockCredits struct {
	mu      sync.Mutex
	charged map[string]int
}

func (m *mockCredits) Deduct(_ context.Context, userID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.charged == nil {
		m.charged = map[string]int{}
	}
	m.charged[userID] += amount
	return nil
}

type mockFinalizer struct {
	mu    sync.Mutex
	tiers []watermark.Tier
}

func (m *mockFinalizer) Finalize(_ context.Context, img media.Image, tier watermark.Tier) media.Image {
	m.mu.Lock()
	m.tiers = append(m.tiers, tier)
	m.mu.Unlock()
	if tier == watermark.TierFree {
		return media.Image{Data: append([]byte("marked:"), img.Data...), MIMEType: img.MIMEType}
	}
	return img
}

type mockRecorder struct {
	mu   sync.Mutex
	recs []history.Record
}

func (m *mockRecorder) Enqueue(rec history.Record) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return true
}
