package httpapi

import (
	"context"

	"archviz-studio/internal/history"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/watermark"
)

type mockStudio struct {
	gotUser  string
	gotTier  watermark.Tier
	gotReq   prompt.Request
	gotLimit int

	record  history.Record
	records []history.Record
	err     error
}

func (m *mockStudio) Generate(_ context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error) {
	m.gotUser, m.gotTier, m.gotReq = userID, tier, req
	if m.err != nil {
		return history.Record{}, m.err
	}
	return m.record, nil
}

func (m *mockStudio) Preview(req prompt.Request) (prompt.Compiled, error) {
	return prompt.Compile(req)
}

func (m *mockStudio) History(_ context.Context, userID string, limit int) ([]history.Record, error) {
	m.gotUser, m.gotLimit = userID, limit
	return m.records, m.err
}

func (m *mockStudio) Record(_ context.Context, userID, id string) (history.Record, error) {
	m.gotUser = userID
	if m.err != nil {
		return history.Record{}, m.err
	}
	if id != m.record.ID {
		return history.Record{}, history.ErrNotFound
	}
	return m.record, nil
}

func (m *mockStudio) Restore(ctx context.Context, userID, id string) (prompt.Request, error) {
	rec, err := m.Record(ctx, userID, id)
	if err != nil {
		return prompt.Request{}, err
	}
	return rec.Restore(), nil
}
