package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"archviz-studio/internal/history"
	"archviz-studio/internal/media"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/watermark"
)

type sentPhoto struct {
	chatID  int64
	img     media.Image
	caption string
}

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	keyboards []tgbotapi.InlineKeyboardMarkup
	edits     int
	answers   []string
	photos    []sentPhoto
	files     map[string]media.Image
	nextMsgID int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{files: map[string]media.Image{}}
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	f.nextMsgID++
	return f.nextMsgID, nil
}

func (f *fakeMessenger) EditTextWithKeyboard(_ int64, _ int, text string, kb tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	f.texts = append(f.texts, text)
	f.keyboards = append(f.keyboards, kb)
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) SendPhoto(chatID int64, img media.Image, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, sentPhoto{chatID: chatID, img: img, caption: caption})
	return nil
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) (media.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.files[fileID]
	if !ok {
		return media.Image{}, errors.New("file not found")
	}
	return img, nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeMessenger) addFiles(ids ...string) {
	for _, id := range ids {
		f.files[id] = media.Image{Data: []byte(id), MIMEType: "image/jpeg"}
	}
}

type fakeStudio struct {
	mu       sync.Mutex
	requests []prompt.Request
	users    []string
	tiers    []watermark.Tier
	records  map[string]history.Record
	err      error
}

func newFakeStudio() *fakeStudio {
	return &fakeStudio{records: map[string]history.Record{}}
}

func (f *fakeStudio) Generate(_ context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.users = append(f.users, userID)
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return history.Record{}, f.err
	}
	rec := history.Record{
		ID:      fmt.Sprintf("rec-%d", len(f.requests)),
		UserID:  userID,
		Mode:    req.Mode(),
		Image:   media.Image{Data: []byte("render"), MIMEType: "image/png"},
		Request: req.Clone(),
	}
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeStudio) Preview(req prompt.Request) (prompt.Compiled, error) {
	return prompt.Compile(req)
}

func (f *fakeStudio) History(_ context.Context, userID string, limit int) ([]history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []history.Record
	for i := len(f.requests); i >= 1 && len(out) < limit; i-- {
		if rec, ok := f.records[fmt.Sprintf("rec-%d", i)]; ok && rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStudio) Record(_ context.Context, userID, id string) (history.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.UserID != userID {
		return history.Record{}, history.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStudio) Restore(ctx context.Context, userID, id string) (prompt.Request, error) {
	rec, err := f.Record(ctx, userID, id)
	if err != nil {
		return prompt.Request{}, err
	}
	return rec.Restore(), nil
}

func (f *fakeStudio) lastRequest() prompt.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}
