// Package handlers is the Telegram front-end of the studio: commands, the
// inline settings panel, photo and album intake.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"archviz-studio/internal/history"
	"archviz-studio/internal/media"
	"archviz-studio/internal/mediagroup"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/session"
	"archviz-studio/internal/watermark"
)

type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendPhoto(chatID int64, img media.Image, caption string) error
	SendTyping(chatID int64)
	DownloadFile(ctx context.Context, fileID string) (media.Image, error)
}

type Studio interface {
	Generate(ctx context.Context, userID string, tier watermark.Tier, req prompt.Request) (history.Record, error)
	Preview(req prompt.Request) (prompt.Compiled, error)
	History(ctx context.Context, userID string, limit int) ([]history.Record, error)
	Record(ctx context.Context, userID, id string) (history.Record, error)
	Restore(ctx context.Context, userID, id string) (prompt.Request, error)
}

type Options struct {
	Telegram        Messenger
	Studio          Studio
	Sessions        *session.Store
	Logger          *slog.Logger
	Tier            watermark.Tier
	HistoryPageSize int
}

type Handler struct {
	tg         Messenger
	studio     Studio
	sessions   *session.Store
	logger     *slog.Logger
	tier       watermark.Tier
	pageSize   int
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	tier := opts.Tier
	if tier == "" {
		tier = watermark.TierFree
	}
	pageSize := opts.HistoryPageSize
	if pageSize <= 0 {
		pageSize = 5
	}

	return &Handler{
		tg:       opts.Telegram,
		studio:   opts.Studio,
		sessions: sessions,
		logger:   logger,
		tier:     tier,
		pageSize: pageSize,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}
	if fileID := photoFileID(msg); fileID != "" {
		return h.handlePhoto(ctx, chatID, userID, msg, fileID)
	}
	if msg.Text != "" {
		return h.handleText(chatID, userID, msg.Text)
	}
	return nil
}

// HandleMediaGroup renders an album: the first photo is the base image and
// the rest are additional views of the same subject.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processPhotos(ctx, group.ChatID, group.UserID, group.Caption, group.FileIDs); err != nil {
		h.logger.Error("media group processing failed", "err", err, "media_group_id", group.MediaGroupID)
	}
}

const helpText = "🏛 ArchViz Studio\n\n" +
	"Send a photo or sketch of a building and I will render it.\n" +
	"Send an album to add up to 4 extra views of the same subject.\n\n" +
	"Commands:\n" +
	"/settings - mode, style, view and output options\n" +
	"/as site|reference|material1|material2 - the next photo fills that slot\n" +
	"/as clear - remove site, reference and material photos\n" +
	"/prompt - show the instruction that will be sent\n" +
	"/history - recent renders\n" +
	"/reset - restore default settings\n" +
	"/cancel - cancel a pending photo or note\n\n" +
	"Captions accept options, e.g.: interior style=japandi ar=4:3 light=135"

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "settings":
		h.sessions.Update(chatID, userID, func(st *session.UIState) { st.Menu = "main" })
		return h.renderSettings(chatID, userID, 0, false)
	case "as":
		return h.handleAs(chatID, userID, msg.CommandArguments())
	case "prompt":
		return h.sendPrompt(chatID, userID, msg.CommandArguments())
	case "history":
		return h.sendHistory(ctx, chatID, userID)
	case "reset":
		h.sessions.Reset(chatID, userID)
		return h.tg.SendText(chatID, "✅ Settings restored to defaults.")
	case "cancel":
		h.sessions.Update(chatID, userID, func(st *session.UIState) {
			st.Pending = ""
			st.AwaitingNote = false
		})
		return h.tg.SendText(chatID, "OK, cancelled.")
	default:
		return h.tg.SendText(chatID, "❌ Unknown command. Use /help.")
	}
}

func (h *Handler) handleAs(chatID, userID int64, arg string) error {
	if strings.EqualFold(strings.TrimSpace(arg), "clear") {
		h.sessions.Update(chatID, userID, func(st *session.UIState) { st.ClearAuxiliary() })
		return h.tg.SendText(chatID, "✅ Site, reference and material photos removed.")
	}
	role, ok := auxRole(arg)
	if !ok {
		return h.tg.SendText(chatID, "Usage: /as site|reference|material1|material2|clear")
	}
	h.sessions.Update(chatID, userID, func(st *session.UIState) { st.Pending = role })
	return h.tg.SendText(chatID, fmt.Sprintf("📷 Send the %s photo.", role.Label()))
}

func (h *Handler) handleText(chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	st := h.sessions.Get(chatID, userID)
	if st.AwaitingNote {
		h.sessions.Update(chatID, userID, func(st *session.UIState) {
			st.AwaitingNote = false
			if text == "-" {
				st.AdditionalPrompt = ""
			} else {
				st.AdditionalPrompt = text
			}
		})
		return h.renderSettings(chatID, userID, 0, false)
	}

	// Plain text adjusts the saved settings with the caption syntax.
	h.sessions.Update(chatID, userID, func(st *session.UIState) {
		st.ApplySettings(prompt.ParseArgs(text, st.Settings()))
	})
	return h.renderSettings(chatID, userID, 0, false)
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *tgbotapi.Message, fileID string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     msg.From.UserName,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	if pending := h.sessions.Get(chatID, userID).Pending; pending != "" {
		img, err := h.tg.DownloadFile(ctx, fileID)
		if err != nil {
			h.logger.Error("photo download failed", "err", err)
			return h.tg.SendText(chatID, "❌ Could not download the photo.")
		}
		h.sessions.Update(chatID, userID, func(st *session.UIState) {
			st.Attach(pending, img)
			st.Pending = ""
		})
		return h.tg.SendText(chatID, fmt.Sprintf("✅ Saved as %s. Now send the base photo.", pending.Label()))
	}

	return h.processPhotos(ctx, chatID, userID, msg.Caption, []string{fileID})
}

func (h *Handler) processPhotos(ctx context.Context, chatID, userID int64, caption string, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	h.tg.SendTyping(chatID)

	images := make([]media.Image, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			img, err := h.tg.DownloadFile(egCtx, fileID)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not download the photo.")
	}

	var dropped int
	st := h.sessions.Update(chatID, userID, func(st *session.UIState) {
		dropped = st.SetBase(images[0], images[1:])
	})
	if dropped > 0 {
		_ = h.tg.SendText(chatID, fmt.Sprintf("ℹ️ Only %d extra views are used; %d ignored.", prompt.MaxAdditionalBaseImages, dropped))
	}

	req := prompt.ParseArgs(caption, st.Request(st.Images))
	return h.generate(ctx, chatID, userID, req)
}

func (h *Handler) generate(ctx context.Context, chatID, userID int64, req prompt.Request) error {
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, fmt.Sprintf("🎨 Rendering (%s), please wait...", req.Mode()))

	rec, err := h.studio.Generate(ctx, strconv.FormatInt(userID, 10), h.tier, req)
	if err != nil {
		h.logger.Warn("generation failed", "chat_id", chatID, "err", err)
		return h.tg.SendText(chatID, userMessage(err))
	}
	return h.tg.SendPhoto(chatID, rec.Image, fmt.Sprintf("✅ Done: %s\nid: %s", rec.Mode, rec.ID))
}

func (h *Handler) sendPrompt(chatID, userID int64, args string) error {
	st := h.sessions.Get(chatID, userID)
	if st.Images.Base.IsZero() {
		return h.tg.SendText(chatID, "📷 Send a base photo first; /prompt shows the instruction built for it.")
	}
	compiled, err := h.studio.Preview(prompt.ParseArgs(args, st.Request(st.Images)))
	if err != nil {
		return h.tg.SendText(chatID, userMessage(err))
	}

	var b strings.Builder
	for _, a := range compiled.Images {
		fmt.Fprintf(&b, "%s: %s\n", prompt.Ref(a.Ordinal), a.Role.Label())
	}
	b.WriteString("\n")
	b.WriteString(compiled.Instruction)
	return h.tg.SendText(chatID, b.String())
}

func (h *Handler) sendHistory(ctx context.Context, chatID, userID int64) error {
	recs, err := h.studio.History(ctx, strconv.FormatInt(userID, 10), h.pageSize)
	if err != nil {
		h.logger.Error("history lookup failed", "err", err)
		return h.tg.SendText(chatID, "❌ Could not load your history.")
	}
	if len(recs) == 0 {
		return h.tg.SendText(chatID, "No renders yet. Send a photo to start.")
	}

	var b strings.Builder
	b.WriteString("🗂 Recent renders\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(recs))
	for i, r := range recs {
		fmt.Fprintf(&b, "%d) %s, %s\n", i+1, r.Mode, r.CreatedAt.Format("2006-01-02 15:04"))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🖼 %d", i+1), cb(userID, "show", r.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("↩ Restore %d", i+1), cb(userID, "restore", r.ID)),
		})
	}
	_, err = h.tg.SendTextWithKeyboard(chatID, strings.TrimSpace(b.String()), tgbotapi.NewInlineKeyboardMarkup(rows...))
	return err
}

// photoFileID returns the largest photo size, or an image sent as a file.
func photoFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if d := msg.Document; d != nil && strings.HasPrefix(d.MimeType, "image/") {
		return d.FileID
	}
	return ""
}
