package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"archviz-studio/internal/catalog"
	"archviz-studio/internal/imgprep"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/session"
)

const settingsCallbackPrefix = "st"

// Option menus. Multi-select menus toggle instead of pick.
const (
	menuStyle    = "style"
	menuView     = "view"
	menuDiagram  = "diagram"
	menuVerb     = "verb"
	menuMaterial = "material"
	menuForm     = "form"
	menuTime     = "time"
	menuAtmo     = "atmo"
	menuSide     = "side"
	menuRatio    = "ratio"
	menuSize     = "size"
)

var menuTitles = map[string]string{
	menuStyle:    "Style",
	menuView:     "View",
	menuDiagram:  "Diagram",
	menuVerb:     "Operations",
	menuMaterial: "Material",
	menuForm:     "Form",
	menuTime:     "Time of day",
	menuAtmo:     "Atmosphere",
	menuSide:     "Side",
	menuRatio:    "Ratio",
	menuSize:     "Size",
}

var imageSizes = []string{"1K", "2K", "4K"}

func optionsFor(menu string, st session.UIState) []catalog.NamedOption {
	switch menu {
	case menuStyle:
		if st.Mode == prompt.ModeInterior {
			return catalog.InteriorStyles()
		}
		return catalog.ExteriorStyles()
	case menuView:
		return catalog.Views()
	case menuDiagram:
		return catalog.Diagrams()
	case menuVerb:
		return catalog.Verbs()
	case menuMaterial:
		return catalog.Materials()
	case menuForm:
		return catalog.Forms()
	case menuTime:
		return catalog.TimesOfDay()
	case menuAtmo:
		return catalog.Atmospheres()
	case menuSide:
		return catalog.ElevationSides()
	case menuRatio:
		out := []catalog.NamedOption{
			{Key: prompt.AspectSimilarToInput, Name: "As input"},
			{Key: prompt.AspectSimilarToReference, Name: "As reference"},
		}
		for _, r := range imgprep.SupportedRatios {
			out = append(out, catalog.NamedOption{Key: r, Name: r})
		}
		return out
	case menuSize:
		out := make([]catalog.NamedOption, 0, len(imageSizes))
		for _, s := range imageSizes {
			out = append(out, catalog.NamedOption{Key: s, Name: s})
		}
		return out
	default:
		return nil
	}
}

func isMultiSelect(menu string) bool {
	return menu == menuVerb || menu == menuAtmo
}

// selected returns the current values of the setting behind menu.
func selected(menu string, st session.UIState) []string {
	var v string
	switch menu {
	case menuStyle:
		v = st.StyleName
	case menuView:
		v = st.ViewType
	case menuDiagram:
		v = st.DiagramType
	case menuVerb:
		return st.Verbs
	case menuMaterial:
		v = st.Material
	case menuForm:
		v = st.Form
	case menuTime:
		v = st.TimeOfDay
	case menuAtmo:
		return st.Atmospheres
	case menuSide:
		v = st.ElevationSide
	case menuRatio:
		v = st.AspectRatio
	case menuSize:
		v = st.ImageSize
	}
	if v == "" {
		return nil
	}
	return []string{v}
}

func setOption(st *session.UIState, menu, key string) {
	switch menu {
	case menuStyle:
		st.StyleName = key
	case menuView:
		st.ViewType = key
	case menuDiagram:
		st.DiagramType = key
	case menuVerb:
		st.ToggleVerb(key)
	case menuMaterial:
		st.Material = key
	case menuForm:
		st.Form = key
	case menuTime:
		st.TimeOfDay = key
	case menuAtmo:
		st.ToggleAtmosphere(key)
	case menuSide:
		st.ElevationSide = key
	case menuRatio:
		st.AspectRatio = key
	case menuSize:
		st.ImageSize = key
	}
}

func clearOption(st *session.UIState, menu string) {
	switch menu {
	case menuVerb:
		st.Verbs = nil
	case menuAtmo:
		st.Atmospheres = nil
	default:
		setOption(st, menu, "")
	}
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, settingsCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}
	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This panel belongs to someone else.", true)
		return nil
	}

	action := parts[2]
	args := parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	switch action {
	case "show":
		_ = h.tg.AnswerCallback(q.ID, "", false)
		if len(args) < 1 {
			return nil
		}
		rec, err := h.studio.Record(ctx, strconv.FormatInt(ownerID, 10), args[0])
		if err != nil {
			return h.tg.SendText(chatID, "❌ That render is no longer available.")
		}
		return h.tg.SendPhoto(chatID, rec.Image, fmt.Sprintf("%s, %s", rec.Mode, rec.CreatedAt.Format("2006-01-02 15:04")))
	case "restore":
		_ = h.tg.AnswerCallback(q.ID, "Restoring…", false)
		if len(args) < 1 {
			return nil
		}
		req, err := h.studio.Restore(ctx, strconv.FormatInt(ownerID, 10), args[0])
		if err != nil {
			return h.tg.SendText(chatID, "❌ That render is no longer available.")
		}
		h.sessions.Update(chatID, ownerID, func(st *session.UIState) {
			st.Apply(req)
			st.Menu = "main"
		})
		_ = h.tg.SendText(chatID, "↩ Settings and photos restored. Press Generate to render again.")
		return h.renderSettings(chatID, ownerID, 0, false)
	}

	h.sessions.Update(chatID, ownerID, func(st *session.UIState) {
		st.MessageID = msgID
		switch action {
		case "menu":
			if len(args) >= 1 {
				st.Menu = args[0]
			}
		case "mode":
			if len(args) >= 1 {
				st.Mode = prompt.Mode(args[0])
				st.StyleName = ""
			}
		case "pick":
			if len(args) >= 2 {
				if key, ok := optionKey(args[0], args[1], *st); ok {
					setOption(st, args[0], key)
				}
				if !isMultiSelect(args[0]) {
					st.Menu = "main"
				}
			}
		case "clear":
			if len(args) >= 1 {
				clearOption(st, args[0])
				st.Menu = "main"
			}
		case "innov":
			if len(args) >= 1 {
				if delta, err := strconv.Atoi(args[0]); err == nil {
					st.Innovation = min(100, max(0, st.Innovation+delta))
				}
			}
		case "note":
			st.AwaitingNote = true
		case "reset":
			msgID := st.MessageID
			images := st.Images
			*st = session.Defaults()
			st.MessageID = msgID
			st.Images = images
		case "close":
			st.AwaitingNote = false
			st.Menu = "main"
		}
	})

	switch action {
	case "note":
		_ = h.tg.AnswerCallback(q.ID, "Send the note text.", false)
		_ = h.tg.SendText(chatID, "📝 Send extra instructions for the render (\"-\" clears, /cancel aborts).")
	case "prompt":
		_ = h.tg.AnswerCallback(q.ID, "", false)
		return h.sendPrompt(chatID, ownerID, "")
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Generating…", false)
		st := h.sessions.Get(chatID, ownerID)
		if st.Images.Base.IsZero() {
			return h.tg.SendText(chatID, "📷 Send a base photo of the building.")
		}
		return h.generate(ctx, chatID, ownerID, st.Request(st.Images))
	case "close":
		_ = h.tg.AnswerCallback(q.ID, "Saved", false)
	default:
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
	}

	return h.renderSettings(chatID, ownerID, msgID, true)
}

func optionKey(menu, rawIdx string, st session.UIState) (string, bool) {
	idx, err := strconv.Atoi(rawIdx)
	opts := optionsFor(menu, st)
	if err != nil || idx < 0 || idx >= len(opts) {
		return "", false
	}
	return opts[idx].Key, true
}

func (h *Handler) renderSettings(chatID, userID int64, messageID int, edit bool) error {
	st := h.sessions.Get(chatID, userID)
	if messageID == 0 {
		messageID = st.MessageID
	}

	text := settingsText(st)
	kb := settingsKeyboard(userID, st)

	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.sessions.Update(chatID, userID, func(st *session.UIState) { st.MessageID = msgID })
	return nil
}

func settingsText(st session.UIState) string {
	var b strings.Builder
	b.WriteString("🏛 Render settings\n\n")
	fmt.Fprintf(&b, "Mode: %s\n", st.Mode)
	switch st.Mode {
	case prompt.ModeDiagram:
		fmt.Fprintf(&b, "Diagram: %s\n", orDefault(st.DiagramType, "Exploded Axonometric"))
	case prompt.ModeIdeation:
		fmt.Fprintf(&b, "Innovation: %d/100\n", st.Innovation)
		fmt.Fprintf(&b, "Operations: %s\n", orDefault(strings.Join(st.Verbs, ", "), "none"))
		fmt.Fprintf(&b, "Material: %s, Form: %s, Time: %s\n",
			orDefault(st.Material, "Default"), orDefault(st.Form, "Default"), orDefault(st.TimeOfDay, "Default"))
		fmt.Fprintf(&b, "View: %s\n", orDefault(st.ViewType, "Default"))
	default:
		fmt.Fprintf(&b, "Style: %s\n", orDefault(st.StyleName, "Default"))
		if st.Mode != prompt.ModeInterior {
			fmt.Fprintf(&b, "View: %s\n", orDefault(st.ViewType, "Default"))
			fmt.Fprintf(&b, "Atmosphere: %s\n", orDefault(strings.Join(st.Atmospheres, " + "), "Default"))
		}
	}
	if st.ViewType == catalog.ViewElevation || st.Mode == prompt.ModeIdeation {
		fmt.Fprintf(&b, "Side: %s\n", orDefault(st.ElevationSide, "Default"))
	}
	if st.LightDirection != nil {
		fmt.Fprintf(&b, "Light: %s\n", prompt.LightSentence(*st.LightDirection))
	}
	fmt.Fprintf(&b, "Ratio: %s, Size: %s\n", orDefault(st.AspectRatio, "Auto"), orDefault(st.ImageSize, "Auto"))
	if strings.TrimSpace(st.AdditionalPrompt) != "" {
		b.WriteString("Note: " + truncateLine(st.AdditionalPrompt, 80) + "\n")
	}

	b.WriteString("\nPhotos: ")
	b.WriteString(photoSummary(st.Images))
	b.WriteString("\n")

	switch {
	case st.AwaitingNote:
		b.WriteString("\n📝 Send the note text now (/cancel aborts).\n")
	case st.Pending != "":
		fmt.Fprintf(&b, "\n📷 Next photo: %s.\n", st.Pending.Label())
	case st.Images.Base.IsZero():
		b.WriteString("\n📷 Send a base photo of the building.\n")
	default:
		b.WriteString("\n🎨 Press Generate, or send a new photo.\n")
	}
	return strings.TrimSpace(b.String())
}

func photoSummary(im session.Images) string {
	if im.Base.IsZero() {
		return "none"
	}
	parts := []string{"base"}
	if n := len(im.Additional); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d views", n))
	}
	if !im.Site.IsZero() {
		parts = append(parts, "site")
	}
	if n := len(im.References); n > 0 {
		parts = append(parts, fmt.Sprintf("%d references", n))
	}
	if !im.Material1.IsZero() {
		parts = append(parts, "material 1")
	}
	if !im.Material2.IsZero() {
		parts = append(parts, "material 2")
	}
	return strings.Join(parts, ", ")
}

func settingsKeyboard(ownerID int64, st session.UIState) tgbotapi.InlineKeyboardMarkup {
	if _, ok := menuTitles[st.Menu]; ok {
		return optionKeyboard(ownerID, st.Menu, st)
	}
	return mainKeyboard(ownerID, st)
}

func mainKeyboard(ownerID int64, st session.UIState) tgbotapi.InlineKeyboardMarkup {
	var modeRow []tgbotapi.InlineKeyboardButton
	for _, m := range []prompt.Mode{prompt.ModeExterior, prompt.ModeInterior, prompt.ModeIdeation, prompt.ModeDiagram} {
		label := modeLabel(m)
		if st.Mode == m {
			label = "✅ " + label
		}
		modeRow = append(modeRow, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "mode", string(m))))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{modeRow}
	switch st.Mode {
	case prompt.ModeDiagram:
		rows = append(rows, menuRow(ownerID, menuDiagram))
	case prompt.ModeIdeation:
		rows = append(rows,
			menuRow(ownerID, menuVerb, menuView, menuSide),
			menuRow(ownerID, menuMaterial, menuForm, menuTime),
			[]tgbotapi.InlineKeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("Innovation −10", cb(ownerID, "innov", "-10")),
				tgbotapi.NewInlineKeyboardButtonData("Innovation +10", cb(ownerID, "innov", "10")),
			},
		)
	case prompt.ModeInterior:
		rows = append(rows, menuRow(ownerID, menuStyle))
	default:
		rows = append(rows, menuRow(ownerID, menuStyle, menuView), menuRow(ownerID, menuAtmo, menuSide))
	}

	rows = append(rows,
		menuRow(ownerID, menuRatio, menuSize),
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Note", cb(ownerID, "note")),
			tgbotapi.NewInlineKeyboardButtonData("📄 Prompt", cb(ownerID, "prompt")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", cb(ownerID, "generate")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Reset", cb(ownerID, "reset")),
			tgbotapi.NewInlineKeyboardButtonData("Close", cb(ownerID, "close")),
		},
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func menuRow(ownerID int64, menus ...string) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(menus))
	for _, m := range menus {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(menuTitles[m], cb(ownerID, "menu", m)))
	}
	return row
}

func optionKeyboard(ownerID int64, menu string, st session.UIState) tgbotapi.InlineKeyboardMarkup {
	current := selected(menu, st)
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, opt := range optionsFor(menu, st) {
		label := opt.Name
		if containsKey(current, opt.Key) {
			label = "✅ " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "pick", menu, strconv.Itoa(i))))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("Default", cb(ownerID, "clear", menu)),
		tgbotapi.NewInlineKeyboardButtonData("⬅ Back", cb(ownerID, "menu", "main")),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func modeLabel(m prompt.Mode) string {
	switch m {
	case prompt.ModeInterior:
		return "Interior"
	case prompt.ModeIdeation:
		return "Ideation"
	case prompt.ModeDiagram:
		return "Diagram"
	default:
		return "Exterior"
	}
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", settingsCallbackPrefix, ownerID, strings.Join(parts, ":"))
}

func containsKey(list []string, key string) bool {
	for _, v := range list {
		if catalog.SameKey(v, key) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func truncateLine(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
