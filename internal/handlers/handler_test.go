package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archviz-studio/internal/catalog"
	"archviz-studio/internal/gateway"
	"archviz-studio/internal/mediagroup"
	"archviz-studio/internal/prompt"
	"archviz-studio/internal/session"
	"archviz-studio/internal/studio"
	"archviz-studio/internal/watermark"
)

const (
	testChat int64 = 100
	testUser int64 = 42
)

type fixture struct {
	h        *Handler
	tg       *fakeMessenger
	studio   *fakeStudio
	sessions *session.Store
}

func newFixture() *fixture {
	f := &fixture{tg: newFakeMessenger(), studio: newFakeStudio(), sessions: session.NewStore()}
	f.h = New(Options{Telegram: f.tg, Studio: f.studio, Sessions: f.sessions, Tier: watermark.TierPro})
	return f
}

func command(text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i > 0 {
		cmdLen = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUser},
		Chat:     &tgbotapi.Chat{ID: testChat},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func text(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUser},
		Chat: &tgbotapi.Chat{ID: testChat},
		Text: s,
	}}
}

func photo(fileID, caption string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: testUser},
		Chat:    &tgbotapi.Chat{ID: testChat},
		Caption: caption,
		Photo:   []tgbotapi.PhotoSize{{FileID: fileID + "-small"}, {FileID: fileID}},
	}}
}

func callback(from int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: from},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}}
}

func TestPhotoWithCaptionGenerates(t *testing.T) {
	f := newFixture()
	f.tg.addFiles("base")

	require.NoError(t, f.h.HandleUpdate(context.Background(), photo("base", "interior style=japandi ar=4:3 warm light")))

	require.Len(t, f.studio.requests, 1)
	req := f.studio.lastRequest()
	assert.Equal(t, prompt.ModeInterior, req.Mode())
	assert.Equal(t, "Japandi", req.StyleName)
	assert.Equal(t, "4:3", req.AspectRatio)
	assert.Equal(t, "warm light", req.AdditionalPrompt)
	assert.Equal(t, "base", string(req.BaseImage.Data))
	assert.Equal(t, "42", f.studio.users[0])
	assert.Equal(t, watermark.TierPro, f.studio.tiers[0])

	require.Len(t, f.tg.photos, 1)
	assert.Equal(t, "render", string(f.tg.photos[0].img.Data))
	assert.Contains(t, f.tg.photos[0].caption, "rec-1")

	// caption options apply to that render only
	assert.Equal(t, prompt.ModeExterior, f.sessions.Get(testChat, testUser).Mode)
}

func TestAuxiliaryPhotosFillSlots(t *testing.T) {
	f := newFixture()
	f.tg.addFiles("site", "ref1", "ref2", "mat", "base")
	ctx := context.Background()

	for _, step := range []struct{ cmd, file string }{
		{"/as site", "site"},
		{"/as reference", "ref1"},
		{"/as ref", "ref2"},
		{"/as material1", "mat"},
	} {
		require.NoError(t, f.h.HandleUpdate(ctx, command(step.cmd)))
		require.NoError(t, f.h.HandleUpdate(ctx, photo(step.file, "")))
		assert.Contains(t, f.tg.lastText(), "Saved as")
	}
	assert.Empty(t, f.studio.requests, "auxiliary photos never start a render")

	require.NoError(t, f.h.HandleUpdate(ctx, photo("base", "")))
	req := f.studio.lastRequest()
	assert.Equal(t, "site", string(req.SiteImage.Data))
	require.Len(t, req.ReferenceImages, 2)
	assert.Equal(t, "ref2", string(req.ReferenceImages[1].Data))
	assert.Equal(t, "mat", string(req.Material1Image.Data))

	require.NoError(t, f.h.HandleUpdate(ctx, command("/as clear")))
	st := f.sessions.Get(testChat, testUser)
	assert.True(t, st.Images.Site.IsZero())
	assert.Empty(t, st.Images.References)

	require.NoError(t, f.h.HandleUpdate(ctx, command("/as roof")))
	assert.Contains(t, f.tg.lastText(), "Usage")
}

func TestMediaGroupUsesExtraViews(t *testing.T) {
	f := newFixture()
	ids := []string{"v0", "v1", "v2", "v3", "v4", "v5"}
	f.tg.addFiles(ids...)

	f.h.HandleMediaGroup(context.Background(), mediagroup.Group{
		ChatID: testChat, UserID: testUser, Caption: "style=watercolor", FileIDs: ids,
	})

	req := f.studio.lastRequest()
	assert.Equal(t, "v0", string(req.BaseImage.Data))
	require.Len(t, req.AdditionalBaseImages, prompt.MaxAdditionalBaseImages)
	assert.Equal(t, "v1", string(req.AdditionalBaseImages[0].Data))
	assert.Equal(t, "Watercolor", req.StyleName)
	assert.Contains(t, strings.Join(f.tg.texts, "\n"), "1 ignored")
}

func TestAlbumPhotosAreAggregated(t *testing.T) {
	f := newFixture()
	var groups []mediagroup.Group
	ag := mediagroup.New(mediagroup.Options{OnFlush: func(g mediagroup.Group) { groups = append(groups, g) }})
	f.h.SetMediaGroupAggregator(ag)

	up := photo("a", "")
	up.Message.MediaGroupID = "album"
	require.NoError(t, f.h.HandleUpdate(context.Background(), up))
	assert.Equal(t, 1, ag.Pending())
	assert.Empty(t, f.studio.requests)

	ag.Close()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a"}, groups[0].FileIDs)
}

func TestDownloadFailure(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.h.HandleUpdate(context.Background(), photo("missing", "")))
	assert.Empty(t, f.studio.requests)
	assert.Contains(t, f.tg.lastText(), "Could not download")
}

func TestGenerationErrorsAreReported(t *testing.T) {
	f := newFixture()
	f.tg.addFiles("base")
	f.studio.err = studio.ErrGenerationInProgress

	require.NoError(t, f.h.HandleUpdate(context.Background(), photo("base", "")))
	assert.Contains(t, f.tg.lastText(), "already running")
	assert.Empty(t, f.tg.photos)
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&prompt.ConfigError{Field: "baseImage", Reason: "a base image is required"}, "a base image is required (baseImage)"},
		{&gateway.TransportError{Status: 413, Message: gateway.MessagePayloadTooLarge}, gateway.MessagePayloadTooLarge},
		{&gateway.GenerationFailedError{Message: "blocked: SAFETY"}, "blocked: SAFETY"},
		{&gateway.NetworkError{Err: errors.New("dial")}, "unreachable"},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "too long"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, tc := range cases {
		assert.Contains(t, userMessage(tc.err), tc.want)
	}
}

func TestSettingsPanelCallbacks(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, command("/settings")))
	require.Len(t, f.tg.keyboards, 1)
	assert.Contains(t, f.tg.lastText(), "Mode: exterior")

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "menu", menuStyle))))
	assert.Equal(t, menuStyle, f.sessions.Get(testChat, testUser).Menu)
	assert.Equal(t, 1, f.tg.edits)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "pick", menuStyle, "4"))))
	st := f.sessions.Get(testChat, testUser)
	assert.Equal(t, catalog.ExteriorStyles()[4].Key, st.StyleName)
	assert.Equal(t, "main", st.Menu)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "mode", string(prompt.ModeIdeation)))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "pick", menuVerb, "0"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "pick", menuVerb, "1"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "innov", "10"))))
	st = f.sessions.Get(testChat, testUser)
	assert.Equal(t, prompt.ModeIdeation, st.Mode)
	assert.Empty(t, st.StyleName, "switching mode clears the style")
	assert.Equal(t, []string{catalog.Verbs()[0].Key, catalog.Verbs()[1].Key}, st.Verbs)
	assert.Equal(t, 60, st.Innovation)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "clear", menuVerb))))
	assert.Empty(t, f.sessions.Get(testChat, testUser).Verbs)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "pick", menuStyle, "999"))))
	assert.Empty(t, f.sessions.Get(testChat, testUser).StyleName)
}

func TestCallbackFromAnotherUserIsRejected(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.h.HandleUpdate(context.Background(), callback(7, cb(testUser, "mode", "interior"))))
	assert.Equal(t, []string{"This panel belongs to someone else."}, f.tg.answers)
	assert.Equal(t, prompt.ModeExterior, f.sessions.Get(testChat, testUser).Mode)
}

func TestGenerateButtonReusesPhotos(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "generate"))))
	assert.Empty(t, f.studio.requests)
	assert.Contains(t, strings.Join(f.tg.texts, "\n"), "Send a base photo")

	f.tg.addFiles("base")
	require.NoError(t, f.h.HandleUpdate(ctx, photo("base", "")))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "mode", "diagram"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "generate"))))

	require.Len(t, f.studio.requests, 2)
	req := f.studio.lastRequest()
	assert.Equal(t, prompt.ModeDiagram, req.Mode())
	assert.Equal(t, "base", string(req.BaseImage.Data))
}

func TestNoteAndTextSettings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "note"))))
	require.NoError(t, f.h.HandleUpdate(ctx, text("add a rooftop garden")))
	st := f.sessions.Get(testChat, testUser)
	assert.Equal(t, "add a rooftop garden", st.AdditionalPrompt)
	assert.False(t, st.AwaitingNote)

	require.NoError(t, f.h.HandleUpdate(ctx, text("ar=16:9 view=elevation side=back")))
	st = f.sessions.Get(testChat, testUser)
	assert.Equal(t, "16:9", st.AspectRatio)
	assert.Equal(t, catalog.ViewElevation, st.ViewType)
	assert.Equal(t, catalog.SideBack, st.ElevationSide)
	assert.Contains(t, f.tg.lastText(), "Side: Back")
}

func TestPromptCommand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, command("/prompt")))
	assert.Contains(t, f.tg.lastText(), "Send a base photo first")

	f.tg.addFiles("base", "ref")
	require.NoError(t, f.h.HandleUpdate(ctx, command("/as reference")))
	require.NoError(t, f.h.HandleUpdate(ctx, photo("ref", "")))
	require.NoError(t, f.h.HandleUpdate(ctx, photo("base", "")))

	require.NoError(t, f.h.HandleUpdate(ctx, command("/prompt view=isometric")))
	out := f.tg.lastText()
	assert.True(t, strings.HasPrefix(out, "Image #1: "+prompt.RoleBase.Label()), out)
	assert.Contains(t, out, "Image #2: "+prompt.RoleReference.Label())
	assert.Contains(t, out, prompt.ParallelClause)
}

func TestHistoryShowAndRestore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, command("/history")))
	assert.Contains(t, f.tg.lastText(), "No renders yet")

	f.tg.addFiles("base")
	require.NoError(t, f.h.HandleUpdate(ctx, photo("base", "ideation verbs=twist innovation=70")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/reset")))

	require.NoError(t, f.h.HandleUpdate(ctx, command("/history")))
	assert.Contains(t, f.tg.lastText(), "1) ideation")
	kb := f.tg.keyboards[len(f.tg.keyboards)-1]
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, cb(testUser, "restore", "rec-1"), *kb.InlineKeyboard[0][1].CallbackData)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "show", "rec-1"))))
	assert.Len(t, f.tg.photos, 2)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "restore", "rec-1"))))
	st := f.sessions.Get(testChat, testUser)
	assert.Equal(t, prompt.ModeIdeation, st.Mode)
	assert.Equal(t, 70, st.Innovation)
	assert.Equal(t, "base", string(st.Images.Base.Data))

	require.NoError(t, f.h.HandleUpdate(ctx, callback(testUser, cb(testUser, "restore", "nope"))))
	assert.Contains(t, f.tg.lastText(), "no longer available")
}

func TestAuxRole(t *testing.T) {
	for in, want := range map[string]prompt.Role{
		"site": prompt.RoleSite, " Map ": prompt.RoleSite, "reference": prompt.RoleReference,
		"mat1": prompt.RoleMaterial1, "material2": prompt.RoleMaterial2,
	} {
		got, ok := auxRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := auxRole("roof")
	assert.False(t, ok)
}
