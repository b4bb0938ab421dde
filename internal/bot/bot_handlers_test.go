package bot

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"catalog_bot/internal/catalog"
	"catalog_bot/internal/metrics"
	"catalog_bot/internal/model"
	"catalog_bot/internal/session"
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
	Markup *tgbotapi.InlineKeyboardMarkup
}

type mockAPI struct {
	mu    sync.Mutex
	sent  []sentMsg
	acked []string
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch msg := c.(type) {
	case tgbotapi.MessageConfig:
		s := sentMsg{ChatID: msg.ChatID, Text: msg.Text}
		if kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			s.Markup = &kb
		}
		m.sent = append(m.sent, s)
	case tgbotapi.CallbackConfig:
		m.acked = append(m.acked, msg.CallbackQueryID)
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) last() sentMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMsg{}
	}
	return m.sent[len(m.sent)-1]
}

func (m *mockAPI) lastText() string {
	return m.last().Text
}

func (m *mockAPI) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func (m *mockAPI) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.acked = nil
}

// --- helpers ---

var testItems = []model.Item{
	{
		ID: "1", Name: "Facebook Hacker Pro", Category: "Social Media Tools",
		Description: "Account recovery walkthrough", Price: "$49", OriginalPrice: "$99",
		Rating: 4.5, Tags: []string{"Social"},
	},
	{ID: "2", Name: "Snapchat Spy Pro", Category: "Social Media Tools", Tags: []string{"Social"}},
	{
		ID: "3", Name: "WhatsApp Breaker Pro", Category: "Messaging Tools",
		Features: []string{"Chat export"}, Tags: []string{"Messaging"},
	},
}

const testChat = int64(100)

func newTestBot(t *testing.T) (*Bot, *mockAPI, *metrics.Metrics) {
	t.Helper()
	cat, err := catalog.New(testItems, nil)
	if err != nil {
		t.Fatalf("new catalog: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	api := &mockAPI{}
	b := &Bot{
		api:      api,
		sessions: session.NewManager(cat, m),
		metrics:  m,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return b, api, m
}

func command(cmd, args string) *tgbotapi.Message {
	text := "/" + cmd
	if args != "" {
		text += " " + args
	}
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: testChat},
		From: &tgbotapi.User{ID: 1},
		Text: text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len("/" + cmd)},
		},
	}
}

func textMsg(s string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: testChat},
		From: &tgbotapi.User{ID: 1},
		Text: s,
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: 1},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

func buttonData(kb *tgbotapi.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

// --- handler tests ---

func TestScenario(t *testing.T) {
	b, api, m := newTestBot(t)

	b.handleMessage(command("search", "whats"))
	requireContains(t, api.lastText(), "1 item:")
	requireContains(t, api.lastText(), "#3 WhatsApp Breaker Pro")
	if strings.Contains(api.lastText(), "Facebook") {
		t.Errorf("filtered list shows hidden item:\n%s", api.lastText())
	}

	b.handleCallback(callback("get:3"))
	requireContains(t, api.lastText(), `Access to "WhatsApp Breaker Pro"`)

	b.handleMessage(command("submit", ""))
	if diff := cmp.Diff("Please enter your name.", api.lastText()); diff != "" {
		t.Errorf("validation reply (-want +got):\n%s", diff)
	}

	b.handleMessage(textMsg("Alice"))
	requireContains(t, api.lastText(), "Saved your name")

	b.handleMessage(command("submit", ""))
	if diff := cmp.Diff("Thank you! Starting WhatsApp Breaker Pro...", api.lastText()); diff != "" {
		t.Errorf("confirmation (-want +got):\n%s", diff)
	}

	st := b.sessions.Get(testChat).State()
	if diff := cmp.Diff(model.Browse, st.Screen); diff != "" {
		t.Errorf("screen after submit (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("whats", st.Query); diff != "" {
		t.Errorf("query after submit (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Captures.WithLabelValues("name"))); diff != "" {
		t.Errorf("captures (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("name"))); diff != "" {
		t.Errorf("validation failures (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Searches)); diff != "" {
		t.Errorf("searches (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Selections)); diff != "" {
		t.Errorf("selections (-want +got):\n%s", diff)
	}
}

func TestPhoneCapture(t *testing.T) {
	b, api, m := newTestBot(t)

	b.handleMessage(command("get", "#1"))
	b.handleMessage(textMsg("Alice"))
	b.handleMessage(command("phone", ""))
	requireContains(t, api.lastText(), "Method: phone number")

	b.handleMessage(command("submit", ""))
	if diff := cmp.Diff("Please enter your phone number.", api.lastText()); diff != "" {
		t.Errorf("validation reply (-want +got):\n%s", diff)
	}

	b.handleMessage(&tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: testChat},
		From:    &tgbotapi.User{ID: 1},
		Contact: &tgbotapi.Contact{PhoneNumber: "+15550100"},
	})
	requireContains(t, api.lastText(), "Saved your phone number")

	b.handleMessage(command("submit", ""))
	requireContains(t, api.lastText(), "Starting Facebook Hacker Pro")
	if diff := cmp.Diff(1.0, testutil.ToFloat64(m.Captures.WithLabelValues("phone"))); diff != "" {
		t.Errorf("phone captures (-want +got):\n%s", diff)
	}
}

func TestBrowseText(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(textMsg("PRO"))
	requireContains(t, api.lastText(), "3 items:")

	b.handleMessage(textMsg("snap"))
	requireContains(t, api.lastText(), "#2 Snapchat Spy Pro")
	if diff := cmp.Diff("snap", b.sessions.Get(testChat).State().Query); diff != "" {
		t.Errorf("query (-want +got):\n%s", diff)
	}

	b.handleMessage(command("search", ""))
	requireContains(t, api.lastText(), "3 items:")

	b.handleMessage(textMsg("zzz"))
	requireContains(t, api.lastText(), "No items match")
	if api.last().Markup != nil {
		t.Error("empty list should have no keyboard")
	}
}

func TestHandleCategory(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		contains string
		want     string
	}{
		{name: "exact", args: "Messaging Tools", contains: "#3 WhatsApp", want: "Messaging Tools"},
		{name: "case-insensitive", args: "social media tools", contains: "2 items:", want: "Social Media Tools"},
		{name: "all", args: "all", contains: "3 items:", want: model.AllCategories},
		{name: "unknown", args: "Games", contains: `Unknown category "Games"`, want: model.AllCategories},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _ := newTestBot(t)
			b.handleMessage(command("category", tt.args))
			requireContains(t, api.lastText(), tt.contains)
			if diff := cmp.Diff(tt.want, b.sessions.Get(testChat).State().Category); diff != "" {
				t.Errorf("category (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCategoriesKeyboard(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(command("categories", ""))
	want := []string{"cat:0", "cat:1", "cat:2"}
	if diff := cmp.Diff(want, buttonData(api.last().Markup)); diff != "" {
		t.Errorf("buttons (-want +got):\n%s", diff)
	}

	b.handleCallback(callback("cat:2"))
	if diff := cmp.Diff("Messaging Tools", b.sessions.Get(testChat).State().Category); diff != "" {
		t.Errorf("category (-want +got):\n%s", diff)
	}

	b.handleCallback(callback("cat:9"))
	requireContains(t, api.lastText(), "no longer available")
}

func TestHandleItem(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(command("item", "1"))
	got := api.last()
	requireContains(t, got.Text, "#1 Facebook Hacker Pro")
	requireContains(t, got.Text, "$49 (was $99)")
	if diff := cmp.Diff([]string{"get:1", "catalog:"}, buttonData(got.Markup)); diff != "" {
		t.Errorf("buttons (-want +got):\n%s", diff)
	}

	b.handleMessage(command("item", ""))
	requireContains(t, api.lastText(), "Usage: /item")

	b.handleMessage(command("item", "42"))
	requireContains(t, api.lastText(), "Item #42 not found")

	if diff := cmp.Diff(model.Browse, b.sessions.Get(testChat).State().Screen); diff != "" {
		t.Errorf("item details changed screen (-want +got):\n%s", diff)
	}
}

func TestWrongScreenReplies(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(command("submit", ""))
	requireContains(t, api.lastText(), "Nothing to submit")

	b.handleMessage(command("name", ""))
	requireContains(t, api.lastText(), "Pick an item")

	b.handleMessage(command("get", "42"))
	requireContains(t, api.lastText(), "Item #42 not found")

	b.handleMessage(command("get", "3"))
	b.handleMessage(command("get", "1"))
	requireContains(t, api.lastText(), "already filling in a form")
	if diff := cmp.Diff("3", b.sessions.Get(testChat).State().Target.ID); diff != "" {
		t.Errorf("target (-want +got):\n%s", diff)
	}
}

func TestHandleCancel(t *testing.T) {
	b, api, m := newTestBot(t)

	b.handleMessage(command("search", "pro"))
	b.handleCallback(callback("get:2"))
	b.handleMessage(textMsg("Alice"))
	b.handleCallback(callback("cancel:"))

	st := b.sessions.Get(testChat).State()
	if diff := cmp.Diff(model.Browse, st.Screen); diff != "" {
		t.Errorf("screen (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("pro", st.Query); diff != "" {
		t.Errorf("query (-want +got):\n%s", diff)
	}
	requireContains(t, api.lastText(), "3 items:")
	if diff := cmp.Diff(0.0, testutil.ToFloat64(m.Captures.WithLabelValues("name"))); diff != "" {
		t.Errorf("captures (-want +got):\n%s", diff)
	}
}

func TestCatalogWhileCapturing(t *testing.T) {
	b, api, _ := newTestBot(t)

	b.handleMessage(command("get", "3"))
	api.reset()
	b.handleMessage(command("catalog", ""))
	requireContains(t, api.lastText(), `Access to "WhatsApp Breaker Pro"`)
	want := []string{"method:name", "method:phone", "submit:", "cancel:"}
	if diff := cmp.Diff(want, buttonData(api.last().Markup)); diff != "" {
		t.Errorf("buttons (-want +got):\n%s", diff)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	b, _, _ := newTestBot(t)

	b.handleMessage(command("get", "3"))
	other := textMsg("snap")
	other.Chat = &tgbotapi.Chat{ID: testChat + 1}
	b.handleMessage(other)

	if diff := cmp.Diff(model.Capture, b.sessions.Get(testChat).State().Screen); diff != "" {
		t.Errorf("first chat screen (-want +got):\n%s", diff)
	}
	second := b.sessions.Get(testChat + 1).State()
	if diff := cmp.Diff(model.Browse, second.Screen); diff != "" {
		t.Errorf("second chat screen (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("snap", second.Query); diff != "" {
		t.Errorf("second chat query (-want +got):\n%s", diff)
	}
}

func TestHandleCommand(t *testing.T) {
	cmds := []struct {
		cmd      string
		contains string
	}{
		{"start", "Welcome"},
		{"help", "/search"},
		{"catalog", "3 items:"},
		{"categories", "Choose a category"},
		{"unknown_cmd", "Unknown command"},
	}

	b, api, _ := newTestBot(t)
	for _, tc := range cmds {
		api.reset()
		b.handleMessage(command(tc.cmd, ""))
		requireContains(t, api.lastText(), tc.contains)
	}
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantSent  int
		wantAcked int
	}{
		{name: "invalid data format", data: "nocolon", wantSent: 0, wantAcked: 1},
		{name: "unknown action", data: "bogus:1", wantSent: 0, wantAcked: 1},
		{name: "unknown method", data: "method:email", wantSent: 0, wantAcked: 1},
		{name: "catalog", data: "catalog:", wantSent: 1, wantAcked: 1},
		{name: "item", data: "item:2", wantSent: 1, wantAcked: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _ := newTestBot(t)
			b.handleCallback(callback(tt.data))
			if diff := cmp.Diff(tt.wantSent, api.count()); diff != "" {
				t.Errorf("sent messages (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantAcked, len(api.acked)); diff != "" {
				t.Errorf("acks (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("method switch keeps values", func(t *testing.T) {
		b, _, _ := newTestBot(t)
		b.handleCallback(callback("get:1"))
		b.handleMessage(textMsg("Alice"))
		b.handleCallback(callback("method:phone"))
		b.handleMessage(textMsg("555"))
		b.handleCallback(callback("method:name"))

		st := b.sessions.Get(testChat).State()
		if diff := cmp.Diff("Alice", st.Values.Name); diff != "" {
			t.Errorf("name (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff("555", st.Values.Phone); diff != "" {
			t.Errorf("phone (-want +got):\n%s", diff)
		}
	})
}
