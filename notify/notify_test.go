package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/extract"
	"github.com/use-agent/dailyclaim/models"
	"github.com/use-agent/dailyclaim/report"
)

func sampleSummary() *report.Summary {
	s := report.NewSummary("anyrouter")
	rec := extract.Record{}
	rec.Set(extract.FieldBalance, extract.Value{Text: "$2.00", Source: "endpoint", Rank: extract.RankEndpoint})
	s.Add(models.AccountOutcome{
		Identifier: "alice@example.com",
		Succeeded:  true,
		Status:     models.StatusCheckedIn,
		Extracted:  rec.Balance(),
	})
	s.Add(models.AccountOutcome{
		Identifier: "bob",
		Status:     models.StatusInvalidCredential,
		Error:      "<script>",
	})
	s.Finish()
	return s
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice@example.com", "ali***@example.com"},
		{"bob@example.com", "bob@example.com"},
		{"ab@x.io", "ab@x.io"},
		{"username", "username"},
		{"张三丰大侠@qq.com", "张三丰***@qq.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Redact(tt.in), tt.in)
	}
}

type captureSender struct {
	subject, message string
}

func (c *captureSender) Send(_ context.Context, subject, message string) error {
	c.subject, c.message = subject, message
	return nil
}

func TestTelegram_Format(t *testing.T) {
	cs := &captureSender{}
	tg := &Telegram{svc: cs, now: func() time.Time { return time.Date(2026, 10, 19, 8, 7, 5, 0, time.UTC) }}

	require.NoError(t, tg.Notify(context.Background(), "AnyRouter", sampleSummary()))

	assert.Equal(t, "<b>🤖 AnyRouter check-in report</b>", cs.subject)
	msg := cs.message
	assert.Contains(t, msg, "⏰ Time: 2026-10-19 08:07:05")
	assert.Contains(t, msg, "• Accounts: 2")
	assert.Contains(t, msg, "• ✅ Succeeded: 1")
	assert.Contains(t, msg, "• ❌ Failed: 1")
	assert.Contains(t, msg, "• 📈 Success rate: 50.0%")
	assert.Contains(t, msg, "1. ✅ <code>ali***@example.com</code>")
	assert.Contains(t, msg, "💰 Balance: $2.00")
	assert.Contains(t, msg, "2. ❌ <code>bob</code>")
	assert.Contains(t, msg, "📝 &lt;script&gt;")
	assert.NotContains(t, msg, "alice@")
	assert.True(t, strings.HasSuffix(msg, rule))
}

func TestTelegram_RewardTotal(t *testing.T) {
	cs := &captureSender{}
	tg := &Telegram{svc: cs, now: time.Now}
	s := report.NewSummary("leaflow")
	s.RewardFormat = "%.2f 元"
	s.Add(models.AccountOutcome{Identifier: "a@x.com", Succeeded: true, Status: models.StatusCheckedIn, Reward: 0.42})
	s.Add(models.AccountOutcome{Identifier: "b@x.com", Succeeded: true, Status: models.StatusAlreadyCheckedIn, Reward: 0.5})
	s.Finish()

	require.NoError(t, tg.Notify(context.Background(), "leaflow", s))
	assert.Contains(t, cs.message, "• 🎁 Total reward: 0.92 元")

	require.NoError(t, tg.Notify(context.Background(), "anyrouter", sampleSummary()))
	assert.NotContains(t, cs.message, "Total reward")
}

func TestTelegram_AbortedRun(t *testing.T) {
	cs := &captureSender{}
	tg := &Telegram{svc: cs, now: func() time.Time { return time.Date(2026, 10, 19, 8, 7, 5, 0, time.UTC) }}

	require.NoError(t, tg.NotifyError(context.Background(), "leaflow", errors.New("launch <chrome> failed")))
	assert.Equal(t, "<b>⚠️ leaflow check-in aborted</b>", cs.subject)
	assert.Contains(t, cs.message, "⏰ Time: 2026-10-19 08:07:05")
	assert.Contains(t, cs.message, "launch &lt;chrome&gt; failed")
}

func TestTelegram_EmptyRunHasNoRate(t *testing.T) {
	cs := &captureSender{}
	tg := &Telegram{svc: cs, now: time.Now}
	s := report.NewSummary("anyrouter")
	s.Finish()

	require.NoError(t, tg.Notify(context.Background(), "anyrouter", s))
	assert.NotContains(t, cs.message, "Success rate")
}

func TestParseChatIDs(t *testing.T) {
	ids, err := parseChatIDs(" 123, -100456 ,")
	require.NoError(t, err)
	assert.Equal(t, []int64{123, -100456}, ids)

	_, err = parseChatIDs("abc")
	assert.ErrorContains(t, err, "invalid chat id")

	_, err = parseChatIDs(" , ")
	assert.Error(t, err)
}

func TestWebhook_SignedDelivery(t *testing.T) {
	var got Event
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		assert.Equal(t, "sha256="+Sign("s3cret", body), sig)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := sampleSummary()
	require.NoError(t, NewWebhook(srv.URL, "s3cret").Notify(context.Background(), "anyrouter", s))

	assert.NotEmpty(t, sig)
	assert.Equal(t, EventRunCompleted, got.Type)
	assert.Equal(t, s.RunID, got.RunID)
	require.Len(t, got.Data, 2)
	assert.Equal(t, "alice@example.com", got.Data[0].Account)
	assert.Equal(t, "💰 Balance: $2.00", got.Data[0].BalanceSummary)
}

func TestWebhook_AbortedEvent(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, "").NotifyError(context.Background(), "leaflow", errors.New("browser crashed")))
	assert.Equal(t, EventRunAborted, got.Type)
	assert.Equal(t, "leaflow", got.Site)
	assert.Equal(t, "browser crashed", got.Error)
	assert.Empty(t, got.RunID)
	assert.Empty(t, got.Data)
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, "").Notify(context.Background(), "anyrouter", sampleSummary())
	assert.ErrorContains(t, err, "status 502")
}

type flakyNotifier struct {
	failures int
	calls    atomic.Int32
	disabled bool
}

func (f *flakyNotifier) Enabled() bool { return !f.disabled }

func (f *flakyNotifier) Notify(context.Context, string, *report.Summary) error {
	return f.attempt()
}

func (f *flakyNotifier) NotifyError(context.Context, string, error) error {
	return f.attempt()
}

func (f *flakyNotifier) attempt() error {
	if int(f.calls.Add(1)) <= f.failures {
		return errors.New("telegram is down")
	}
	return nil
}

func TestDispatcher_RetriesEachChannel(t *testing.T) {
	recovers := &flakyNotifier{failures: 2}
	broken := &flakyNotifier{failures: 100}
	off := &flakyNotifier{disabled: true}

	d := NewDispatcher(3, time.Millisecond).
		Use("recovers", recovers).
		Use("broken", broken).
		Use("off", off)

	err := d.Notify(context.Background(), "anyrouter", sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: telegram is down")
	assert.NotContains(t, err.Error(), "recovers")

	assert.EqualValues(t, 3, recovers.calls.Load())
	assert.EqualValues(t, 3, broken.calls.Load())
	assert.Zero(t, off.calls.Load())
	assert.Equal(t, []string{"recovers", "broken", "off"}, d.Channels())
}

func TestDispatcher_NotifyErrorRetries(t *testing.T) {
	recovers := &flakyNotifier{failures: 1}
	d := NewDispatcher(2, time.Millisecond).Use("recovers", recovers)

	require.NoError(t, d.NotifyError(context.Background(), "leaflow", errors.New("browser crashed")))
	assert.EqualValues(t, 2, recovers.calls.Load())
}

func TestNew_Channels(t *testing.T) {
	d := New(config.NotifyConfig{Enabled: true, WebhookURL: "https://hooks.example/run", Attempts: 3})
	assert.Equal(t, []string{"webhook"}, d.Channels())
	assert.True(t, d.Enabled())

	d = New(config.NotifyConfig{Enabled: false, WebhookURL: "https://hooks.example/run"})
	assert.Empty(t, d.Channels())
	assert.False(t, d.Enabled())
	assert.NoError(t, d.Notify(context.Background(), "anyrouter", sampleSummary()))
}
