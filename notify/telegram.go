package notify

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nikoksr/notify/service/telegram"

	"github.com/use-agent/dailyclaim/report"
)

const rule = "━━━━━━━━━━━━━━━━"

// sender is the part of a notify service the Telegram channel uses.
type sender interface {
	Send(ctx context.Context, subject, message string) error
}

// Telegram posts an HTML-formatted run report to one or more chats.
type Telegram struct {
	svc sender
	now func() time.Time
}

// NewTelegram connects to the Bot API. chatIDs is a comma-separated list
// of numeric chat IDs.
func NewTelegram(token, chatIDs string) (*Telegram, error) {
	ids, err := parseChatIDs(chatIDs)
	if err != nil {
		return nil, err
	}
	svc, err := telegram.New(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	svc.SetParseMode("HTML")
	svc.AddReceivers(ids...)
	return &Telegram{svc: svc, now: time.Now}, nil
}

func parseChatIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram: invalid chat id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("telegram: no chat id configured")
	}
	return ids, nil
}

func (t *Telegram) Enabled() bool { return t.svc != nil }

func (t *Telegram) Notify(ctx context.Context, site string, s *report.Summary) error {
	subject, body := t.format(site, s)
	return t.svc.Send(ctx, subject, body)
}

func (t *Telegram) NotifyError(ctx context.Context, site string, cause error) error {
	subject := fmt.Sprintf("<b>⚠️ %s check-in aborted</b>", html.EscapeString(site))

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Time: %s\n", t.now().Format(time.DateTime))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "❌ <b>Error</b>\n%s\n", html.EscapeString(cause.Error()))
	b.WriteString(rule)
	return t.svc.Send(ctx, subject, b.String())
}

// format renders the report. The service joins subject and body with a
// newline.
func (t *Telegram) format(site string, s *report.Summary) (subject, body string) {
	subject = fmt.Sprintf("<b>🤖 %s check-in report</b>", html.EscapeString(site))

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Time: %s\n", t.now().Format(time.DateTime))
	b.WriteString(rule + "\n")
	b.WriteString("📊 <b>Statistics</b>\n")
	fmt.Fprintf(&b, "• Accounts: %d\n", s.Total())
	fmt.Fprintf(&b, "• ✅ Succeeded: %d\n", s.Succeeded())
	fmt.Fprintf(&b, "• ❌ Failed: %d\n", s.Failed())
	if s.Total() > 0 {
		fmt.Fprintf(&b, "• 📈 Success rate: %.1f%%\n", s.SuccessRate())
	}
	if total := s.RewardTotalText(); total != "" {
		fmt.Fprintf(&b, "• 🎁 Total reward: %s\n", html.EscapeString(total))
	}

	b.WriteString("\n<b>📋 Details</b>\n")
	for i, rec := range s.Notifications() {
		icon := "❌"
		if rec.Success {
			icon = "✅"
		}
		fmt.Fprintf(&b, "\n%d. %s <code>%s</code>\n", i+1, icon, html.EscapeString(Redact(rec.Account)))
		fmt.Fprintf(&b, "   Status: %s\n", html.EscapeString(rec.Status))
		if rec.BalanceSummary != "" {
			fmt.Fprintf(&b, "   %s\n", html.EscapeString(rec.BalanceSummary))
		}
		if rec.Message != "" {
			fmt.Fprintf(&b, "   📝 %s\n", html.EscapeString(rec.Message))
		}
	}
	b.WriteString("\n" + rule)
	return subject, b.String()
}

// Redact hides most of an e-mail local part: "alice@x.com" becomes
// "ali***@x.com". Short local parts and non-e-mail identifiers are kept.
func Redact(identifier string) string {
	local, domain, ok := strings.Cut(identifier, "@")
	if !ok || utf8.RuneCountInString(local) <= 3 {
		return identifier
	}
	return string([]rune(local)[:3]) + "***@" + domain
}
