package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"

	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/models"
)

var cred = models.Credential{Identifier: "a@x.com", Secret: "hunter2"}

// anyrouterLogin registers the login form and returns the submit button.
func anyrouterLogin(p *fakePage, onSubmit func()) (user, pass, submit *fakeElement) {
	p.setURL("https://anyrouter.top/login")
	user = p.add("#username", &fakeElement{})
	pass = p.add("#password", &fakeElement{})
	submit = p.add(`button[type="submit"]`, &fakeElement{text: "继续", onClick: onSubmit})
	return user, pass, submit
}

func TestDismiss(t *testing.T) {
	ctx := context.Background()
	steps := NewSteps(site("anyrouter"), testTiming)

	t.Run("labelled control wins", func(t *testing.T) {
		p := newFakePage()
		hidden := p.add(clickableSelector, &fakeElement{text: "关闭", hidden: true})
		announce := p.button("关闭公告")

		assert.True(t, steps.Dismiss(ctx, p))
		assert.Equal(t, 1, announce.clicks)
		assert.Zero(t, hidden.clicks)
		assert.Empty(t, p.keys, "later strategies do not run")
	})

	t.Run("escape closes a visible overlay", func(t *testing.T) {
		p := newFakePage()
		modal := p.add(".semi-modal", &fakeElement{})
		p.onKey = func(Key) { modal.hidden = true }

		assert.True(t, steps.Dismiss(ctx, p))
		assert.Equal(t, []Key{KeyEscape}, p.keys)
	})

	t.Run("removal when an overlay survives escape", func(t *testing.T) {
		p := newFakePage()
		p.add(".semi-modal", &fakeElement{})
		p.evals[removeOverlaysJS] = gson.New(2)

		assert.True(t, steps.Dismiss(ctx, p))
		assert.Equal(t, []Key{KeyEscape}, p.keys)
	})

	t.Run("empty page dismisses nothing", func(t *testing.T) {
		for _, name := range []string{"anyrouter", "leaflow"} {
			p := newFakePage()
			assert.False(t, NewSteps(site(name), testTiming).Dismiss(ctx, p), name)
			assert.Equal(t, []Key{KeyEscape}, p.keys, name)
		}
	})

	t.Run("nothing acted", func(t *testing.T) {
		p := newFakePage()
		p.keyErr = errBoom
		assert.False(t, steps.Dismiss(ctx, p))
	})
}

func TestLogin_Classification(t *testing.T) {
	tests := []struct {
		name     string
		onSubmit func(p *fakePage)
		want     AuthResult
	}{
		{"dashboard url", func(p *fakePage) { p.setURL("https://anyrouter.top/console/topup") }, AuthSuccess},
		{"success text", func(p *fakePage) { p.setText("登录成功，正在跳转") }, AuthSuccess},
		{"error text", func(p *fakePage) { p.setText("用户名或密码错误，请重试") }, AuthInvalid},
		{"nothing happens", func(*fakePage) {}, AuthAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePage()
			user, pass, submit := anyrouterLogin(p, func() { tt.onSubmit(p) })

			got, err := NewSteps(site("anyrouter"), testTiming).Login(context.Background(), p, cred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, cred.Identifier, user.value)
			assert.Equal(t, cred.Secret, pass.value)
			assert.Equal(t, 1, submit.clicks)
		})
	}
}

func TestLogin_SuccessBeatsErrorText(t *testing.T) {
	p := newFakePage()
	anyrouterLogin(p, func() {
		p.setURL("https://anyrouter.top/console")
		p.setText("密码错误")
	})

	got, err := NewSteps(site("anyrouter"), testTiming).Login(context.Background(), p, cred)
	require.NoError(t, err)
	assert.Equal(t, AuthSuccess, got)
}

func TestLogin_RankedFieldLookup(t *testing.T) {
	p := newFakePage()
	hidden := p.add("#username", &fakeElement{hidden: true})
	byPlaceholder := p.add(`input[placeholder*="用户名"]`, &fakeElement{})
	p.add("#password", &fakeElement{})

	_, err := NewSteps(site("anyrouter"), testTiming).Login(context.Background(), p, cred)
	require.NoError(t, err)
	assert.Empty(t, hidden.value)
	assert.Equal(t, cred.Identifier, byPlaceholder.value)
}

func TestLogin_EnterWhenNoSubmitControl(t *testing.T) {
	p := newFakePage()
	p.add("#username", &fakeElement{})
	pass := p.add("#password", &fakeElement{})

	_, err := NewSteps(site("anyrouter"), testTiming).Login(context.Background(), p, cred)
	require.NoError(t, err)
	assert.Equal(t, []Key{KeyEnter}, pass.pressed)
}

func TestLogin_TwoPhaseForm(t *testing.T) {
	p := newFakePage()
	p.setURL("https://leaflow.net/login")
	email := p.add(`input[type="email"]`, &fakeElement{})

	var pass *fakeElement
	submit := p.add(`button[type="submit"]`, &fakeElement{})
	submit.onClick = func() {
		if pass == nil {
			pass = p.add(`input[type="password"]`, &fakeElement{})
			return
		}
		p.setURL("https://leaflow.net/dashboard")
	}

	got, err := NewSteps(site("leaflow"), testTiming).Login(context.Background(), p, cred)
	require.NoError(t, err)
	assert.Equal(t, AuthSuccess, got)
	assert.Equal(t, cred.Identifier, email.value)
	require.NotNil(t, pass)
	assert.Equal(t, cred.Secret, pass.value)
	assert.Equal(t, 2, submit.clicks)
}

func TestLogin_MissingFields(t *testing.T) {
	steps := NewSteps(site("anyrouter"), testTiming)

	_, err := steps.Login(context.Background(), newFakePage(), cred)
	var ce *models.CheckinError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, models.ErrCodeFieldNotFound, ce.Code)
	assert.Contains(t, ce.Message, "identifier")

	p := newFakePage()
	p.add("#username", &fakeElement{})
	_, err = steps.Login(context.Background(), p, cred)
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Message, "password")
}

// leaflowCheckin serves the check-in page contents once it is navigated to.
func leaflowCheckin(p *fakePage, setup func()) {
	p.onNavigate = func(url string) {
		if url == site("leaflow").CheckinURL {
			setup()
		}
	}
}

func TestClaim_AlreadyDoneClicksNothing(t *testing.T) {
	p := newFakePage()
	leaflowCheckin(p, func() {
		p.setText("今日已签到 获得 0.50 元")
		p.add(clickableSelector, &fakeElement{text: "已签到", disabled: true})
	})

	got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardAlreadyDone, got)
	assert.True(t, got.Succeeded())
	assert.Zero(t, p.totalClicks())
	assert.Equal(t, []string{site("leaflow").CheckinURL}, p.navigated)
}

func TestClaim_DoneMarkerBeatsEnabledControls(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		text     string
	}{
		{"check-in button still enabled", ".checkin-button", "今日已签到"},
		{"unrelated nav control", clickableSelector, "签到记录"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePage()
			leaflowCheckin(p, func() {
				p.setText("今日已签到 获得 0.50 元")
				p.add(tt.selector, &fakeElement{text: tt.text})
			})

			got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
			require.NoError(t, err)
			assert.Equal(t, RewardAlreadyDone, got)
			assert.Zero(t, p.totalClicks())
		})
	}
}

func TestClaim_DoneHintNeedsNoPendingControl(t *testing.T) {
	p := newFakePage()
	leaflowCheckin(p, func() {
		p.setText("本月已签到 12 天")
		p.add(".checkin-button", &fakeElement{text: "签到"})
	})

	got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardAlreadyDone, got)
	assert.Zero(t, p.totalClicks())
}

func TestClaim_SelectorMatchesHonourExclude(t *testing.T) {
	p := newFakePage()
	done := p.add(`[onclick*="checkin"]`, &fakeElement{text: "已领取"})
	next := p.add(".checkin-button", &fakeElement{text: "领取", onClick: func() { p.setText("签到成功") }})

	s := site("leaflow")
	s.CheckinURL = ""
	got, err := NewSteps(s, testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardClaimed, got)
	assert.Zero(t, done.clicks)
	assert.Equal(t, 1, next.clicks)
}

func TestClaim_ClickedAndConfirmed(t *testing.T) {
	p := newFakePage()
	var btn *fakeElement
	leaflowCheckin(p, func() {
		p.setText("昨日已签到 立即签到")
		btn = p.button("立即签到")
		btn.onClick = func() { p.setText("签到成功，获得 0.42 元") }
	})

	got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardClaimed, got)
	assert.Equal(t, 1, btn.clicks)
	assert.Equal(t, models.StatusCheckedIn, got.Status())
}

func TestClaim_SkipsDisabledAndDoneControls(t *testing.T) {
	p := newFakePage()
	var fallback *fakeElement
	leaflowCheckin(p, func() {
		p.add(clickableSelector, &fakeElement{text: "立即签到", disabled: true})
		p.add(clickableSelector, &fakeElement{text: "已签到"})
		fallback = p.add(".checkin-button", &fakeElement{onClick: func() { p.setText("签到成功") }})
	})

	got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardClaimed, got)
	assert.Equal(t, 1, fallback.clicks)
	assert.Equal(t, 1, p.totalClicks())
}

func TestClaim_Unconfirmed(t *testing.T) {
	p := newFakePage()
	leaflowCheckin(p, func() { p.button("立即签到") })

	got, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardUnconfirmed, got)
	assert.False(t, got.Succeeded())
}

func TestClaim_NotFoundIsNotFailure(t *testing.T) {
	got, err := NewSteps(site("anyrouter"), testTiming).Claim(context.Background(), newFakePage())
	require.NoError(t, err)
	assert.Equal(t, RewardNotFound, got)
	assert.True(t, got.Succeeded())
	assert.Equal(t, models.StatusRewardNotFound, got.Status())
}

func TestClaim_NoConfirmationVocabulary(t *testing.T) {
	p := newFakePage()
	btn := p.button("每日签到")

	got, err := NewSteps(site("anyrouter"), testTiming).Claim(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, RewardClaimed, got)
	assert.Equal(t, 1, btn.clicks)
}

func TestClaim_SkippedWithoutVocabulary(t *testing.T) {
	s := config.Site{Name: "bare", LoginURL: "https://bare.example/login"}
	got, err := NewSteps(s, testTiming).Claim(context.Background(), newFakePage())
	require.NoError(t, err)
	assert.Equal(t, RewardSkipped, got)
	assert.Equal(t, models.StatusLoggedIn, got.Status())
}

func TestClaim_CheckinNavigationFailure(t *testing.T) {
	p := newFakePage()
	p.navErr = errBoom

	_, err := NewSteps(site("leaflow"), testTiming).Claim(context.Background(), p)
	var ce *models.CheckinError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, models.ErrCodeNavigation, ce.Code)
	assert.ErrorIs(t, err, errBoom)
}
