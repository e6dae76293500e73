package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "anyrouter", cfg.Site)
	assert.Equal(t, "accounts.txt", cfg.AccountsFile)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, time.Second, cfg.Run.MinDelay)
	assert.Equal(t, 3*time.Second, cfg.Run.MaxDelay)
	assert.Equal(t, uint(3), cfg.Notify.Attempts)
	assert.Equal(t, "7 8 * * *", cfg.Schedule.Cron)
}

func TestLoad_PrefixedOverrides(t *testing.T) {
	t.Setenv("DAILYCLAIM_SITE", "leaflow")
	t.Setenv("DAILYCLAIM_RUN_MIN_DELAY", "0s")
	t.Setenv("DAILYCLAIM_RUN_MAX_DELAY", "500ms")
	t.Setenv("DAILYCLAIM_AUTH_API_KEYS", "k1,k2")
	t.Setenv("DAILYCLAIM_LOG_FILE", "/tmp/dailyclaim.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "leaflow", cfg.Site)
	assert.Equal(t, time.Duration(0), cfg.Run.MinDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Run.MaxDelay)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, "/tmp/dailyclaim.log", cfg.Log.File)
}

func TestLoad_TelegramFallsBackToBareNames(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Notify.TelegramBotToken)
	assert.Equal(t, "-1001", cfg.Notify.TelegramChatID)
}

func TestLoad_RejectsInvertedDelayRange(t *testing.T) {
	t.Setenv("DAILYCLAIM_RUN_MIN_DELAY", "5s")
	t.Setenv("DAILYCLAIM_RUN_MAX_DELAY", "1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delay range")
}

func TestLoad_RejectsNonPositiveTimeouts(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"DAILYCLAIM_RUN_ACCOUNT_TIMEOUT", "0s", "account timeout"},
		{"DAILYCLAIM_RUN_ACCOUNT_TIMEOUT", "-1m", "account timeout"},
		{"DAILYCLAIM_RUN_NAV_TIMEOUT", "0s", "navigation timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuiltinSites_Valid(t *testing.T) {
	sites := BuiltinSites()
	assert.Equal(t, []string{"anyrouter", "leaflow"}, sites.Names())
	for name, site := range sites {
		assert.NoError(t, site.Validate(), name)
		assert.True(t, site.HasRewardVocabulary(), name)
	}

	ar, err := sites.Lookup(" AnyRouter ")
	require.NoError(t, err)
	assert.Equal(t, int64(500000), ar.ScaleFactor)
	assert.Equal(t, "new-api-user", ar.Endpoint.UserHeader)

	_, err = sites.Lookup("nope")
	assert.ErrorContains(t, err, "unknown site")
}

func TestLoadSites_OverlayKeepsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sites:
  - name: anyrouter
    login_url: https://mirror.example/login
    scale_factor: 1000
  - name: portal
    login_url: https://portal.example/signin
    identifier_selectors: ["#email"]
    password_selectors: ["#pass"]
    reward_texts: ["Claim"]
    dom_labels:
      - field: remaining_balance
        kind: currency
        labels: ["Balance"]
`), 0o600))

	sites, err := LoadSites(path)
	require.NoError(t, err)

	ar := sites["anyrouter"]
	assert.Equal(t, "https://mirror.example/login", ar.LoginURL)
	assert.Equal(t, int64(1000), ar.ScaleFactor)
	assert.Equal(t, "/api/user/self", ar.Endpoint.Path, "keys not set in the file keep built-in values")

	portal, err := sites.Lookup("portal")
	require.NoError(t, err)
	assert.Equal(t, []string{"Claim"}, portal.RewardTexts)
	require.Len(t, portal.DOMLabels, 1)
	assert.Equal(t, LabelCurrency, portal.DOMLabels[0].Kind)

	// Built-ins are never mutated through the registry.
	assert.Equal(t, "https://anyrouter.top/login", BuiltinSites()["anyrouter"].LoginURL)
}

func TestLoadSites_Errors(t *testing.T) {
	_, err := LoadSites(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read sites file")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "sites: [", "parse sites file"},
		{"no login url", "sites:\n  - name: x\n", "login_url is required"},
		{"bad label kind", `sites:
  - name: x
    login_url: https://x
    identifier_selectors: ["#u"]
    password_selectors: ["#p"]
    dom_labels: [{field: f, kind: weird, labels: [a]}]
`, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mergeSites(BuiltinSites(), []byte(tt.body))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
