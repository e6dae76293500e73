package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site is the data bundle of URLs, selectors and vocabularies for one portal.
// Nothing in the automation code is site-specific; everything lives here.
type Site struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// LoginURL is the first page opened for every account.
	LoginURL string `yaml:"login_url"`

	// CheckinURL, when set, is navigated after login before the reward step.
	CheckinURL string `yaml:"checkin_url"`

	// PostLoginPatterns are URL substrings that prove a successful login.
	PostLoginPatterns []string `yaml:"post_login_patterns"`

	LoginSuccessTexts      []string `yaml:"login_success_texts"`
	InvalidCredentialTexts []string `yaml:"invalid_credential_texts"`

	// Interstitials.
	DismissTexts     []string `yaml:"dismiss_texts"`
	DismissSelectors []string `yaml:"dismiss_selectors"`
	OverlaySelectors []string `yaml:"overlay_selectors"`

	// Login form.
	LoginOptionTexts    []string `yaml:"login_option_texts"`
	IdentifierSelectors []string `yaml:"identifier_selectors"`
	PasswordSelectors   []string `yaml:"password_selectors"`
	SubmitSelectors     []string `yaml:"submit_selectors"`
	SubmitTexts         []string `yaml:"submit_texts"`

	// Reward action.
	RewardTexts        []string `yaml:"reward_texts"`
	RewardSelectors    []string `yaml:"reward_selectors"`
	RewardConfirmTexts []string `yaml:"reward_confirm_texts"`

	// RewardDoneTexts mark today's reward as claimed. Any match skips the
	// reward step without a click.
	RewardDoneTexts []string `yaml:"reward_done_texts"`

	// RewardDoneHints mark the reward as claimed only while no
	// RewardPendingTexts entry is on the page.
	RewardDoneHints    []string `yaml:"reward_done_hints"`
	RewardPendingTexts []string `yaml:"reward_pending_texts"`

	// RewardDoneExclude rejects reward controls whose text contains it.
	RewardDoneExclude string `yaml:"reward_done_exclude"`

	// Value extraction.
	Endpoint       Endpoint     `yaml:"endpoint"`
	StorageKey     string       `yaml:"storage_key"`
	ScaleFactor    int64        `yaml:"scale_factor"`
	CurrencySymbol string       `yaml:"currency_symbol"`
	DOMLabels      []DOMLabel   `yaml:"dom_labels"`
	RewardAmount   RewardAmount `yaml:"reward_amount"`
}

// Endpoint describes the authenticated JSON profile endpoint.
type Endpoint struct {
	Path       string `yaml:"path"`
	UserHeader string `yaml:"user_header"`
}

// DOMLabel maps on-page label texts to an extraction field.
type DOMLabel struct {
	Field  string   `yaml:"field"`
	Kind   string   `yaml:"kind"` // "currency" or "count"
	Labels []string `yaml:"labels"`
}

// Label kinds.
const (
	LabelCurrency = "currency"
	LabelCount    = "count"
)

// RewardAmount describes how a reward amount is displayed on the page.
type RewardAmount struct {
	// Pattern has one capture group holding the number.
	Pattern string  `yaml:"pattern"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	// Format renders the parsed number, e.g. "%.2f 元".
	Format string `yaml:"format"`
}

// HasRewardVocabulary reports whether the profile defines any reward action.
func (s *Site) HasRewardVocabulary() bool {
	return len(s.RewardTexts) > 0 || len(s.RewardSelectors) > 0
}

// Validate checks the fields every profile needs.
func (s *Site) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("site profile has no name")
	case s.LoginURL == "":
		return fmt.Errorf("site %q: login_url is required", s.Name)
	case len(s.IdentifierSelectors) == 0 || len(s.PasswordSelectors) == 0:
		return fmt.Errorf("site %q: identifier and password selectors are required", s.Name)
	case s.ScaleFactor < 0:
		return fmt.Errorf("site %q: scale_factor must not be negative", s.Name)
	}
	for _, l := range s.DOMLabels {
		if l.Kind != LabelCurrency && l.Kind != LabelCount {
			return fmt.Errorf("site %q: dom label %q has unknown kind %q", s.Name, l.Field, l.Kind)
		}
	}
	return nil
}

// Sites is a registry of site profiles keyed by name.
type Sites map[string]Site

// Lookup returns the named profile.
func (s Sites) Lookup(name string) (Site, error) {
	site, ok := s[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Site{}, fmt.Errorf("unknown site %q (known: %s)", name, strings.Join(s.Names(), ", "))
	}
	return site, nil
}

// Names returns the profile names in sorted order.
func (s Sites) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type sitesFile struct {
	Sites []yaml.Node `yaml:"sites"`
}

// LoadSites returns the built-in profiles, overlaid with the profiles in
// path when path is non-empty. A profile in the file whose name matches a
// built-in one only replaces the keys it sets.
func LoadSites(path string) (Sites, error) {
	sites := BuiltinSites()
	if path == "" {
		return sites, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	return mergeSites(sites, data)
}

func mergeSites(sites Sites, data []byte) (Sites, error) {
	var file sitesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sites file: %w", err)
	}

	for i := range file.Sites {
		var head struct {
			Name string `yaml:"name"`
		}
		if err := file.Sites[i].Decode(&head); err != nil {
			return nil, fmt.Errorf("sites[%d]: %w", i, err)
		}
		name := strings.ToLower(strings.TrimSpace(head.Name))

		site := sites[name] // zero value for new profiles
		if err := file.Sites[i].Decode(&site); err != nil {
			return nil, fmt.Errorf("sites[%d]: %w", i, err)
		}
		site.Name = name
		if err := site.Validate(); err != nil {
			return nil, err
		}
		sites[name] = site
	}
	return sites, nil
}

// BuiltinSites returns fresh copies of the bundled profiles.
func BuiltinSites() Sites {
	return Sites{
		"anyrouter": anyrouter(),
		"leaflow":   leaflow(),
	}
}

func anyrouter() Site {
	return Site{
		Name:                   "anyrouter",
		Description:            "AnyRouter API console (new-api)",
		LoginURL:               "https://anyrouter.top/login",
		PostLoginPatterns:      []string{"/console", "/dashboard"},
		LoginSuccessTexts:      []string{"登录成功"},
		InvalidCredentialTexts: []string{"密码错误", "账号不存在", "验证失败", "用户名或密码错误"},
		DismissTexts:           []string{"关闭公告", "今日关闭", "关闭"},
		DismissSelectors:       []string{".semi-modal-close"},
		OverlaySelectors:       []string{".semi-portal", ".semi-modal", ".semi-modal-mask", ".semi-dialog"},
		LoginOptionTexts:       []string{"使用 邮箱或用户名 登录"},
		IdentifierSelectors:    []string{"#username", `input[placeholder*="用户名"]`, `input[placeholder*="邮箱"]`, `input[name="username"]`},
		PasswordSelectors:      []string{"#password", `input[type="password"]`},
		SubmitSelectors:        []string{`button[type="submit"]`},
		SubmitTexts:            []string{"继续", "登录"},
		RewardTexts:            []string{"签到", "打卡"},
		RewardSelectors:        []string{`[data-testid="sign-in"]`, ".sign-in-button"},
		Endpoint:               Endpoint{Path: "/api/user/self", UserHeader: "new-api-user"},
		StorageKey:             "user",
		ScaleFactor:            500000,
		CurrencySymbol:         "$",
		DOMLabels: []DOMLabel{
			{Field: "remaining_balance", Kind: LabelCurrency, Labels: []string{"当前余额", "余额", "Balance"}},
			{Field: "used_amount", Kind: LabelCurrency, Labels: []string{"历史消耗", "已用额度", "Used"}},
			{Field: "statistics_quota", Kind: LabelCurrency, Labels: []string{"统计额度"}},
			{Field: "request_count", Kind: LabelCount, Labels: []string{"请求次数", "Requests"}},
			{Field: "statistics_count", Kind: LabelCount, Labels: []string{"统计次数"}},
			{Field: "statistics_tokens", Kind: LabelCount, Labels: []string{"统计Tokens"}},
		},
	}
}

func leaflow() Site {
	return Site{
		Name:                   "leaflow",
		Description:            "Leaflow daily check-in",
		LoginURL:               "https://leaflow.net/login",
		CheckinURL:             "https://checkin.leaflow.net",
		PostLoginPatterns:      []string{"/dashboard", "/home"},
		InvalidCredentialTexts: []string{"账号或密码错误", "密码错误", "用户不存在"},
		DismissTexts:           []string{"稍后再说"},
		IdentifierSelectors:    []string{`input[type="email"]`, `input[placeholder*="邮箱"]`},
		PasswordSelectors:      []string{`input[type="password"]`},
		SubmitSelectors:        []string{`button[type="submit"]`},
		RewardTexts:            []string{"立即签到", "签到"},
		RewardSelectors:        []string{`[onclick*="checkin"]`, `[onclick*="sign"]`, ".checkin-button", ".sign-button"},
		RewardDoneTexts:        []string{"今日已签到"},
		RewardDoneHints:        []string{"已签到"},
		RewardPendingTexts:     []string{"立即签到"},
		RewardDoneExclude:      "已",
		RewardConfirmTexts:     []string{"签到成功", "获得"},
		RewardAmount: RewardAmount{
			Pattern: `(\d+\.?\d*)\s*元`,
			Min:     0.01,
			Max:     10,
			Format:  "%.2f 元",
		},
	}
}
