// Package config is the configuration shared by ihidro-cli and ihidrod.
package config

import (
	"fmt"
	"ihidro-assist/internal/components/chrono"
	"ihidro-assist/internal/components/configutil"
	"ihidro-assist/internal/components/telemetry"
	"ihidro-assist/internal/history"
	"ihidro-assist/internal/notify"
	"ihidro-assist/internal/scrapers/ihidro"
	"path/filepath"
	"strings"
)

const (
	DefaultPath        = "<dev_state>/config.json5"
	DefaultRefreshCron = "0 9 * * *"
)

type Account struct {
	// Name identifies the account in history and on the command line.
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`

	UtilityAccountNumber string `json:"utility_account_number"`
	Distributor          string `json:"distributor"`

	// Strategy is "http" (the default) or "browser".
	Strategy string                `json:"strategy"`
	Browser  ihidro.BrowserOptions `json:"browser"`

	BaseUrl          string `json:"base_url"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

// NewClient creates a portal client for the account, `output` can be nil.
func (a Account) NewClient(tel telemetry.API, clock chrono.TimeAPI, output telemetry.InstrumentOutput) (*ihidro.Client, error) {
	strategy, err := ihidro.StrategyFromName(a.Strategy, a.Browser)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", a.Name, err)
	}
	return ihidro.NewClient(ihidro.ClientOptions{
		Credentials: ihidro.Credentials{
			Username: a.Username,
			Password: a.Password,
		},
		Account: ihidro.Account{
			UtilityAccountNumber: a.UtilityAccountNumber,
			Distributor:          a.Distributor,
		},
		BaseUrl:          a.BaseUrl,
		Strategy:         strategy,
		CloudflareBypass: a.CloudflareBypass,
		Output:           output,
	}, tel, clock)
}

type Config struct {
	Accounts []Account `json:"accounts"`

	// RefreshCron is when ihidrod refreshes every account, in Europe/Bucharest.
	RefreshCron string `json:"refresh_cron"`
	// RetentionDays is how long history is kept, 0 keeps it forever.
	RetentionDays int `json:"retention_days"`

	History   history.Config     `json:"history"`
	Notify    *notify.SMTPConfig `json:"notify"`
	Telemetry telemetry.Config   `json:"telemetry"`
}

// Read reads and validates the configuration at `path`. A relative path that does not
// start with <dev_state> is also looked for in every parent of the cwd.
func Read(path string) (Config, error) {
	var cfg Config
	var err error
	if filepath.IsAbs(path) || strings.HasPrefix(path, "<dev_state>") {
		cfg, err = configutil.ReadConfig[Config](path)
	} else {
		cfg, err = configutil.ReadRecursively[Config](path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	err = cfg.validate()
	if err != nil {
		return Config{}, err
	}
	if cfg.RefreshCron == "" {
		cfg.RefreshCron = DefaultRefreshCron
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, account := range c.Accounts {
		if account.Name == "" {
			return fmt.Errorf("account %d has no name", i)
		}
		if seen[account.Name] {
			return fmt.Errorf("account name %q is used more than once", account.Name)
		}
		seen[account.Name] = true
		if account.Username == "" || account.Password == "" {
			return fmt.Errorf("account %s: username and password are required", account.Name)
		}
		_, err := ihidro.StrategyFromName(account.Strategy, account.Browser)
		if err != nil {
			return fmt.Errorf("account %s: %w", account.Name, err)
		}
	}
	if c.Notify != nil && (c.Notify.Host == "" || c.Notify.From == "") {
		return fmt.Errorf("notify: host and from are required")
	}
	return nil
}

// Account returns the account named `name`, an empty name selects the first account.
func (c Config) Account(name string) (Account, error) {
	if name == "" {
		return c.Accounts[0], nil
	}
	for _, account := range c.Accounts {
		if account.Name == name {
			return account, nil
		}
	}
	return Account{}, fmt.Errorf("no account named %q", name)
}
