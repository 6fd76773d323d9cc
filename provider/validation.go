package provider

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"linae/config"
)

// pingTimeout bounds each reachability check.
const pingTimeout = 10 * time.Second

// PingProviderMsg is sent when the gateway's provider ping completes.
type PingProviderMsg struct {
	ProviderID string
	Model      string
	Valid      bool
	Err        error
}

// PingProvider checks the configured provider in the background. It is used
// at startup to colour the status bar before the first turn.
func PingProvider(gw *Gateway, providerID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		p, err := gw.Provider(ctx)
		if err != nil {
			return PingProviderMsg{ProviderID: providerID, Err: err}
		}
		if err := p.Ping(ctx); err != nil {
			return PingProviderMsg{ProviderID: providerID, Model: p.GetDisplayName(), Err: err}
		}
		return PingProviderMsg{ProviderID: providerID, Model: p.GetDisplayName(), Valid: true}
	}
}

// Check is one row of the doctor report.
type Check struct {
	ProviderID string
	Model      string
	Configured bool // the provider named in settings
	KeyPresent bool
	Latency    time.Duration
	Err        error
}

// OK reports whether the provider answered.
func (c Check) OK() bool {
	return c.Err == nil
}

// Doctor pings every known provider concurrently. Only the configured one
// uses the configured model and base URL; the rest use their defaults.
// Results keep the order of KnownProviders.
func Doctor(ctx context.Context, cfg *config.Config) []Check {
	ids := KnownProviders()
	checks := make([]Check, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			checks[i] = checkOne(ctx, cfg, id)
			return nil
		})
	}
	_ = g.Wait()

	return checks
}

func checkOne(ctx context.Context, cfg *config.Config, id string) Check {
	c := Check{ProviderID: id, Configured: id == cfg.Provider}

	apiKey, err := config.APIKey(id)
	if err != nil {
		c.Err = err
		return c
	}
	c.KeyPresent = config.RequiresAPIKey(id)

	pc := Config{Type: MapProviderIDToType(id), APIKey: apiKey}
	if c.Configured {
		pc.BaseURL = cfg.BaseURL
		pc.Model = cfg.Model
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	p, err := NewProvider(ctx, pc)
	if err != nil {
		c.Err = err
		return c
	}
	c.Model = p.GetDisplayName()

	start := time.Now()
	c.Err = p.Ping(ctx)
	c.Latency = time.Since(start)
	return c
}
