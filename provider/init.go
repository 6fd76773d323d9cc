package provider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"linae/config"
	"linae/model"
)

// NewGatewayFromConfig creates the gateway for the configured provider.
//
// This function is the single entry point for provider initialization.
// Construction is deferred to the first request, so a missing API key
// does not stop the application from starting: the first turn fails with
// config.ErrMissingAPIKey instead, and the session shows its system notice.
//
// Example:
//
//	gw := provider.NewGatewayFromConfig(cfg, logger)
//	session := model.NewSession(model.SessionOptions{Resolver: gw, ...})
func NewGatewayFromConfig(cfg *config.Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	connect := func(ctx context.Context) (model.Provider, error) {
		return Connect(ctx, cfg, logger)
	}
	return NewGateway(connect, cfg.RequestTimeout, logger.Named("gateway"))
}

// Connect builds the configured provider immediately.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (model.Provider, error) {
	apiKey, err := config.APIKey(cfg.Provider)
	if err != nil {
		return nil, err
	}

	providerType := MapProviderIDToType(cfg.Provider)
	p, err := NewProvider(ctx, Config{
		Type:    providerType,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize provider %s: %w", cfg.Provider, err)
	}

	if logger != nil {
		logger.Info("provider initialized",
			zap.String("provider", cfg.Provider),
			zap.String("type", string(providerType)),
			zap.String("model", p.GetModel()))
	}
	return p, nil
}
