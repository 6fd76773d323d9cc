package provider

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"linae/model"
	"linae/normalize"
)

// ErrEmptyReply is returned by adapters when the model answered without
// any text, for example a blocked prompt or a refusal.
var ErrEmptyReply = errors.New("model returned no text")

// Connector builds the provider on first use. Errors it returns are
// configuration errors (missing key, unknown provider) and are not cached.
type Connector func(ctx context.Context) (model.Provider, error)

// Gateway resolves requests against one provider. It implements
// model.Resolver.
//
// Transport failures (timeouts, HTTP errors, empty completions) never
// surface as errors: they resolve to model.DisconnectedResult. Only a
// Connector failure is returned.
type Gateway struct {
	connect Connector
	timeout time.Duration
	logger  *zap.Logger

	mu sync.Mutex
	p  model.Provider
}

// NewGateway wraps connect. A zero timeout leaves the request bounded only
// by the caller's context.
func NewGateway(connect Connector, timeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{connect: connect, timeout: timeout, logger: logger}
}

// NewStaticGateway serves an already constructed provider.
func NewStaticGateway(p model.Provider, timeout time.Duration, logger *zap.Logger) *Gateway {
	g := NewGateway(func(context.Context) (model.Provider, error) { return p, nil }, timeout, logger)
	g.p = p
	return g
}

// Provider returns the connected provider, connecting if needed.
func (g *Gateway) Provider(ctx context.Context) (model.Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.p != nil {
		return g.p, nil
	}
	p, err := g.connect(ctx)
	if err != nil {
		return nil, err
	}
	g.p = p
	return p, nil
}

// Resolve sends req and normalizes the reply.
func (g *Gateway) Resolve(ctx context.Context, req model.Request) (model.Result, error) {
	p, err := g.Provider(ctx)
	if err != nil {
		return model.Result{}, err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := p.Generate(ctx, req)
	if err == nil && strings.TrimSpace(reply.Text) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		g.logger.Warn("model call failed",
			zap.String("model", p.GetModel()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return model.DisconnectedResult(), nil
	}

	res := normalize.Normalize(reply.Text, reply.Citations)
	g.logger.Debug("model replied",
		zap.String("model", p.GetModel()),
		zap.Int("bytes", len(reply.Text)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// DisplayName names the active model, or "" before the first connection.
func (g *Gateway) DisplayName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.p == nil {
		return ""
	}
	return g.p.GetDisplayName()
}
