// Package prompt assembles the outbound model request from the user's
// submission and the conversation history.
package prompt

import (
	"fmt"

	"go.uber.org/zap"

	"linae/model"
)

// WrapDocument appends extracted document text to the user's text between
// markers the model can tell apart from the question itself.
func WrapDocument(text string, doc *model.Document) string {
	if doc == nil {
		return text
	}
	return fmt.Sprintf("%s\n\n--- [FILE ATTACHED: %s] ---\n%s\n--- [END OF FILE] ---", text, doc.Name, doc.Text)
}

// Options control request assembly.
type Options struct {
	Limits          ReplayLimits
	EnableRetrieval bool
	// Temperature overrides the stock sampling temperature when non-nil.
	Temperature *float32
}

// DefaultOptions returns the stock replay bounds with retrieval enabled.
func DefaultOptions() Options {
	return Options{Limits: DefaultReplayLimits(), EnableRetrieval: true}
}

func (o Options) temperature() float32 {
	if o.Temperature != nil {
		return *o.Temperature
	}
	return Temperature
}

// Builder turns submissions into requests. It implements
// model.RequestBuilder.
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a builder with the given options. A nil logger
// discards output.
func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, logger: logger}
}

// Build assembles a request for sub on top of history.
func (b *Builder) Build(sub model.Submission, history []model.Turn) (model.Request, error) {
	req, evicted, err := b.BuildWithStats(sub, history)
	if err != nil {
		return model.Request{}, err
	}
	if evicted > 0 {
		b.logger.Debug("replay history trimmed",
			zap.Int("evicted", evicted),
			zap.Int("kept", len(req.Contents)-1))
	}
	return req, nil
}

// BuildWithStats is Build that also reports how many history contents the
// replay limits dropped. History is replayed oldest first; the new
// submission is always the last content and is never dropped.
func (b *Builder) BuildWithStats(sub model.Submission, history []model.Turn) (model.Request, int, error) {
	replayed, err := ReplayHistory(history)
	if err != nil {
		return model.Request{}, 0, err
	}
	kept, evicted := b.opts.Limits.Trim(replayed)

	contents := make([]model.Content, 0, len(kept)+1)
	contents = append(contents, kept...)
	contents = append(contents, userContent(sub.Text, sub.Image, sub.Document))

	return model.Request{
		SystemInstruction: SystemInstruction(),
		Contents:          contents,
		Temperature:       b.opts.temperature(),
		EnableRetrieval:   b.opts.EnableRetrieval,
	}, evicted, nil
}

// ReplayHistory converts prior turns into request contents. Agent turns
// without a result (system notices) carry nothing the model said and are
// skipped.
func ReplayHistory(history []model.Turn) ([]model.Content, error) {
	out := make([]model.Content, 0, len(history))
	for _, t := range history {
		switch t.Role {
		case model.RoleUser:
			out = append(out, userContent(t.Content, t.Image, t.Document))
		case model.RoleAgent:
			if t.Result == nil {
				continue
			}
			enc, err := EncodeReplay(*t.Result)
			if err != nil {
				return nil, fmt.Errorf("replay turn %s: %w", t.ID, err)
			}
			out = append(out, model.Content{
				Role:  model.ContentModel,
				Parts: []model.Part{{Text: enc}},
			})
		}
	}
	return out, nil
}

func userContent(text string, img *model.Image, doc *model.Document) model.Content {
	c := model.Content{Role: model.ContentUser}
	if img != nil && len(img.Data) > 0 {
		c.Parts = append(c.Parts, model.Part{Data: img.Data, MIMEType: img.MIMEType})
	}
	c.Parts = append(c.Parts, model.Part{Text: WrapDocument(text, doc)})
	return c
}
