package provider

import (
	"encoding/base64"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"linae/model"
)

// DataURL encodes inline bytes as an RFC 2397 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// contentText joins the text parts of a content in order.
func contentText(c model.Content) string {
	var texts []string
	for _, p := range c.Parts {
		if !p.IsInline() && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}

// ConvertToGeminiContents maps request contents to genai contents. Part order
// is preserved, so an attached image stays ahead of the prompt text.
func ConvertToGeminiContents(req model.Request) []*genai.Content {
	out := make([]*genai.Content, 0, len(req.Contents))
	for _, c := range req.Contents {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.IsInline() {
				parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		role := genai.Role(genai.RoleUser)
		if c.Role == model.ContentModel {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out
}

// ConvertToOpenAIMessages maps a request to chat completion messages. The
// system instruction becomes a leading system message; images travel as
// data URLs ahead of the text.
func ConvertToOpenAIMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Contents)+1)
	if req.SystemInstruction != "" {
		result = append(result, openai.SystemMessage(req.SystemInstruction))
	}

	for _, c := range req.Contents {
		if c.Role == model.ContentModel {
			result = append(result, openai.AssistantMessage(contentText(c)))
			continue
		}
		if !hasInline(c) {
			result = append(result, openai.UserMessage(contentText(c)))
			continue
		}
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.IsInline() {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: DataURL(p.MIMEType, p.Data),
				}))
				continue
			}
			parts = append(parts, openai.TextContentPart(p.Text))
		}
		result = append(result, openai.UserMessage(parts))
	}

	return result
}

// convertToAnthropicMessages maps a request to Anthropic messages.
// Returns the message array and the system blocks.
func convertToAnthropicMessages(req model.Request) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	if req.SystemInstruction != "" {
		// Anthropic uses a separate system parameter, not in messages array
		systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: req.SystemInstruction})
	}

	msgs := make([]anthropic.MessageParam, 0, len(req.Contents))
	for _, c := range req.Contents {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(c.Parts))
		for _, p := range c.Parts {
			if p.IsInline() {
				blocks = append(blocks, anthropic.NewImageBlockBase64(p.MIMEType, base64.StdEncoding.EncodeToString(p.Data)))
				continue
			}
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}
		if c.Role == model.ContentModel {
			msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(blocks...))
		}
	}

	return msgs, systemBlocks
}

// ConvertToOllamaMessages maps a request to Ollama chat messages. Ollama
// carries images beside the text rather than as ordered parts.
func ConvertToOllamaMessages(req model.Request) []api.Message {
	result := make([]api.Message, 0, len(req.Contents)+1)
	if req.SystemInstruction != "" {
		result = append(result, api.Message{Role: "system", Content: req.SystemInstruction})
	}
	for _, c := range req.Contents {
		msg := api.Message{Role: "user", Content: contentText(c)}
		if c.Role == model.ContentModel {
			msg.Role = "assistant"
		}
		for _, p := range c.Parts {
			if p.IsInline() {
				msg.Images = append(msg.Images, api.ImageData(p.Data))
			}
		}
		result = append(result, msg)
	}
	return result
}

func hasInline(c model.Content) bool {
	for _, p := range c.Parts {
		if p.IsInline() {
			return true
		}
	}
	return false
}

// dedupeCitations drops empty and repeated URIs, keeping first-seen order.
func dedupeCitations(in []model.Citation) []model.Citation {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]model.Citation, 0, len(in))
	for _, c := range in {
		if c.URI == "" || seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		if c.Title == "" {
			c.Title = c.URI
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
