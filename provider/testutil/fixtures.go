package testutil

import (
	"linae/model"
)

// ConformingReply is a bare JSON record with every key present.
const ConformingReply = `{
  "reflexResponse": "Quick answer.",
  "reflexConfidence": 82,
  "coreAnalysis": "Consistent with the whole.",
  "metaAnalysis": "No drift observed.",
  "resonanceScore": 91,
  "isDrifting": false,
  "intervention": false,
  "finalResponse": "Here is the considered answer."
}`

// FencedReply wraps ConformingReply in a json code fence.
const FencedReply = "```json\n" + ConformingReply + "\n```"

// TextRequest returns a single-turn request for simple tests
func TextRequest(text string) model.Request {
	return model.Request{
		SystemInstruction: "system",
		Contents: []model.Content{{
			Role:  model.ContentUser,
			Parts: []model.Part{{Text: text}},
		}},
		Temperature:     0.7,
		EnableRetrieval: true,
	}
}

// ConversationRequest returns a request replaying one prior exchange and
// carrying an image on the newest turn.
func ConversationRequest() model.Request {
	return model.Request{
		SystemInstruction: "system",
		Contents: []model.Content{
			{Role: model.ContentUser, Parts: []model.Part{{Text: "Hello"}}},
			{Role: model.ContentModel, Parts: []model.Part{{Text: `{"v":1}`}}},
			{Role: model.ContentUser, Parts: []model.Part{
				{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"},
				{Text: "What is this?"},
			}},
		},
		Temperature: 0.7,
	}
}
