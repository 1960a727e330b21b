// Package model provides text-completion adapters behind the ADK model.LLM
// interface.
package model

import (
	"strings"

	"google.golang.org/genai"

	adkmodel "google.golang.org/adk/model"
)

// chatMessage is a role/content pair in the OpenAI and Anthropic wire formats.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentText joins the text parts of a genai.Content.
func contentText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// systemText returns the request's system instruction, if any.
func systemText(req *adkmodel.LLMRequest) string {
	if req.Config == nil {
		return ""
	}
	return contentText(req.Config.SystemInstruction)
}

// chatMessages converts request contents to role/content messages, mapping
// genai's "model" role to "assistant". Contents without text are skipped.
func chatMessages(req *adkmodel.LLMRequest) []chatMessage {
	var msgs []chatMessage
	for _, c := range req.Contents {
		text := contentText(c)
		if text == "" {
			continue
		}
		role := "user"
		if c.Role == genai.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: text})
	}
	return msgs
}

// textResponse wraps completion text as a finished model turn.
func textResponse(text string, finishReason genai.FinishReason) *adkmodel.LLMResponse {
	return &adkmodel.LLMResponse{
		Content:      genai.NewContentFromText(text, genai.RoleModel),
		TurnComplete: true,
		FinishReason: finishReason,
	}
}
