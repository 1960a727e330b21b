package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Response is what the caller gets back after a successful forward.
type Response struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Data           any    `json:"data"`
	SiteName       string `json:"siteName"`
	Timestamp      string `json:"timestamp"`
	ImageGenerated any    `json:"imageGenerated,omitempty"`
	FileURL        any    `json:"fileUrl,omitempty"`
	DownloadLink   any    `json:"downloadLink,omitempty"`
}

// NormalizeReply wraps a webhook reply for the caller. JSON bodies are
// decoded; malformed JSON degrades to {response: text}, and any other
// content type becomes {response: text, contentType}. A 2xx reply is always
// a success here, whatever the body says.
func NormalizeReply(reply *Reply, siteName string, now time.Time) Response {
	data := decodeReply(reply)

	resp := Response{
		Success:   true,
		Message:   fmt.Sprintf("%s request processed successfully", siteName),
		Data:      data,
		SiteName:  siteName,
		Timestamp: FormatTimestamp(now),
	}
	if obj, ok := data.(map[string]any); ok {
		resp.ImageGenerated = obj["image_generated"]
		resp.FileURL = obj["file_url"]
		resp.DownloadLink = obj["download_link"]
	}
	return resp
}

func decodeReply(reply *Reply) any {
	text := string(reply.Body)
	if !strings.Contains(strings.ToLower(reply.ContentType), "application/json") {
		return map[string]any{"response": text, "contentType": reply.ContentType}
	}
	var v any
	if err := json.Unmarshal(reply.Body, &v); err != nil {
		return map[string]any{"response": text}
	}
	return v
}
