package textsource

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const transcribePrompt = "Transcribe this bank statement to plain text.\n" +
	"- Output one statement line per line, in reading order, page after page.\n" +
	"- Keep dates, descriptions and amounts exactly as printed.\n" +
	"- Do not summarize, explain, or wrap the output in code fences.\n"

// GeminiTranscriber sends PDFs to Gemini as inline data and returns the text.
type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

// NewGeminiTranscriber creates a GeminiTranscriber.
func NewGeminiTranscriber(ctx context.Context, model string) (*GeminiTranscriber, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiTranscriber: create genai client: %w", err)
	}
	return &GeminiTranscriber{client: client, model: model}, nil
}

// TranscribePDF implements PDFTranscriber.
func (g *GeminiTranscriber) TranscribePDF(ctx context.Context, data []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: data}},
			},
		},
	}

	temperature := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("TranscribePDF: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("TranscribePDF: empty response from model")
	}
	return text, nil
}
