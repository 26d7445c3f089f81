package openai

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Transcriber turns voice notes into text with the audio transcription endpoint.
type Transcriber struct {
	client openai.Client
	model  string
}

func NewTranscriber(apiKey, baseURL, model string, opts ...option.RequestOption) *Transcriber {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &Transcriber{
		client: openai.NewClient(clientOptions(apiKey, baseURL, opts)...),
		model:  model,
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "voice.ogg"
	}
	res, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filename, "audio/ogg"),
		Model: openai.AudioModel(t.model),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}
