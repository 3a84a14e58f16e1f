package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fitmate/backend/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultAPIURL points to the Gemini generateContent endpoint serving the
// coach replies.
const DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// system instructions per chat context
var personas = map[string]string{
	ContextWorkout:    "You are FitMate, a friendly personal fitness coach. Answer questions about training, exercise form and workout planning. Keep replies short, practical and encouraging.",
	ContextDiet:       "You are FitMate, a friendly nutrition coach. Answer questions about food, calories and healthy eating habits. Keep replies short, practical and non-judgmental.",
	ContextMotivation: "You are FitMate, an upbeat motivational coach. Encourage the user to stay consistent with their fitness routine. Keep replies short and positive.",
	ContextGeneral:    "You are FitMate, a friendly fitness and wellness coach. Keep replies short and helpful.",
}

type chatPayload struct {
	Contents          []chatContent `json:"contents"`
	SystemInstruction *chatContent  `json:"systemInstruction,omitempty"`
}

type chatContent struct {
	Parts []chatPart `json:"parts"`
}

type chatPart struct {
	Text string `json:"text"`
}

type chatResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string, httpClient *http.Client) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Ask sends a single chat message to the remote coach and returns the
// reply text. One-shot call, the caller decides what to do on failure.
func (c *Client) Ask(ctx context.Context, chatContext, message string) (reply string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coachClient.ask")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("chat.context", chatContext))

	payload := chatPayload{
		SystemInstruction: &chatContent{
			Parts: []chatPart{{Text: personaFor(chatContext)}},
		},
		Contents: []chatContent{
			{Parts: []chatPart{{Text: message}}},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal coach payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, "POST",
		fmt.Sprintf("%s?key=%s", c.apiURL, c.apiKey),
		bytes.NewReader(payloadBytes),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("coach api status %d: %s", resp.StatusCode, string(respBytes))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode coach api response: %w", err)
	}

	if len(chatResp.Candidates) == 0 || len(chatResp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no content in coach api response")
	}

	return chatResp.Candidates[0].Content.Parts[0].Text, nil
}

func personaFor(chatContext string) string {
	if persona, ok := personas[chatContext]; ok {
		return persona
	}
	return personas[ContextGeneral]
}
