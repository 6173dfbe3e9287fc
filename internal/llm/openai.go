package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model     openai.ChatModel
	chatModel openai.ChatModel
	client    *openai.Client
}

const (
	defaultChatTimeout = 60 * time.Second

	// Briefing and summary calls run cool to keep output factual; the
	// follow-up chat is allowed a bit more freedom.
	briefingTemperature = 0.3
	chatTemperature     = 0.5
)

// NewOpenAIClient builds a client with defaults against api.openai.com.
// model drives briefing and place-summary calls, chatModel the follow-up
// chat; an empty chatModel falls back to model.
func NewOpenAIClient(apiKey string, model, chatModel openai.ChatModel) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	if chatModel == "" {
		chatModel = model
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		model:     model,
		chatModel: chatModel,
		client:    &cli,
	}, nil
}

const briefingSystem = `You are a cynical, expert local guide. Provide "Ground Truth" intelligence.

STRICT RULES:
1. FOOD & NEIGHBORHOODS: Must come from Context or static knowledge.
2. WEATHER: If Context missing, use INTERNAL KNOWLEDGE for averages.
3. NO FLUFF.`

const briefingFormat = `FORMAT (Markdown):

## 🍝 Gastronomy (What to order)
* **[Dish]:** [Desc].

## 🏘️ Neighborhoods
* **[Area]:** [Vibe].

## ⚠️ Logistics
* **Tips:** [Rule].
* **Transport:** [Best method].
* **Safety:** [Scams].

## 🎒 Seasonal (%s)
* **Weather:** [Avg Temp/Rain].
* **Crowds:** [High/Low].

(---PAGE BREAK---)

### COORDINATES
List 3-4 major locations or districts mentioned above in this exact format: Name | Latitude | Longitude
Example:
Eiffel Tower Sector | 48.8584 | 2.2945
Le Marais | 48.8566 | 2.3522`

func (c *OpenAIClient) GenerateBriefing(ctx context.Context, destination, month, searchContext string) (string, error) {
	user := fmt.Sprintf("CONTEXT:\n%s\n\nREQUEST:\nDestination: %s\nMonth: %s\n\n%s",
		searchContext, destination, month, fmt.Sprintf(briefingFormat, month))
	return c.complete(ctx, c.model, briefingSystem, user, briefingTemperature)
}

func (c *OpenAIClient) Chat(ctx context.Context, guideText, question string) (string, error) {
	system := "You are a helpful assistant answering questions about a specific travel guide. " +
		`Answer based ONLY on the information in the guide provided. If the answer is not in the guide, say "That information is not in this specific briefing." Keep answers concise.`
	user := fmt.Sprintf("THE GUIDE:\n%s\n\nUSER QUESTION:\n%s", guideText, question)
	return c.complete(ctx, c.chatModel, system, user, chatTemperature)
}

func (c *OpenAIClient) PlaceSummary(ctx context.Context, guideText, place string) (string, error) {
	system := "You are a concise assistant that extracts or summarizes information from the provided guide. " +
		"Answer concisely and only using information in the guide. If the guide does not mention the requested item, reply exactly: No short description available."
	user := fmt.Sprintf(
		"THE GUIDE:\n%s\n\nUSER REQUEST:\nProvide a concise one-line (max 15 words) description of '%s' based ONLY on the guide provided. Keep answer brief and factual.",
		guideText, place)
	return c.complete(ctx, c.model, system, user, briefingTemperature)
}

func (c *OpenAIClient) complete(ctx context.Context, model openai.ChatModel, system, user string, temperature float64) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()
	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    buildMessages(system, user),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
