package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiAdvisor implements Advisor using Google's Gemini models.
type GeminiAdvisor struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiAdvisor initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiAdvisor(ctx context.Context, apiKey string) (*GeminiAdvisor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Flash keeps latency and cost low; guidance is generated once per route.
	model := client.GenerativeModel("gemini-2.0-flash")
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.3)

	return &GeminiAdvisor{client: client, model: model}, nil
}

// Close cleans up the Gemini client resources.
func (g *GeminiAdvisor) Close() {
	g.client.Close()
}

// AnalyzeLoad asks the model for driver-facing loading guidance over the
// finished plan. Output is forced to JSON and parsed into LoadGuidance.
func (g *GeminiAdvisor) AnalyzeLoad(ctx context.Context, items []LoadItem, info RouteInfo) (*LoadGuidance, error) {
	prompt := buildLoadPrompt(items, info)

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}

	cleanJSON := cleanJSONString(responseText.String())

	var guidance LoadGuidance
	if err := json.Unmarshal([]byte(cleanJSON), &guidance); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	if guidance.Summary == "" || len(guidance.LoadingSteps) == 0 {
		return nil, fmt.Errorf("gemini returned incomplete guidance")
	}
	return &guidance, nil
}

func buildLoadPrompt(items []LoadItem, info RouteInfo) string {
	var totalWeight, totalVolume float64
	for _, it := range items {
		totalWeight += it.WeightKg
		totalVolume += it.VolumeM3
	}

	var detail strings.Builder
	for _, it := range items {
		fmt.Fprintf(&detail, "\nLOAD POSITION %d -> DELIVERY STOP %d\n", it.LoadPosition, it.DeliveryPosition)
		fmt.Fprintf(&detail, "  Customer: %s\n", it.Customer)
		fmt.Fprintf(&detail, "  Weight: %.2f kg | Volume: %.3f m3\n", it.WeightKg, it.VolumeM3)
		detail.WriteString("  Products:\n")
		for _, p := range it.Products {
			fmt.Fprintf(&detail, "    - %dx %s (%.2f kg each)\n", p.Quantity, p.Name, p.WeightKg)
		}
	}

	return fmt.Sprintf(`Role: You are an experienced logistics supervisor who trains delivery drivers.
Write a PRACTICAL, step-by-step loading guide so the driver knows exactly how to
load the vehicle and run the deliveries safely.

RULES:
- Use plain language, no jargon.
- The plan is LIFO: the last item loaded is the first delivered. Load position 1
  goes in FIRST, deepest in the vehicle; the highest load position goes in last,
  right at the door.
- Name specific products and customers in recommendations (e.g. "Laptop for
  customer X - protect from impacts").
- Flag products needing special care: electronics, fragile goods, liquids,
  anything over 10 kg.
- Give ONLY 4-5 key recommendations, the most important ones for this cargo.
- Heavy items low and centered, light items on top.

ROUTE:
- Total distance: %.1f km
- Estimated duration: %d minutes
- Stops: %d
- Total weight: %.2f kg
- Total volume: %.3f m3

LOAD PLAN (LIFO):
%s

Output JSON schema:
{
  "summary": "short plain-language summary for the driver",
  "loading_steps": [{"number": 1, "action": "...", "reason": "...", "placement": "front|rear|left|right|top|bottom"}],
  "weight_distribution": "how to distribute weight in the vehicle",
  "special_care_items": ["product for customer - how to handle"],
  "recommendations": [{"title": "...", "description": "...", "priority": "high|medium|low", "category": "safety|order|care|time"}],
  "checklist": ["5 items to verify before departure"],
  "delivery_tips": ["3-4 practical tips"],
  "estimated_load_time": "e.g. 15-20 minutes",
  "difficulty": "easy|normal|hard"
}
`, info.DistanceKm, info.DurationMinutes, info.StopCount, totalWeight, totalVolume, detail.String())
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
