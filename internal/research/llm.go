package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/terraplot/plotdesk/internal/areas"
)

const systemPrompt = "You are a real-estate market analyst. Extract market benchmarks from area research documents. Respond with strict JSON only."

const extractionSchema = `{
  "area_names": ["list of every community or district the document covers"],
  "unit_psf": {"studio": 0, "1br": 0, "2br": 0, "3br": 0},
  "unit_sizes": {"studio": 0, "1br": 0, "2br": 0, "3br": 0},
  "unit_rents": {"studio": 0, "1br": 0, "2br": 0, "3br": 0},
  "construction_psf": 0,
  "land_cost_psf": 0,
  "market_floor": 0,
  "market_avg": 0,
  "market_ceiling": 0
}`

type LLMCaller interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type AnthropicCaller struct {
	messages AnthropicMessager
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

func NewAnthropicCallerFromEnv() (*AnthropicCaller, error) {
	apiKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicCaller{messages: &c.Messages}, nil
}

func (a *AnthropicCaller) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.ModelClaudeSonnet4_20250514,
		MaxTokens:   2048,
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}

// Ingestor turns raw research text into a cached Document.
type Ingestor struct {
	caller LLMCaller
}

func NewIngestor(caller LLMCaller) *Ingestor {
	return &Ingestor{caller: caller}
}

type extractionOutput struct {
	AreaNames       []string           `json:"area_names"`
	UnitPsf         map[string]float64 `json:"unit_psf"`
	UnitSizes       map[string]float64 `json:"unit_sizes"`
	UnitRents       map[string]float64 `json:"unit_rents"`
	ConstructionPsf float64            `json:"construction_psf"`
	LandCostPsf     float64            `json:"land_cost_psf"`
	MarketFloor     float64            `json:"market_floor"`
	MarketAvg       float64            `json:"market_avg"`
	MarketCeiling   float64            `json:"market_ceiling"`
}

// Ingest extracts structured assumptions from research text. It retries
// transport failures and malformed responses up to three times, feeding the
// failure back to the model.
func (ing *Ingestor) Ingest(ctx context.Context, sourceFilename, text string) (Document, error) {
	prompt := "Extract market benchmarks from the research document below. " +
		"List every area the document covers in area_names. Use 0 for values the document does not state.\n\n" +
		"Schema:\n" + extractionSchema + "\n\nDocument:\n" + text

	var out extractionOutput
	feedback := ""
	for attempt := 1; attempt <= 3; attempt++ {
		fullPrompt := prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			fullPrompt += "\n\n" + feedback
		}
		raw, err := ing.caller.GenerateJSON(ctx, fullPrompt)
		if err != nil {
			if isRetryableTransport(err) && attempt < 3 {
				time.Sleep(backoffDelay(attempt))
				continue
			}
			return Document{}, fmt.Errorf("research extraction transport failure: %w", err)
		}
		clean := stripCodeFences(raw)
		if clean == "" {
			feedback = "Your previous response was empty. Respond with valid JSON."
			continue
		}
		if err := json.Unmarshal([]byte(clean), &out); err != nil {
			if attempt < 3 {
				feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
				continue
			}
			return Document{}, fmt.Errorf("research extraction json parse: %w", err)
		}
		if err := validateExtraction(out); err != nil {
			if attempt < 3 {
				feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
				continue
			}
			return Document{}, fmt.Errorf("research extraction validation: %w", err)
		}
		return buildDocument(out, sourceFilename), nil
	}
	return Document{}, errors.New("research extraction failed after retries")
}

func validateExtraction(out extractionOutput) error {
	if len(out.AreaNames) == 0 {
		return errors.New("area_names must list at least one area")
	}
	for unit, v := range out.UnitPsf {
		if v < 0 {
			return fmt.Errorf("unit_psf[%s] is negative", unit)
		}
	}
	if out.ConstructionPsf < 0 || out.LandCostPsf < 0 {
		return errors.New("cost rates must not be negative")
	}
	return nil
}

func buildDocument(out extractionOutput, sourceFilename string) Document {
	codes := []string{}
	seen := map[string]struct{}{}
	for _, name := range out.AreaNames {
		code, ok := areas.ResolveAreaCode(name)
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	areaName := ""
	if len(out.AreaNames) > 0 {
		areaName = strings.TrimSpace(out.AreaNames[0])
	}
	return Document{
		ID:       uuid.NewString(),
		AreaName: areaName,
		// Unresolvable names are dropped: a document naming only unknown
		// areas ends up with zero codes and is never used by the resolver.
		AreaCodes: codes,
		Assumptions: Assumptions{
			UnitPsf:         out.UnitPsf,
			UnitSizes:       out.UnitSizes,
			UnitRents:       out.UnitRents,
			ConstructionPsf: out.ConstructionPsf,
			LandCostPsf:     out.LandCostPsf,
			MarketFloor:     out.MarketFloor,
			MarketAvg:       out.MarketAvg,
			MarketCeiling:   out.MarketCeiling,
		},
		SourceFilename: sourceFilename,
		UploadedAt:     time.Now().UTC(),
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func isRetryableTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error")
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}
