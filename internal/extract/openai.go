package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"counsel/internal/casefile"
	"counsel/internal/logging"
)

// signal domains spelled out for the model prompt.
const extractorPrompt = `You label criminal-case material with categorical evidence signals.
Return ONLY a JSON object with these keys and allowed values; use "unknown"
whenever the material does not clearly support a value:
  id_strength: strong | weak | disputed | unknown
  medical_evidence: none | single_brief | sustained | serious | unknown
  cctv_sequence: none | partial | full | unknown
  weapon_use: none | spontaneous | brought | unknown
  disclosure_completeness: complete | gaps | sparse | unknown
  pace_compliance: clean | concerns | breach | unknown
  prosecution_strength: weak | moderate | strong | unknown
Never guess. "unknown" is always the safe answer.`

// OpenAIExtractor proposes signals by asking a chat model to label the
// extracted text. It is strictly optional; assessment works identically
// without it, just with more unknown signals.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

// NewOpenAIExtractor builds an extractor against the given API key and model.
// An empty model falls back to gpt-4o-mini.
func NewOpenAIExtractor(apiKey, model string) (*OpenAIExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("extract: empty OpenAI API key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    logging.New("extract"),
	}, nil
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string) (casefile.Signals, error) {
	sig := casefile.NewSignals()
	if strings.TrimSpace(text) == "" {
		return sig, nil
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractorPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return sig, fmt.Errorf("extract: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return sig, fmt.Errorf("extract: model returned no choices")
	}

	raw := cleanJSON(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		e.log.Warn("unparseable extractor response, keeping unknowns", "error", err)
		return casefile.NewSignals(), nil
	}
	sig.Normalize()
	clampToDomains(&sig)
	return sig, nil
}

// cleanJSON strips markdown code fences models wrap JSON in.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var signalDomains = map[string][]casefile.Signal{
	casefile.FieldIdentification: {casefile.IDStrong, casefile.IDWeak, casefile.IDDisputed},
	casefile.FieldMedical:        {casefile.MedicalNone, casefile.MedicalSingleBrief, casefile.MedicalSustained, casefile.MedicalSerious},
	casefile.FieldCCTV:           {casefile.CCTVNone, casefile.CCTVPartial, casefile.CCTVFull},
	casefile.FieldWeapon:         {casefile.WeaponNone, casefile.WeaponSpontaneous, casefile.WeaponBrought},
	casefile.FieldDisclosure:     {casefile.DisclosureComplete, casefile.DisclosureGaps, casefile.DisclosureSparse},
	casefile.FieldPACE:           {casefile.PACEClean, casefile.PACEConcerns, casefile.PACEBreach},
	casefile.FieldProsecution:    {casefile.ProsecutionWeak, casefile.ProsecutionModerate, casefile.ProsecutionStrong},
}

// clampToDomains resets any out-of-domain value the model invented back to
// unknown.
func clampToDomains(sig *casefile.Signals) {
	for field, domain := range signalDomains {
		v := sig.Get(field)
		if v == casefile.SignalUnknown {
			continue
		}
		ok := false
		for _, d := range domain {
			if v == d {
				ok = true
				break
			}
		}
		if !ok {
			sig.Set(field, casefile.SignalUnknown)
		}
	}
}
