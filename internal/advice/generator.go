package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dodam/internal/domain"
)

// Disclaimer is the fixed legal notice attached to every advice result,
// including the fallback path.
const Disclaimer = "본 내용은 법률/투자 자문이 아닙니다. 긴급 상황은 112/금융회사 공식채널로 연락하세요."

const systemPrompt = "너는 한국어로 금융/생활 사기 대처 가이드를 만드는 조력자야. " +
	"법률/투자 자문이 아님을 명시하고, 즉시 행동/향후 조치/재발 방지/신고 채널/출처를 " +
	"JSON으로만 반환해."

const userTemplate = `[사용자 경험 요약]
%s

[카테고리]
%s

[섹션]
%s

[관련 근거 문서 발췌]
%s

[출력 JSON 스키마]
{
  "category": "%s",
  "section": "%s",
  "immediate_actions": ["..."],
  "next_steps": ["..."],
  "prevention_tips": ["..."],
  "where_to_report": [{"name":"기관명","channel_type":"전화/웹","value":"...","note":"..."}],
  "source_citations":[{"title":"%s 관련 자료","url":""}],
  "disclaimer":"%s"
}
JSON만 출력하세요.
`

// Generator builds the grounded prompt, invokes the completion model
// once and post-processes the response into a schema-conformant Advice.
type Generator struct {
	completer domain.Completer
}

func NewGenerator(completer domain.Completer) *Generator {
	return &Generator{completer: completer}
}

// Generate returns advice for a case summary. A transport-level
// completion failure propagates as an error; a malformed response body
// never does — it degrades to the fallback Advice carrying the raw text.
func (g *Generator) Generate(ctx context.Context, summary, category, docContext, section string) (domain.Advice, error) {
	user := fmt.Sprintf(userTemplate,
		summary, category, section, docContext, category, section, category, Disclaimer)
	text, err := g.completer.Complete(ctx, systemPrompt, user)
	if err != nil {
		return domain.Advice{}, fmt.Errorf("advice generation: %w", err)
	}
	return parseAdvice(text, category, section), nil
}

// parseAdvice excises the JSON payload and parses it strictly. Missing
// required fields are defaulted so the result always validates against
// the schema; an unparseable payload yields the fallback object.
func parseAdvice(text, category, section string) domain.Advice {
	payload, ok := exciseJSON(text)
	if !ok {
		return fallbackAdvice(category, section, text)
	}
	var adv domain.Advice
	if err := json.Unmarshal([]byte(payload), &adv); err != nil {
		return fallbackAdvice(category, section, text)
	}
	if adv.Category == "" {
		adv.Category = category
	}
	if adv.Section == "" {
		adv.Section = section
	}
	if adv.ImmediateActions == nil {
		adv.ImmediateActions = []string{}
	}
	if adv.NextSteps == nil {
		adv.NextSteps = []string{}
	}
	if adv.PreventionTips == nil {
		adv.PreventionTips = []string{}
	}
	if adv.WhereToReport == nil {
		adv.WhereToReport = []domain.ReportChannel{}
	}
	if adv.SourceCitations == nil {
		adv.SourceCitations = []domain.Citation{}
	}
	if adv.Disclaimer == "" {
		adv.Disclaimer = Disclaimer
	}
	adv.Raw = ""
	return adv
}

// exciseJSON cuts the substring between the first '{' and the last '}'.
// Best effort against models that wrap JSON in commentary. Known
// limitation: a '}' inside trailing commentary extends the cut.
func exciseJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func fallbackAdvice(category, section, raw string) domain.Advice {
	return domain.Advice{
		Category:         category,
		Section:          section,
		ImmediateActions: []string{},
		NextSteps:        []string{},
		PreventionTips:   []string{},
		WhereToReport:    []domain.ReportChannel{},
		SourceCitations:  []domain.Citation{},
		Disclaimer:       Disclaimer,
		Raw:              raw,
	}
}
