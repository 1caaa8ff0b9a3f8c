package advice

import (
	"context"
	"fmt"
	"strings"

	"dodam/internal/domain"
)

const (
	summarySeparator = " / "
	summaryMaxRunes  = 2000
)

// SummaryResolver produces the case summary the advice pipeline
// retrieves and generates against. Caller-supplied text wins; otherwise
// the conversation's logged events are concatenated most recent first.
type SummaryResolver struct {
	events domain.EventStore
}

func NewSummaryResolver(events domain.EventStore) *SummaryResolver {
	return &SummaryResolver{events: events}
}

// Resolve returns the trimmed user text verbatim when present. With
// only a chat id, it joins that conversation's event texts with a fixed
// separator and hard-caps the result to bound prompt size. Both absent
// is a client error.
func (r *SummaryResolver) Resolve(ctx context.Context, userText string, chatID int64) (string, error) {
	if t := strings.TrimSpace(userText); t != "" {
		return t, nil
	}
	if chatID == 0 {
		return "", fmt.Errorf("%w: user_text or chat_id required", domain.ErrMissingInput)
	}
	events, err := r.events.ListEvents(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("list events for chat %d: %w", chatID, err)
	}
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		if t := strings.TrimSpace(ev.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no events logged for chat %d", domain.ErrMissingInput, chatID)
	}
	summary := strings.Join(parts, summarySeparator)
	if runes := []rune(summary); len(runes) > summaryMaxRunes {
		summary = string(runes[:summaryMaxRunes])
	}
	return summary, nil
}
