package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dodam/internal/advice"
	"dodam/internal/domain"
	"dodam/internal/game"
)

type predictRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type eventRequest struct {
	ChatID    int64  `json:"chat_id"`
	EventType string `json:"event_type"`
	EventText string `json:"event_text"`
}

type adviceRequest struct {
	ChatID   int64  `json:"chat_id"`
	Category string `json:"category"`
	Section  string `json:"section"`
	UserText string `json:"user_text"`
}

func (a *App) predict(c *gin.Context) {
	var req predictRequest
	if !mustJSON(c, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(c, http.StatusBadRequest, "text is required")
		return
	}

	ctx := c.Request.Context()
	scores, err := a.classifier.Classify(ctx, req.Text)
	if err != nil {
		a.log.Error("emotion classification failed", "err", err)
		writeError(c, http.StatusInternalServerError, "emotion classifier unavailable")
		return
	}
	top, confidence := scores.Top()

	if err := a.store.SaveEmotionLog(ctx, req.Text, top, confidence); err != nil {
		a.log.Error("emotion log insert failed", "err", err)
		writeError(c, http.StatusInternalServerError, "failed to record emotion")
		return
	}

	// A dominant neutral reading says nothing about the user's day, so it
	// stays out of the daily summary. The utterance itself is still logged.
	suppressed := a.gate.Suppress(scores)
	if !suppressed {
		if err := a.store.AccumulateEmotionSummary(ctx, scores); err != nil {
			a.log.Warn("emotion summary accumulation failed", "err", err)
		}
	}

	var progress *game.Progress
	if req.ChatID != 0 {
		p, err := a.game.Award(ctx, req.ChatID, game.ActionChat)
		if err != nil {
			a.log.Warn("xp award failed", "chat_id", req.ChatID, "err", err)
		} else {
			progress = &p
		}
	}

	data := gin.H{
		"emotion":    top,
		"confidence": confidence,
		"scores":     scores,
		"suppressed": suppressed,
	}
	if progress != nil {
		data["progress"] = progress
	}
	writeData(c, http.StatusOK, data)
}

func (a *App) createEvent(c *gin.Context) {
	var req eventRequest
	if !mustJSON(c, &req) {
		return
	}
	req.EventType = strings.TrimSpace(req.EventType)
	req.EventText = strings.TrimSpace(req.EventText)
	if req.ChatID == 0 || req.EventType == "" || req.EventText == "" {
		writeError(c, http.StatusBadRequest, "chat_id, event_type and event_text are required")
		return
	}

	ctx := c.Request.Context()
	ev := domain.Event{ChatID: req.ChatID, Type: req.EventType, Text: req.EventText}
	if err := a.store.UpsertEvent(ctx, ev); err != nil {
		a.log.Error("event upsert failed", "chat_id", req.ChatID, "err", err)
		writeError(c, http.StatusInternalServerError, "failed to record event")
		return
	}

	if _, err := a.game.Award(ctx, req.ChatID, game.ActionEvent); err != nil {
		a.log.Warn("xp award failed", "chat_id", req.ChatID, "err", err)
	}

	writeData(c, http.StatusCreated, gin.H{
		"chat_id":    req.ChatID,
		"event_type": req.EventType,
	})
}

func (a *App) listEvents(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid chat_id")
		return
	}

	events, err := a.store.ListEvents(c.Request.Context(), chatID)
	if err != nil {
		a.log.Error("event listing failed", "chat_id", chatID, "err", err)
		writeError(c, http.StatusInternalServerError, "failed to list events")
		return
	}

	items := make([]gin.H, 0, len(events))
	for _, ev := range events {
		items = append(items, gin.H{
			"event_type": ev.Type,
			"event_text": ev.Text,
		})
	}
	writeData(c, http.StatusOK, gin.H{"chat_id": chatID, "events": items})
}

func (a *App) advise(c *gin.Context) {
	var req adviceRequest
	if !mustJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	requestID := uuid.NewString()
	adv, err := a.advisor.Advise(ctx, advice.Request{
		Category: strings.TrimSpace(req.Category),
		Section:  strings.TrimSpace(req.Section),
		UserText: req.UserText,
		ChatID:   req.ChatID,
	})
	if errors.Is(err, domain.ErrMissingInput) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		a.log.Error("advice pipeline failed", "request_id", requestID, "err", err)
		writeError(c, http.StatusInternalServerError, "failed to generate advice")
		return
	}

	if req.ChatID != 0 && strings.TrimSpace(req.UserText) != "" {
		botText := strings.Join(adv.ImmediateActions, "\n")
		if err := a.store.SaveConversation(ctx, req.ChatID, req.UserText, botText); err != nil {
			a.log.Warn("conversation log failed", "chat_id", req.ChatID, "err", err)
		}
	}
	if req.ChatID != 0 {
		if _, err := a.game.Award(ctx, req.ChatID, game.ActionAdvice); err != nil {
			a.log.Warn("xp award failed", "chat_id", req.ChatID, "err", err)
		}
	}

	writeData(c, http.StatusOK, gin.H{
		"request_id": requestID,
		"advice":     adv,
	})
}

func (a *App) progress(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid chat_id")
		return
	}

	p, err := a.game.Snapshot(c.Request.Context(), chatID)
	if err != nil {
		a.log.Error("progress snapshot failed", "chat_id", chatID, "err", err)
		writeError(c, http.StatusInternalServerError, "failed to load progress")
		return
	}
	writeData(c, http.StatusOK, p)
}
