package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dodam/internal/advice"
	"dodam/internal/domain"
	"dodam/internal/emotion"
	"dodam/internal/game"
)

// AdviceService runs the full advice pipeline for one request.
type AdviceService interface {
	Advise(ctx context.Context, req advice.Request) (domain.Advice, error)
}

// GameService awards XP and reads player progress.
type GameService interface {
	Award(ctx context.Context, chatID int64, action game.Action) (game.Progress, error)
	Snapshot(ctx context.Context, chatID int64) (game.Progress, error)
}

// Storage is the relational surface the handlers need.
type Storage interface {
	SaveEmotionLog(ctx context.Context, sentence, topEmotion string, confidence float64) error
	AccumulateEmotionSummary(ctx context.Context, scores domain.EmotionScores) error
	SaveConversation(ctx context.Context, chatID int64, userText, botText string) error
	UpsertEvent(ctx context.Context, ev domain.Event) error
	ListEvents(ctx context.Context, chatID int64) ([]domain.Event, error)
}

type App struct {
	classifier domain.Classifier
	gate       emotion.Gate
	store      Storage
	advisor    AdviceService
	game       GameService
	log        *slog.Logger
}

func New(classifier domain.Classifier, gate emotion.Gate, store Storage, advisor AdviceService, gameSvc GameService, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	return &App{
		classifier: classifier,
		gate:       gate,
		store:      store,
		advisor:    advisor,
		game:       gameSvc,
		log:        log,
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", a.health)

	api := router.Group("/api/v1")
	api.POST("/predict", a.predict)
	api.POST("/events", a.createEvent)
	api.GET("/events/:chat_id", a.listEvents)
	api.POST("/advice", a.advise)
	api.GET("/progress/:chat_id", a.progress)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dodam-api",
	})
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
