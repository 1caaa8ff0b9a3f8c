package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dodam/internal/domain"
	"dodam/internal/game"
)

// Store is the relational persistence layer: conversation and emotion
// logs, life events and player progress.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool against the given URL and verifies it.
func Connect(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// Migrate creates the schema when missing. Safe to run on every boot.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS emotion_logs (
			id          BIGSERIAL PRIMARY KEY,
			sentence    TEXT NOT NULL,
			top_emotion TEXT NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS emotion_summary (
			date             DATE NOT NULL,
			emotion          TEXT NOT NULL,
			total_confidence DOUBLE PRECISION NOT NULL,
			count            INT NOT NULL,
			PRIMARY KEY (date, emotion)
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_log (
			id         BIGSERIAL PRIMARY KEY,
			chat_id    BIGINT NOT NULL,
			user_text  TEXT NOT NULL,
			bot_text   TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			chat_id    BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			event_text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (chat_id, event_type)
		)`,
		`CREATE TABLE IF NOT EXISTS player_progress (
			chat_id      BIGINT PRIMARY KEY,
			xp           INT NOT NULL DEFAULT 0,
			level        INT NOT NULL DEFAULT 1,
			mission_date TEXT NOT NULL DEFAULT '',
			missions     JSONB NOT NULL DEFAULT '[]'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveEmotionLog records one classified utterance.
func (s *Store) SaveEmotionLog(ctx context.Context, sentence, topEmotion string, confidence float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO emotion_logs (sentence, top_emotion, confidence) VALUES ($1, $2, $3)`,
		sentence, topEmotion, confidence)
	if err != nil {
		return fmt.Errorf("insert emotion log: %w", err)
	}
	return nil
}

// AccumulateEmotionSummary folds a full distribution into today's
// per-emotion running totals.
func (s *Store) AccumulateEmotionSummary(ctx context.Context, scores domain.EmotionScores) error {
	for emotion, confidence := range scores {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO emotion_summary (date, emotion, total_confidence, count)
			 VALUES (CURRENT_DATE, $1, $2, 1)
			 ON CONFLICT (date, emotion) DO UPDATE SET
				total_confidence = emotion_summary.total_confidence + EXCLUDED.total_confidence,
				count            = emotion_summary.count + 1`,
			emotion, confidence)
		if err != nil {
			return fmt.Errorf("accumulate emotion summary for %q: %w", emotion, err)
		}
	}
	return nil
}

// SaveConversation appends one user/bot exchange to the conversation log.
func (s *Store) SaveConversation(ctx context.Context, chatID int64, userText, botText string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_log (chat_id, user_text, bot_text) VALUES ($1, $2, $3)`,
		chatID, userText, botText)
	if err != nil {
		return fmt.Errorf("insert conversation log: %w", err)
	}
	return nil
}

// UpsertEvent stores or refreshes the event of one type for a chat.
func (s *Store) UpsertEvent(ctx context.Context, ev domain.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (chat_id, event_type, event_text)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (chat_id, event_type) DO UPDATE SET
			event_text = EXCLUDED.event_text,
			created_at = now()`,
		ev.ChatID, ev.Type, ev.Text)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// ListEvents returns a chat's events, most recent first.
func (s *Store) ListEvents(ctx context.Context, chatID int64) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_text, event_type FROM events
		 WHERE chat_id = $1
		 ORDER BY created_at DESC`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		ev := domain.Event{ChatID: chatID}
		if err := rows.Scan(&ev.Text, &ev.Type); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Progress loads a player's record, zero-valued when absent.
func (s *Store) Progress(ctx context.Context, chatID int64) (game.Progress, error) {
	var (
		p        game.Progress
		missions []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT xp, level, mission_date, missions FROM player_progress WHERE chat_id = $1`,
		chatID).Scan(&p.XP, &p.Level, &p.MissionDate, &missions)
	if errors.Is(err, pgx.ErrNoRows) {
		// A fresh player.
		return game.Progress{ChatID: chatID}, nil
	}
	if err != nil {
		return game.Progress{}, fmt.Errorf("query progress: %w", err)
	}
	p.ChatID = chatID
	if len(missions) > 0 {
		if err := json.Unmarshal(missions, &p.Missions); err != nil {
			return game.Progress{}, fmt.Errorf("decode missions: %w", err)
		}
	}
	return p, nil
}

// SaveProgress upserts a player's record.
func (s *Store) SaveProgress(ctx context.Context, p game.Progress) error {
	missions, err := json.Marshal(p.Missions)
	if err != nil {
		return fmt.Errorf("encode missions: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO player_progress (chat_id, xp, level, mission_date, missions)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id) DO UPDATE SET
			xp = EXCLUDED.xp,
			level = EXCLUDED.level,
			mission_date = EXCLUDED.mission_date,
			missions = EXCLUDED.missions`,
		p.ChatID, p.XP, p.Level, p.MissionDate, missions)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}
