package game

import (
	"context"
	"fmt"
	"time"
)

// Action is a player activity that earns XP.
type Action string

const (
	ActionChat   Action = "chat"
	ActionAdvice Action = "advice"
	ActionEvent  Action = "event"
)

const dateLayout = "2006-01-02"

var actionXP = map[Action]int{
	ActionChat:   5,
	ActionAdvice: 10,
	ActionEvent:  8,
}

// Mission is one daily task. Count advances toward Goal; completing a
// mission pays RewardXP once.
type Mission struct {
	Code     string `json:"code"`
	Title    string `json:"title"`
	Action   Action `json:"action"`
	Goal     int    `json:"goal"`
	Count    int    `json:"count"`
	Done     bool   `json:"done"`
	RewardXP int    `json:"reward_xp"`
}

// Progress is a player's accumulated state. MissionDate marks the day
// the current mission set belongs to; a new day resets it.
type Progress struct {
	ChatID      int64     `json:"chat_id"`
	XP          int       `json:"xp"`
	Level       int       `json:"level"`
	MissionDate string    `json:"mission_date"`
	Missions    []Mission `json:"missions"`
}

// DailyMissions returns a fresh mission set for one day.
func DailyMissions() []Mission {
	return []Mission{
		{Code: "daily_chat_3", Title: "오늘 대화 3번 나누기", Action: ActionChat, Goal: 3, RewardXP: 20},
		{Code: "daily_advice_1", Title: "대처 가이드 1번 요청하기", Action: ActionAdvice, Goal: 1, RewardXP: 30},
		{Code: "daily_event_1", Title: "오늘 있었던 일 1건 기록하기", Action: ActionEvent, Goal: 1, RewardXP: 15},
	}
}

// LevelForXP computes the level reached with the given XP. Each level n
// requires 100*n XP on top of the previous ones.
func LevelForXP(xp int) int {
	level := 1
	need := 100
	for xp >= need {
		xp -= need
		level++
		need = 100 * level
	}
	return level
}

// Store persists player progress. Progress returns a zero-valued record
// for unknown players.
type Store interface {
	Progress(ctx context.Context, chatID int64) (Progress, error)
	SaveProgress(ctx context.Context, p Progress) error
}

// Service applies XP awards and mission bookkeeping.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Award credits one action: base XP, mission progress (with completion
// rewards), level recomputation. Mission sets roll over at midnight.
func (s *Service) Award(ctx context.Context, chatID int64, action Action) (Progress, error) {
	p, err := s.store.Progress(ctx, chatID)
	if err != nil {
		return Progress{}, fmt.Errorf("load progress for chat %d: %w", chatID, err)
	}
	p.ChatID = chatID

	today := s.now().Format(dateLayout)
	if p.MissionDate != today {
		p.MissionDate = today
		p.Missions = DailyMissions()
	}

	p.XP += actionXP[action]
	for i := range p.Missions {
		m := &p.Missions[i]
		if m.Action != action || m.Done {
			continue
		}
		m.Count++
		if m.Count >= m.Goal {
			m.Done = true
			p.XP += m.RewardXP
		}
	}
	p.Level = LevelForXP(p.XP)

	if err := s.store.SaveProgress(ctx, p); err != nil {
		return Progress{}, fmt.Errorf("save progress for chat %d: %w", chatID, err)
	}
	return p, nil
}

// Snapshot returns current progress with the mission set rolled over if
// the stored one is stale, without awarding anything.
func (s *Service) Snapshot(ctx context.Context, chatID int64) (Progress, error) {
	p, err := s.store.Progress(ctx, chatID)
	if err != nil {
		return Progress{}, fmt.Errorf("load progress for chat %d: %w", chatID, err)
	}
	p.ChatID = chatID
	if today := s.now().Format(dateLayout); p.MissionDate != today {
		p.MissionDate = today
		p.Missions = DailyMissions()
	}
	if p.Level == 0 {
		p.Level = LevelForXP(p.XP)
	}
	return p, nil
}
