package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[int64]Progress
}

func newMemStore() *memStore { return &memStore{records: map[int64]Progress{}} }

func (m *memStore) Progress(_ context.Context, chatID int64) (Progress, error) {
	return m.records[chatID], nil
}

func (m *memStore) SaveProgress(_ context.Context, p Progress) error {
	m.records[p.ChatID] = p
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 2, LevelForXP(100))
	assert.Equal(t, 2, LevelForXP(299))
	assert.Equal(t, 3, LevelForXP(300))
	assert.Equal(t, 4, LevelForXP(600))
}

func TestAwardAccumulatesXPAndMissions(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	var p Progress
	var err error
	for i := 0; i < 3; i++ {
		p, err = svc.Award(context.Background(), 42, ActionChat)
		require.NoError(t, err)
	}

	// 3 chats * 5 XP + 20 XP mission reward
	assert.Equal(t, 35, p.XP)
	assert.Equal(t, 1, p.Level)
	require.Len(t, p.Missions, 3)
	assert.True(t, p.Missions[0].Done)
	assert.False(t, p.Missions[1].Done)
}

func TestAwardMissionRewardPaidOnce(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.now = fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 4; i++ {
		_, err := svc.Award(context.Background(), 7, ActionAdvice)
		require.NoError(t, err)
	}
	p := store.records[7]
	// 4 advice * 10 XP + single 30 XP reward
	assert.Equal(t, 70, p.XP)
}

func TestAwardResetsMissionsOnNewDay(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.now = fixedClock(time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC))

	_, err := svc.Award(context.Background(), 42, ActionEvent)
	require.NoError(t, err)
	require.True(t, store.records[42].Missions[2].Done)
	xpDay1 := store.records[42].XP

	svc.now = fixedClock(time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC))
	p, err := svc.Award(context.Background(), 42, ActionChat)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-02", p.MissionDate)
	assert.False(t, p.Missions[2].Done, "event mission resets on the new day")
	assert.Equal(t, 1, p.Missions[0].Count)
	assert.Equal(t, xpDay1+5, p.XP, "XP carries across days")
}

func TestSnapshotRollsOverStaleMissionsWithoutAward(t *testing.T) {
	store := newMemStore()
	store.records[9] = Progress{ChatID: 9, XP: 120, MissionDate: "2025-02-28", Missions: DailyMissions()}

	svc := NewService(store)
	svc.now = fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	p, err := svc.Snapshot(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 120, p.XP)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, "2025-03-01", p.MissionDate)
}
