package db

import (
	"time"

	"gorm.io/datatypes"
)

// Match is one finished game.
type Match struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Code      string        `gorm:"size:12;index;not null" json:"code"`
	Winner    string        `gorm:"size:16;not null" json:"winner"`
	Reason    string        `gorm:"size:128;not null" json:"reason"`
	StartedAt time.Time     `gorm:"not null" json:"started_at"`
	EndedAt   time.Time     `gorm:"not null;index" json:"ended_at"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	Players   []MatchPlayer `json:"players"`
	Events    []MatchEvent  `json:"events,omitempty"`
}

type MatchPlayer struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	MatchID    uint   `gorm:"index;not null;uniqueIndex:idx_match_players_match_user" json:"-"`
	UserID     int64  `gorm:"not null;uniqueIndex:idx_match_players_match_user" json:"user_id"`
	Name       string `gorm:"size:64;not null" json:"name"`
	Role       string `gorm:"size:16;not null" json:"role"`
	Status     string `gorm:"size:16;not null" json:"status"`
	TasksDone  int    `gorm:"not null;default:0" json:"tasks_done"`
	TasksTotal int    `gorm:"not null;default:0" json:"tasks_total"`
}

type MatchEvent struct {
	ID         uint           `gorm:"primaryKey" json:"-"`
	MatchID    uint           `gorm:"index;not null" json:"-"`
	EventID    string         `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	Kind       string         `gorm:"size:32;not null" json:"kind"`
	ActorID    *int64         `gorm:"index" json:"actor_id,omitempty"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	OccurredAt time.Time      `gorm:"not null" json:"occurred_at"`
}
