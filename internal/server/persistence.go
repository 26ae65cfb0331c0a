package server

import (
	"context"
	"encoding/json"

	"sus-party/internal/db"
	"sus-party/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventPayload is the JSON body stored with each archived event.
type EventPayload struct {
	Detail string `json:"detail,omitempty"`
	Photo  string `json:"photo,omitempty"`
}

// archive stores finished games. A nil connection turns it into a no-op.
type archive struct {
	db *gorm.DB
}

func (a *archive) SaveReport(ctx context.Context, report game.Report) error {
	if a == nil || a.db == nil {
		return nil
	}
	match, err := matchRecord(report)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&match).Error
	})
}

func matchRecord(report game.Report) (db.Match, error) {
	match := db.Match{
		Code:      report.Code,
		Winner:    report.Winner.String(),
		Reason:    report.Reason,
		StartedAt: report.StartedAt.UTC(),
		EndedAt:   report.EndedAt.UTC(),
		Players:   make([]db.MatchPlayer, 0, len(report.Players)),
		Events:    make([]db.MatchEvent, 0, len(report.Events)),
	}
	for _, p := range report.Players {
		match.Players = append(match.Players, db.MatchPlayer{
			UserID:     int64(p.ID),
			Name:       p.Name,
			Role:       p.Role.String(),
			Status:     p.Status.String(),
			TasksDone:  p.TasksDone,
			TasksTotal: p.TasksTotal,
		})
	}
	for _, event := range report.Events {
		data, err := json.Marshal(EventPayload{Detail: event.Detail, Photo: event.Photo})
		if err != nil {
			return db.Match{}, err
		}
		var actor *int64
		if event.Actor != nil {
			id := int64(*event.Actor)
			actor = &id
		}
		match.Events = append(match.Events, db.MatchEvent{
			EventID:    event.ID.String(),
			Kind:       string(event.Kind),
			ActorID:    actor,
			Payload:    datatypes.JSON(data),
			OccurredAt: event.At.UTC(),
		})
	}
	return match, nil
}
