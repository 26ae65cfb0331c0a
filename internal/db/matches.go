package db

import (
	"context"

	"gorm.io/gorm"
)

// ListMatches returns one page of archived matches, newest first, with
// their players loaded.
func ListMatches(ctx context.Context, conn *gorm.DB, page, perPage int) ([]Match, int64, error) {
	var total int64
	if err := conn.WithContext(ctx).Model(&Match{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var matches []Match
	err := conn.WithContext(ctx).
		Preload("Players").
		Order("ended_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&matches).Error
	if err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

// FindMatch loads one match with players and its event timeline.
func FindMatch(ctx context.Context, conn *gorm.DB, id uint) (Match, error) {
	var match Match
	err := conn.WithContext(ctx).
		Preload("Players").
		Preload("Events", func(tx *gorm.DB) *gorm.DB { return tx.Order("occurred_at ASC") }).
		First(&match, id).Error
	return match, err
}
