package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

type LogOptions struct {
	ActorName   string
	ActorRole   models.Role
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores one audit row using db, which is normally the transaction
// that made the change. Absent snapshots are stored as JSON null.
func WriteLog(db *gorm.DB, opts LogOptions) error {
	before, err := snapshotJSON(opts.Before)
	if err != nil {
		return fmt.Errorf("audit: encode before: %w", err)
	}
	after, err := snapshotJSON(opts.After)
	if err != nil {
		return fmt.Errorf("audit: encode after: %w", err)
	}

	entry := models.AuditLog{
		ActorName:   opts.ActorName,
		ActorRole:   opts.ActorRole,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  before,
		AfterData:   after,
	}
	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit: write log: %w", err)
	}
	return nil
}

func snapshotJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type Filter struct {
	EntityType string
	EntityID   uint
	Action     models.AuditAction
	Limit      int
}

// List returns entries newest first.
func List(ctx context.Context, db *gorm.DB, f Filter) ([]models.AuditLog, error) {
	q := db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Limit(f.Limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return logs, nil
}
