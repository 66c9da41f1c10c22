package postgres

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bafoka-labs/voicebank/internal/domain"
	"github.com/bafoka-labs/voicebank/internal/ports"
)

// TurnRecord is one archived turn. Rows outlive session expiry; this table is
// the long-term audit trail behind the session history.
type TurnRecord struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        string    `gorm:"index;size:32"`
	TurnID        string    `gorm:"size:64"`
	Intent        string    `gorm:"size:64"`
	Parameters    []byte    `gorm:"type:jsonb"`
	Text          string    `gorm:"type:text"`
	Language      string    `gorm:"size:8"`
	SecurityAlert bool      `gorm:"index"`
	RecordedAt    time.Time `gorm:"index"`
}

type TurnArchive struct {
	db  *gorm.DB
	log *zap.Logger
}

var (
	_ ports.TurnArchive  = (*TurnArchive)(nil)
	_ ports.TurnAuditLog = (*TurnArchive)(nil)
)

func NewTurnArchive(db *gorm.DB, log *zap.Logger) *TurnArchive {
	return &TurnArchive{db: db, log: log}
}

func (a *TurnArchive) ArchiveTurn(ctx context.Context, userID string, entry domain.HistoryEntry) error {
	params, err := json.Marshal(entry.Turn.Parameters)
	if err != nil {
		params = nil
	}

	record := TurnRecord{
		UserID:        userID,
		TurnID:        entry.Turn.TurnID,
		Intent:        entry.Turn.Intent,
		Parameters:    params,
		Text:          entry.Turn.Text,
		Language:      entry.Turn.Language,
		SecurityAlert: entry.Turn.SecurityAlert,
		RecordedAt:    entry.Timestamp,
	}
	return a.db.WithContext(ctx).Create(&record).Error
}

// FindByUser returns archived turns for one user, newest first. A limit of
// zero or less falls back to 100.
func (a *TurnArchive) FindByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []TurnRecord
	err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for _, r := range records {
		var params map[string]string
		if len(r.Parameters) > 0 {
			if err := json.Unmarshal(r.Parameters, &params); err != nil {
				a.log.Warn("Unreadable parameters in turn record",
					zap.Uint("id", r.ID), zap.Error(err))
				params = nil
			}
		}
		entries = append(entries, domain.HistoryEntry{
			Timestamp: r.RecordedAt,
			Turn: domain.TurnData{
				TurnID:        r.TurnID,
				Text:          r.Text,
				Intent:        r.Intent,
				Parameters:    params,
				Language:      r.Language,
				SecurityAlert: r.SecurityAlert,
			},
		})
	}
	return entries, nil
}
