package memory

import (
	"context"
	"sync"

	"github.com/lunaro-social/backend/internal/models"
)

// AuditLog is an in-memory stand-in for the Mongo-backed audit repository.
type AuditLog struct {
	mu      sync.Mutex
	records []models.AuditRecord
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (a *AuditLog) Record(ctx context.Context, record *models.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, *record)
	return nil
}

func (a *AuditLog) GetByFlagID(ctx context.Context, flagID string) ([]models.AuditRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditRecord
	for _, record := range a.records {
		if record.FlagID == flagID {
			out = append(out, record)
		}
	}
	return out, nil
}

// Records returns a copy of everything recorded so far.
func (a *AuditLog) Records() []models.AuditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditRecord, len(a.records))
	copy(out, a.records)
	return out
}
