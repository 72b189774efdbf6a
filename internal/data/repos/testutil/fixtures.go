package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/learnsync/internal/domain"
)

func SeedSubject(tb testing.TB, ctx context.Context, tx *gorm.DB, accountID uuid.UUID, marker string) *types.Subject {
	tb.Helper()
	s := &types.Subject{
		ID:          uuid.New(),
		AccountID:   accountID,
		Marker:      marker,
		DisplayName: "Learner",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	return s
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, externalID string, ordinal int) *types.Activity {
	tb.Helper()
	a := &types.Activity{
		ID:         uuid.New(),
		ExternalID: externalID,
		Title:      externalID,
		Kind:       types.ActivityKindLesson,
		Ordinal:    ordinal,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

func SeedRecord(tb testing.TB, ctx context.Context, tx *gorm.DB, subjectID, activityID uuid.UUID, pct float64) *types.Record {
	tb.Helper()
	r := &types.Record{
		ID:              uuid.New(),
		SubjectID:       subjectID,
		ActivityID:      activityID,
		Status:          types.StatusInProgress,
		ProgressPercent: pct,
		LastAccessedAt:  time.Now().UTC(),
		Version:         1,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed record: %v", err)
	}
	return r
}
