package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/learnsync/internal/data/repos/testutil"
	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/platform/dbctx"
)

func TestSubjectRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	repo := NewSubjectRepo(db, testutil.Logger(t))
	account := uuid.New()

	inserted, err := repo.Create(dbc, &types.Subject{AccountID: account, Marker: types.DefaultSubjectMarker})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !inserted {
		t.Fatalf("Create: expected insert")
	}
	inserted, err = repo.Create(dbc, &types.Subject{AccountID: account, Marker: types.DefaultSubjectMarker})
	if err != nil {
		t.Fatalf("Create (dup): %v", err)
	}
	if inserted {
		t.Fatalf("Create (dup): expected no-op")
	}

	got, err := repo.GetByAccountMarker(dbc, account, types.DefaultSubjectMarker)
	if err != nil || got == nil {
		t.Fatalf("GetByAccountMarker: got=%v err=%v", got, err)
	}
	if !got.IsDefault() {
		t.Fatalf("expected default marker, got %q", got.Marker)
	}

	missing, err := repo.GetByAccountMarker(dbc, account, "Ada")
	if err != nil || missing != nil {
		t.Fatalf("GetByAccountMarker (missing): got=%v err=%v", missing, err)
	}

	legacy := testutil.SeedSubject(t, ctx, tx, account, "Ada")
	ok, err := repo.UpdateMarker(dbc, legacy.ID, "Ada Lovelace")
	if err != nil || !ok {
		t.Fatalf("UpdateMarker: ok=%v err=%v", ok, err)
	}
	all, err := repo.ListByAccount(dbc, account)
	if err != nil {
		t.Fatalf("ListByAccount: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListByAccount: want=2 got=%d", len(all))
	}
}

func TestActivityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewActivityRepo(db, testutil.Logger(t))

	placeholder := &types.Activity{
		ExternalID:  "space-quiz",
		Title:       "Space Quiz",
		Ordinal:     types.PlaceholderOrdinal,
		Placeholder: true,
	}
	inserted, err := repo.Create(dbc, placeholder)
	if err != nil || !inserted {
		t.Fatalf("Create: inserted=%v err=%v", inserted, err)
	}
	if placeholder.Kind != types.ActivityKindUnknown {
		t.Fatalf("Create: expected unknown kind default, got %q", placeholder.Kind)
	}
	inserted, err = repo.Create(dbc, &types.Activity{ExternalID: "space-quiz", Title: "other"})
	if err != nil || inserted {
		t.Fatalf("Create (dup): inserted=%v err=%v", inserted, err)
	}

	if err := repo.UpsertCatalogue(dbc, []*types.Activity{
		{ExternalID: "space-quiz", Title: "Space Quiz", Kind: types.ActivityKindQuiz, Ordinal: 4},
		{ExternalID: "colors", Title: "Colors", Kind: types.ActivityKindGame, Ordinal: 1},
	}); err != nil {
		t.Fatalf("UpsertCatalogue: %v", err)
	}

	got, err := repo.GetByExternalID(dbc, "space-quiz")
	if err != nil || got == nil {
		t.Fatalf("GetByExternalID: got=%v err=%v", got, err)
	}
	if got.ID != placeholder.ID {
		t.Fatalf("UpsertCatalogue must keep the existing id")
	}
	if got.Placeholder || got.Kind != types.ActivityKindQuiz || got.Ordinal != 4 {
		t.Fatalf("UpsertCatalogue: unexpected row %+v", got)
	}

	all, err := repo.ListAll(dbc)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].ExternalID != "colors" {
		t.Fatalf("ListAll: unexpected order %+v", all)
	}

	byIDs, err := repo.GetByIDs(dbc, []uuid.UUID{got.ID})
	if err != nil || len(byIDs) != 1 {
		t.Fatalf("GetByIDs: got=%v err=%v", byIDs, err)
	}
}

func TestRecordRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	subject := testutil.SeedSubject(t, ctx, tx, uuid.New(), types.DefaultSubjectMarker)
	a1 := testutil.SeedActivity(t, ctx, tx, "lesson-1", 1)
	a2 := testutil.SeedActivity(t, ctx, tx, "lesson-2", 2)

	repo := NewRecordRepo(db, testutil.Logger(t))

	row := &types.Record{
		SubjectID:       subject.ID,
		ActivityID:      a1.ID,
		Status:          types.StatusInProgress,
		ProgressPercent: 40,
		LastAccessedAt:  time.Now().UTC(),
		Version:         1,
	}
	inserted, err := repo.Insert(dbc, row)
	if err != nil || !inserted {
		t.Fatalf("Insert: inserted=%v err=%v", inserted, err)
	}
	dup := &types.Record{
		SubjectID:      subject.ID,
		ActivityID:     a1.ID,
		Status:         types.StatusCompleted,
		LastAccessedAt: time.Now().UTC(),
		Version:        1,
	}
	inserted, err = repo.Insert(dbc, dup)
	if err != nil || inserted {
		t.Fatalf("Insert (dup pair): inserted=%v err=%v", inserted, err)
	}

	got, err := repo.GetByPair(dbc, subject.ID, a1.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByPair: got=%v err=%v", got, err)
	}
	if got.ProgressPercent != 40 || got.Status != types.StatusInProgress {
		t.Fatalf("GetByPair: unexpected row %+v", got)
	}
	if got, _ := repo.GetByPair(dbc, subject.ID, a2.ID); got != nil {
		t.Fatalf("GetByPair (missing): expected nil")
	}

	testutil.SeedRecord(t, ctx, tx, subject.ID, a2.ID, 10)
	list, err := repo.ListBySubject(dbc, subject.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListBySubject: got=%d err=%v", len(list), err)
	}

	n, err := repo.DeleteBySubject(dbc, subject.ID)
	if err != nil || n != 2 {
		t.Fatalf("DeleteBySubject: n=%d err=%v", n, err)
	}
}

func TestGameBlobRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	subject := testutil.SeedSubject(t, ctx, tx, uuid.New(), types.DefaultSubjectMarker)
	repo := NewGameBlobRepo(db, testutil.Logger(t))

	if got, err := repo.GetBySubject(dbc, subject.ID); err != nil || got != nil {
		t.Fatalf("GetBySubject (empty): got=%v err=%v", got, err)
	}

	row := &types.GameBlob{SubjectID: subject.ID, Version: 1}
	if err := row.SetMap(map[string]any{"colors": map[string]any{"score": 8.0, "total": 10.0}}); err != nil {
		t.Fatalf("SetMap: %v", err)
	}
	inserted, err := repo.Insert(dbc, row)
	if err != nil || !inserted {
		t.Fatalf("Insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.Insert(dbc, &types.GameBlob{SubjectID: subject.ID, Version: 1})
	if err != nil || inserted {
		t.Fatalf("Insert (dup): inserted=%v err=%v", inserted, err)
	}

	got, err := repo.GetBySubject(dbc, subject.ID)
	if err != nil || got == nil {
		t.Fatalf("GetBySubject: got=%v err=%v", got, err)
	}
	m, err := got.Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	colors, _ := m["colors"].(map[string]any)
	if colors["score"] != 8.0 {
		t.Fatalf("unexpected entries: %v", m)
	}
}
