package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/seedandbeyond/snb-harvest/internal/infra/store"
)

func TestRepoInsertAndList(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepo(db)
	ctx := context.Background()

	rows := []Row{
		{SubmissionID: "sub-1", LoggedAt: "2026-08-31T10:00:00.000Z", Username: "manager", Method: "POST", URL: "b1s/v1/NPFET", Status: 200, Response: "101"},
		{SubmissionID: "sub-1", LoggedAt: "2026-08-31T10:00:01.000Z", Username: "manager", Method: "POST", URL: "Batch calls", Status: 400, Response: "boom"},
	}
	for _, r := range rows {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	// Insertion order is preserved.
	if got[0].URL != "b1s/v1/NPFET" || got[1].URL != "Batch calls" {
		t.Errorf("order = %q, %q", got[0].URL, got[1].URL)
	}
	if got[1].Status != 400 || got[1].Response != "boom" {
		t.Errorf("row = %+v", got[1])
	}
}
