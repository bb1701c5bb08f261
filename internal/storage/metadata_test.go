package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *MetadataDB {
	t.Helper()
	db, err := NewMetadataDB(filepath.Join(t.TempDir(), "dubs.db"))
	if err != nil {
		t.Fatalf("NewMetadataDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetDub(t *testing.T) {
	db := newTestDB(t)

	rec := DubRecord{
		SessionID:      "abc-123",
		Title:          "Test Video",
		TargetLanguage: "es",
		VoiceOption:    "clone",
		VideoPath:      "/tmp/abc-123/dubbed_video.mp4",
		Duration:       42.5,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := db.SaveDub(rec); err != nil {
		t.Fatalf("SaveDub failed: %v", err)
	}

	got, err := db.GetDub("abc-123")
	if err != nil {
		t.Fatalf("GetDub failed: %v", err)
	}
	if got.Title != rec.Title || got.TargetLanguage != rec.TargetLanguage || got.VoiceOption != rec.VoiceOption {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if got.Duration != rec.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, rec.Duration)
	}
}

func TestGetDubNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetDub("missing"); err == nil {
		t.Fatal("GetDub should fail for a missing record")
	}
}

func TestSaveDubDuplicateSessionID(t *testing.T) {
	db := newTestDB(t)
	rec := DubRecord{SessionID: "dup", Title: "t", TargetLanguage: "es", VoiceOption: "clone", VideoPath: "/v", CreatedAt: time.Now()}
	if err := db.SaveDub(rec); err != nil {
		t.Fatalf("first SaveDub failed: %v", err)
	}
	if err := db.SaveDub(rec); err == nil {
		t.Fatal("duplicate session_id should violate the unique constraint")
	}
}

func TestListDubsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"first", "second", "third"} {
		rec := DubRecord{
			SessionID:      id,
			Title:          id,
			TargetLanguage: "es",
			VoiceOption:    "clone",
			VideoPath:      "/v",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveDub(rec); err != nil {
			t.Fatalf("SaveDub(%s) failed: %v", id, err)
		}
	}

	records, err := db.ListDubs(2)
	if err != nil {
		t.Fatalf("ListDubs failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].SessionID != "third" || records[1].SessionID != "second" {
		t.Errorf("order = %s, %s; want third, second", records[0].SessionID, records[1].SessionID)
	}
}
