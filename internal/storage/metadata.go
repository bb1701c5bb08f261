package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// MetadataDB records finished dubs in SQLite so the history survives
// restarts even though live sessions are in-memory only.
type MetadataDB struct {
	db *sql.DB
}

// DubRecord is one completed dubbing job.
type DubRecord struct {
	SessionID      string    `json:"session_id"`
	Title          string    `json:"title"`
	TargetLanguage string    `json:"target_language"`
	VoiceOption    string    `json:"voice_option"`
	VideoPath      string    `json:"video_path"`
	Duration       float64   `json:"duration_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMetadataDB opens (creating if needed) the dub history database.
func NewMetadataDB(dbPath string) (*MetadataDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS dubs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		target_language TEXT NOT NULL,
		voice_option TEXT NOT NULL,
		video_path TEXT NOT NULL,
		duration REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dubs_created_at ON dubs(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &MetadataDB{db: db}, nil
}

// SaveDub persists a completed dub.
func (mdb *MetadataDB) SaveDub(rec DubRecord) error {
	query := `
	INSERT INTO dubs (session_id, title, target_language, voice_option, video_path, duration, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := mdb.db.Exec(query, rec.SessionID, rec.Title, rec.TargetLanguage,
		rec.VoiceOption, rec.VideoPath, rec.Duration, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save dub record: %v", err)
	}
	return nil
}

// GetDub retrieves a dub record by session id.
func (mdb *MetadataDB) GetDub(sessionID string) (*DubRecord, error) {
	query := `
	SELECT session_id, title, target_language, voice_option, video_path, duration, created_at
	FROM dubs WHERE session_id = ?
	`

	var rec DubRecord
	err := mdb.db.QueryRow(query, sessionID).Scan(&rec.SessionID, &rec.Title,
		&rec.TargetLanguage, &rec.VoiceOption, &rec.VideoPath, &rec.Duration, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get dub record: %v", err)
	}
	return &rec, nil
}

// ListDubs returns the most recent dub records.
func (mdb *MetadataDB) ListDubs(limit int) ([]DubRecord, error) {
	query := `
	SELECT session_id, title, target_language, voice_option, video_path, duration, created_at
	FROM dubs ORDER BY created_at DESC LIMIT ?
	`

	rows, err := mdb.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dubs: %v", err)
	}
	defer rows.Close()

	var records []DubRecord
	for rows.Next() {
		var rec DubRecord
		if err := rows.Scan(&rec.SessionID, &rec.Title, &rec.TargetLanguage,
			&rec.VoiceOption, &rec.VideoPath, &rec.Duration, &rec.CreatedAt); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the database connection.
func (mdb *MetadataDB) Close() error {
	return mdb.db.Close()
}
