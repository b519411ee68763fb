package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"pin-archive-bot/models"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// Index records every successful promotion. It is a best-effort log backing
// the archivestats command and the maintenance sweep; the channel's native pin
// list stays the authority for dedup decisions.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive index database at the given path.
func Open(dbPath string) (*Index, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createArchiveTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive table: %w", err)
	}

	log.Println("Successfully connected to the archive index at", dbPath)
	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

func createArchiveTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS archive_index (
        message_id TEXT PRIMARY KEY,
        guild_id TEXT,
        channel_id TEXT,
        author_id TEXT,
        author_name TEXT,
        permalink TEXT,
        archived_at INTEGER
    );`
	_, err := db.Exec(query)
	return err
}

// Insert records an archived message. Re-archiving the same message is a
// no-op (INSERT OR IGNORE), matching the promotion idempotence guarantee.
func (i *Index) Insert(rec models.ArchiveRecord) error {
	query := `
    INSERT OR IGNORE INTO archive_index (
        message_id, guild_id, channel_id, author_id, author_name, permalink, archived_at
    ) VALUES (?, ?, ?, ?, ?, ?, ?);`

	stmt, err := i.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for archive record: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		rec.MessageID,
		rec.GuildID,
		rec.ChannelID,
		rec.AuthorID,
		rec.AuthorName,
		rec.Permalink,
		rec.ArchivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive record %s: %w", rec.MessageID, err)
	}
	return nil
}

// CountForGuild returns how many messages have been archived in a guild.
func (i *Index) CountForGuild(guildID string) (int64, error) {
	var count int64
	err := i.db.QueryRow("SELECT COUNT(*) FROM archive_index WHERE guild_id = ?", guildID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count archive records for guild %s: %w", guildID, err)
	}
	return count, nil
}

// Recent returns the latest archived messages for a guild, newest first.
func (i *Index) Recent(guildID string, limit int) ([]models.ArchiveRecord, error) {
	query := `
    SELECT message_id, guild_id, channel_id, author_id, author_name, permalink, archived_at
    FROM archive_index WHERE guild_id = ? ORDER BY archived_at DESC LIMIT ?`
	rows, err := i.db.Query(query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent archive records: %w", err)
	}
	defer rows.Close()

	var records []models.ArchiveRecord
	for rows.Next() {
		var rec models.ArchiveRecord
		if err := rows.Scan(&rec.MessageID, &rec.GuildID, &rec.ChannelID, &rec.AuthorID, &rec.AuthorName, &rec.Permalink, &rec.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ActiveChannels returns the distinct origin channels with a promotion since
// the given time. The maintenance sweep uses this to pick channels worth a
// pin capacity check.
func (i *Index) ActiveChannels(since time.Time) ([]string, error) {
	rows, err := i.db.Query(
		"SELECT DISTINCT channel_id FROM archive_index WHERE archived_at >= ?", since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query active channels: %w", err)
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan channel ID: %w", err)
		}
		channels = append(channels, id)
	}
	return channels, rows.Err()
}
