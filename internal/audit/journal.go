// Package audit keeps an append-only JSON-lines journal of administrative
// actions. Each entry is synced to disk before Write returns.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionCreateUser    = "create_user"
	ActionDeleteUser    = "delete_user"
	ActionSetRole       = "set_role"
	ActionResetPassword = "reset_password"
	ActionVacuum        = "vacuum"
	ActionPrune         = "prune_audit"

	// moderation: an admin removing content another user owns
	ActionDeleteDiscussion   = "delete_discussion"
	ActionDeleteComment      = "delete_comment"
	ActionDeleteEvent        = "delete_event"
	ActionDeleteResource     = "delete_resource"
	ActionDeleteMessage      = "delete_message"
	ActionDeleteAnnouncement = "delete_announcement"
)

// Entry is one journaled action
type Entry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	ActorID   uint      `json:"actor_id"`
	TargetID  uint      `json:"target_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder is what services depend on
type Recorder interface {
	Record(action string, actorID, targetID uint, detail string)
}

// Journal manages the audit file
type Journal struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// Open creates the journal file and its directory if needed
func Open(filePath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Journal{
		filePath: filePath,
		file:     file,
	}, nil
}

// Write appends an entry, filling ID and Timestamp when empty
func (j *Journal) Write(entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		logger.Log.Error("Audit: Failed to write entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}
	if err := j.file.Sync(); err != nil {
		logger.Log.Error("Audit: Failed to sync to disk",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Debug("Audit: Entry written",
		zap.String("id", entry.ID),
		zap.String("action", entry.Action),
		zap.Uint("actor_id", entry.ActorID),
	)
	return nil
}

// Record writes an entry and only logs on failure, so a broken journal
// never fails the action being audited.
func (j *Journal) Record(action string, actorID, targetID uint, detail string) {
	err := j.Write(Entry{
		Action:   action,
		ActorID:  actorID,
		TargetID: targetID,
		Detail:   detail,
	})
	if err != nil {
		logger.Log.Warn("Audit: Entry dropped",
			zap.String("action", action),
			zap.Uint("actor_id", actorID),
			zap.Error(err),
		)
	}
}

// ReadAll returns every entry, oldest first. Malformed lines are skipped.
func (j *Journal) ReadAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readAllUnsafe()
}

// Recent returns up to limit entries, newest first
func (j *Journal) Recent(limit int) ([]Entry, error) {
	entries, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, entries[i])
	}
	return out, nil
}

// Prune drops entries older than before and returns how many were removed
func (j *Journal) Prune(before time.Time) (int, error) {
	start := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()

	all, err := j.readAllUnsafe()
	if err != nil {
		return 0, err
	}

	var remaining []Entry
	for _, entry := range all {
		if !entry.Timestamp.Before(before) {
			remaining = append(remaining, entry)
		}
	}
	removed := len(all) - len(remaining)
	if removed == 0 {
		return 0, nil
	}

	if err := j.file.Close(); err != nil {
		return 0, err
	}

	tempFile := j.filePath + ".tmp"
	if err := writeEntries(tempFile, remaining); err != nil {
		logger.Log.Error("Audit: Failed to write pruned journal",
			zap.String("temp_file", tempFile),
			zap.Error(err),
		)
		_ = j.reopen()
		return 0, err
	}

	if err := os.Rename(tempFile, j.filePath); err != nil {
		logger.Log.Error("Audit: Failed to replace journal",
			zap.String("temp_file", tempFile),
			zap.Error(err),
		)
		_ = j.reopen()
		return 0, err
	}

	// the old descriptor points at the replaced inode
	if err := j.reopen(); err != nil {
		return 0, err
	}

	logger.Log.Info("Audit: Prune completed",
		zap.Int("removed", removed),
		zap.Int("remaining", len(remaining)),
		zap.Duration("duration", time.Since(start)),
	)
	return removed, nil
}

func (j *Journal) reopen() error {
	file, err := os.OpenFile(j.filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		logger.Log.Error("Audit: Failed to reopen journal",
			zap.String("file_path", j.filePath),
			zap.Error(err),
		)
		return err
	}
	j.file = file
	return nil
}

func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			f.Close()
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (j *Journal) readAllUnsafe() ([]Entry, error) {
	file, err := os.Open(j.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	entries := []Entry{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
