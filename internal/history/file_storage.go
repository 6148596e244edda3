package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStorage implements Storage using the filesystem:
//
//	<baseDir>/status/<database>.json
//	<baseDir>/history/<database>/<timestamp>.json
type FileStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{
		baseDir: baseDir,
	}
}

const historyTimeFormat = "20060102-150405.000000000"

// SaveStatus saves the current rotation status for a database
func (fs *FileStorage) SaveStatus(status *RotationStatus) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	statusDir := filepath.Join(fs.baseDir, "status")
	if err := os.MkdirAll(statusDir, 0700); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	filename := filepath.Join(statusDir, fmt.Sprintf("%s.json", sanitizeFilename(status.Database)))
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}

	return nil
}

// GetStatus retrieves the current rotation status for a database
func (fs *FileStorage) GetStatus(database string) (*RotationStatus, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	filename := filepath.Join(fs.baseDir, "status", fmt.Sprintf("%s.json", sanitizeFilename(database)))
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no status found for database %s", database)
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status RotationStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}

	return &status, nil
}

// SaveHistory saves a rotation history entry
func (fs *FileStorage) SaveHistory(entry *HistoryEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	historyDir := filepath.Join(fs.baseDir, "history", sanitizeFilename(entry.Database))
	if err := os.MkdirAll(historyDir, 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	if entry.ID == "" {
		entry.ID = fmt.Sprintf("%d-%s", entry.Timestamp.UnixNano(), entry.Database)
	}

	filename := filepath.Join(historyDir, fmt.Sprintf("%s.json", entry.Timestamp.UTC().Format(historyTimeFormat)))
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// GetHistory retrieves rotation history for a database, newest first.
// A non-positive limit returns every entry.
func (fs *FileStorage) GetHistory(database string, limit int) ([]HistoryEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	historyDir := filepath.Join(fs.baseDir, "history", sanitizeFilename(database))

	if _, err := os.Stat(historyDir); os.IsNotExist(err) {
		return []HistoryEntry{}, nil
	}

	files, err := os.ReadDir(historyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	// Sort files by name (newest first)
	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() > files[j].Name()
	})

	var entries []HistoryEntry
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(historyDir, file.Name()))
		if err != nil {
			continue // Skip files that can't be read
		}

		var entry HistoryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue // Skip invalid JSON files
		}

		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}

	return entries, nil
}

// sanitizeFilename replaces characters that might be problematic in filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		" ", "_",
	)
	return replacer.Replace(name)
}
