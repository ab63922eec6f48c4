package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const (
	opInsert = "insert"
	opClick  = "click"
	opAdmin  = "admin"
)

// journalEntry is one line of the storage file.
type journalEntry struct {
	Op    string `json:"op"`
	Link  *Link  `json:"link,omitempty"`
	Code  string `json:"code,omitempty"`
	Admin *Admin `json:"admin,omitempty"`
}

// FileStorage persists every mutation as a JSON line appended to a journal
// file and serves reads from a MemoryStorage rebuilt by replaying it.
type FileStorage struct {
	mu     sync.Mutex
	file   *os.File
	index  *MemoryStorage
	logger *zap.Logger

	// size is the length of the journal up to its last complete line.
	size int64
}

func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}

	index, _ := CreateMemoryStorage()
	fs := &FileStorage{
		file:   file,
		index:  index,
		logger: logger,
	}

	if err := fs.replay(); err != nil {
		file.Close()
		return nil, err
	}

	return fs, nil
}

// replay rebuilds the index from the journal. Lines have no length limit.
// A trailing line without a newline is the remainder of an append that
// failed midway; it is cut off so later appends start on a clean line.
func (fs *FileStorage) replay() error {
	reader := bufio.NewReader(fs.file)

	lines := 0
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				fs.logger.Warn("discarding incomplete journal tail", zap.Int("bytes", len(line)))
				if err := fs.file.Truncate(fs.size); err != nil {
					return fmt.Errorf("failed to truncate journal: %w", err)
				}
			}
			break
		}
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}

		lines++
		fs.size += int64(len(line))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var e journalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("failed to parse journal line %d: %w", lines, err)
		}

		switch e.Op {
		case opInsert:
			if e.Link != nil {
				fs.index.put(*e.Link)
			}
		case opClick:
			if ml, ok := fs.index.byCode[e.Code]; ok {
				ml.Clicks++
			}
		case opAdmin:
			if e.Admin != nil {
				fs.index.admins[e.Admin.Username] = *e.Admin
			}
		default:
			fs.logger.Warn("skipping unknown journal entry", zap.String("op", e.Op), zap.Int("line", lines))
		}
	}

	fs.logger.Info("storage file replayed", zap.Int("entries", lines))
	return nil
}

// append writes e and syncs the file. On failure the journal is cut back to
// its last complete line. Caller holds fs.mu.
func (fs *FileStorage) append(e journalEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	line := append(b, '\n')

	if _, err := fs.file.Write(line); err != nil {
		fs.rollback()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := fs.file.Sync(); err != nil {
		fs.rollback()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	fs.size += int64(len(line))
	return nil
}

func (fs *FileStorage) rollback() {
	if err := fs.file.Truncate(fs.size); err != nil {
		fs.logger.Error("failed to cut back journal", zap.Int64("size", fs.size), zap.Error(err))
	}
}

func (fs *FileStorage) FindByOriginal(ctx context.Context, original string) (*Link, error) {
	return fs.index.FindByOriginal(ctx, original)
}

func (fs *FileStorage) FindByCode(ctx context.Context, code string) (*Link, error) {
	return fs.index.FindByCode(ctx, code)
}

func (fs *FileStorage) Insert(ctx context.Context, original, code string) (*Link, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.index.FindByCode(ctx, code); err == nil {
		return nil, ErrConflict
	}

	l := Link{Code: code, Original: original, CreatedAt: fs.index.now().UTC()}
	if err := fs.append(journalEntry{Op: opInsert, Link: &l}); err != nil {
		return nil, err
	}

	fs.index.mu.Lock()
	fs.index.put(l)
	fs.index.mu.Unlock()

	return &l, nil
}

func (fs *FileStorage) IncrementClicks(ctx context.Context, code string) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.index.FindByCode(ctx, code); err != nil {
		return 0, err
	}

	if err := fs.append(journalEntry{Op: opClick, Code: code}); err != nil {
		return 0, err
	}

	return fs.index.IncrementClicks(ctx, code)
}

func (fs *FileStorage) ListAll(ctx context.Context) ([]Link, error) {
	return fs.index.ListAll(ctx)
}

func (fs *FileStorage) FindAdmin(ctx context.Context, username string) (*Admin, error) {
	return fs.index.FindAdmin(ctx, username)
}

func (fs *FileStorage) CreateAdmin(ctx context.Context, a Admin) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.index.FindAdmin(ctx, a.Username); err == nil {
		return ErrConflict
	}

	if err := fs.append(journalEntry{Op: opAdmin, Admin: &a}); err != nil {
		return err
	}

	return fs.index.CreateAdmin(ctx, a)
}

func (fs *FileStorage) PingContext(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := fs.file.Stat(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.file.Close()
}
