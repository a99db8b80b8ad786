package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/rxdesk/core/protocol"
)

const (
	ext     = ".jsonl"
	stripes = 64
)

// FileArchive stores one JSON-lines file per session under root. Writes to
// a session are serialized through a fixed set of striped locks.
type FileArchive struct {
	root  string
	locks [stripes]sync.Mutex
}

// NewFileArchive creates a FileArchive rooted at root. The directory is
// created on first write.
func NewFileArchive(root string) *FileArchive {
	return &FileArchive{root: root}
}

func (a *FileArchive) path(sessionID string) (string, error) {
	if sessionID == "" || strings.HasPrefix(sessionID, ".") || strings.ContainsAny(sessionID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	return filepath.Join(a.root, sessionID+ext), nil
}

func (a *FileArchive) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &a.locks[h.Sum32()%stripes]
}

func (a *FileArchive) Record(_ context.Context, sessionID string, ex protocol.Exchange) error {
	path, err := a.path(sessionID)
	if err != nil {
		return err
	}

	line, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRecordFailed, sessionID, err)
	}
	line = append(line, '\n')

	l := a.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRecordFailed, sessionID, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRecordFailed, sessionID, err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %v", ErrRecordFailed, sessionID, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRecordFailed, sessionID, err)
	}
	return nil
}

func (a *FileArchive) Load(_ context.Context, sessionID string) ([]protocol.Exchange, error) {
	path, err := a.path(sessionID)
	if err != nil {
		return nil, err
	}

	l := a.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, sessionID, err)
	}
	defer f.Close()

	var out []protocol.Exchange
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ex protocol.Exchange
		if err := json.Unmarshal(scanner.Bytes(), &ex); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrLoadFailed, sessionID, line, err)
		}
		out = append(out, ex)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, sessionID, err)
	}
	return out, nil
}
