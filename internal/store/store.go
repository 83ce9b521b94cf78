// Package store persists loop state under a working root.
//
// State for a change lives at <root>/.ralph/state/<change-ref>/: a small
// status record (loop.json) rewritten with temp-file-then-atomic-rename, and
// an append-only history log (history.jsonl) with one iteration per line.
// Readers never observe a torn status record; the history log is the source
// of truth for iteration order.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphloop/ralph/internal/models"
)

// StateVersion is the on-disk format version of the status record.
const StateVersion = 1

const (
	stateDirName    = ".ralph"
	statusFileName  = "loop.json"
	historyFileName = "history.jsonl"
)

// CorruptStateError means persisted state exists but cannot be parsed. It is
// never auto-repaired: surfacing it beats silently discarding history.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt loop state at %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// Store reads and writes loop state for one working root.
type Store struct {
	root string
}

// New creates a store rooted at the given working root. The root is resolved
// once per run and never re-resolved mid-loop.
func New(workingRoot string) (*Store, error) {
	if err := models.ValidateWorkingRoot(workingRoot); err != nil {
		return nil, err
	}
	return &Store{root: workingRoot}, nil
}

// Dir returns the state directory for a change.
func (s *Store) Dir(ref models.ChangeRef) string {
	return filepath.Join(s.root, stateDirName, "state", ref.String())
}

func (s *Store) statusPath(ref models.ChangeRef) string {
	return filepath.Join(s.Dir(ref), statusFileName)
}

func (s *Store) historyPath(ref models.ChangeRef) string {
	return filepath.Join(s.Dir(ref), historyFileName)
}

// Load returns the persisted state for a change, or a fresh Idle state when
// nothing has been persisted yet. Existing state that fails to parse is a
// *CorruptStateError.
func (s *Store) Load(ref models.ChangeRef) (*models.LoopState, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	state, err := s.readStatus(ref)
	if err != nil {
		return nil, err
	}

	history, err := s.readHistory(ref, state.IterationCount)
	if err != nil {
		return nil, err
	}

	// The history append commits before the status rewrite, so a crash
	// between the two leaves one extra history line. The log wins.
	switch {
	case len(history) == state.IterationCount:
	case len(history) == state.IterationCount+1:
		state.IterationCount = len(history)
	default:
		return nil, &CorruptStateError{
			Path: s.historyPath(ref),
			Err:  fmt.Errorf("history has %d entries but status records %d iterations", len(history), state.IterationCount),
		}
	}

	state.History = history
	return state, nil
}

func (s *Store) readStatus(ref models.ChangeRef) (*models.LoopState, error) {
	path := s.statusPath(ref)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &models.LoopState{
			Version:     StateVersion,
			ChangeRef:   ref,
			WorkingRoot: s.root,
			Status:      models.StatusIdle,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read status record: %w", err)
	}

	var state models.LoopState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, &CorruptStateError{Path: path, Err: err}
	}
	if state.Version != StateVersion {
		return nil, &CorruptStateError{Path: path, Err: fmt.Errorf("unsupported state version %d", state.Version)}
	}
	if err := state.Status.Validate(); err != nil {
		return nil, &CorruptStateError{Path: path, Err: err}
	}
	state.ChangeRef = ref
	state.WorkingRoot = s.root
	return &state, nil
}

func (s *Store) readHistory(ref models.ChangeRef, recordedCount int) ([]models.Iteration, error) {
	path := s.historyPath(ref)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history log: %w", err)
	}
	defer file.Close()

	var history []models.Iteration
	sc := bufio.NewScanner(file)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var iter models.Iteration
		if err := json.Unmarshal(line, &iter); err != nil {
			// A torn final line from an append the status record never
			// acknowledged is the one tolerated parse failure.
			if len(history) == recordedCount {
				break
			}
			return nil, &CorruptStateError{Path: path, Err: err}
		}
		if iter.Index != len(history)+1 {
			return nil, &CorruptStateError{
				Path: path,
				Err:  fmt.Errorf("iteration %d out of order at position %d", iter.Index, len(history)+1),
			}
		}
		history = append(history, iter)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan history log: %w", err)
	}
	return history, nil
}

// AppendIteration durably records one iteration and the updated counters.
// The iteration's index must be the next in sequence. The history append is
// the commit point; the status rewrite follows atomically.
func (s *Store) AppendIteration(state *models.LoopState, iter models.Iteration) error {
	if iter.Index != state.IterationCount+1 {
		return fmt.Errorf("iteration index %d does not follow count %d", iter.Index, state.IterationCount)
	}

	if err := os.MkdirAll(s.Dir(state.ChangeRef), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	line, err := json.Marshal(iter)
	if err != nil {
		return fmt.Errorf("encode iteration: %w", err)
	}

	file, err := os.OpenFile(s.historyPath(state.ChangeRef), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("append history log: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync history log: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close history log: %w", err)
	}

	state.History = append(state.History, iter)
	state.IterationCount = len(state.History)
	return s.writeStatus(state)
}

// SetStatus persists a status transition.
func (s *Store) SetStatus(state *models.LoopState, status models.LoopStatus) error {
	if err := status.Validate(); err != nil {
		return err
	}
	state.Status = status
	return s.writeStatus(state)
}

func (s *Store) writeStatus(state *models.LoopState) error {
	state.Version = StateVersion
	state.UpdatedAt = time.Now().UTC()

	dir := s.Dir(state.ChangeRef)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status record: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, statusFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp status record: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp status record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp status record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp status record: %w", err)
	}
	if err := os.Rename(tmpPath, s.statusPath(state.ChangeRef)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace status record: %w", err)
	}
	return nil
}
