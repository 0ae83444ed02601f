// Package storage keeps the session history journal: every finished phase,
// completed or abandoned, as one JSON array on disk. The journal is a record
// for the user; timer state is never restored from it.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adibhanna/pomodoro/internal/log"
	"github.com/adibhanna/pomodoro/internal/models"
)

// DateLayout is the key used for per-day queries.
const DateLayout = "2006-01-02"

type Storage struct {
	mu      sync.Mutex
	dataDir string
}

// New opens the journal in dataDir, creating the directory if needed.
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Storage{dataDir: dataDir}, nil
}

func (s *Storage) sessionsFile() string {
	return filepath.Join(s.dataDir, "sessions.json")
}

// Path returns the journal file location.
func (s *Storage) Path() string {
	return s.sessionsFile()
}

// ExportDir is where history exports are written.
func (s *Storage) ExportDir() string {
	return filepath.Join(s.dataDir, "exports")
}

// SaveSession stores a finished session, replacing an earlier entry with the
// same ID. A session without an ID gets one.
func (s *Storage) SaveSession(session models.Session) error {
	if !session.Finished() {
		return fmt.Errorf("saving session %s: session has no end time", session.ID)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.readLocked()
	if err != nil {
		return err
	}

	found := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session
			found = true
			break
		}
	}
	if !found {
		sessions = append(sessions, session)
	}

	if err := s.writeLocked(sessions); err != nil {
		log.ErrorErr(log.CatHistory, "Failed to save session", err, "id", session.ID)
		return err
	}
	log.Debug(log.CatHistory, "Saved session", "id", session.ID, "type", session.Type, "completed", session.Completed)
	return nil
}

// GetAllSessions returns every journaled session ordered by start time.
func (s *Storage) GetAllSessions() ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
	return sessions, nil
}

// GetSessionsByDate returns the sessions that started on date (YYYY-MM-DD,
// local time).
func (s *Storage) GetSessionsByDate(date string) ([]models.Session, error) {
	if _, err := time.ParseInLocation(DateLayout, date, time.Local); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	allSessions, err := s.GetAllSessions()
	if err != nil {
		return nil, err
	}

	var sessions []models.Session
	for _, session := range allSessions {
		if session.StartTime.Local().Format(DateLayout) == date {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// GetDayStats summarizes one day. Only completed focus sessions count toward
// SessionsCount and FocusSeconds; abandoned ones of any phase are counted
// separately.
func (s *Storage) GetDayStats(date string) (models.DayStats, error) {
	sessions, err := s.GetSessionsByDate(date)
	if err != nil {
		return models.DayStats{}, err
	}

	stats := models.DayStats{Date: date, Sessions: sessions}
	for _, session := range sessions {
		if !session.Completed {
			stats.AbandonedCount++
			continue
		}
		seconds := int(session.Elapsed().Seconds())
		switch session.Type {
		case models.StateWork:
			stats.SessionsCount++
			stats.FocusSeconds += seconds
		case models.StateShortBreak:
			stats.ShortBreaksCount++
			stats.BreakSeconds += seconds
		case models.StateLongBreak:
			stats.LongBreaksCount++
			stats.BreakSeconds += seconds
		}
	}
	return stats, nil
}

// ResetAllData removes the journal.
func (s *Storage) ResetAllData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionsFile()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session history: %w", err)
	}
	return nil
}

func (s *Storage) readLocked() ([]models.Session, error) {
	data, err := os.ReadFile(s.sessionsFile())
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Session{}, nil
		}
		return nil, fmt.Errorf("reading session history: %w", err)
	}

	var sessions []models.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("parsing session history %s: %w", s.sessionsFile(), err)
	}
	return sessions, nil
}

func (s *Storage) writeLocked(sessions []models.Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session history: %w", err)
	}

	temp, err := os.CreateTemp(s.dataDir, ".sessions.json.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing session history: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.sessionsFile()); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
