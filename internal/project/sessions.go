package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/piwi3910/TakeoffPro/internal/model"
)

// SessionExt is the file extension used for saved takeoff sessions.
const SessionExt = ".takeoff"

// DefaultSessionsDir returns the default directory for saved sessions.
func DefaultSessionsDir() string {
	return filepath.Join(DefaultConfigDir(), "sessions")
}

// SaveSession writes a takeoff session, including soft-deleted measurements, to a JSON file.
func SaveSession(path string, s model.Session) error {
	return writeJSON(path, s)
}

// LoadSession reads a takeoff session from a JSON file.
func LoadSession(path string) (model.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Session{}, err
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Session{}, err
	}
	if s.ProjectID == "" {
		return model.Session{}, errors.New("session file has no project id")
	}
	if s.Plans == nil {
		s.Plans = []model.Plan{}
	}
	for i := range s.Plans {
		if s.Plans[i].Scale.Validate() != nil {
			s.Plans[i].Scale = 1
		}
		if s.Plans[i].Measurements == nil {
			s.Plans[i].Measurements = []model.Measurement{}
		}
	}
	if s.ActivePlan >= len(s.Plans) || s.ActivePlan < 0 {
		s.ActivePlan = 0
	}
	return s, nil
}

// ListSessions returns the session files in dir, newest name last.
// A missing directory yields an empty list.
func ListSessions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	paths := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SessionExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
