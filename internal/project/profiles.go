package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/piwi3910/CutStock/internal/model"
)

// Profile is a named set of policy settings, used as a comparison scenario.
type Profile struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    model.Settings `json:"settings"`
}

// DefaultProfilesPath returns the default file path for saved profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.json")
}

// SaveProfiles saves profiles to a JSON file.
func SaveProfiles(path string, profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProfiles loads profiles from a JSON file. Settings omitted from an
// entry take their defaults. Returns an empty slice if the file does not exist.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Profile{}, nil
		}
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(raw))
	for _, r := range raw {
		p := Profile{Settings: model.DefaultSettings()}
		if err := json.Unmarshal(r, &p); err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, errors.New("profile has no name")
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
