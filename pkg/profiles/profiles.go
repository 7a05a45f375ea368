// Package profiles contains named request profile (YAML/JSON) helpers.
package profiles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Profile describes one named fetch target: where to send the request and
// which transport settings to use.
type Profile struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Query          map[string]string `json:"query" yaml:"query"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Registry holds the profiles loaded from one file, keyed by id.
type Registry struct {
	profiles []Profile
	index    map[string]Profile
}

type registryFile struct {
	Profiles []Profile `json:"profiles" yaml:"profiles"`
}

const defaultTimeoutSeconds = 15

// All returns a copy of the loaded profiles in file order.
func (r *Registry) All() []Profile {
	if r == nil || len(r.profiles) == 0 {
		return nil
	}
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// ByID returns the profile for the given id, if loaded.
func (r *Registry) ByID(id string) (Profile, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Profile{}, false
	}
	p, ok := r.index[id]
	return p, ok
}

// LoadRegistry loads a profile registry from file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("profiles file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	file, err := parseRegistryFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	idx := make(map[string]Profile, len(file.Profiles))
	for i := range file.Profiles {
		p := sanitizeProfile(file.Profiles[i])
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profile[%d]: %w", i, err)
		}
		if _, exists := idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		file.Profiles[i] = p
		idx[p.ID] = p
	}

	return &Registry{profiles: file.Profiles, index: idx}, nil
}

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file registryFile
		if err := d.fn(data, &file); err == nil {
			return file, nil
		}
	}

	return registryFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func sanitizeProfile(p Profile) Profile {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.URL = strings.TrimSpace(p.URL)
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))

	if p.Headers == nil {
		p.Headers = map[string]string{}
	}
	if p.Query == nil {
		p.Query = map[string]string{}
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaultTimeoutSeconds
	}

	return p
}

func validateProfile(p Profile) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for profile %q", p.ID)
	}
	if p.URL == "" {
		return fmt.Errorf("url is required for profile %q", p.ID)
	}
	return nil
}

// Timeout returns the per-request timeout for the profile.
func (p Profile) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}
