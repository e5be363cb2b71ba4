// Package hostharness implements a standalone host simulator: a process that
// speaks the host side of the message-exchange protocol (4.B) over plain
// HTTP, answering every request kind a guest module can issue during a
// perform, so the rest of this module can be exercised without a real
// embedding host.
package hostharness

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fixtures is the on-disk, YAML-configured canned response table: the
// provider.json and map documents a "file-read" should resolve to, and the
// HTTP responses an "http-fetch" should produce when no relay client is
// connected to answer it live.
type Fixtures struct {
	mu sync.RWMutex

	Files     map[string]string        `yaml:"files"`
	Responses map[string]FixtureResult `yaml:"responses"`
}

// FixtureResult is one canned HTTP response, keyed by "METHOD url" in the
// Responses map.
type FixtureResult struct {
	Status  int                 `yaml:"status"`
	Headers map[string][]string `yaml:"headers"`
	Body    string              `yaml:"body"`
}

// LoadFixtures reads a YAML fixture file. A missing path is not an error:
// the harness simply starts with empty tables and relies entirely on a
// connected relay client.
func LoadFixtures(path string) (*Fixtures, error) {
	f := &Fixtures{Files: map[string]string{}, Responses: map[string]FixtureResult{}}
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hostharness: read fixtures: %w", err)
	}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("hostharness: parse fixtures: %w", err)
	}
	if f.Files == nil {
		f.Files = map[string]string{}
	}
	if f.Responses == nil {
		f.Responses = map[string]FixtureResult{}
	}
	return f, nil
}

func (f *Fixtures) file(url string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.Files[url]
	return v, ok
}

func (f *Fixtures) response(method, url string) (FixtureResult, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.Responses[method+" "+url]
	return v, ok
}

// Reload replaces the fixture tables in place, letting a running harness
// pick up edits without restarting (used by the admin reload endpoint).
func (f *Fixtures) Reload(path string) error {
	next, err := LoadFixtures(path)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.Files = next.Files
	f.Responses = next.Responses
	f.mu.Unlock()
	return nil
}
