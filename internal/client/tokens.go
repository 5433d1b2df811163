package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// TokenPair is the persisted session state.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// tokenStore keeps the session tokens in memory and mirrors them to a file
// so sessions survive process restarts. All methods are safe for concurrent
// use.
type tokenStore struct {
	mu   sync.Mutex
	path string
	pair TokenPair
}

func newTokenStore(path string) *tokenStore {
	ts := &tokenStore{path: path}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &ts.pair)
		}
	}
	return ts
}

func (ts *tokenStore) Get() TokenPair {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.pair
}

func (ts *tokenStore) Set(pair TokenPair) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.pair = pair
	return ts.persist()
}

// Clear wipes the in-memory pair and removes the file.
func (ts *tokenStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.pair = TokenPair{}
	if ts.path != "" {
		_ = os.Remove(ts.path)
	}
}

func (ts *tokenStore) persist() error {
	if ts.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ts.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ts.pair, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ts.path, data, 0o600)
}
