// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package glinet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache file names inside the cache directory
const (
	credentialFile     = "login.json"
	apiDescriptionFile = "api_reference.json"
	defaultCacheFolder = "go-glinet"
)

// Credential is the persisted login record. Hash is the crypt-style password
// hash, never the plain password.
type Credential struct {
	Username string `json:"username"`
	Hash     string `json:"hash"`
	Salt     string `json:"salt"`
	Alg      string `json:"alg"`
}

// Cache persists credentials and the API description in a per-user directory
type Cache struct {
	dir string
}

// DefaultCacheDir returns the default cache directory ($XDG_CACHE_HOME/go-glinet
// on Linux). The directory is not created.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("cannot determine cache directory: %w", err)
		}
		base = home
	}
	return filepath.Join(base, defaultCacheFolder), nil
}

// NewCache returns a cache rooted at dir. An empty dir selects DefaultCacheDir,
// which is created on demand. An explicit dir must already exist.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultCacheDir()
		if err != nil {
			return nil, err
		}
		return &Cache{dir: d}, nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cache directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache directory %s: not a directory", dir)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory
func (c *Cache) Dir() string {
	return c.dir
}

// CredentialPath returns the path of the credential file
func (c *Cache) CredentialPath() string {
	return filepath.Join(c.dir, credentialFile)
}

// APIDescriptionPath returns the path of the cached API description
func (c *Cache) APIDescriptionPath() string {
	return filepath.Join(c.dir, apiDescriptionFile)
}

// LoadCredential reads the cached credential. Returns nil, nil when no
// credential is cached.
func (c *Cache) LoadCredential() (*Credential, error) {
	data, err := os.ReadFile(c.CredentialPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential cache: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential cache: %w", err)
	}
	return &cred, nil
}

// SaveCredential writes cred atomically with owner-only permissions
func (c *Cache) SaveCredential(cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	return c.writeFile(c.CredentialPath(), data)
}

// DeleteCredential removes the credential file. A missing file is not an error.
func (c *Cache) DeleteCredential() error {
	if err := os.Remove(c.CredentialPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credential cache: %w", err)
	}
	return nil
}

// LoadAPIDescription reads the cached API description document. Returns
// nil, nil when nothing is cached.
func (c *Cache) LoadAPIDescription() ([]byte, error) {
	data, err := os.ReadFile(c.APIDescriptionPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read api description cache: %w", err)
	}
	return data, nil
}

// SaveAPIDescription writes the normalised API description document
func (c *Cache) SaveAPIDescription(doc []byte) error {
	return c.writeFile(c.APIDescriptionPath(), doc)
}

// Flush deletes the whole cache directory
func (c *Cache) Flush() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("flush cache %s: %w", c.dir, err)
	}
	return nil
}

// writeFile writes data via a temp file and rename so readers never see a
// partial record
func (c *Cache) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}

	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, closeErr)
	}

	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
