// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides the small key/value store that webhook triggers
// use to remember remote subscription ids.
package store

import (
	"context"
	"fmt"

	pieceserrors "github.com/tombee/pieces/pkg/errors"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put sets the value for key.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Backends understood by Open.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is sqlite (default), redis, or memory
	Backend string `yaml:"backend"`

	// Path is the SQLite database file
	Path string `yaml:"path"`

	// RedisURL is a redis:// connection URL
	RedisURL string `yaml:"redis_url"`

	// Prefix is prepended to every Redis key
	Prefix string `yaml:"prefix"`
}

// Open creates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		return NewSQLite(cfg.Path)
	case BackendRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.Prefix)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, &pieceserrors.ConfigError{
			Key:    "state.backend",
			Reason: fmt.Sprintf("unknown backend %q (must be sqlite, redis, or memory)", cfg.Backend),
		}
	}
}

// Namespace returns a view of s whose keys are prefixed with ns.
func Namespace(s Store, ns string) Store {
	return &namespaced{Store: s, prefix: ns + ":"}
}

type namespaced struct {
	Store
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.Store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Put(ctx context.Context, key, value string) error {
	return n.Store.Put(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.Store.Delete(ctx, n.prefix+key)
}

// Close is a no-op; the parent store owns the backend.
func (n *namespaced) Close() error {
	return nil
}
