// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/yandex/hvdf/core"
	"github.com/yandex/hvdf/core/config"
)

// memStore is in-memory persistence, that is injected into storage and task
// plugins instead of real database. It keeps only document counts.
type memStore struct {
	documents atomic.Int64

	mu          sync.Mutex
	collections map[string]int
}

var (
	_ core.SampleWriter    = (*memStore)(nil)
	_ core.CollectionAdmin = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{collections: map[string]int{}}
}

func (s *memStore) Write(_ context.Context, collection string, docs []config.Document) error {
	s.mu.Lock()
	s.collections[collection] += len(docs)
	s.mu.Unlock()
	s.documents.Add(int64(len(docs)))
	zap.L().Debug("Documents written", zap.String("collection", collection), zap.Int("documents", len(docs)))
	return nil
}

func (s *memStore) Collections(_ context.Context, prefix string) ([]string, error) {
	return s.collectionNames(prefix), nil
}

func (s *memStore) EnsureIndex(_ context.Context, collection string, keys config.Document, _ config.Document) error {
	zap.L().Debug("Index ensured", zap.String("collection", collection), zap.Strings("keys", keys.Keys()))
	return nil
}

func (s *memStore) Drop(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Documents returns number of documents written, including dropped.
func (s *memStore) Documents() int64 { return s.documents.Load() }

func (s *memStore) collectionNames(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.collections {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
