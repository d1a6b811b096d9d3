// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
)

// ErrNotFound is returned when a dataset or domain does not exist.
var ErrNotFound = errors.New("dataset not found")

// Metadata describes one stored dataset.
type Metadata struct {
	ID        string         `json:"id"`
	Profile   string         `json:"profile"`
	Subjects  int            `json:"subjects"`
	Seed      int64          `json:"seed"`
	CreatedAt time.Time      `json:"created_at"`
	Domains   []string       `json:"domains"`
	Rows      map[string]int `json:"rows"`
}

// Registry stores datasets under ds:<id>:meta and ds:<id>:dom:<domain>.
// A zero TTL keeps datasets until deleted.
type Registry struct {
	db  *DB
	ttl time.Duration
}

// NewRegistry wraps db. ttl, when positive, expires every key of a
// dataset that long after Put.
func NewRegistry(db *DB, ttl time.Duration) *Registry {
	return &Registry{db: db, ttl: ttl}
}

func metaKey(id string) []byte {
	return []byte("ds:" + id + ":meta")
}

func domainKey(id, domain string) []byte {
	return []byte("ds:" + id + ":dom:" + domain)
}

// Put stores a dataset's metadata and domain tables. Domain tables can
// exceed a single transaction, so writes go through a write batch; a
// dataset is visible once the batch is flushed.
func (r *Registry) Put(ctx context.Context, meta Metadata, tables map[string]*dataset.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	meta.Domains = meta.Domains[:0]
	if meta.Rows == nil {
		meta.Rows = make(map[string]int, len(tables))
	}
	for domain, t := range tables {
		meta.Domains = append(meta.Domains, domain)
		meta.Rows[domain] = t.NumRows()
	}
	sort.Strings(meta.Domains)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", meta.ID, err)
	}

	wb := r.db.NewWriteBatch()
	defer wb.Cancel()

	if err := wb.SetEntry(r.entry(metaKey(meta.ID), metaJSON)); err != nil {
		return fmt.Errorf("store metadata for %s: %w", meta.ID, err)
	}
	for domain, t := range tables {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal %s/%s: %w", meta.ID, domain, err)
		}
		if err := wb.SetEntry(r.entry(domainKey(meta.ID, domain), data)); err != nil {
			return fmt.Errorf("store %s/%s: %w", meta.ID, domain, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush dataset %s: %w", meta.ID, err)
	}
	return nil
}

func (r *Registry) entry(key, value []byte) *badger.Entry {
	e := badger.NewEntry(key, value)
	if r.ttl > 0 {
		e = e.WithTTL(r.ttl)
	}
	return e
}

// Get returns the metadata of a stored dataset.
func (r *Registry) Get(ctx context.Context, id string) (Metadata, error) {
	var meta Metadata
	if err := ctx.Err(); err != nil {
		return meta, err
	}
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

// GetDomain returns one domain table of a stored dataset.
func (r *Registry) GetDomain(ctx context.Context, id, domain string) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var table dataset.Table
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(domainKey(id, domain))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, id, domain)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &table)
		})
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// List returns the metadata of every stored dataset, newest first.
func (r *Registry) List(ctx context.Context) ([]Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []Metadata
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("ds:")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) < 5 || string(key[len(key)-5:]) != ":meta" {
				continue
			}
			var meta Metadata
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			out = append(out, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a dataset's metadata and all domain tables. Deleting
// an unknown dataset returns ErrNotFound.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	meta, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(metaKey(id)); err != nil {
			return fmt.Errorf("delete metadata for %s: %w", id, err)
		}
		for _, domain := range meta.Domains {
			if err := txn.Delete(domainKey(id, domain)); err != nil {
				return fmt.Errorf("delete %s/%s: %w", id, domain, err)
			}
		}
		return nil
	})
}
