// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevel_toSlogLevel(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level(99), slog.LevelInfo}, // Unknown defaults to Info
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := tt.level.toSlogLevel(); got != tt.want {
				t.Errorf("Level.toSlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_DefaultConfig(t *testing.T) {
	logger := New(Config{})
	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.slog == nil {
		t.Error("logger.slog is nil")
	}
	defer logger.Close()
}

func TestNew_FileLogging(t *testing.T) {
	dir := t.TempDir()
	logger := New(Config{
		Level:   LevelInfo,
		LogDir:  dir,
		Service: "generator",
		Quiet:   true,
	})
	logger.Info("dataset generated", "dataset_id", "abc", "subjects", 100)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	filename := "generator_" + time.Now().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "dataset generated") {
		t.Errorf("log file missing message, got: %s", data)
	}
	if !strings.Contains(string(data), `"service":"generator"`) {
		t.Errorf("log file missing service attribute, got: %s", data)
	}
}

func TestLogger_With(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Exporter: exporter, Service: "quality"})
	defer logger.Close()

	child := logger.With("run_id", "r1")
	if child == logger {
		t.Error("With() should return a new logger")
	}
	child.Info("scoring started")

	waitForEntries(t, exporter, 1)
	entries := exporter.Entries()
	if entries[0].Message != "scoring started" {
		t.Errorf("got message %q", entries[0].Message)
	}
	if entries[0].Service != "quality" {
		t.Errorf("got service %q", entries[0].Service)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Level: LevelWarn, Quiet: true, Exporter: exporter})
	defer logger.Close()

	logger.Debug("ignored")
	logger.Info("ignored too")
	logger.Warn("kept")
	logger.Error("kept as well")

	waitForEntries(t, exporter, 2)
	if got := len(exporter.Entries()); got != 2 {
		t.Errorf("expected 2 exported entries, got %d", got)
	}
}

func TestBufferedExporter(t *testing.T) {
	exporter := NewBufferedExporter()
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Message:   "hello",
		Attrs:     map[string]any{"k": "v"},
	}
	if err := exporter.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	entries := exporter.Entries()
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	// Returned slice is a copy.
	entries[0].Message = "mutated"
	if exporter.Entries()[0].Message != "hello" {
		t.Error("Entries() should return a copy")
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewWriterExporter(&buf)
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     LevelError,
		Message:   "flux query failed",
	}
	if err := exporter.Export(context.Background(), entry); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if !strings.Contains(buf.String(), "flux query failed") {
		t.Errorf("writer output missing message: %s", buf.String())
	}
}

func TestArgsToMap(t *testing.T) {
	got := argsToMap([]any{"a", 1, "b", "two", 3, "dangling-key-ignored"})
	if got["a"] != 1 || got["b"] != "two" {
		t.Errorf("argsToMap() = %v", got)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandPath("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("expandPath(~/logs) = %q", got)
	}
	if got := expandPath("/var/log"); got != "/var/log" {
		t.Errorf("expandPath(/var/log) = %q", got)
	}
}

// waitForEntries polls the exporter because Export runs on a goroutine.
func waitForEntries(t *testing.T, e *BufferedExporter, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(e.Entries()) >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d exported entries, have %d", n, len(e.Entries()))
}
