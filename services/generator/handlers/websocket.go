// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/synth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is the envelope for every websocket frame.
type wsMessage struct {
	Event     string          `json:"event"`
	Progress  *synth.Progress `json:"progress,omitempty"`
	DatasetID string          `json:"dataset_id,omitempty"`
	Metadata  *store.Metadata `json:"metadata,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// GenerateWS streams dataset generation over a websocket. The client
// sends one request frame, receives a progress frame per finished
// domain, and a final complete frame with the stored dataset metadata.
func (s *Server) GenerateWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	s.Metrics.ActiveStreams.Inc()
	defer s.Metrics.ActiveStreams.Dec()

	var req synth.Request
	if err := ws.ReadJSON(&req); err != nil {
		s.sendWS(ws, nil, wsMessage{Event: "error", Error: "invalid request frame: " + err.Error()})
		return
	}
	profileName, err := validation.SanitizeName(req.Profile)
	if err != nil {
		s.sendWS(ws, nil, wsMessage{Event: "error", Error: "invalid profile name: " + err.Error()})
		return
	}
	req.Profile = profileName
	if err := req.Validate(); err != nil {
		s.sendWS(ws, nil, wsMessage{Event: "error", Error: "invalid request: " + err.Error()})
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	profile, err := s.Engine.Profile(req.Profile)
	if err != nil {
		s.sendWS(ws, nil, wsMessage{Event: "error", Error: err.Error()})
		return
	}

	s.Logger.Info("websocket generation started", "profile", req.Profile, "subjects", req.Subjects)

	// Concurrent domain goroutines all report progress; serialize the
	// socket writes.
	var writeMu sync.Mutex
	start := time.Now()
	tables, err := synth.Generate(c.Request.Context(), profile, req, func(p synth.Progress) {
		s.sendWS(ws, &writeMu, wsMessage{Event: "progress", Progress: &p})
	})
	if err != nil {
		s.Metrics.RecordGeneration(req.Profile, 0, nil, false)
		s.sendWS(ws, &writeMu, wsMessage{Event: "error", Error: err.Error()})
		return
	}

	meta := store.Metadata{
		ID:        uuid.NewString(),
		Profile:   req.Profile,
		Subjects:  req.Subjects,
		Seed:      req.Seed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Registry.Put(c.Request.Context(), meta, tables); err != nil {
		s.sendWS(ws, &writeMu, wsMessage{Event: "error", Error: "store failed: " + err.Error()})
		return
	}
	stored, err := s.Registry.Get(c.Request.Context(), meta.ID)
	if err != nil {
		s.sendWS(ws, &writeMu, wsMessage{Event: "error", Error: "store readback failed: " + err.Error()})
		return
	}

	s.Metrics.RecordGeneration(req.Profile, time.Since(start).Seconds(), stored.Rows, true)
	s.sendWS(ws, &writeMu, wsMessage{Event: "complete", DatasetID: stored.ID, Metadata: &stored})
	s.Logger.Info("websocket generation complete", "dataset_id", stored.ID)
}

func (s *Server) sendWS(ws *websocket.Conn, mu *sync.Mutex, msg wsMessage) {
	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}
	if err := ws.WriteJSON(msg); err != nil {
		s.Logger.Warn("websocket write failed", "error", err)
	}
}
