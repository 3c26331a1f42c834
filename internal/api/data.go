package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianstephens/habitlit/internal/constants"
	apperrors "github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/remotesync"
	"github.com/julianstephens/habitlit/internal/storage"
)

// GET /api/achievements?filter=locked|unlocked
func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	var list []models.Achievement
	switch r.URL.Query().Get("filter") {
	case "locked":
		list = s.engine.Locked()
	case "unlocked":
		list = s.engine.Unlocked()
	default:
		list = s.engine.Achievements()
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p := s.engine.Progress()
	if s.metrics != nil {
		s.metrics.SetProgress(p)
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportData()
	if err != nil {
		writeErr(w, err)
		return
	}
	name := fmt.Sprintf("%s-export-%s.json", constants.AppName, s.clock().Format("20060102"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, data)
}

// POST /api/import replaces every habit with the posted export
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		writeErr(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	if err := s.store.ImportData(string(body)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": len(s.store.Habits())})
}

// POST /api/sync stores the pushed collection as the server snapshot
func (s *Server) handleSyncPush(w http.ResponseWriter, r *http.Request) {
	var req remotesync.PushRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.Habits == nil {
		req.Habits = []models.Habit{}
	}

	now := s.clock().UTC().Truncate(time.Millisecond)
	data, err := json.Marshal(remotesync.Snapshot{Habits: req.Habits, Timestamp: now})
	if err != nil {
		writeErr(w, err)
		return
	}
	s.writer.Enqueue(constants.KeySyncRemote, string(data))
	if err := s.writer.Flush(r.Context()); err != nil {
		writeErr(w, err)
		return
	}
	logger.Info("Sync snapshot stored", "count", len(req.Habits))
	writeJSON(w, http.StatusOK, remotesync.Ack{ServerTimestamp: now, Count: len(req.Habits)})
}

// GET /api/sync returns the last pushed snapshot
func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loadSnapshot(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) loadSnapshot(ctx context.Context) (remotesync.Snapshot, error) {
	raw, err := s.provider.Get(ctx, constants.KeySyncRemote)
	if errors.Is(err, storage.ErrNotFound) {
		return remotesync.Snapshot{Habits: []models.Habit{}, Timestamp: s.clock().UTC()}, nil
	}
	if err != nil {
		return remotesync.Snapshot{}, err
	}
	var snap remotesync.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return remotesync.Snapshot{}, fmt.Errorf("stored sync snapshot is corrupt: %w", err)
	}
	return snap, nil
}
