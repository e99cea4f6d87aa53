/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/friendsincode/skald_radio/internal/liquidsoap"
)

type queuePushRequest struct {
	Path     string `json:"path"`
	Category string `json:"category"`
}

type queueClearRequest struct {
	Queue string `json:"queue"`
}

// handleQueueList resolves pending request IDs to their metadata so operators
// can see what the engine will play next.
func (a *API) handleQueueList(w http.ResponseWriter, r *http.Request) {
	queues := map[string][]map[string]string{}
	for _, queue := range []string{liquidsoap.QueueNormal, liquidsoap.QueueModeration} {
		rids, err := a.engine.QueueRIDs(r.Context(), queue)
		if err != nil {
			writeError(w, http.StatusBadGateway, "engine_unreachable")
			return
		}
		entries := make([]map[string]string, 0, len(rids))
		for _, rid := range rids {
			meta, err := a.engine.RequestMetadata(r.Context(), rid)
			if err != nil {
				meta = map[string]string{}
			}
			meta["rid"] = rid
			entries = append(entries, meta)
		}
		queues[queue] = entries
	}
	writeJSON(w, http.StatusOK, map[string]any{"queues": queues})
}

// handleQueuePush enqueues either an explicit file path or a random active
// file from a category, routed to the queue the category belongs to.
func (a *API) handleQueuePush(w http.ResponseWriter, r *http.Request) {
	var req queuePushRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	var ok bool
	switch {
	case req.Path != "":
		ok = a.dispatcher.EnqueuePath(r.Context(), req.Category, req.Path)
	case req.Category != "":
		ok = a.dispatcher.EnqueueCategory(r.Context(), req.Category)
	default:
		writeError(w, http.StatusBadRequest, "path_or_category_required")
		return
	}
	if !ok {
		writeError(w, http.StatusBadGateway, "enqueue_failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (a *API) handleQueueSkip(w http.ResponseWriter, r *http.Request) {
	if !a.dispatcher.Skip(r.Context()) {
		writeError(w, http.StatusBadGateway, "skip_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
}

func (a *API) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	var req queueClearRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	queue := req.Queue
	if queue == "" {
		queue = liquidsoap.QueueNormal
	}
	if queue != liquidsoap.QueueNormal && queue != liquidsoap.QueueModeration {
		writeError(w, http.StatusBadRequest, "unknown_queue")
		return
	}
	if !a.dispatcher.ClearQueue(r.Context(), queue) {
		writeError(w, http.StatusBadGateway, "clear_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "queue": queue})
}
