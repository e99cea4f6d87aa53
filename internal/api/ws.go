/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	ws "nhooyr.io/websocket"

	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/models"
)

const wsWriteTimeout = 5 * time.Second

// handleNowPlayingWS pushes the current track to the client on connect and
// then streams every now-playing change until the client disconnects.
func (a *API) handleNowPlayingWS(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		a.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(ws.StatusInternalError, "server error")

	ctx := r.Context()

	var np models.NowPlaying
	if err := a.db.WithContext(ctx).First(&np, models.NowPlayingID).Error; err == nil {
		a.writeEvent(ctx, conn, events.Payload{
			"title":      np.Title,
			"artist":     np.Artist,
			"filename":   np.Filename,
			"category":   np.Category,
			"started_at": np.StartedAt,
		})
	}

	sub := a.bus.Subscribe(events.EventNowPlaying)
	defer a.bus.Unsubscribe(events.EventNowPlaying, sub)

	// Reads are discarded but keep pings and close frames flowing.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(ws.StatusNormalClosure, "server shutting down")
			return
		case <-readDone:
			return
		case payload := <-sub:
			if err := a.writeEvent(ctx, conn, payload); err != nil {
				a.logger.Debug().Err(err).Msg("websocket write failed, client disconnected")
				return
			}
		}
	}
}

func (a *API) writeEvent(ctx context.Context, conn *ws.Conn, payload events.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, ws.MessageText, data)
}
