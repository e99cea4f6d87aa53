/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rotation

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/skald_radio/internal/events"
	"github.com/friendsincode/skald_radio/internal/liquidsoap"
)

func TestEnqueuePathQueueRouting(t *testing.T) {
	db := testDB(t)
	dispatcher, pr := testDispatcher(t, db)
	ctx := context.Background()

	if !dispatcher.EnqueuePath(ctx, "music", "/media/music/a.mp3") {
		t.Fatal("normal enqueue failed")
	}
	if !dispatcher.EnqueuePath(ctx, "random-moderation", "/media/random-moderation/b.mp3") {
		t.Fatal("moderation enqueue failed")
	}

	pushes := pr.pushes()
	if len(pushes) != 2 {
		t.Fatalf("pushes = %v", pushes)
	}
	if !strings.HasPrefix(pushes[0], "queue.push ") {
		t.Errorf("music push used %q, want the normal queue", pushes[0])
	}
	if !strings.HasPrefix(pushes[1], "moderation_queue.push ") {
		t.Errorf("moderation push used %q, want the moderation queue", pushes[1])
	}
}

func TestEnqueueCategoryNoFile(t *testing.T) {
	db := testDB(t)
	dispatcher, pr := testDispatcher(t, db)

	if dispatcher.EnqueueCategory(context.Background(), "empty-category") {
		t.Fatal("enqueue of empty category should report failure")
	}
	if got := len(pr.pushes()); got != 0 {
		t.Fatalf("engine was contacted for an empty category, pushes = %d", got)
	}
}

func TestEnqueuePathEngineError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				bufio.NewReader(conn).ReadString('\n')
				conn.Write([]byte("ERROR: unknown queue\nEND"))
			}(conn)
		}
	}()

	db := testDB(t)
	engine := liquidsoap.New(listener.Addr().String(), time.Second, zerolog.Nop())
	dispatcher := NewDispatcher(db, engine, testConfig(), events.NewBus(), zerolog.Nop())

	if dispatcher.EnqueuePath(context.Background(), "music", "/media/music/a.mp3") {
		t.Fatal("engine ERROR response should fail the enqueue")
	}
}

func TestEnqueuePublishesEvent(t *testing.T) {
	db := testDB(t)
	pr := newPushRecorder(t)
	engine := liquidsoap.New(pr.listener.Addr().String(), time.Second, zerolog.Nop())
	bus := events.NewBus()
	sub := bus.Subscribe(events.EventRotationFired)
	dispatcher := NewDispatcher(db, engine, testConfig(), bus, zerolog.Nop())

	if !dispatcher.EnqueuePath(context.Background(), "music", "/media/music/a.mp3") {
		t.Fatal("enqueue failed")
	}

	select {
	case payload := <-sub:
		if payload["path"] != "/media/music/a.mp3" {
			t.Errorf("event path = %v", payload["path"])
		}
	case <-time.After(time.Second):
		t.Fatal("no rotation event published")
	}
}
