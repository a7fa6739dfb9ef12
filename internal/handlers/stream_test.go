// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scapes/internal/scape"
)

func TestStream(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, alice, scape.NewID)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/editor/" + sid + "/ws"
	header := http.Header{}
	header.Set("X-Test-Creator", alice)

	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	read := func() stateResponse {
		t.Helper()
		ws.SetReadDeadline(time.Now().Add(5 * time.Second))
		var st stateResponse
		if err := ws.ReadJSON(&st); err != nil {
			t.Fatalf("read state: %v", err)
		}
		return st
	}

	first := read()
	if first.SessionID != sid || first.Draft.Title != "" {
		t.Errorf("initial state = %+v", first)
	}

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/editor/"+sid+"/", bytes.NewBufferString(`{"title":"Streamed"}`))
	req.Header.Set("X-Test-Creator", alice)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	resp.Body.Close()

	// The name check may publish its own update after the patch; the
	// title shows up in the first message after the initial one.
	st := read()
	if st.Draft.Title != "Streamed" || st.Version <= first.Version {
		t.Errorf("update = %+v", st)
	}
}

func TestStream_ClosesWithSession(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, alice, scape.NewID)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/editor/" + sid + "/ws"
	header := http.Header{}
	header.Set("X-Test-Creator", alice)
	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var st stateResponse
	if err := ws.ReadJSON(&st); err != nil {
		t.Fatalf("read initial state: %v", err)
	}

	if rec := env.do(t, http.MethodDelete, "/api/editor/"+sid+"/", alice, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("discard: %d", rec.Code)
	}

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
				t.Errorf("expected going-away close, got %v", err)
			}
			return
		}
	}
}

func TestStream_RequiresOwner(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openSession(t, alice, scape.NewID)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/editor/" + sid + "/ws"
	header := http.Header{}
	header.Set("X-Test-Creator", "creator-bob")
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}
