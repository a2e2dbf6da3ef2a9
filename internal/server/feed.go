package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/tcgsim/battlesim/internal/game"
)

// FeedEvent is one decoded message of the live match feed.
type FeedEvent struct {
	Type     string
	MatchID  string
	Snapshot game.MatchSnapshot
}

// Watch connects to a hub at address and calls fn for every message until
// ctx is done or the connection drops. A non-empty matchID follows one match.
func Watch(ctx context.Context, address, matchID string, fn func(FeedEvent)) error {
	u := url.URL{Scheme: "ws", Host: address, Path: "/ws"}
	if matchID != "" {
		u.RawQuery = url.Values{"match_id": {matchID}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		var msg struct {
			Type    string             `json:"type"`
			MatchID string             `json:"match_id"`
			Data    game.MatchSnapshot `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode feed message: %w", err)
		}
		fn(FeedEvent{Type: msg.Type, MatchID: msg.MatchID, Snapshot: msg.Data})
	}
}
