// internal/handlers/game_ws.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/kombio/internal/game"
	"github.com/jason-s-yu/kombio/internal/middleware"
	"github.com/jason-s-yu/kombio/internal/models"
	"github.com/jason-s-yu/kombio/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	streamSubprotocol = "game"
	writeTimeout      = 5 * time.Second
)

// handleStream pushes the caller's view of the game whenever a record of the
// game changes, and on every poll tick as a backstop for missed notifications.
// The stream is receive-only; commands go through the HTTP endpoints.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, user uuid.UUID) {
	gameID, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Refuse before upgrading so the client gets a proper HTTP status.
	if _, err := s.svc.View(r.Context(), gameID, user); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{streamSubprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.WithError(err).WithField("game", gameID).Warn("WebSocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "internal server error during handler exit")

	if c.Subprotocol() != streamSubprotocol {
		c.Close(websocket.StatusCode(BadSubprotocolError), "client must use the 'game' subprotocol")
		return
	}
	middleware.LogWebSocketConnect(s.log, r.RemoteAddr, r.URL.Path)

	ctx := c.CloseRead(r.Context())
	err = s.stream(ctx, c, gameID, user)
	middleware.LogWebSocketDisconnect(s.log, r.RemoteAddr, r.URL.Path, err)
}

// stream runs until the client goes away or the game can no longer be shown.
func (s *Server) stream(ctx context.Context, c *websocket.Conn, gameID, user uuid.UUID) error {
	log := s.log.WithFields(logrus.Fields{"game": gameID, "user": user})

	var changes <-chan store.Change
	if n := s.svc.Notifier(); n != nil {
		ch, err := n.Subscribe(ctx, gameID)
		if err != nil {
			log.WithError(err).Warn("subscribe failed, falling back to polling")
		} else {
			changes = ch
		}
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last []byte
	send := func() (done bool, err error) {
		view, err := s.svc.View(ctx, gameID, user)
		if errors.Is(err, game.ErrPlayerNotFound) {
			c.Close(websocket.StatusCode(NotInGameError), "you are no longer in this game")
			return true, nil
		}
		if err != nil {
			return true, err
		}
		data, err := json.Marshal(view)
		if err != nil {
			return true, err
		}
		if !bytes.Equal(data, last) {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return true, err
			}
			last = data
		}
		if view.Status == models.StatusFinished {
			c.Close(websocket.StatusCode(GameFinishedCode), "game finished")
			return true, nil
		}
		return false, nil
	}

	if done, err := send(); done {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
		case <-ticker.C:
		}
		if done, err := send(); done {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
