package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS answers chat requests over a WebSocket. Each text frame carries a
// chat request; each reply is either a result or an error object. Frames are
// handled one at a time.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}

		var reply any
		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			reply = errorResponse{Error: "Invalid request body"}
		} else if res, err := s.chat.Handle(ctx, req.UserID, req.Message); err != nil {
			reply = errorResponse{Error: err.Error()}
		} else {
			reply = res
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}
