package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/GundamTCG/EloBot/internal/auth"
	"github.com/GundamTCG/EloBot/internal/match"
	wsPkg "github.com/GundamTCG/EloBot/pkg/websocket"
)

// Lobby channels matches may be hosted in. Anything else is rejected at
// connect time.
var allowedChannels = map[string]bool{
	"1v1":     true,
	"1v1test": true,
	"2v2":     true,
}

type Handler struct {
	hub     *wsPkg.Hub
	matches *match.Service
	auth    *auth.Service
}

func NewHandler(hub *wsPkg.Hub, matches *match.Service, authSvc *auth.Service) *Handler {
	return &Handler{hub: hub, matches: matches, auth: authSvc}
}

type clientMessage struct {
	Type      string `json:"type"`
	MatchID   string `json:"match_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Team      string `json:"team,omitempty"`
	Selection string `json:"selection,omitempty"`
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID, err := h.auth.ParseToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	channel := r.URL.Query().Get("channel")
	if !allowedChannels[channel] {
		http.Error(w, "unknown channel", http.StatusBadRequest)
		return
	}

	conn, err := wsPkg.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection for %s: %v", playerID, err)
		return
	}

	client := &wsPkg.Client{
		ID:      playerID,
		Channel: channel,
		Conn:    conn,
		Send:    make(chan []byte, 16),
	}
	h.hub.Add(client)

	go client.WritePump()
	go h.readPump(client)
}

func (h *Handler) readPump(client *wsPkg.Client) {
	defer func() {
		h.hub.Remove(client)
		client.Conn.Close()
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.reply(client, map[string]string{"type": "error", "message": "invalid message"})
			continue
		}
		h.dispatch(client, msg)
	}
}

func (h *Handler) dispatch(client *wsPkg.Client, msg clientMessage) {
	ctx := context.Background()

	switch msg.Type {
	case "start_match":
		mode, err := match.ParseMode(msg.Mode)
		if err != nil {
			h.fail(client, err)
			return
		}
		if err := h.matches.StartMatch(ctx, client.ID, client.Channel, mode); err != nil {
			h.fail(client, err)
			return
		}
		h.reply(client, map[string]string{"type": "match_created", "match_id": client.ID})

	case "join_match":
		needsTeam, err := h.matches.Join(ctx, msg.MatchID, client.ID)
		if err != nil {
			h.fail(client, err)
			return
		}
		if needsTeam {
			h.reply(client, map[string]interface{}{
				"type":     "choose_team",
				"match_id": msg.MatchID,
				"options":  []string{string(match.TeamA), string(match.TeamB)},
			})
			return
		}
		h.reply(client, map[string]string{"type": "joined", "match_id": msg.MatchID})

	case "choose_team":
		team, err := match.ParseTeam(msg.Team)
		if err != nil {
			h.fail(client, err)
			return
		}
		if err := h.matches.ChooseTeam(ctx, msg.MatchID, client.ID, team); err != nil {
			h.fail(client, err)
			return
		}
		h.reply(client, map[string]string{"type": "joined", "match_id": msg.MatchID})

	case "leave_match":
		if err := h.matches.Leave(ctx, msg.MatchID, client.ID); err != nil {
			h.fail(client, err)
			return
		}
		h.reply(client, map[string]string{"type": "left", "match_id": msg.MatchID})

	case "report_win":
		options, err := h.matches.ReportWin(ctx, msg.MatchID, client.ID)
		if err != nil {
			h.fail(client, err)
			return
		}
		h.reply(client, map[string]interface{}{
			"type":     "pick_winner",
			"match_id": msg.MatchID,
			"options":  options,
		})

	case "pick_winner":
		if err := h.matches.ResolveWinner(ctx, msg.MatchID, client.ID, msg.Selection); err != nil {
			h.fail(client, err)
			return
		}
		h.reply(client, map[string]string{"type": "result_recorded", "match_id": msg.MatchID})

	case "list_matches":
		h.reply(client, map[string]interface{}{
			"type":    "match_list",
			"matches": h.matches.ListMatches(),
		})

	default:
		h.reply(client, map[string]string{"type": "error", "message": "unknown message type"})
	}
}

// fail sends validation errors back to the player verbatim; anything else
// is an internal fault and only gets logged.
func (h *Handler) fail(client *wsPkg.Client, err error) {
	if match.IsValidationError(err) {
		h.reply(client, map[string]string{"type": "error", "message": err.Error()})
		return
	}
	log.Printf("Command from %s failed: %v", client.ID, err)
	h.reply(client, map[string]string{"type": "error", "message": "something went wrong, try again"})
}

func (h *Handler) reply(client *wsPkg.Client, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode reply for %s: %v", client.ID, err)
		return
	}
	if !h.hub.SendToPlayer(client.ID, data) {
		log.Printf("Dropping reply to disconnected client %s", client.ID)
	}
}
