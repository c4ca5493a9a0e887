package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"DateOps/internal/game"

	"github.com/gorilla/websocket"
)

var errBadPassword = errors.New("invalid test password")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type notification struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// client is one connected device. Outbound frames go through a buffered
// channel drained by a dedicated writer goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the single shared session and fans state out to every connected
// device, so both partners see the same board. Commands run one at a time
// under mu; notifications raised mid-command are buffered and broadcast with
// the resulting state.
type Hub struct {
	mu      sync.Mutex
	ctrl    *game.Controller
	pending []notification

	clientsMu sync.Mutex
	clients   map[*client]bool

	testPassword string
}

// NewHub creates a hub around an already-wired controller.
func NewHub(ctrl *game.Controller, testPassword string) *Hub {
	return &Hub{
		ctrl:         ctrl,
		clients:      make(map[*client]bool),
		testPassword: testPassword,
	}
}

// Notify buffers a user-facing notification for the next broadcast. Wired as
// the controller's notification sink, so it is always called under mu.
func (h *Hub) Notify(message, severity string) {
	h.pending = append(h.pending, notification{Type: "notification", Message: message, Severity: severity})
}

// RunClockTick evaluates the session clock and broadcasts if anything moved.
func (h *Hub) RunClockTick() {
	h.runCommand(func(ctrl *game.Controller) error {
		ctrl.EvaluateClock()
		return nil
	}, nil)
}

// RunCountdownTick advances second-resolution timers. Skips the broadcast
// entirely when no timer is running.
func (h *Hub) RunCountdownTick() {
	h.mu.Lock()
	s := h.ctrl.Session
	running := s.Secret.Status == game.SecretActive || s.Penalty != nil
	h.mu.Unlock()
	if !running {
		return
	}
	h.runCommand(func(ctrl *game.Controller) error {
		ctrl.TickCountdowns()
		return nil
	}, nil)
}

// runCommand executes one mutating operation under the session lock, then
// broadcasts the refreshed state plus any buffered notifications. A soft error
// becomes an error notification sent only to the issuing client.
func (h *Hub) runCommand(fn func(*game.Controller) error, issuer *client) {
	h.mu.Lock()
	err := fn(h.ctrl)
	state := buildState(h.ctrl.Session)
	notices := h.pending
	h.pending = nil
	h.mu.Unlock()

	if err != nil && issuer != nil {
		if data, merr := json.Marshal(notification{Type: "notification", Message: err.Error(), Severity: "error"}); merr == nil {
			issuer.enqueue(data)
		}
	}
	for _, n := range notices {
		if data, merr := json.Marshal(n); merr == nil {
			h.broadcast(data)
		}
	}
	if data, merr := json.Marshal(state); merr == nil {
		h.broadcast(data)
	} else {
		log.Printf("[ws] state marshal failed: %v", merr)
	}
}

func (h *Hub) broadcast(data []byte) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for c := range h.clients {
		c.enqueue(data)
	}
}

// enqueue drops the frame if the client's buffer is full; a stalled device
// catches up on the next state broadcast.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) addClient(c *client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	h.clientsMu.Unlock()
}

func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.clientsMu.Unlock()
}

func serveWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.addClient(c)

	go func() {
		for data := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	// Initial state push so a reconnecting device syncs immediately.
	h.runCommand(func(*game.Controller) error { return nil }, c)

	defer func() {
		h.removeClient(c)
		conn.Close()
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[ws] bad frame: %v", err)
			continue
		}
		h.dispatch(c, msg)
	}
}

// dispatch routes one inbound command to its controller operation.
func (h *Hub) dispatch(c *client, msg inboundMessage) {
	switch msg.Type {
	case "complete_task":
		var p struct {
			MissionID int    `json:"mission_id"`
			TaskID    string `json:"task_id"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.CompleteTask(p.MissionID, p.TaskID)
		}, c)

	case "complete_main":
		var p struct {
			MissionID int `json:"mission_id"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.CompleteMainObjective(p.MissionID)
		}, c)

	case "reroll":
		var p struct {
			MissionID int `json:"mission_id"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			_, err := ctrl.RerollMission(p.MissionID)
			return err
		}, c)

	case "undo":
		h.runCommand(func(ctrl *game.Controller) error {
			_, err := ctrl.Undo()
			return err
		}, c)

	case "reveal_secret":
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.RevealSecretMission()
		}, c)

	case "complete_secret":
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.CompleteSecretMission()
		}, c)

	case "resolve_penalty":
		var p struct {
			Completed bool `json:"completed"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.ResolvePenalty(p.Completed)
		}, c)

	case "complete_midnight":
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.CompleteMidnightMission()
		}, c)

	case "attach_photo":
		var p struct {
			MissionID int    `json:"mission_id"`
			Name      string `json:"name"`
			Size      int64  `json:"size"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.AttachPhoto(p.MissionID, p.Name, p.Size)
		}, c)

	case "set_note":
		var p struct {
			MissionID int    `json:"mission_id"`
			Text      string `json:"text"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.SetNote(p.MissionID, p.Text)
		}, c)

	case "rate_partner":
		var p struct {
			MissionID int `json:"mission_id"`
			Stars     int `json:"stars"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.RatePartner(p.MissionID, p.Stars)
		}, c)

	case "draw_card":
		h.runCommand(func(ctrl *game.Controller) error {
			ctrl.DrawConversationCard()
			return nil
		}, c)

	case "lucky_spin":
		h.runCommand(func(ctrl *game.Controller) error {
			ctrl.LuckySpin()
			return nil
		}, c)

	case "surprise_challenge":
		var p struct {
			Points int `json:"points"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.CompleteSurpriseChallenge(p.Points)
		}, c)

	case "toggle_speed_run":
		h.runCommand(func(ctrl *game.Controller) error {
			ctrl.ToggleSpeedRun()
			return nil
		}, c)

	case "toggle_character_swap":
		h.runCommand(func(ctrl *game.Controller) error {
			ctrl.ToggleCharacterSwap()
			return nil
		}, c)

	case "couple_achievement":
		var p struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			return ctrl.TriggerCoupleAchievement(p.ID)
		}, c)

	case "finish_operation":
		h.runCommand(func(ctrl *game.Controller) error {
			summary := ctrl.FinishOperation()
			if data, err := json.Marshal(summaryMsg{Type: "summary", Summary: summary, Card: summary.FormatSummary()}); err == nil {
				h.broadcast(data)
			}
			return nil
		}, c)

	case "test_time":
		var p struct {
			Password       string `json:"password"`
			Clock          string `json:"clock"`
			NoRestrictions bool   `json:"no_restrictions"`
		}
		if json.Unmarshal(msg.Payload, &p) != nil {
			return
		}
		h.runCommand(func(ctrl *game.Controller) error {
			if p.Password != h.testPassword {
				return errBadPassword
			}
			return ctrl.SetTimeOverride(p.Clock, p.NoRestrictions)
		}, c)

	default:
		log.Printf("[ws] unknown command %q", msg.Type)
	}
}
