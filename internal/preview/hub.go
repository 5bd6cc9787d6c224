// Package preview mirrors transmitted frames to websocket clients so a
// browser can show what the strip shows.
package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog/log"

	"github.com/kut-tktlab/serial-led-pi/internal/driver"
)

// Frame is the websocket message for one transmitted frame.
type Frame struct {
	T       int64    `json:"t"`
	FrameID uint64   `json:"frame_id"`
	LEDs    []string `json:"leds"` // #rrggbb per LED
}

// Hub fans frames out to every connected client. Publish is called from the
// animation goroutine, the handlers from HTTP goroutines.
type Hub struct {
	// Throttle drops broadcasts closer together than this. Frames are still
	// counted.
	Throttle time.Duration
	Clock    clock.Clock

	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	frameID  uint64
	last     Frame
	lastSent time.Time
	start    time.Time
}

// NewHub returns an empty hub timed by clk, or the wall clock if clk is nil.
func NewHub(clk clock.Clock) *Hub {
	if clk == nil {
		clk = clock.New()
	}
	return &Hub{
		Clock:   clk,
		clients: map[*websocket.Conn]bool{},
		start:   clk.Now(),
	}
}

// Hex renders a pixel the way the preview sends it.
func Hex(p driver.Pixel) string {
	r, g, b := p.RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
}

// Publish records px as the latest frame and broadcasts it. An all-off frame
// is never throttled, so a cleared strip always reaches the clients.
func (h *Hub) Publish(px []driver.Pixel) {
	leds := make([]string, len(px))
	dark := true
	for i, p := range px {
		leds[i] = Hex(p)
		if p != 0 {
			dark = false
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.Clock.Now()
	h.frameID++
	h.last = Frame{T: now.UnixNano(), FrameID: h.frameID, LEDs: leds}
	if !dark && h.Throttle > 0 && !h.lastSent.IsZero() && now.Sub(h.lastSent) < h.Throttle {
		return
	}
	h.lastSent = now

	b, err := json.Marshal(h.last)
	if err != nil {
		log.Error().Err(err).Msg("marshal frame")
		return
	}
	for c := range h.clients {
		h.send(c, b)
	}
}

// send must be called with mu held; gorilla allows one writer per conn.
func (h *Hub) send(c *websocket.Conn, b []byte) {
	_ = c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Debug().Err(err).Msg("write frame")
	}
}

// HandleFramesWS upgrades the request, sends the latest frame and then every
// published one until the client goes away.
func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	if b, err := json.Marshal(h.last); err == nil {
		h.send(conn, b)
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Int("clients", n).Msg("preview client connected")

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": h.Clock.Since(h.start).Seconds(),
		"leds":     len(h.last.LEDs),
		"clients":  len(h.clients),
	}
	h.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Mux serves /ws and /health.
func (h *Hub) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.Close()
		delete(h.clients, c)
	}
}
