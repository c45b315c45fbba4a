package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/vesaa/homebuilder/internal/logging"
	"github.com/vesaa/homebuilder/internal/project"
	"github.com/vesaa/homebuilder/internal/render"
)

// PreviewMessage is pushed to live preview sockets after every edit.
type PreviewMessage struct {
	Type      string `json:"type"` // "preview" or "error"
	ProjectID string `json:"project_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	HTML      string `json:"html,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Hub fans workspace changes out to the user's open preview sockets.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[chan *project.Document]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[uint]map[chan *project.Document]struct{}{}}
}

func (h *Hub) subscribe(userID uint) chan *project.Document {
	ch := make(chan *project.Document, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan *project.Document]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	return ch
}

func (h *Hub) unsubscribe(userID uint, ch chan *project.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[userID], ch)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
}

// Publish hands d to every subscriber of userID. A subscriber that has not
// consumed the previous document gets the newer one instead.
func (h *Hub) Publish(userID uint, d *project.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case <-ch:
		default:
		}
		ch <- d
	}
}

// handleLive upgrades to a websocket and pushes the rendered preview now
// and after every workspace change.
//
//	GET /api/workspace/live?mode=mobile|pc
func (s *Server) handleLive(c *gin.Context) {
	u := currentUser(c)
	mode, err := render.ParseMode(c.Query("mode"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logging.For("live").WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.CloseNow()

	ch := s.live.subscribe(u.ID)
	defer s.live.unsubscribe(u.ID, ch)

	// Reads are discarded; CloseRead cancels ctx when the client goes away.
	ctx := conn.CloseRead(c.Request.Context())

	if d, _, err := s.workspaces.Get(u.ID); err == nil {
		if err := s.pushPreview(ctx, conn, d, mode); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case d := <-ch:
			if err := s.pushPreview(ctx, conn, d, mode); err != nil {
				logging.For("live").WithError(err).Debug("preview push failed")
				return
			}
		}
	}
}

func (s *Server) pushPreview(ctx context.Context, conn *websocket.Conn, d *project.Document, mode render.Mode) error {
	msg := PreviewMessage{Type: "preview", ProjectID: d.ProjectID, Mode: string(mode)}
	page, err := render.Render(d, render.Options{Mode: mode, InlineCSS: true})
	if err != nil {
		msg = PreviewMessage{Type: "error", ProjectID: d.ProjectID, Error: SanitizeError(err)}
	} else {
		msg.HTML = string(page.HTML)
	}
	return wsjson.Write(ctx, conn, msg)
}
