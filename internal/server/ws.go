package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/venturelab/fundsim-go/pkg/sim"
)

const (
	// wsReadWait bounds how long the server waits for the opening
	// request frame.
	wsReadWait = 10 * time.Second

	// wsWriteWait bounds each outgoing frame write.
	wsWriteWait = 10 * time.Second

	// progressFrames is roughly how many progress frames one run
	// emits, independent of trial count.
	progressFrames = 100
)

type wsProgress struct {
	Type      string `json:"type"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type wsResult struct {
	Type   string           `json:"type"`
	Result simulateResponse `json:"result"`
}

type wsError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// GET /ws/simulate upgrades the connection, reads one simulate request
// frame, then streams progress frames followed by a result frame. The
// run itself is not cancellable; a client that disconnects mid-run is
// only noticed when the result write fails.
func (s *Server) handleSimulateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	s.metrics.wsClients.Inc()
	defer s.metrics.wsClients.Dec()

	conn.SetReadDeadline(time.Now().Add(wsReadWait))
	var req simulateRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.streamError(conn, "invalid request: "+err.Error())
		return
	}
	cfg, err := s.boundConfig(req.Config)
	if err != nil {
		s.streamError(conn, err.Error())
		return
	}
	req.Portfolio.EnsureIDs()

	// Workers report completions concurrently; a buffered channel and
	// a single writer goroutine serialize the frame writes.
	frames := make(chan wsProgress, 16)
	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for f := range frames {
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}()

	stride := cfg.NumSimulations / progressFrames
	if stride < 1 {
		stride = 1
	}
	opts := []sim.Option{
		sim.WithWorkers(s.workers()),
		sim.WithProgress(func(completed, total int) {
			if completed%stride != 0 && completed != total {
				return
			}
			select {
			case frames <- wsProgress{Type: "progress", Completed: completed, Total: total}:
			default:
				// A dropped frame is superseded by a later one.
			}
		}),
	}
	if req.Seed != nil {
		opts = append(opts, sim.WithSeed(*req.Seed))
	}

	res, err := sim.Run(&req.Portfolio, cfg, opts...)
	close(frames)
	writer.Wait()
	if err != nil {
		s.streamError(conn, err.Error())
		return
	}
	s.metrics.trials.Add(float64(cfg.NumSimulations))

	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(wsResult{Type: "result", Result: buildSimulateResponse(res)}); err != nil {
		s.log.Warn("websocket result write", zap.Error(err))
		return
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// streamError sends a terminal error frame and closes the stream. The
// close reason stays empty; control frame payloads are capped at 125
// bytes and the error frame already carries the message.
func (s *Server) streamError(conn *websocket.Conn, msg string) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteJSON(wsError{Type: "error", Error: msg})
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""))
}
