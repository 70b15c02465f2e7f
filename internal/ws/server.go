package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"

	diag "github.com/coreman2200/funtimes-sensehat/internal/diagnostics"
	"github.com/coreman2200/funtimes-sensehat/internal/pattern"
	"github.com/coreman2200/funtimes-sensehat/ledmatrix"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

// Matrix is the part of *ledmatrix.Matrix the server drives.
type Matrix interface {
	display.Drawer
	SetPixel(c ledmatrix.Color, row, col int) error
	Clear() error
	Fill(c ledmatrix.Color) error
}

type Options struct {
	// EnvInterval is the period of the /env stream.
	EnvInterval time.Duration
	// FrameInterval is the period between frames of a running test.
	FrameInterval time.Duration
}

type Server struct {
	mu       sync.Mutex
	matrix   Matrix
	sweep    *pattern.Sweep
	frame    *image.NRGBA
	phase    float64
	closed   bool
	humidity *sensor.HumiditySensor
	pressure *sensor.PressureSensor
	opts     Options

	startTime   time.Time
	cmu         sync.Mutex
	envClients  map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

// NewServer serves m and the sensors; h and p may be nil.
func NewServer(m Matrix, h *sensor.HumiditySensor, p *sensor.PressureSensor, opts Options) *Server {
	if opts.EnvInterval <= 0 {
		opts.EnvInterval = time.Second
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 100 * time.Millisecond
	}
	return &Server{
		matrix:      m,
		frame:       pattern.Frame(),
		humidity:    h,
		pressure:    p,
		opts:        opts,
		startTime:   time.Now(),
		envClients:  map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/env", s.HandleEnvWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Run streams sensor samples and advances running tests until ctx is done.
func (s *Server) Run(ctx context.Context) {
	env := time.NewTicker(s.opts.EnvInterval)
	defer env.Stop()
	frames := time.NewTicker(s.opts.FrameInterval)
	defer frames.Stop()
	for {
		select {
		case <-env.C:
			s.broadcastEnv()
		case <-frames.C:
			s.stepTest()
		case <-ctx.Done():
			return
		}
	}
}

// Command is one message on the control socket.
type Command struct {
	Op      string `json:"op"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	RGB     []int  `json:"rgb,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

var errBadColor = errors.New("rgb must be three values in 0..255")

func (c Command) color() (ledmatrix.Color, error) {
	if len(c.RGB) != 3 {
		return ledmatrix.Color{}, errBadColor
	}
	for _, v := range c.RGB {
		if v < 0 || v > 255 {
			return ledmatrix.Color{}, errBadColor
		}
	}
	return ledmatrix.Color{R: uint8(c.RGB[0]), G: uint8(c.RGB[1]), B: uint8(c.RGB[2])}, nil
}

func upgrader() websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		reply := Reply{OK: true}
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = Reply{Error: err.Error()}
		} else if err := s.Apply(cmd); err != nil {
			reply = Reply{Error: err.Error()}
			s.pushDiag(diag.FromError(err))
		}
		b, _ := json.Marshal(reply)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
}

// Apply runs cmd against the matrix. After Close it returns
// ledmatrix.ErrClosed.
func (s *Server) Apply(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ledmatrix.ErrClosed
	}
	switch cmd.Op {
	case "set":
		c, err := cmd.color()
		if err != nil {
			return err
		}
		return s.matrix.SetPixel(c, cmd.Row, cmd.Col)
	case "fill":
		c, err := cmd.color()
		if err != nil {
			return err
		}
		s.sweep = nil
		return s.matrix.Fill(c)
	case "clear":
		s.sweep = nil
		return s.matrix.Clear()
	case "draw":
		img, err := pattern.Named(cmd.Pattern, s.phase)
		if err != nil {
			return err
		}
		s.sweep = nil
		s.phase += 0.1
		return s.matrix.Draw(s.matrix.Bounds(), img, image.Point{})
	case "test":
		k, err := pattern.ParseKind(cmd.Pattern)
		if err != nil {
			return err
		}
		s.sweep = pattern.NewSweep(k)
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.RUNNING", Summary: "Running test", Detail: string(k)})
		return nil
	}
	return fmt.Errorf("unknown op %q", cmd.Op)
}

func (s *Server) stepTest() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.sweep == nil {
		return
	}
	if !s.sweep.Step(s.frame) {
		s.pushDiag(diag.Diagnostic{Severity: diag.Info, Code: "TEST.DONE", Summary: "Test complete", Detail: string(s.sweep.Kind())})
		s.sweep = nil
		return
	}
	if err := s.matrix.Draw(s.matrix.Bounds(), s.frame, image.Point{}); err != nil {
		log.Error().Err(err).Msg("draw test frame")
		s.pushDiag(diag.FromError(err))
		s.sweep = nil
	}
}

// Close stops any running test, clears the matrix and refuses further
// commands. Streaming clients are disconnected. The matrix itself stays
// open for its owner to release.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.sweep = nil

	s.cmu.Lock()
	for _, set := range []map[*websocket.Conn]bool{s.envClients, s.diagClients} {
		for c := range set {
			c.Close()
		}
	}
	s.cmu.Unlock()
	return s.matrix.Clear()
}

func (s *Server) HandleEnvWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.envClients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, s.diagClients)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, set map[*websocket.Conn]bool) {
	up := upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.cmu.Lock()
	set[conn] = true
	s.cmu.Unlock()
	go func() {
		defer func() {
			s.cmu.Lock()
			delete(set, conn)
			s.cmu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]any{
		"uptime_s": time.Since(s.startTime).Seconds(),
		"device":   s.matrix.String(),
	}
	if s.sweep != nil {
		resp["test"] = s.sweep.Kind()
	}
	s.mu.Unlock()
	if s.humidity != nil {
		resp["humidity"] = map[string]string{"sensor": s.humidity.Name(), "state": s.humidity.State().String()}
	}
	if s.pressure != nil {
		resp["pressure"] = map[string]string{"sensor": s.pressure.Name(), "state": s.pressure.State().String()}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) broadcastEnv() {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed || (s.humidity == nil && s.pressure == nil) {
		return
	}
	b, _ := json.Marshal(sensor.Take(s.humidity, s.pressure))
	s.broadcast(s.envClients, b)
}

func (s *Server) pushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.broadcast(s.diagClients, b)
}

func (s *Server) broadcast(set map[*websocket.Conn]bool, b []byte) {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	for c := range set {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("websocket write")
		}
	}
}

func (s *Server) clients(set map[*websocket.Conn]bool) int {
	s.cmu.Lock()
	defer s.cmu.Unlock()
	return len(set)
}
