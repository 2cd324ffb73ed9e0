// Package web streams the visualizer to browsers over a websocket, and takes
// step and speed controls back.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/emulator"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

//go:embed index.html
var indexHtml []byte

// MEMORY_ORIGIN is where the memory viewer is drawn on a frame.
var MEMORY_ORIGIN = visual.Vec2{X: 980, Y: 10}

// Server owns the emulator and drives it from its own goroutine.
type Server struct {
	Verbose   bool               // Set to enable verbose logging.
	Hub       *Hub               // Connected browsers.
	Emulator  *emulator.Emulator // Emulator being shown.
	Speed     visual.Speed       // Speed at a scale of 1.
	FrameTime time.Duration      // Frame period.

	running bool
	err     error
	frame   visual.Frame
}

// NewServer creates a server for emu, at the emulator's current speed.
func NewServer(emu *emulator.Emulator, frameTime time.Duration) *Server {
	return &Server{
		Hub:       NewHub(),
		Emulator:  emu,
		Speed:     emu.Speed,
		FrameTime: frameTime,
	}
}

// Handle acts on a control message.
func (srv *Server) Handle(msg Message) (err error) {
	emu := srv.Emulator

	if srv.Verbose {
		log.Printf("web: %v %v %v", msg.Type, msg.Value, msg.Text)
	}

	switch msg.Type {
	case MESSAGE_STEP:
		srv.running = false
		_, err = emu.Step()
	case MESSAGE_RUN:
		srv.running = true
	case MESSAGE_PAUSE:
		srv.running = false
	case MESSAGE_RESET:
		srv.running = false
		srv.err = nil
		emu.Reset()
	case MESSAGE_SPEED:
		if msg.Value <= 0 {
			err = ErrSpeed
			return
		}
		emu.Speed = srv.Speed.Scaled(float32(msg.Value))
	case MESSAGE_ANIMATE:
		emu.Animate = msg.Value != 0
	case MESSAGE_EXEC:
		err = emu.Execute(msg.Text)
	default:
		err = ErrMessageType(msg.Type)
	}

	if err != nil {
		srv.err = err
	}
	return
}

// Frame advances the emulator by one frame, stepping the next instruction
// first when running, and reports its status.
func (srv *Server) Frame() (status Status) {
	emu := srv.Emulator

	if srv.running && !emu.Busy() {
		done, err := emu.Step()
		if done || err != nil {
			srv.running = false
		}
		if err != nil {
			srv.err = err
		}
	}

	srv.frame.Reset()
	emu.Surface = &srv.frame
	err := emu.Tick(float32(srv.FrameTime.Seconds()))
	if err != nil {
		srv.running = false
		srv.err = err
	}

	emu.Cpu.Lock()
	rows := visual.MemoryRows(emu.Cpu.Memory, cpu.MEMORY_BASE, visual.VALUE_U8, visual.MEMORY_ROW_COUNT)
	emu.Cpu.Unlock()
	visual.ShowMemory(&srv.frame, MEMORY_ORIGIN, rows)

	status = Status{
		LineNo:  emu.LineNo(),
		Busy:    emu.Busy(),
		Done:    emu.Done(),
		Running: srv.running,
		Frame:   &srv.frame,
	}
	if srv.err != nil {
		status.Error = srv.err.Error()
	}

	return
}

// Run serves frames and control messages until ctx is done. The hub is run
// alongside.
func (srv *Server) Run(ctx context.Context) (err error) {
	go srv.Hub.Run(ctx)

	ticker := time.NewTicker(srv.FrameTime)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			return
		case msg := <-srv.Hub.Control:
			err := srv.Handle(msg)
			if err != nil {
				log.Printf("web: %v: %v", msg.Type, err)
			}
		case <-ticker.C:
			data, err := json.Marshal(srv.Frame())
			if err != nil {
				log.Printf("web: frame: %v", err)
				continue
			}
			if !srv.Hub.Broadcast(data) && srv.Verbose {
				log.Printf("web: frame dropped")
			}
		}
	}
}

// Handler serves the page at / and the websocket at /ws.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", srv.Hub)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHtml)
	})
	return mux
}
