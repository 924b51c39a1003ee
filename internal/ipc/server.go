package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/atomic"

	"pomodoro/internal/timer"
)

const (
	ioTimeout        = 5 * time.Second
	acceptRetryDelay = 100 * time.Millisecond
	maxCommandSize   = 4096
	socketPerm       = 0600
)

// unixListener is the part of *net.UnixListener the accept loop needs.
type unixListener interface {
	AcceptUnix() (*net.UnixConn, error)
	Close() error
}

// Server answers control commands for one running timer. It is also a
// timer.StatusSink so get_status can report the engine's latest state.
type Server struct {
	socketPath string
	ctrl       *timer.Control
	listener   unixListener
	wg         conc.WaitGroup
	closing    atomic.Bool

	statusMutex sync.RWMutex
	status      timer.Snapshot
}

func NewServer(socketPath string, ctrl *timer.Control) *Server {
	return &Server{socketPath: socketPath, ctrl: ctrl}
}

func (s *Server) SocketPath() string { return s.socketPath }

// Start binds the socket and accepts connections in the background.
func (s *Server) Start() error {
	if err := s.setupSocket(); err != nil {
		return err
	}
	s.wg.Go(s.listenForCommands)
	return nil
}

// setupSocket claims the socket path and creates the listener.
func (s *Server) setupSocket() error {
	if err := s.removeStaleSocket(); err != nil {
		return err
	}

	addr, err := net.ResolveUnixAddr("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", s.socketPath, err)
	}
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", s.socketPath, err)
	}

	// Only the owner may pause or stop the timer
	if err := os.Chmod(s.socketPath, socketPerm); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set permissions on socket %s: %w", s.socketPath, err)
	}

	s.listener = listener
	log.Printf("Listening for commands on %s", s.socketPath)
	return nil
}

// removeStaleSocket fails if another timer answers on the socket path and
// deletes the file if nobody does.
func (s *Server) removeStaleSocket() error {
	_, err := os.Stat(s.socketPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking socket file %s: %w", s.socketPath, err)
	}

	// A successful dial means the file is still served
	conn, err := net.DialTimeout("unix", s.socketPath, time.Second)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket %s already active, another timer might be running", s.socketPath)
	}

	log.Printf("Stale socket file found at %s, removing.", s.socketPath)
	if err := os.Remove(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove stale socket file %s: %w", s.socketPath, err)
	}
	return nil
}

func (s *Server) listenForCommands() {
	defer log.Println("Socket command listener stopped.")
	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Failed to accept connection: %v", err)
			if !retryableAcceptError(err) {
				log.Println("Non-temporary accept error, stopping listener.")
				return
			}
			time.Sleep(acceptRetryDelay)
			continue
		}
		s.wg.Go(func() { s.handleConnection(conn) })
	}
}

// retryableAcceptError reports whether accept may succeed if tried again:
// timeouts, running out of descriptors, and connections the peer aborted.
func retryableAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ECONNABORTED, syscall.EINTR} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// handleConnection answers exactly one command per connection.
func (s *Server) handleConnection(conn *net.UnixConn) {
	defer conn.Close()

	// A client gets ioTimeout to send its command
	conn.SetReadDeadline(time.Now().Add(ioTimeout))
	encoder := json.NewEncoder(conn)

	cmd, err := readCommand(conn)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	// Switch from the read deadline to one for the reply
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	log.Printf("Received command: %s", cmd.Name)

	if err := encoder.Encode(s.processCommand(cmd)); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// readCommand decodes one JSON command. Commands are tiny, so anything past
// maxCommandSize is cut off and fails to decode.
func readCommand(r io.Reader) (Command, error) {
	var cmd Command
	err := json.NewDecoder(io.LimitReader(r, maxCommandSize)).Decode(&cmd)
	return cmd, err
}

// processCommand only touches the shared control flags; the engine picks
// the change up on its next tick.
func (s *Server) processCommand(cmd Command) Response {
	switch cmd.Name {
	case CmdPing:
		return Response{Success: true, Message: "pong"}

	case CmdGetStatus:
		s.statusMutex.RLock()
		status := s.status
		s.statusMutex.RUnlock()
		status.Paused = s.ctrl.Paused()
		return Response{Success: true, Data: newStatusData(status)}

	case CmdPause:
		if !s.ctrl.SetPaused(true) {
			return Response{Success: true, Message: "Timer already paused"}
		}
		return Response{Success: true, Message: "Timer paused"}

	case CmdResume:
		if !s.ctrl.SetPaused(false) {
			return Response{Success: true, Message: "Timer already running"}
		}
		return Response{Success: true, Message: "Timer resumed"}

	case CmdTogglePause:
		if s.ctrl.TogglePause() {
			return Response{Success: true, Message: "Timer paused"}
		}
		return Response{Success: true, Message: "Timer resumed"}

	case CmdQuit:
		s.ctrl.RequestExit()
		return Response{Success: true, Message: "Exit requested"}

	default:
		return Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// Update records the engine state for get_status.
func (s *Server) Update(st *timer.State) {
	snap := st.Snapshot()
	s.statusMutex.Lock()
	s.status = snap
	s.statusMutex.Unlock()
}

// Close stops accepting, waits for in-flight connections and removes the
// socket file.
func (s *Server) Close() error {
	if s.listener == nil || s.closing.Swap(true) {
		return nil
	}
	log.Println("Closing command socket listener...")
	err := s.listener.Close()
	s.wg.Wait()

	if _, statErr := os.Stat(s.socketPath); statErr == nil {
		log.Printf("Removing socket file: %s", s.socketPath)
		if rmErr := os.Remove(s.socketPath); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove socket file %s: %w", s.socketPath, rmErr)
		}
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close command socket: %w", err)
	}
	return nil
}
