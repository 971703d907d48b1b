package ipc

import (
	"net"
	"os"
	"time"

	"github.com/yourusername/skyline/internal/command"
	"github.com/yourusername/skyline/internal/logging"
)

const connDeadline = 5 * time.Second

// Runner executes a closure on the loop thread and waits for it.
type Runner interface {
	Call(fn func())
}

// Server accepts framed requests on the command socket, executes each
// on the loop thread and writes a single response.
type Server struct {
	listener   net.Listener
	dispatcher *command.Dispatcher
	runner     Runner
	done       chan struct{}
}

// Listen binds the command socket (0600) and starts the accept loop.
func Listen(dispatcher *command.Dispatcher, runner Runner) (*Server, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}

	// A previous unclean shutdown leaves the socket file behind; the
	// lock file already guarantees exclusivity.
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		return nil, err
	}

	s := &Server{
		listener:   ln,
		dispatcher: dispatcher,
		runner:     runner,
		done:       make(chan struct{}),
	}
	go s.acceptLoop()
	logging.Info().Str("path", path).Msg("command socket listening")
	return s, nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			logging.Warn().Err(err).Msg("accept failed")
			continue
		}
		go s.serve(conn)
	}
}

// serve handles one connection: one frame in, one response out.
func (s *Server) serve(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connDeadline))

	args, err := DecodeFrame(conn)
	if err != nil {
		logging.Warn().Err(err).Msg("bad request frame")
		conn.Write(FailureResponse("malformed request"))
		return
	}

	var resp command.Response
	s.runner.Call(func() {
		resp = s.dispatcher.Execute(args)
	})

	if resp.Err != nil {
		conn.Write(FailureResponse(resp.Err.Error()))
		return
	}
	if len(resp.Payload) > 0 {
		conn.Write(resp.Payload)
	}
}

// Close detaches the socket.
func (s *Server) Close() error {
	close(s.done)
	err := s.listener.Close()
	if path, perr := SocketPath(); perr == nil {
		os.Remove(path)
	}
	return err
}
