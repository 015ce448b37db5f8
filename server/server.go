// Package server exposes the catalog over a Unix domain socket using the
// TXT01 stack protocol.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cheru-app/cherud/internal/catalog"
	"github.com/cheru-app/cherud/internal/config"
	"github.com/cheru-app/cherud/internal/entry"
	"github.com/cheru-app/cherud/internal/launchgate"
	"github.com/cheru-app/cherud/internal/runhist"
	"github.com/cheru-app/cherud/parser"
)

// Server handles Unix socket connections and query dispatch
type Server struct {
	listener net.Listener
	catalog  *catalog.Catalog
	history  *runhist.History
	running  bool
	mu       sync.RWMutex
}

// NewServer creates a new server instance listening on the configured
// socket. history may be nil; launches are then not recorded.
func NewServer(cat *catalog.Catalog, history *runhist.History) (*Server, error) {
	cfg := config.Get()
	socketPath := cfg.UnixSocket()

	socketDir := filepath.Dir(socketPath)
	if err := os.MkdirAll(socketDir, 0755); err != nil {
		return nil, err
	}

	// Remove existing socket if it exists
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	return &Server{
		listener: listener,
		catalog:  cat,
		history:  history,
	}, nil
}

// Start accepts connections until the context is cancelled or Stop is
// called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running {
				return nil
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop stops the server
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.listener.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	log.Printf("[DEBUG] New connection accepted")

	p, err := parser.NewParser(conn)
	if err != nil {
		log.Printf("[ERROR] Failed to create parser: %v", err)
		s.writeError(conn, "parser", "invalid header", err.Error())
		return
	}

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			log.Printf("[DEBUG] Connection closed by client")
			break
		}
		if err != nil {
			log.Printf("[ERROR] Parse error: %v", err)
			s.writeError(conn, "parser", "parse error", err.Error())
			continue
		}

		log.Printf("[DEBUG] Executing command: %s with %d args", cmd.Name, len(cmd.Args))
		s.executeCommand(conn, cmd)
	}
}

func (s *Server) executeCommand(conn net.Conn, cmd *parser.Command) {
	switch cmd.Name {
	case "search-apps":
		s.writeEntries(conn, cmd.Name, s.catalog.SearchApplications(queryArg(cmd)))
	case "search-folders":
		s.writeEntries(conn, cmd.Name, s.catalog.SearchFolders(queryArg(cmd)))
	case "search-images":
		s.writeEntries(conn, cmd.Name, s.catalog.SearchImages(queryArg(cmd)))
	case "search-contents":
		s.writeEntries(conn, cmd.Name, s.catalog.SearchFileContents(queryArg(cmd)))
	case "search-actions":
		s.writeEntries(conn, cmd.Name, s.catalog.SearchActions(queryArg(cmd)))
	case "browse":
		s.handleBrowse(conn, cmd)
	case "launch":
		s.handleLaunch(conn, cmd)
	case "open-path":
		s.handleOpenPath(conn, cmd)
	case "index-size":
		s.writeResponse(conn, fmt.Sprintf("cmd: index-size\nindex-size: %d\nstatus: 0\n\n", s.catalog.IndexSize()))
	case "stats":
		s.handleStats(conn)
	case "hotkey":
		s.writeResponse(conn, fmt.Sprintf("cmd: hotkey\nhotkey: %s\nstatus: 0\n\n", config.Get().Hotkey()))
	default:
		s.writeError(conn, cmd.Name, "unknown command", "Command not recognized")
	}
}

// queryArg extracts the query string from the first string argument, empty
// when the client pushed nothing.
func queryArg(cmd *parser.Command) string {
	for _, arg := range cmd.Args {
		if arg.Type == parser.TypeString {
			return arg.Str
		}
	}
	return ""
}

func (s *Server) handleBrowse(conn net.Conn, cmd *parser.Command) {
	var path, filter string
	strs := stringArgs(cmd)
	if len(strs) == 0 {
		s.writeError(conn, "browse", "missing path", "browse requires a directory path")
		return
	}
	path = strs[0]
	if len(strs) > 1 {
		filter = strs[1]
	}

	entries, err := s.catalog.BrowseDirectory(path, filter)
	if err != nil {
		s.writeGateError(conn, "browse", err)
		return
	}
	s.writeEntries(conn, "browse", entries)
}

func (s *Server) handleLaunch(conn net.Conn, cmd *parser.Command) {
	strs := stringArgs(cmd)
	if len(strs) == 0 {
		s.writeError(conn, "launch", "missing target", "launch requires a target string")
		return
	}
	target := strs[0]

	if err := s.catalog.Gate().Launch(target); err != nil {
		log.Printf("[ERROR] Launch rejected or failed: %v", err)
		s.writeGateError(conn, "launch", err)
		return
	}

	if s.history != nil {
		if err := s.history.Record(target); err != nil {
			log.Printf("[WARN] Failed to record launch: %v", err)
		}
	}

	s.writeResponse(conn, "cmd: launch\nstatus: 0\n\n")
}

func (s *Server) handleOpenPath(conn net.Conn, cmd *parser.Command) {
	strs := stringArgs(cmd)
	if len(strs) == 0 {
		s.writeError(conn, "open-path", "missing path", "open-path requires a path string")
		return
	}

	if err := s.catalog.Gate().OpenPath(strs[0]); err != nil {
		log.Printf("[ERROR] Open rejected or failed: %v", err)
		s.writeGateError(conn, "open-path", err)
		return
	}
	s.writeResponse(conn, "cmd: open-path\nstatus: 0\n\n")
}

func (s *Server) handleStats(conn net.Conn) {
	apps, folders, images, actions := s.catalog.Sizes()
	attrs := strings.Builder{}
	attrs.WriteString("cmd: stats\n")
	fmt.Fprintf(&attrs, "apps: %d\n", apps)
	fmt.Fprintf(&attrs, "folders: %d\n", folders)
	fmt.Fprintf(&attrs, "images: %d\n", images)
	fmt.Fprintf(&attrs, "actions: %d\n", actions)
	if s.history != nil {
		targets, launches := s.history.Totals()
		fmt.Fprintf(&attrs, "launched-targets: %d\n", targets)
		fmt.Fprintf(&attrs, "total-launches: %d\n", launches)
	}
	attrs.WriteString("status: 0\n\n")
	s.writeResponse(conn, attrs.String())
}

func stringArgs(cmd *parser.Command) []string {
	var strs []string
	for _, arg := range cmd.Args {
		if arg.Type == parser.TypeString {
			strs = append(strs, arg.Str)
		}
	}
	return strs
}

// writeEntries sends a ranked entry list: attribute block then one
// tab-separated line per entry.
func (s *Server) writeEntries(conn net.Conn, cmdName string, entries []entry.Entry) {
	limit := config.Get().ListLimit()
	if len(entries) > limit {
		entries = entries[:limit]
	}

	attrs := fmt.Sprintf("cmd: %s\nlist-len: %d\n\n", cmdName, len(entries))
	body := strings.Builder{}
	for _, e := range entries {
		body.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\n",
			e.Kind, e.Name, e.Target, e.Icon, e.Description))
	}

	s.writeResponse(conn, attrs+body.String())
	log.Printf("[DEBUG] %s response sent (%d entries)", cmdName, len(entries))
}

// writeGateError maps the gate's typed failures onto the wire, keeping the
// rejection reason and the resolved path visible to the client.
func (s *Server) writeGateError(conn net.Conn, cmdName string, err error) {
	var launchErr *launchgate.LaunchError
	var spawnErr *launchgate.SpawnError
	switch {
	case errors.As(err, &launchErr):
		s.writeError(conn, cmdName, "launch rejected", launchErr.Error())
	case errors.As(err, &spawnErr):
		s.writeError(conn, cmdName, "spawn failed", spawnErr.Error())
	default:
		s.writeError(conn, cmdName, "error", err.Error())
	}
}

// writeResponse writes a response with TXT01 header
func (s *Server) writeResponse(conn net.Conn, response string) {
	header := []byte("TXT01")
	n, err := conn.Write(header)
	if err != nil {
		log.Printf("[ERROR] Failed to write header: %v", err)
		return
	}
	if n != len(header) {
		log.Printf("[ERROR] Partial header write: %d/%d bytes", n, len(header))
		return
	}

	if _, err = conn.Write([]byte(response)); err != nil {
		log.Printf("[ERROR] Failed to write response body: %v", err)
	}
}

func (s *Server) writeError(conn net.Conn, cmd, errType, desc string) {
	log.Printf("[ERROR] Writing error response: cmd=%s, type=%s, desc=%s", cmd, errType, desc)
	errorMsg := fmt.Sprintf("error-cmd: %s\nerror: %s\ndesc: %s\n\n", cmd, errType, desc)
	s.writeResponse(conn, errorMsg)
}
