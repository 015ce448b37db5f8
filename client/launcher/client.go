// Package launcher is the client library for cherud's Unix socket
// protocol, used by the launcher UI and the CLI.
package launcher

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
)

const protoVer = "TXT01" // stack protocol, text format, v01

// Result is one entry returned by a search or browse command.
type Result struct {
	Kind        string
	Name        string
	Target      string
	Icon        string
	Description string
}

// Client handles the connection to a cherud server.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
	socket string
}

// NewClient connects to the server and sends the protocol header.
func NewClient() (*Client, error) {
	socketPath, err := getSocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get socket path: %w", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", socketPath, err)
	}

	if _, err := conn.Write([]byte(protoVer)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send header: %w", err)
	}

	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		socket: socketPath,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SearchApps returns ranked applications for a query.
func (c *Client) SearchApps(query string) ([]Result, error) {
	return c.search("search-apps", query)
}

// SearchFolders returns ranked folders for a query.
func (c *Client) SearchFolders(query string) ([]Result, error) {
	return c.search("search-folders", query)
}

// SearchImages returns ranked images for a query.
func (c *Client) SearchImages(query string) ([]Result, error) {
	return c.search("search-images", query)
}

// SearchContents returns file-content matches for a query.
func (c *Client) SearchContents(query string) ([]Result, error) {
	return c.search("search-contents", query)
}

// SearchActions returns ranked system actions for a query.
func (c *Client) SearchActions(query string) ([]Result, error) {
	return c.search("search-actions", query)
}

// Browse lists the children of a home-contained directory, optionally
// fuzzy-filtered.
func (c *Client) Browse(path, filter string) ([]Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if filter != "" {
		if _, err := fmt.Fprintf(c.conn, "\"%s\n\"%s\nbrowse\n", path, filter); err != nil {
			return nil, fmt.Errorf("failed to send browse command: %w", err)
		}
	} else {
		if _, err := fmt.Fprintf(c.conn, "\"%s\nbrowse\n", path); err != nil {
			return nil, fmt.Errorf("failed to send browse command: %w", err)
		}
	}
	return c.readResults()
}

// Launch asks the server to validate and launch a target.
func (c *Client) Launch(target string) error {
	return c.simpleCommand("launch", target)
}

// OpenPath asks the server to validate and open a filesystem path.
func (c *Client) OpenPath(path string) error {
	return c.simpleCommand("open-path", path)
}

// IndexSize returns the server's application index size.
func (c *Client) IndexSize() (int, error) {
	attrs, err := c.attrCommand("index-size")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(attrs["index-size"])
}

// Stats returns the server's diagnostic counters.
func (c *Client) Stats() (map[string]string, error) {
	return c.attrCommand("stats")
}

// Hotkey returns the configured launcher hotkey.
func (c *Client) Hotkey() (string, error) {
	attrs, err := c.attrCommand("hotkey")
	if err != nil {
		return "", err
	}
	return attrs["hotkey"], nil
}

func (c *Client) search(cmdName, query string) ([]Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.conn, "\"%s\n%s\n", query, cmdName); err != nil {
		return nil, fmt.Errorf("failed to send %s command: %w", cmdName, err)
	}
	return c.readResults()
}

func (c *Client) simpleCommand(cmdName, arg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.conn, "\"%s\n%s\n", arg, cmdName); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmdName, err)
	}
	attrs, _, err := c.readResponse()
	if err != nil {
		return err
	}
	if errMsg, ok := attrs["error"]; ok {
		return fmt.Errorf("server error: %s: %s", errMsg, attrs["desc"])
	}
	return nil
}

func (c *Client) attrCommand(cmdName string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.conn, "%s\n", cmdName); err != nil {
		return nil, fmt.Errorf("failed to send %s command: %w", cmdName, err)
	}
	attrs, _, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	if errMsg, ok := attrs["error"]; ok {
		return nil, fmt.Errorf("server error: %s: %s", errMsg, attrs["desc"])
	}
	return attrs, nil
}

func (c *Client) readResults() ([]Result, error) {
	attrs, body, err := c.readResponse()
	if err != nil {
		return nil, err
	}
	if errMsg, ok := attrs["error"]; ok {
		return nil, fmt.Errorf("server error: %s: %s", errMsg, attrs["desc"])
	}

	var results []Result
	for _, line := range body {
		parts := strings.SplitN(line, "\t", 5)
		if len(parts) < 5 {
			continue
		}
		results = append(results, Result{
			Kind:        parts[0],
			Name:        parts[1],
			Target:      parts[2],
			Icon:        parts[3],
			Description: parts[4],
		})
	}
	return results, nil
}

// readResponse reads one response: the five-byte header, the attribute
// block terminated by a blank line, then list-len body lines if the attrs
// announce any.
func (c *Client) readResponse() (map[string]string, []string, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(c.reader, header); err != nil {
		return nil, nil, fmt.Errorf("failed to read response header: %w", err)
	}

	attrs := make(map[string]string)
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, nil, fmt.Errorf("read error: %w", err)
		}
		if line == "\n" {
			break
		}
		parts := strings.SplitN(strings.TrimSpace(line), ":", 2)
		if len(parts) == 2 {
			attrs[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	count, _ := strconv.Atoi(attrs["list-len"])
	body := make([]string, 0, count)
	for i := 0; i < count; i++ {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, nil, fmt.Errorf("read error: %w", err)
		}
		body = append(body, strings.TrimRight(line, "\n"))
	}
	return attrs, body, nil
}
