// Package parser reads the launcher's line-oriented socket protocol:
// a five-byte TXT01 header, then stack-style input where value lines are
// pushed until a command line consumes them.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ValueType represents the type of a value on the stack
type ValueType int

const (
	TypeString ValueType = iota
	TypeInt
	TypeBool
)

// Value represents a value on the stack
type Value struct {
	Type ValueType
	Str  string
	Int  int64
	Bool bool
}

// Command represents a parsed command
type Command struct {
	Name string
	Args []Value
}

// Parser parses stack-style commands
type Parser struct {
	reader  *bufio.Reader
	header  string
	version string
}

// NewParser creates a new parser and consumes the protocol header
func NewParser(reader io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(reader),
	}

	headerBytes := make([]byte, 5)
	if n, err := io.ReadFull(p.reader, headerBytes); err != nil || n != 5 {
		return nil, fmt.Errorf("invalid header")
	}

	p.header = string(headerBytes[:3])
	p.version = string(headerBytes[3:5])

	if p.header != "TXT" {
		return nil, fmt.Errorf("unsupported format: %s", p.header)
	}

	return p, nil
}

// ParseCommand parses the next command from input
func (p *Parser) ParseCommand() (*Command, error) {
	stack := make([]Value, 0)

	for {
		line, err := p.reader.ReadString('\n')
		if err == io.EOF {
			if len(stack) == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// A command line consumes the current stack
		if cmd := parseCommand(line); cmd != "" {
			return &Command{
				Name: cmd,
				Args: stack,
			}, nil
		}

		value, err := parseValue(line)
		if err != nil {
			return nil, fmt.Errorf("parse error: %v", err)
		}
		stack = append(stack, value)
	}

	return nil, io.EOF
}

func parseCommand(line string) string {
	line = strings.TrimSpace(line)

	// Known commands; search-* and browse take string arguments from the
	// stack, launch and open-path take the target string.
	commands := []string{
		"search-apps",
		"search-folders",
		"search-images",
		"search-contents",
		"search-actions",
		"browse",
		"launch",
		"open-path",
		"index-size",
		"stats",
		"hotkey",
	}

	for _, cmd := range commands {
		if line == cmd {
			return cmd
		}
	}

	return ""
}

func parseValue(line string) (Value, error) {
	line = strings.TrimSpace(line)

	// String value (prefixed with ")
	if after, ok := strings.CutPrefix(line, `"`); ok {
		return Value{Type: TypeString, Str: after}, nil
	}

	// Boolean literals (t/f)
	switch line {
	case "t":
		return Value{Type: TypeBool, Bool: true}, nil
	case "f":
		return Value{Type: TypeBool, Bool: false}, nil
	}

	// Integer (must be all digits)
	if intVal, err := strconv.ParseInt(line, 10, 64); err == nil {
		return Value{Type: TypeInt, Int: intVal}, nil
	}

	return Value{}, fmt.Errorf("cannot parse value: %s", line)
}

// ReadAllCommands reads commands until EOF
func (p *Parser) ReadAllCommands() ([]*Command, error) {
	var commands []*Command

	for {
		cmd, err := p.ParseCommand()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}
