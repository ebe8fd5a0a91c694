package ftest

import (
	"bufio"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"aaronromeo.com/sievefilters/pkg/models/filtersset"
	"github.com/emersion/go-sasl"
)

// SieveServerOptions configures SetupManageSieveServer.
type SieveServerOptions struct {
	Scripts map[string]string
	Active  string
	// StartTLS makes the server require a TLS upgrade before
	// authentication.
	StartTLS bool
	// Validate rejects PUTSCRIPT/CHECKSCRIPT content that does not load.
	Validate bool
}

// SieveServer is a single-user ManageSieve server keeping scripts in memory.
type SieveServer struct {
	Addr      string
	TLSConfig *tls.Config

	opts     SieveServerOptions
	mu       sync.Mutex
	scripts  map[string]string
	active   string
	commands []string
}

// SetupManageSieveServer starts a server on a random local port; it is
// stopped when the test ends.
func SetupManageSieveServer(t *testing.T, opts SieveServerOptions) *SieveServer {
	t.Helper()

	srv := &SieveServer{
		opts:    opts,
		scripts: map[string]string{},
		active:  opts.Active,
	}
	for name, content := range opts.Scripts {
		srv.scripts[name] = content
	}

	var serverTLS *tls.Config
	if opts.StartTLS {
		serverTLS = TestTLSConfig(t)
		srv.TLSConfig = ClientTLSConfig(serverTLS)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv.Addr = ln.Addr().String()

	var wg sync.WaitGroup
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				srv.serve(conn, serverTLS)
			}()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})
	return srv
}

// Script returns the stored content of a script.
func (s *SieveServer) Script(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.scripts[name]
	return content, ok
}

// Active returns the name of the active script.
func (s *SieveServer) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Commands returns the command names received so far.
func (s *SieveServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

type sieveConn struct {
	conn          net.Conn
	r             *bufio.Reader
	w             *bufio.Writer
	tls           bool
	authenticated bool
}

func (c *sieveConn) line(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\r\n", args...)
}

func (s *SieveServer) serve(conn net.Conn, serverTLS *tls.Config) {
	c := &sieveConn{conn: conn, r: bufio.NewReader(conn), w: bufio.NewWriter(conn)}
	defer func() { _ = c.conn.Close() }()

	s.capabilities(c, serverTLS)
	c.line(`OK "ftest ManageSieve ready"`)
	_ = c.w.Flush()

	for {
		args, err := readArgs(c.r)
		if err != nil {
			return
		}
		if len(args) == 0 {
			continue
		}
		cmd := strings.ToUpper(args[0])
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()

		if !c.authenticated && cmd != "CAPABILITY" && cmd != "STARTTLS" && cmd != "AUTHENTICATE" && cmd != "LOGOUT" {
			c.line(`NO "Authenticate first"`)
			_ = c.w.Flush()
			continue
		}

		switch cmd {
		case "CAPABILITY":
			s.capabilities(c, serverTLS)
			c.line("OK")
		case "STARTTLS":
			if serverTLS == nil || c.tls {
				c.line(`NO "STARTTLS not available"`)
				break
			}
			c.line("OK")
			_ = c.w.Flush()
			tlsConn := tls.Server(c.conn, serverTLS)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			c.conn = tlsConn
			c.r = bufio.NewReader(tlsConn)
			c.w = bufio.NewWriter(tlsConn)
			c.tls = true
			s.capabilities(c, serverTLS)
			c.line("OK")
		case "AUTHENTICATE":
			s.authenticate(c, args)
		case "LOGOUT":
			c.line(`OK "Logout completed"`)
			_ = c.w.Flush()
			return
		default:
			s.mu.Lock()
			s.handle(c, cmd, args[1:])
			s.mu.Unlock()
		}
		if err := c.w.Flush(); err != nil {
			return
		}
	}
}

func (s *SieveServer) capabilities(c *sieveConn, serverTLS *tls.Config) {
	c.line(`"IMPLEMENTATION" "ftest"`)
	c.line(`"SIEVE" "fileinto imap4flags envelope"`)
	if serverTLS != nil && !c.tls {
		c.line(`"STARTTLS"`)
		c.line(`"SASL" ""`)
	} else {
		c.line(`"SASL" "PLAIN"`)
	}
	c.line(`"VERSION" "1.0"`)
}

func (s *SieveServer) authenticate(c *sieveConn, args []string) {
	if s.opts.StartTLS && !c.tls {
		c.line(`NO "Use STARTTLS first"`)
		return
	}
	if len(args) < 2 || !strings.EqualFold(args[1], sasl.Plain) {
		c.line(`NO "Unsupported mechanism"`)
		return
	}

	server := sasl.NewPlainServer(func(identity, username, password string) error {
		if username != DefaultUser || password != DefaultPass {
			return fmt.Errorf("invalid credentials")
		}
		return nil
	})

	var response []byte
	if len(args) > 2 {
		decoded, err := base64.StdEncoding.DecodeString(args[2])
		if err != nil {
			c.line(`NO "Invalid base64"`)
			return
		}
		response = decoded
	} else {
		c.line(`""`)
		_ = c.w.Flush()
		next, err := readArgs(c.r)
		if err != nil || len(next) == 0 {
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(next[0])
		if err != nil {
			c.line(`NO "Invalid base64"`)
			return
		}
		response = decoded
	}

	if _, _, err := server.Next(response); err != nil {
		c.line(`NO "Authentication failed"`)
		return
	}
	c.authenticated = true
	c.line(`OK "Authenticated"`)
}

// handle runs a script command; s.mu is held.
func (s *SieveServer) handle(c *sieveConn, cmd string, args []string) {
	need := map[string]int{
		"LISTSCRIPTS": 0, "GETSCRIPT": 1, "PUTSCRIPT": 2, "CHECKSCRIPT": 1,
		"HAVESPACE": 2, "SETACTIVE": 1, "DELETESCRIPT": 1, "RENAMESCRIPT": 2,
	}
	n, ok := need[cmd]
	if !ok {
		c.line(`NO "Unknown command"`)
		return
	}
	if len(args) < n {
		c.line(`NO "Missing arguments"`)
		return
	}

	switch cmd {
	case "LISTSCRIPTS":
		names := make([]string, 0, len(s.scripts))
		for name := range s.scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if name == s.active {
				c.line("%s ACTIVE", strconv.Quote(name))
			} else {
				c.line("%s", strconv.Quote(name))
			}
		}
		c.line("OK")
	case "GETSCRIPT":
		content, ok := s.scripts[args[0]]
		if !ok {
			c.line(`NO (NONEXISTENT) "There is no script by that name"`)
			return
		}
		c.line("{%d}\r\n%s", len(content), content)
		c.line("OK")
	case "PUTSCRIPT", "CHECKSCRIPT":
		content := args[len(args)-1]
		if s.opts.Validate {
			if err := filtersset.ValidateScript(content); err != nil {
				c.line("NO %s", strconv.Quote(err.Error()))
				return
			}
		}
		if cmd == "PUTSCRIPT" {
			s.scripts[args[0]] = content
		}
		c.line("OK")
	case "HAVESPACE":
		c.line("OK")
	case "SETACTIVE":
		if args[0] != "" {
			if _, ok := s.scripts[args[0]]; !ok {
				c.line(`NO (NONEXISTENT) "There is no script by that name"`)
				return
			}
		}
		s.active = args[0]
		c.line("OK")
	case "DELETESCRIPT":
		if _, ok := s.scripts[args[0]]; !ok {
			c.line(`NO (NONEXISTENT) "There is no script by that name"`)
			return
		}
		if args[0] == s.active {
			c.line(`NO (ACTIVE) "You may not delete an active script"`)
			return
		}
		delete(s.scripts, args[0])
		c.line("OK")
	case "RENAMESCRIPT":
		content, ok := s.scripts[args[0]]
		if !ok {
			c.line(`NO (NONEXISTENT) "There is no script by that name"`)
			return
		}
		if _, exists := s.scripts[args[1]]; exists {
			c.line(`NO (ALREADYEXISTS) "A script with that name already exists"`)
			return
		}
		delete(s.scripts, args[0])
		s.scripts[args[1]] = content
		if s.active == args[0] {
			s.active = args[1]
		}
		c.line("OK")
	}
}

// readArgs reads one client command: atoms, quoted strings and literals.
func readArgs(r *bufio.Reader) ([]string, error) {
	var args []string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")

		literal := -1
		for i := 0; i < len(line); {
			switch {
			case line[i] == ' ':
				i++
			case line[i] == '"':
				var b strings.Builder
				j := i + 1
				for ; j < len(line) && line[j] != '"'; j++ {
					if line[j] == '\\' && j+1 < len(line) {
						j++
					}
					b.WriteByte(line[j])
				}
				args = append(args, b.String())
				i = j + 1
			case line[i] == '{' && strings.HasSuffix(line, "}"):
				n, err := strconv.Atoi(strings.TrimSuffix(line[i+1:len(line)-1], "+"))
				if err != nil {
					return nil, err
				}
				literal = n
				i = len(line)
			default:
				end := strings.IndexByte(line[i:], ' ')
				if end == -1 {
					end = len(line) - i
				}
				args = append(args, line[i:i+end])
				i += end
			}
		}

		if literal == -1 {
			return args, nil
		}
		buf := make([]byte, literal)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf))
	}
}
