package managesieve

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"aaronromeo.com/sievefilters/pkg/base"
	"github.com/emersion/go-sasl"
	"github.com/pkg/errors"
)

const DefaultTimeout = 30 * time.Second

var _ base.SieveClient = (*Client)(nil)

// Client is a ManageSieve (RFC 5804) session. It is not safe for
// concurrent use.
type Client struct {
	Addr      string
	Username  string
	Password  string
	TLSConfig *tls.Config
	// StartTLS upgrades the connection before authenticating. The server
	// must advertise STARTTLS.
	StartTLS bool
	Timeout  time.Duration

	conn net.Conn
	r    *bufio.Reader
	w    *bufio.Writer
	caps map[string]string
}

// Connect dials the server, reads its capabilities, optionally upgrades to
// TLS and authenticates with SASL PLAIN.
func (c *Client) Connect(ctx context.Context) error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("ManageSieve address is required")
	}
	if strings.TrimSpace(c.Username) == "" || c.Password == "" {
		return errors.New("ManageSieve credentials are required")
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: c.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return errors.Wrapf(err, "dialing %s", c.Addr)
	}
	c.setConn(conn)

	if err := c.readCapabilities(ctx); err != nil {
		c.conn.Close() //nolint:errcheck
		return errors.Wrap(err, "reading greeting")
	}

	if c.StartTLS {
		if err := c.startTLS(ctx); err != nil {
			c.conn.Close() //nolint:errcheck
			return err
		}
	}

	if err := c.authenticate(ctx); err != nil {
		_ = c.Logout()
		return err
	}
	return nil
}

func (c *Client) setConn(conn net.Conn) {
	c.conn = conn
	c.r = bufio.NewReader(conn)
	c.w = bufio.NewWriter(conn)
}

func (c *Client) startTLS(ctx context.Context) error {
	if _, ok := c.caps["STARTTLS"]; !ok {
		return errors.New("server does not support STARTTLS")
	}
	if _, err := c.execute(ctx, "STARTTLS"); err != nil {
		return errors.Wrap(err, "STARTTLS")
	}

	tlsConfig := c.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	if tlsConfig.ServerName == "" {
		tlsConfig = tlsConfig.Clone()
		host, _, err := net.SplitHostPort(c.Addr)
		if err != nil {
			host = c.Addr
		}
		tlsConfig.ServerName = host
	}

	tlsConn := tls.Client(c.conn, tlsConfig)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return errors.Wrap(err, "TLS handshake")
	}
	c.setConn(tlsConn)

	// the server re-issues its capabilities after the handshake
	return errors.Wrap(c.readCapabilities(ctx), "reading capabilities after STARTTLS")
}

func (c *Client) authenticate(ctx context.Context) error {
	if !c.supportsSASL(sasl.Plain) {
		return errors.Errorf("server does not offer SASL %s", sasl.Plain)
	}
	if err := c.begin(ctx); err != nil {
		return err
	}

	saslClient := sasl.NewPlainClient("", c.Username, c.Password)
	mech, ir, err := saslClient.Start()
	if err != nil {
		return errors.Wrap(err, "starting SASL")
	}
	cmd := "AUTHENTICATE " + encodeString(mech)
	if ir != nil {
		cmd += " " + encodeString(base64.StdEncoding.EncodeToString(ir))
	}
	if err := c.send(cmd); err != nil {
		return err
	}

	for {
		items, err := readItems(c.r)
		if err != nil {
			return err
		}
		if status, ok := isStatus(items); ok {
			return errors.Wrap(statusError(status, items), "authentication failed")
		}
		if len(items) == 0 || items[0].kind != itemString {
			return errors.New("unexpected SASL challenge")
		}
		challenge, err := base64.StdEncoding.DecodeString(items[0].value)
		if err != nil {
			return errors.Wrap(err, "decoding SASL challenge")
		}
		resp, err := saslClient.Next(challenge)
		if err != nil {
			if sendErr := c.send(`"*"`); sendErr != nil {
				return sendErr
			}
			return errors.Wrap(err, "SASL exchange")
		}
		if err := c.send(encodeString(base64.StdEncoding.EncodeToString(resp))); err != nil {
			return err
		}
	}
}

func (c *Client) supportsSASL(mech string) bool {
	for _, m := range strings.Fields(c.caps["SASL"]) {
		if strings.EqualFold(m, mech) {
			return true
		}
	}
	return false
}

// Capabilities returns the capabilities advertised by the server, keyed by
// upper-case name.
func (c *Client) Capabilities() map[string]string {
	caps := make(map[string]string, len(c.caps))
	for k, v := range c.caps {
		caps[k] = v
	}
	return caps
}

// Extensions lists the sieve extensions the server supports.
func (c *Client) Extensions() []string {
	return strings.Fields(c.caps["SIEVE"])
}

func (c *Client) readCapabilities(ctx context.Context) error {
	if err := c.begin(ctx); err != nil {
		return err
	}
	lines, err := c.readResponse()
	if err != nil {
		return err
	}
	c.caps = make(map[string]string, len(lines))
	for _, items := range lines {
		if len(items) == 0 {
			continue
		}
		value := ""
		if len(items) > 1 {
			value = items[1].value
		}
		c.caps[strings.ToUpper(items[0].value)] = value
	}
	return nil
}

// begin applies the context deadline, or the client timeout, to the
// connection.
func (c *Client) begin(ctx context.Context) error {
	if c.conn == nil {
		return errors.New("ManageSieve client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.Timeout)
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Client) send(line string) error {
	if _, err := c.w.WriteString(line + "\r\n"); err != nil {
		return errors.Wrap(err, "writing command")
	}
	return errors.Wrap(c.w.Flush(), "writing command")
}

// readResponse collects data lines up to the final status line.
func (c *Client) readResponse() ([][]item, error) {
	var lines [][]item
	for {
		items, err := readItems(c.r)
		if err != nil {
			return nil, err
		}
		if status, ok := isStatus(items); ok {
			return lines, statusError(status, items)
		}
		lines = append(lines, items)
	}
}

func (c *Client) execute(ctx context.Context, cmd string) ([][]item, error) {
	if err := c.begin(ctx); err != nil {
		return nil, err
	}
	if err := c.send(cmd); err != nil {
		return nil, err
	}
	return c.readResponse()
}

// ListScripts returns the scripts stored for the user.
func (c *Client) ListScripts(ctx context.Context) ([]base.ScriptInfo, error) {
	lines, err := c.execute(ctx, "LISTSCRIPTS")
	if err != nil {
		return nil, errors.Wrap(err, "LISTSCRIPTS")
	}
	scripts := make([]base.ScriptInfo, 0, len(lines))
	for _, items := range lines {
		if len(items) == 0 || items[0].kind != itemString {
			continue
		}
		info := base.ScriptInfo{Name: items[0].value}
		if len(items) > 1 && items[1].kind == itemAtom && strings.EqualFold(items[1].value, "ACTIVE") {
			info.Active = true
		}
		scripts = append(scripts, info)
	}
	return scripts, nil
}

func (c *Client) GetScript(ctx context.Context, name string) (string, error) {
	lines, err := c.execute(ctx, "GETSCRIPT "+encodeString(name))
	if err != nil {
		return "", errors.Wrapf(err, "GETSCRIPT %q", name)
	}
	if len(lines) == 0 || len(lines[0]) == 0 {
		return "", errors.Errorf("GETSCRIPT %q: empty response", name)
	}
	return lines[0][0].value, nil
}

func (c *Client) PutScript(ctx context.Context, name string, content string) error {
	cmd := fmt.Sprintf("PUTSCRIPT %s {%d+}\r\n%s", encodeString(name), len(content), content)
	_, err := c.execute(ctx, cmd)
	return errors.Wrapf(err, "PUTSCRIPT %q", name)
}

func (c *Client) CheckScript(ctx context.Context, content string) error {
	cmd := fmt.Sprintf("CHECKSCRIPT {%d+}\r\n%s", len(content), content)
	_, err := c.execute(ctx, cmd)
	return errors.Wrap(err, "CHECKSCRIPT")
}

func (c *Client) HaveSpace(ctx context.Context, name string, size int) error {
	_, err := c.execute(ctx, "HAVESPACE "+encodeString(name)+" "+strconv.Itoa(size))
	return errors.Wrapf(err, "HAVESPACE %q", name)
}

// SetActive activates a script; an empty name deactivates all scripts.
func (c *Client) SetActive(ctx context.Context, name string) error {
	_, err := c.execute(ctx, "SETACTIVE "+encodeString(name))
	return errors.Wrapf(err, "SETACTIVE %q", name)
}

func (c *Client) DeleteScript(ctx context.Context, name string) error {
	_, err := c.execute(ctx, "DELETESCRIPT "+encodeString(name))
	return errors.Wrapf(err, "DELETESCRIPT %q", name)
}

func (c *Client) RenameScript(ctx context.Context, oldName string, newName string) error {
	_, err := c.execute(ctx, "RENAMESCRIPT "+encodeString(oldName)+" "+encodeString(newName))
	return errors.Wrapf(err, "RENAMESCRIPT %q", oldName)
}

// Logout ends the session and closes the connection.
func (c *Client) Logout() error {
	if c.conn == nil {
		return nil
	}
	defer func() {
		c.conn.Close() //nolint:errcheck
		c.conn = nil
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	_, err := c.execute(ctx, "LOGOUT")
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.Kind == "BYE" {
		return nil
	}
	return err
}

// NewDialer returns a base.SieveDialer connecting to addr with the given
// transport settings.
func NewDialer(addr string, tlsConfig *tls.Config, startTLS bool, timeout time.Duration) base.SieveDialer {
	return func(ctx context.Context, username string, password string) (base.SieveClient, error) {
		client := &Client{
			Addr:      addr,
			Username:  username,
			Password:  password,
			TLSConfig: tlsConfig,
			StartTLS:  startTLS,
			Timeout:   timeout,
		}
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}
