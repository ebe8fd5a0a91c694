package imapclient

import (
	"context"
	"crypto/tls"
	"errors"
	"sort"
	"strings"

	"aaronromeo.com/sievefilters/pkg/base"
	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Connection security modes.
const (
	SecurityTLS      = "tls"
	SecurityStartTLS = "starttls"
	SecurityNone     = "none"
)

var _ base.MailboxLister = (*Client)(nil)

type Option func(*Client)

// Client lists the folders of an IMAP account.
type Client struct {
	Addr      string
	Username  string
	Password  string
	Security  string
	TLSConfig *tls.Config

	client *imapclient.Client
}

func WithAddr(a string) Option {
	return func(c *Client) {
		c.Addr = a
	}
}

func WithCreds(username string, password string) Option {
	return func(c *Client) {
		c.Username = username
		c.Password = password
	}
}

func WithSecurity(mode string) Option {
	return func(c *Client) {
		c.Security = mode
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(c *Client) {
		c.TLSConfig = config
	}
}

func New(opts ...Option) *Client {
	c := &Client{Security: SecurityTLS}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the server and logs in.
func (c *Client) Connect(ctx context.Context) error {
	if err := validateDeps(c); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var options *imapclient.Options
	if c.TLSConfig != nil {
		options = &imapclient.Options{TLSConfig: c.TLSConfig}
	}

	var (
		client *imapclient.Client
		err    error
	)
	switch c.Security {
	case SecurityTLS, "":
		client, err = imapclient.DialTLS(c.Addr, options)
	case SecurityStartTLS:
		client, err = imapclient.DialStartTLS(c.Addr, options)
	case SecurityNone:
		client, err = imapclient.DialInsecure(c.Addr, options)
	default:
		return errors.New("unknown IMAP security mode " + c.Security)
	}
	if err != nil {
		return err
	}

	if err := client.Login(c.Username, c.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		_ = client.Close()
		return err
	}

	c.client = client
	return nil
}

// ListMailboxes returns every folder of the account sorted by name.
func (c *Client) ListMailboxes(ctx context.Context) ([]base.Mailbox, error) {
	if c.client == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := c.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, err
	}

	return buildTree(list), nil
}

// buildTree converts a LIST response into mailboxes sorted by name.
// Parents missing from the response are added as non-selectable entries
// so every folder stays reachable from the top level.
func buildTree(list []*imap.ListData) []base.Mailbox {
	byName := make(map[string]base.Mailbox, len(list))
	for _, data := range list {
		if hasAttr(data.Attrs, imap.MailboxAttrNonExistent) {
			continue
		}
		mb := toMailbox(data.Mailbox, data.Delim)
		mb.Selectable = !hasAttr(data.Attrs, imap.MailboxAttrNoSelect)
		byName[mb.Name] = mb
	}

	for _, mb := range byName {
		for mb.Parent != "" {
			if _, ok := byName[mb.Parent]; ok {
				break
			}
			parent := toMailbox(mb.Parent, []rune(mb.Delimiter)[0])
			byName[parent.Name] = parent
			mb = parent
		}
	}

	mailboxes := make([]base.Mailbox, 0, len(byName))
	for _, mb := range byName {
		mailboxes = append(mailboxes, mb)
	}
	sort.Slice(mailboxes, func(i, j int) bool {
		return mailboxes[i].Name < mailboxes[j].Name
	})
	return mailboxes
}

// Close logs out and clears the connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout().Wait()
	_ = c.client.Close()
	c.client = nil
	return err
}

// Submailboxes returns the direct children of parent. An empty parent
// selects the top-level folders.
func Submailboxes(mailboxes []base.Mailbox, parent string) []base.Mailbox {
	children := []base.Mailbox{}
	for _, mb := range mailboxes {
		if mb.Parent == parent {
			children = append(children, mb)
		}
	}
	return children
}

// NewDialer returns a base.MailboxDialer for addr.
func NewDialer(addr string, security string, tlsConfig *tls.Config) base.MailboxDialer {
	return func(ctx context.Context, username string, password string) (base.MailboxLister, error) {
		client := New(
			WithAddr(addr),
			WithCreds(username, password),
			WithSecurity(security),
			WithTLSConfig(tlsConfig),
		)
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}
}

func toMailbox(name string, delim rune) base.Mailbox {
	mb := base.Mailbox{Name: name, Label: name}
	if delim == 0 {
		return mb
	}
	mb.Delimiter = string(delim)
	if idx := strings.LastIndex(name, mb.Delimiter); idx != -1 {
		mb.Parent = name[:idx]
		mb.Label = name[idx+len(mb.Delimiter):]
	}
	return mb
}

func hasAttr(attrs []imap.MailboxAttr, want imap.MailboxAttr) bool {
	for _, attr := range attrs {
		if attr == want {
			return true
		}
	}
	return false
}

func validateDeps(c *Client) error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == "" {
		return errors.New("IMAP credentials are required")
	}
	return nil
}
