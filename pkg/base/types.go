package base

import (
	"context"
)

const (
	ServiceName    = "sievefilters"
	ServiceVersion = "1.0.0"
)

// ScriptInfo is one entry of a LISTSCRIPTS response.
type ScriptInfo struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Mailbox is an IMAP folder as offered to the fileinto action.
// Selectable is false for folders that only hold other folders.
type Mailbox struct {
	Name       string `json:"name"`
	Delimiter  string `json:"delimiter,omitempty"`
	Parent     string `json:"parent,omitempty"`
	Label      string `json:"label"`
	Selectable bool   `json:"selectable"`
}

// SieveClient is an interface to abstract the managesieve.Client methods used
type SieveClient interface {
	Capabilities() map[string]string
	Extensions() []string
	ListScripts(ctx context.Context) ([]ScriptInfo, error)
	GetScript(ctx context.Context, name string) (string, error)
	PutScript(ctx context.Context, name string, content string) error
	CheckScript(ctx context.Context, content string) error
	HaveSpace(ctx context.Context, name string, size int) error
	SetActive(ctx context.Context, name string) error
	DeleteScript(ctx context.Context, name string) error
	RenameScript(ctx context.Context, oldName string, newName string) error
	Logout() error
}

// MailboxLister is an interface to abstract the imapclient.Client methods used
type MailboxLister interface {
	ListMailboxes(ctx context.Context) ([]Mailbox, error)
	Close() error
}

// SieveDialer opens an authenticated ManageSieve session for a user.
type SieveDialer func(ctx context.Context, username string, password string) (SieveClient, error)

// MailboxDialer opens an authenticated IMAP session for a user.
type MailboxDialer func(ctx context.Context, username string, password string) (MailboxLister, error)
