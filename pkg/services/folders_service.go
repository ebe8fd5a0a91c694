package services

import (
	"context"
	"log/slog"

	"aaronromeo.com/sievefilters/internal/imapclient"
	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/utils"
)

// FoldersService lists the IMAP folders offered by the fileinto action.
type FoldersService interface {
	ListFolders(ctx context.Context) ([]base.Mailbox, error)
	Submailboxes(ctx context.Context, parent string) ([]base.Mailbox, error)
}

// FoldersServiceImpl implements the FoldersService interface.
type FoldersServiceImpl struct {
	lister base.MailboxLister
	logger *slog.Logger
}

// NewFoldersService creates a new FoldersService implementation.
func NewFoldersService(lister base.MailboxLister, logger *slog.Logger) FoldersService {
	return &FoldersServiceImpl{
		lister: lister,
		logger: logger,
	}
}

func (s *FoldersServiceImpl) ListFolders(ctx context.Context) ([]base.Mailbox, error) {
	mailboxes, err := s.lister.ListMailboxes(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list mailboxes",
			slog.Any("error", utils.WrapError(err)))
		return nil, err
	}
	return mailboxes, nil
}

// Submailboxes returns the direct children of parent, or the top-level
// folders when parent is empty.
func (s *FoldersServiceImpl) Submailboxes(ctx context.Context, parent string) ([]base.Mailbox, error) {
	mailboxes, err := s.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	children := imapclient.Submailboxes(mailboxes, parent)
	s.logger.DebugContext(ctx, "Listed submailboxes",
		slog.String("parent", parent),
		slog.Int("count", len(children)))
	return children, nil
}
