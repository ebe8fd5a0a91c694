package services

import (
	"context"
	"errors"
	"testing"

	"aaronromeo.com/sievefilters/pkg/base"
	"aaronromeo.com/sievefilters/pkg/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestFoldersService_Submailboxes(t *testing.T) {
	mailboxes := []base.Mailbox{
		{Name: "Archive", Delimiter: ".", Label: "Archive"},
		{Name: "Archive.2024", Delimiter: ".", Parent: "Archive", Label: "2024"},
		{Name: "INBOX", Delimiter: ".", Label: "INBOX"},
	}

	tests := []struct {
		name      string
		parent    string
		listErr   error
		wantNames []string
		wantErr   string
	}{
		{name: "top level", parent: "", wantNames: []string{"Archive", "INBOX"}},
		{name: "children", parent: "Archive", wantNames: []string{"Archive.2024"}},
		{name: "list error", listErr: errors.New("BAD"), wantErr: "BAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			lister := mock.NewMockMailboxLister(ctrl)
			ctx := context.Background()
			lister.EXPECT().ListMailboxes(ctx).Return(mailboxes, tt.listErr)

			service := NewFoldersService(lister, mock.SetupLogger(t))
			children, err := service.Submailboxes(ctx, tt.parent)

			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			names := []string{}
			for _, mb := range children {
				names = append(names, mb.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}
