package managesieve_test

import (
	"context"
	"testing"
	"time"

	"aaronromeo.com/sievefilters/ftest"
	"aaronromeo.com/sievefilters/internal/managesieve"
	"aaronromeo.com/sievefilters/pkg/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainScript = `require ["fileinto"];

# Filter: test1
if anyof (header :contains "Subject" "Test") {
    fileinto "Test";
}
`

func connect(t *testing.T, srv *ftest.SieveServer, startTLS bool) *managesieve.Client {
	t.Helper()
	client := &managesieve.Client{
		Addr:      srv.Addr,
		Username:  ftest.DefaultUser,
		Password:  ftest.DefaultPass,
		TLSConfig: srv.TLSConfig,
		StartTLS:  startTLS,
		Timeout:   5 * time.Second,
	}
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Logout() })
	return client
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name     string
		opts     ftest.SieveServerOptions
		startTLS bool
		password string
		wantErr  string
	}{
		{
			name:     "plain",
			password: ftest.DefaultPass,
		},
		{
			name:     "starttls",
			opts:     ftest.SieveServerOptions{StartTLS: true},
			startTLS: true,
			password: ftest.DefaultPass,
		},
		{
			name:     "wrong password",
			password: "nope",
			wantErr:  "authentication failed",
		},
		{
			name:     "tls required but not used",
			opts:     ftest.SieveServerOptions{StartTLS: true},
			password: ftest.DefaultPass,
			wantErr:  "does not offer SASL PLAIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := ftest.SetupManageSieveServer(t, tt.opts)
			client := &managesieve.Client{
				Addr:      srv.Addr,
				Username:  ftest.DefaultUser,
				Password:  tt.password,
				TLSConfig: srv.TLSConfig,
				StartTLS:  tt.startTLS,
				Timeout:   5 * time.Second,
			}
			err := client.Connect(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"fileinto", "imap4flags", "envelope"}, client.Extensions())
			assert.Equal(t, "ftest", client.Capabilities()["IMPLEMENTATION"])
			require.NoError(t, client.Logout())
		})
	}
}

func TestConnectRequiresCredentials(t *testing.T) {
	client := &managesieve.Client{Addr: "127.0.0.1:4190"}
	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials are required")
}

func TestScripts(t *testing.T) {
	srv := ftest.SetupManageSieveServer(t, ftest.SieveServerOptions{
		Scripts:  map[string]string{"main_script": mainScript, "other": "keep;\n"},
		Active:   "main_script",
		Validate: true,
	})
	client := connect(t, srv, false)
	ctx := context.Background()

	scripts, err := client.ListScripts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []base.ScriptInfo{
		{Name: "main_script", Active: true},
		{Name: "other"},
	}, scripts)

	content, err := client.GetScript(ctx, "main_script")
	require.NoError(t, err)
	assert.Equal(t, mainScript, content)

	_, err = client.GetScript(ctx, "missing")
	require.Error(t, err)
	assert.True(t, managesieve.IsResponseCode(err, "NONEXISTENT"))

	require.NoError(t, client.HaveSpace(ctx, "new", 42))
	require.NoError(t, client.CheckScript(ctx, "stop;\n"))
	require.NoError(t, client.PutScript(ctx, "new", "# \"quoted\"\r\ndiscard;\n"))
	stored, ok := srv.Script("new")
	require.True(t, ok)
	assert.Equal(t, "# \"quoted\"\r\ndiscard;\n", stored)

	err = client.PutScript(ctx, "broken", "if {")
	require.Error(t, err)
	_, ok = srv.Script("broken")
	assert.False(t, ok)

	require.NoError(t, client.SetActive(ctx, "new"))
	assert.Equal(t, "new", srv.Active())

	err = client.DeleteScript(ctx, "new")
	require.Error(t, err)
	assert.True(t, managesieve.IsResponseCode(err, "ACTIVE"))

	require.NoError(t, client.RenameScript(ctx, "other", "renamed"))
	_, ok = srv.Script("other")
	assert.False(t, ok)

	require.NoError(t, client.DeleteScript(ctx, "renamed"))
	_, ok = srv.Script("renamed")
	assert.False(t, ok)
}

func TestNewDialer(t *testing.T) {
	srv := ftest.SetupManageSieveServer(t, ftest.SieveServerOptions{
		Scripts: map[string]string{"main_script": mainScript},
	})
	dial := managesieve.NewDialer(srv.Addr, nil, false, time.Second)

	client, err := dial(context.Background(), ftest.DefaultUser, ftest.DefaultPass)
	require.NoError(t, err)
	scripts, err := client.ListScripts(context.Background())
	require.NoError(t, err)
	assert.Len(t, scripts, 1)
	require.NoError(t, client.Logout())

	_, err = dial(context.Background(), ftest.DefaultUser, "bad")
	require.Error(t, err)
}

func TestResponseError(t *testing.T) {
	err := &managesieve.ResponseError{Kind: "NO", Code: "QUOTA/MAXSIZE", Message: "too big"}
	assert.Equal(t, "managesieve NO (QUOTA/MAXSIZE): too big", err.Error())
	assert.False(t, managesieve.IsResponseCode(err, "QUOTA"))
	assert.True(t, managesieve.IsResponseCode(err, "quota/maxsize"))
	assert.False(t, managesieve.IsResponseCode(nil, "ACTIVE"))
}
