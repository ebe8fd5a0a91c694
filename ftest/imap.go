package ftest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	giimapserver "github.com/emersion/go-imap/v2/imapserver"
	giimapmemserver "github.com/emersion/go-imap/v2/imapserver/imapmemserver"
)

const (
	DefaultUser = "user@test.com"
	DefaultPass = "toto"
)

// SetupIMAPServer starts an in-memory IMAP server over TLS holding INBOX and
// the given folders. Parent folders of nested names are created first.
func SetupIMAPServer(t *testing.T, caps imap.CapSet, folders []string) (string, *tls.Config) {
	t.Helper()

	tlsConfig := TestTLSConfig(t)
	mem := giimapmemserver.New()
	user := giimapmemserver.NewUser(DefaultUser, DefaultPass)
	mem.AddUser(user)

	created := map[string]bool{}
	create := func(name string) {
		if created[name] {
			return
		}
		if err := user.Create(name, nil); err != nil {
			t.Fatalf("create mailbox %q: %v", name, err)
		}
		created[name] = true
	}

	create("INBOX")
	for _, folder := range folders {
		folder = strings.TrimSpace(folder)
		if folder == "" {
			continue
		}
		parts := strings.Split(folder, "/")
		for i := 1; i <= len(parts); i++ {
			create(strings.Join(parts[:i], "/"))
		}
	}

	server := giimapserver.New(&giimapserver.Options{
		NewSession: func(*giimapserver.Conn) (giimapserver.Session, *giimapserver.GreetingData, error) {
			return mem.NewSession(), nil, nil
		},
		Caps:         caps,
		TLSConfig:    tlsConfig,
		InsecureAuth: true,
	})

	ln, err := tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	t.Cleanup(func() {
		_ = server.Close()
		_ = ln.Close()
		select {
		case <-errCh:
		default:
		}
	})

	return ln.Addr().String(), ClientTLSConfig(tlsConfig)
}

// ClientTLSConfig trusts the certificate of a config built by TestTLSConfig.
func ClientTLSConfig(serverConfig *tls.Config) *tls.Config {
	pool := x509.NewCertPool()
	for _, cert := range serverConfig.Certificates {
		if parsed, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			pool.AddCert(parsed)
		}
	}
	return &tls.Config{RootCAs: pool, ServerName: "localhost"}
}

// TestTLSConfig returns a server config with a fresh self-signed certificate
// for localhost.
func TestTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: "localhost",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
	}
}
