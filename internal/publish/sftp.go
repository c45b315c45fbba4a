package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/pkg/sftp"
	"github.com/vesaa/homebuilder/internal/logging"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const dialTimeout = 15 * time.Second

// SFTPWriter writes files on a remote host.
type SFTPWriter struct {
	conn   *ssh.Client
	client *sftp.Client
	host   string
}

// Dial opens an SSH connection to t with key and/or password auth and
// starts an SFTP session on it.
func Dial(ctx context.Context, t Target) (*SFTPWriter, error) {
	cfg, err := clientConfig(t)
	if err != nil {
		return nil, err
	}

	addr := t.Addr()
	d := net.Dialer{Timeout: dialTimeout}
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(raw, addr, cfg)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("SSH handshake %s: %w", addr, err)
	}
	conn := ssh.NewClient(c, chans, reqs)

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SFTP session %s: %w", addr, err)
	}
	return &SFTPWriter{conn: conn, client: client, host: t.Host}, nil
}

func clientConfig(t Target) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	if t.KeyPath != "" {
		keyPEM, err := os.ReadFile(t.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading SSH key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyPEM)
		if err != nil {
			return nil, fmt.Errorf("parsing SSH key: %w", err)
		}
		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}
	if t.Password != "" {
		authMethods = append(authMethods, ssh.Password(t.Password))
	}
	if len(authMethods) == 0 {
		return nil, errors.New("no SSH credentials: set a password in sftp_url or sftp_key_path")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if t.KnownHostsPath != "" {
		cb, err := knownhosts.New(t.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("loading known_hosts: %w", err)
		}
		hostKey = cb
	} else {
		logging.For("publish").WithField("host", t.Host).Warn("host key not verified; set sftp_known_hosts")
	}

	return &ssh.ClientConfig{
		User:            t.User,
		Auth:            authMethods,
		HostKeyCallback: hostKey,
		Timeout:         dialTimeout,
	}, nil
}

// MkdirAll creates dir and any missing parents.
func (w *SFTPWriter) MkdirAll(dir string) error {
	if err := w.client.MkdirAll(dir); err != nil {
		return fmt.Errorf("mkdir %s:%s: %w", w.host, dir, err)
	}
	return nil
}

// WriteFile creates or truncates name and writes data to it.
func (w *SFTPWriter) WriteFile(name string, data []byte) error {
	f, err := w.client.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open %s:%s: %w", w.host, name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s:%s: %w", w.host, name, err)
	}
	return f.Close()
}

// ReadFile returns the contents of a remote file.
func (w *SFTPWriter) ReadFile(name string) ([]byte, error) {
	f, err := w.client.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s:%s: %w", w.host, name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Close ends the SFTP session and the SSH connection.
func (w *SFTPWriter) Close() error {
	err := w.client.Close()
	if cerr := w.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
