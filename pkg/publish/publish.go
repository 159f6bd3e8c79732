// Package publish copies exported reports to a remote host over SCP.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bramvdbogaerde/go-scp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/jcadam/verdict/pkg/config"
	"github.com/jcadam/verdict/pkg/debug"
)

// ErrNotConfigured is returned when no publish host is set.
var ErrNotConfigured = errors.New("publishing is not configured (set publish.host)")

// dialSSH is ssh.Dial; replaced in tests.
var dialSSH = ssh.Dial

// Publisher uploads files to the configured destination.
type Publisher struct {
	cfg config.PublishConfig
	log *debug.Logger
}

// New creates a Publisher. cfg credentials should already have ${VAR}
// references resolved.
func New(cfg config.PublishConfig, log *debug.Logger) *Publisher {
	return &Publisher{cfg: cfg, log: log}
}

// Enabled reports whether a destination is configured.
func (p *Publisher) Enabled() bool { return p != nil && p.cfg.Enabled() }

// Destination returns the user@host:path a local file would be copied to.
func (p *Publisher) Destination(localPath string) string {
	return fmt.Sprintf("%s@%s:%s", p.cfg.User, p.cfg.Host, p.remotePath(localPath))
}

func (p *Publisher) remotePath(localPath string) string {
	name := filepath.Base(localPath)
	if p.cfg.RemoteDir == "" {
		return name
	}
	return path.Join(p.cfg.RemoteDir, name)
}

func (p *Publisher) address() string {
	port := p.cfg.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(p.cfg.Host, strconv.Itoa(port))
}

// Upload copies localPath into the remote directory and returns the destination.
func (p *Publisher) Upload(ctx context.Context, localPath string) (dest string, retErr error) {
	if !p.Enabled() {
		return "", ErrNotConfigured
	}

	auth, err := p.authMethod()
	if err != nil {
		return "", err
	}
	hostKeys, err := p.hostKeyCallback()
	if err != nil {
		return "", err
	}

	p.log.Printf("publish: dialing %s as %s", p.address(), p.cfg.User)
	client, err := dialSSH("tcp", p.address(), &ssh.ClientConfig{
		User:            p.cfg.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: hostKeys,
		Timeout:         10 * time.Second,
	})
	if err != nil {
		return "", fmt.Errorf("connecting to %s: %w", p.address(), err)
	}
	defer client.Close()

	scpClient, err := scp.NewClientBySSH(client)
	if err != nil {
		return "", fmt.Errorf("starting scp session: %w", err)
	}
	defer scpClient.Close()

	f, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil {
			retErr = errors.Join(retErr, fmt.Errorf("close local file: %w", cErr))
		}
	}()

	remote := p.remotePath(localPath)
	if err := scpClient.CopyFile(ctx, f, remote, "0644"); err != nil {
		return "", fmt.Errorf("copying %s: %w", filepath.Base(localPath), err)
	}
	dest = p.Destination(localPath)
	p.log.Printf("publish: copied %s to %s", localPath, dest)
	return dest, nil
}

// authMethod loads the private key, decrypting it with the passphrase if set.
func (p *Publisher) authMethod() (ssh.AuthMethod, error) {
	keyFile := p.cfg.KeyFile
	if keyFile == "" {
		keyFile = "~/.ssh/id_ed25519"
	}
	keyFile, err := expandHome(keyFile)
	if err != nil {
		return nil, err
	}
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key: %w", err)
	}

	var signer ssh.Signer
	if p.cfg.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(p.cfg.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("key %s is encrypted: set publish.passphrase", keyFile)
		}
		return nil, fmt.Errorf("parsing key %s: %w", keyFile, err)
	}
	return ssh.PublicKeys(signer), nil
}

// hostKeyCallback verifies the server against a known_hosts file.
func (p *Publisher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	file := p.cfg.KnownHosts
	if file == "" {
		file = "~/.ssh/known_hosts"
	}
	file, err := expandHome(file)
	if err != nil {
		return nil, err
	}
	cb, err := knownhosts.New(file)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts: %w", err)
	}
	return cb, nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
