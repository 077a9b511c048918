package console

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/pkg/errors"
	gossh "golang.org/x/crypto/ssh"

	"github.com/charmbracelet/log"
)

// SSHConfig configures the console's SSH surface. An empty AuthorizedKeys
// list permits any public key.
type SSHConfig struct {
	Address        string
	HostKeyPath    string
	AuthorizedKeys []string
}

// SessionFactory builds a fresh console model per connecting session.
// Sessions share the durable store but each gets its own DOS state.
type SessionFactory func() Model

// ServeSSH runs the console over SSH until ctx is done.
func ServeSSH(ctx context.Context, cfg SSHConfig, newSession SessionFactory) error {
	srv, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(func(sctx ssh.Context, key ssh.PublicKey) bool {
			return authorizeKey(cfg.AuthorizedKeys, key)
		}),

		ssh.AllocatePty(),

		wish.WithMiddleware(
			bubbletea.Middleware(func(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
				log.Info("new console session", "remote_addr", sess.RemoteAddr())
				return newSession(), []tea.ProgramOption{tea.WithAltScreen()}
			}),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
	if err != nil {
		return errors.Wrap(err, "building ssh server")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving console over ssh", "address", cfg.Address)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, ssh.ErrServerClosed) {
			errCh <- serveErr
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		return err
	}
}

func authorizeKey(authorized []string, key ssh.PublicKey) bool {
	if len(authorized) == 0 {
		return true
	}

	presented := strings.TrimSpace(string(gossh.MarshalAuthorizedKey(key)))
	for _, entry := range authorized {
		if strings.TrimSpace(entry) == presented {
			return true
		}
	}
	return false
}
