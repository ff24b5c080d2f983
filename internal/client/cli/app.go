package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/passvault/internal/client/client"
	"github.com/dmitrijs2005/passvault/internal/client/config"
	"github.com/dmitrijs2005/passvault/internal/models"
)

type App struct {
	client client.Client
	reader *bufio.Reader
	out    io.Writer
	status models.LockStatus
	online bool
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AccessToken, c.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", c.ServerEndpointAddr, err)
	}
	return newApp(apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c client.Client, in io.Reader, out io.Writer) *App {
	return &App{client: c, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "Welcome to passvault CLI (type 'help' for commands)")
	a.refreshStatus(ctx)
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isUnlocked() bool {
	return a.online && a.status.Unlocked
}

// refreshStatus asks the daemon for the lock state. A failed call marks the
// daemon as offline.
func (a *App) refreshStatus(ctx context.Context) {
	st, err := a.client.Status(ctx)
	if err != nil {
		a.online = false
		return
	}
	a.online = true
	a.status = st
}

func (a *App) getStatus() string {
	if !a.online {
		return "(offline)"
	}
	return "(" + a.status.State().String() + ")"
}
