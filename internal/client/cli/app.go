// Package cli implements the authkeeper command-line client: register,
// login and fetching the protected jokes over the HTTP API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/config"
	"github.com/dmitrijs2005/authkeeper/internal/filex"
)

// API is the subset of client.HTTPClient the commands use.
type API interface {
	Register(ctx context.Context, username string, password []byte) (*client.User, error)
	Login(ctx context.Context, username string, password []byte) (*client.LoginResult, error)
	Jokes(ctx context.Context, token string) ([]client.Joke, error)
}

// newAPI is a test seam.
var newAPI = func(c *config.Config) (API, error) {
	return client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
}

var errNotLoggedIn = errors.New("no token: run login first or pass --token")

type App struct {
	config      *config.Config
	api         API
	reader      *bufio.Reader
	out         io.Writer
	interactive bool
}

// readUserName returns the positional username or prompts for one.
func (a *App) readUserName(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	return GetSimpleText(a.reader, "Enter user name", a.out)
}

// readPassword reads from the terminal without echo, or a plain line when
// input is piped. Callers wipe the result once the request is sent.
func (a *App) readPassword() ([]byte, error) {
	if a.interactive {
		return GetPassword(a.out)
	}
	line, err := GetSimpleText(a.reader, "Enter password", a.out)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

func (a *App) saveToken(token string) error {
	if a.config.TokenFile == "" {
		return nil
	}
	if err := filex.WritePrivateFile(a.config.TokenFile, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (a *App) loadToken() (string, error) {
	if a.config.TokenFile == "" {
		return "", errNotLoggedIn
	}
	data, err := os.ReadFile(a.config.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errNotLoggedIn
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}
