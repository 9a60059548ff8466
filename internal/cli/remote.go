package cli

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dmitrijs2005/chatvault/internal/client"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/dmitrijs2005/chatvault/internal/server/models"
)

type apiClient interface {
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	SendMessage(ctx context.Context, chatID, content string) (*models.Message, error)
	UploadImage(ctx context.Context, data []byte, contentType string) (*client.Upload, error)
}

// newAPIClient is a test seam.
var newAPIClient = func(server string, logger logging.Logger) (apiClient, error) {
	return client.New(server, nil, logger)
}

// readFile is a test seam.
var readFile = os.ReadFile

type remoteFlags struct {
	server string
	email  string
}

func (a *App) remoteFlagSet(name string) (*flag.FlagSet, *remoteFlags) {
	fs := a.flagSet(name)
	rf := &remoteFlags{}
	fs.StringVar(&rf.server, "server", "http://localhost:8080", "chatvault server URL")
	fs.StringVar(&rf.email, "email", "", "account email")
	return fs, rf
}

// session logs in with a prompted password and returns a client holding the
// session and key cookies. The caller logs out.
func (a *App) session(ctx context.Context, rf *remoteFlags) (apiClient, error) {
	if rf.email == "" {
		return nil, fmt.Errorf("%w: -email is required", ErrUsage)
	}
	c, err := newAPIClient(rf.server, a.logger)
	if err != nil {
		return nil, err
	}
	pw, err := GetPassword(a.prompt)
	if err != nil {
		return nil, err
	}
	if err := c.Login(ctx, normalizeSalt(rf.email), pw); err != nil {
		return nil, err
	}
	return c, nil
}

// Send posts one user message to a chat. The message is encrypted locally
// with the key the server put in the cookie jar at login.
func (a *App) Send(ctx context.Context, args []string) error {
	fs, rf := a.remoteFlagSet("send")
	chatID := fs.String("chat", "", "chat id")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *chatID == "" {
		return fmt.Errorf("%w: -chat is required", ErrUsage)
	}

	c, err := a.session(ctx, rf)
	if err != nil {
		return err
	}
	defer c.Logout(ctx)

	content, err := a.value(fs)
	if err != nil {
		return err
	}
	msg, err := c.SendMessage(ctx, *chatID, content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, msg.ID)
	return err
}

// Upload stores an image file through a presigned URL and prints its
// storage key.
func (a *App) Upload(ctx context.Context, args []string) error {
	fs, rf := a.remoteFlagSet("upload")
	contentType := fs.String("type", "", "content type, detected from the file when empty")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: exactly one file is required", ErrUsage)
	}

	data, err := readFile(fs.Arg(0))
	if err != nil {
		return err
	}
	ct := *contentType
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	c, err := a.session(ctx, rf)
	if err != nil {
		return err
	}
	defer c.Logout(ctx)

	up, err := c.UploadImage(ctx, data, ct)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, up.StorageKey)
	return err
}
