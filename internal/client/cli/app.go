package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/client/config"
	"github.com/dmitrijs2005/docvault/internal/client/documents"
	"github.com/dmitrijs2005/docvault/internal/client/models"
	"github.com/dmitrijs2005/docvault/internal/client/recovery"
	"github.com/dmitrijs2005/docvault/internal/client/session"
	"github.com/dmitrijs2005/docvault/internal/client/storage"
	"github.com/dmitrijs2005/docvault/internal/logging"

	_ "modernc.org/sqlite"
)

// sessionStore is the slice of the session store the views need.
type sessionStore interface {
	Restore(ctx context.Context) error
	Register(ctx context.Context, req api.RegisterRequest) error
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	Authenticated() bool
	User() *models.User
	Status() session.Status
	LastError() string
}

// documentStore is the slice of the document collection store the views need.
type documentStore interface {
	FetchAll(ctx context.Context) error
	Items() []models.Document
	Get(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, up api.Upload) error
	Update(ctx context.Context, id string, up api.Upload) error
	Remove(ctx context.Context, id string) error
	Clear()
	LastError() string
}

// recoveryFlow is the stage surface of the password recovery workflow.
type recoveryFlow interface {
	RequestOTP(ctx context.Context, email string) (*recovery.Attempt, string, error)
	VerifyOTP(ctx context.Context, at *recovery.Attempt, otp string) (string, error)
	ResetPassword(ctx context.Context, at *recovery.Attempt, newPassword string) (string, error)
}

// App wires the stores and views together. It also plays the part of
// the navigation layer: it owns the in-progress recovery attempt and
// hands it to each recovery stage, discarding it when the flow exits.
type App struct {
	config    *config.Config
	session   sessionStore
	documents documentStore
	recovery  recoveryFlow

	// attempt is the ephemeral recovery state. Never persisted, never
	// placed in the session store.
	attempt *recovery.Attempt

	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger

	// sleep is a test seam for the visible-confirmation delay.
	sleep func(time.Duration)
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing client database", "error", err)
		return nil, err
	}
	repo := storage.NewSQLiteRepository(db)

	apiClient := api.NewRESTClient(c.ServerBaseURL, c.RequestTimeout)

	sessionStore := session.NewStore(apiClient, repo, log)
	documentStore := documents.NewStore(apiClient, sessionStore, log)
	recoveryFlow := recovery.NewFlow(apiClient, log)

	return &App{
		config:    c,
		session:   sessionStore,
		documents: documentStore,
		recovery:  recoveryFlow,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		log:       log,
		sleep:     time.Sleep,
	}, nil
}

// Run rehydrates the session from durable storage and starts the REPL.
func (a *App) Run(ctx context.Context) {
	if err := a.session.Restore(ctx); err != nil {
		a.log.Error(ctx, "error restoring session", "error", err)
	}
	a.repl(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.session.Authenticated()
}

// guard admits a protected view only when a user is present; otherwise
// it redirects to the login view. The check runs on every dispatch and
// is never cached, so logout revokes access immediately.
func (a *App) guard(ctx context.Context, view func(context.Context) error) error {
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "Please log in first.")
		return a.Login(ctx)
	}
	return view(ctx)
}
