package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/odysseus0/rssant/internal/api"
	"github.com/odysseus0/rssant/internal/config"
	"github.com/odysseus0/rssant/internal/content"
	"github.com/odysseus0/rssant/internal/session"
	"github.com/odysseus0/rssant/internal/store"
)

const saveTimeout = 5 * time.Second

type App struct {
	cfg        config.Config
	log        *zap.Logger
	db         *sql.DB
	store      *store.Store
	client     *api.Client
	session    *session.Session
	renderer   *content.Renderer
	discoverer *content.Discoverer
}

// NewApp opens the state database, restores the previous session state and
// wires the API client. stderr receives debug notifications.
func NewApp(ctx context.Context, cfg config.Config, log *zap.Logger, stderr io.Writer) (*App, error) {
	db, err := store.OpenDB(cfg.StatePath)
	if err != nil {
		return nil, err
	}
	snap, err := store.LoadSnapshot(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}
	st := store.New()
	st.Restore(snap)

	opts := api.Options{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  cfg.UserAgent,
		Debug:      cfg.Debug,
		RatePerSec: cfg.RequestsPerSecond,
		Logger:     log.Named("api"),
		Notifier: api.NotifierFunc(func(title, message string) {
			fmt.Fprintf(stderr, "[%s] %s\n", title, message)
		}),
	}
	if cfg.CSRFToken != "" {
		opts.Credentials = api.StaticToken(cfg.CSRFToken)
	}
	client, err := api.NewClient(opts)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", api.ErrValidation, err)
	}

	sess := session.New(st, client, session.Options{
		PollInterval: cfg.PollInterval,
		PollTries:    cfg.PollTries,
		PageSize:     cfg.PageSize,
		Logger:       log.Named("session"),
	})

	return &App{
		cfg:        cfg,
		log:        log,
		db:         db,
		store:      st,
		client:     client,
		session:    sess,
		renderer:   content.NewRenderer(),
		discoverer: content.NewDiscoverer(nil, cfg.HTTPTimeout, cfg.UserAgent),
	}, nil
}

// Close stops background work, persists the store and closes the database.
func (a *App) Close() error {
	a.session.Close()
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	saveErr := store.SaveSnapshot(ctx, a.db, a.store.Snapshot())
	if saveErr != nil {
		saveErr = fmt.Errorf("save state: %w", saveErr)
	}
	return errors.Join(saveErr, a.db.Close())
}
