package app

import (
	"fmt"

	"taskboard/internal/api"
	"taskboard/internal/config"
	"taskboard/internal/live"
	"taskboard/internal/session"
	"taskboard/internal/store"
	"taskboard/internal/tasks"
)

// Application wires the client components in dependency order:
// credential store -> API client -> push channel -> session
// controller -> task collection.
type Application struct {
	Config  *config.Config
	Store   *store.Store
	API     *api.Client
	Channel *live.Channel
	Session *session.Controller
	Tasks   *tasks.Controller
}

// New builds the client. Opening the credential store is the
// storage-ready signal; Start must be called afterwards to derive the
// initial session state.
func New(cfg *config.Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	credStore, err := store.Open(cfg.Storage.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	channel := live.NewChannel(cfg.Server.PushURL)

	// The API client pulls the token per request, so it tracks
	// whatever identity the session currently holds.
	var sess *session.Controller
	client := api.NewClient(cfg.Server.BaseURL, func() string {
		if sess == nil {
			return ""
		}
		return sess.Token()
	})
	sess = session.NewController(credStore, client, channel)

	return &Application{
		Config:  cfg,
		Store:   credStore,
		API:     client,
		Channel: channel,
		Session: sess,
		Tasks:   tasks.NewController(client, sess, cfg.Tasks.PageSize),
	}, nil
}

// Start runs the one-time session bootstrap.
func (a *Application) Start() error {
	if err := a.Session.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	return nil
}

// Close releases the push connection and the credential store.
func (a *Application) Close() error {
	a.Channel.Close()
	return a.Store.Close()
}
