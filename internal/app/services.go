package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/five82/rewear/internal/catalog"
	"github.com/five82/rewear/internal/config"
	"github.com/five82/rewear/internal/localitems"
	"github.com/five82/rewear/internal/marketplace"
	"github.com/five82/rewear/internal/session"
	"github.com/five82/rewear/internal/storage"
	"github.com/five82/rewear/internal/swaps"
)

// Services are the state components shared by the poller and the UI.
type Services struct {
	Client  *marketplace.Client
	Session *session.Session
	Catalog *catalog.Catalog
	Swaps   *swaps.Negotiator
}

// NewServices wires the state components over one client and one store.
func NewServices(cfg config.Config, store storage.Storage, logger *zap.Logger) (Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := marketplace.NewClient(cfg.APIURL, cfg.RequestTimeout)
	if err != nil {
		return Services{}, fmt.Errorf("init marketplace client: %w", err)
	}
	return Services{
		Client:  client,
		Session: session.New(client, store, logger),
		Catalog: catalog.New(client, localitems.New(store), catalog.Options{
			Logger: logger,
			Demo:   localitems.DemoIdentity{Emails: cfg.DemoEmails, UserID: cfg.DemoUserID},
			Limit:  cfg.PageSize,
		}),
		Swaps: swaps.New(client, logger),
	}, nil
}

// openStorage returns the configured backend. Ephemeral forces memory.
func openStorage(cfg config.Config, ephemeral bool) (storage.Storage, io.Closer, error) {
	if ephemeral || cfg.Storage == config.StorageMemory {
		return storage.NewMemory(), closerFunc(func() error { return nil }), nil
	}
	db, err := storage.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}
	return db, db, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
