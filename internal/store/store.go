package store

import (
	"context"
	"fmt"

	"github.com/muhdb91/therinproperty/internal/config"
)

// Document keys. Each collection serializes independently under its own key;
// there is no transaction boundary across them.
const (
	KeyListings = "therin_properties"
	KeyLeads    = "therin_leads"
	KeyConfig   = "therin_config"
)

// Event describes a document change made by another store context (another
// process or another Store instance sharing the same backend). A store never
// delivers its own writes on its Watch channel.
type Event struct {
	Key  string
	Data []byte
}

// Store is durable key-value document storage. Values are JSON documents;
// concurrent writers get last-write-wins semantics, which this interface
// inherits from its backends and does not strengthen.
type Store interface {
	// Load decodes the document under key into out. found is false when no
	// document exists.
	Load(ctx context.Context, key string, out interface{}) (found bool, err error)
	// Save serializes v and overwrites the document under key.
	Save(ctx context.Context, key string, v interface{}) error
	// Watch streams externally-originated document changes until ctx is
	// cancelled. At most one Watch per Store.
	Watch(ctx context.Context) (<-chan Event, error)
	Close() error
}

// New constructs the backend selected by cfg.StoreBackend.
func New(cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "file":
		return NewFileStore(cfg.DataDir)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "mongo":
		return NewMongoStore(cfg.MongoURI, cfg.MongoDbName)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
