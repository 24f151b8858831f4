package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound         = errors.New("key not found")
	ErrInvalidNamespace = errors.New("invalid namespace")
)

// Store is a flat string key/value store partitioned into namespaces. Each
// session owns one namespace, the same way a browser owns its local storage.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Keys(ctx context.Context, namespace string) ([]string, error)
	Clear(ctx context.Context, namespace string) error
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver   string
	DataDir  string
	MongoURI string
	MongoDB  string
	MongoTLS bool
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "json":
		return NewJSONStore(opts.DataDir)
	case "sqlite":
		return OpenSQLite(opts.DataDir)
	case "mongo":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDB, opts.MongoTLS)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidNamespace reports whether ns can be used as a namespace. Namespaces
// double as file names in the JSON backend, so they are kept path-safe.
func ValidNamespace(ns string) bool {
	return namespacePattern.MatchString(ns)
}

func checkNamespace(ns string) error {
	if !ValidNamespace(ns) {
		return fmt.Errorf("%w: %q", ErrInvalidNamespace, ns)
	}
	return nil
}
