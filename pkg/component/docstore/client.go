// Package docstore adapts the MongoDB driver as the document store client
// used by the autoconfiguration.
//
// Connect maps a frozen environment onto driver options and returns a
// Cluster. Like the driver, Connect does not wait for the server; call Ping
// to verify connectivity.
//
//	cluster, err := docstore.Connect(ctx, docstore.ConnectionRequest{
//	    ConnectionString: "mongodb://localhost:27017",
//	    Environment:      settings,
//	})
//	if err != nil {
//	    return err
//	}
//	defer cluster.Disconnect(ctx)
//
//	users := cluster.Bucket("app").Collection("users")
package docstore

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/docstore-boot/pkg/environment"
	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// healthTimeout bounds the ping issued by Health.
const healthTimeout = 3 * time.Second

// ConnectionRequest is everything needed to open a cluster.
type ConnectionRequest struct {
	ConnectionString string
	Username         string
	Password         string
	Environment      environment.Settings
}

// Cluster is an open connection to the document store.
type Cluster struct {
	client *mongo.Client
	env    environment.Settings

	mu     sync.RWMutex
	closed bool
}

// ClientOptions maps the request onto driver options:
//
//   - connect timeout: ConnectTimeout and ServerSelectionTimeout
//   - key/value timeout: the per-operation Timeout
//   - min/max connections: MinPoolSize/MaxPoolSize
//   - idle connection timeout: MaxConnIdleTime
//   - TLS: a tls.Config trusting the PEM trust store
func ClientOptions(req ConnectionRequest) (*mongoopts.ClientOptions, error) {
	if req.ConnectionString == "" {
		return nil, autoerrors.NewConfigurationError("connection string is required", "connection-string")
	}
	if req.Environment.IsZero() {
		return nil, autoerrors.NewConfigurationError("environment is not built", "environment")
	}

	t := req.Environment.Timeouts()
	io := req.Environment.IO()

	opts := mongoopts.Client().
		ApplyURI(req.ConnectionString).
		SetConnectTimeout(t.Connect).
		SetServerSelectionTimeout(t.Connect).
		SetMinPoolSize(uint64(io.MinConnections)).
		SetMaxPoolSize(uint64(io.MaxConnections)).
		SetMaxConnIdleTime(io.IdleConnectionTimeout)

	if t.KeyValue > 0 {
		opts.SetTimeout(t.KeyValue)
	}

	if req.Username != "" {
		opts.SetAuth(mongoopts.Credential{
			Username: req.Username,
			Password: req.Password,
		})
	}

	if tlsSettings := req.Environment.TLS(); tlsSettings.Enabled {
		cfg, err := loadTLSConfig(tlsSettings)
		if err != nil {
			return nil, autoerrors.ErrConnectionFailed.WithMessage("could not enable TLS").WithCause(err)
		}
		opts.SetTLSConfig(cfg)
	}

	if err := opts.Validate(); err != nil {
		return nil, autoerrors.ErrConnectionFailed.WithMessage("invalid client options").WithCause(err)
	}
	return opts, nil
}

// Connect opens a cluster for the request.
func Connect(ctx context.Context, req ConnectionRequest) (*Cluster, error) {
	opts, err := ClientOptions(req)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, autoerrors.ErrConnectionFailed.WithCause(err)
	}

	return &Cluster{client: client, env: req.Environment}, nil
}

// Environment returns the settings the cluster was opened with.
func (c *Cluster) Environment() environment.Settings {
	return c.env
}

// Bucket returns a handle to the named database.
func (c *Cluster) Bucket(name string) *Database {
	return &Database{name: name, db: c.client.Database(name), cluster: c}
}

// Ping checks if the connection is alive.
func (c *Cluster) Ping(ctx context.Context) error {
	if c.isClosed() {
		return autoerrors.ErrNotConnected
	}
	if err := c.client.Ping(ctx, nil); err != nil {
		return autoerrors.ErrConnectionFailed.WithCause(err)
	}
	return nil
}

// Health returns a function pinging the cluster with a short timeout.
func (c *Cluster) Health() func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		return c.Ping(ctx)
	}
}

// Disconnect closes the cluster within the environment's disconnect
// timeout. It is safe to call more than once.
func (c *Cluster) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if d := c.env.Timeouts().Disconnect; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	return c.client.Disconnect(ctx)
}

// Raw returns the underlying driver client.
func (c *Cluster) Raw() *mongo.Client {
	return c.client
}

func (c *Cluster) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Database is a handle to one bucket of the cluster.
type Database struct {
	name    string
	db      *mongo.Database
	cluster *Cluster
}

// Name returns the bucket name.
func (d *Database) Name() string {
	return d.name
}

// Collection returns a collection of the bucket.
func (d *Database) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// Cluster returns the cluster the bucket belongs to.
func (d *Database) Cluster() *Cluster {
	return d.cluster
}

// Raw returns the underlying driver database.
func (d *Database) Raw() *mongo.Database {
	return d.db
}
