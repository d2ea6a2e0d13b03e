package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrDisabled aucune URI MongoDB configurée
var ErrDisabled = errors.New("mongodb désactivé")

type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// NewClient prépare le client sans bloquer : la connexion est établie à la première opération
func NewClient(config *MongoConfig) (*Client, error) {
	if config.URI == "" {
		return &Client{}, nil
	}

	connectTimeout := config.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	maxPool := config.MaxPoolSize
	if maxPool == 0 {
		maxPool = 100
	}

	clientOptions := options.Client().ApplyURI(config.URI)

	// Configuration du pool de connexions
	clientOptions.SetMaxPoolSize(maxPool)
	clientOptions.SetMinPoolSize(1)
	clientOptions.SetMaxConnIdleTime(30 * time.Minute)
	clientOptions.SetConnectTimeout(connectTimeout)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)

	// Les brouillons sont relus juste après écriture : lecture sur le primaire
	clientOptions.SetReadPreference(readpref.Primary())
	clientOptions.SetRetryWrites(true)
	clientOptions.SetRetryReads(true)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &Client{
		client:   mongoClient,
		database: mongoClient.Database(config.Database),
	}, nil
}

// Enabled faux quand MONGODB_URI est vide
func (c *Client) Enabled() bool {
	return c.client != nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.client == nil {
		return ErrDisabled
	}

	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	return nil
}

func (c *Client) Close(ctx context.Context) error {
	if c.client != nil {
		return c.client.Disconnect(ctx)
	}
	return nil
}

func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection nil si le client est désactivé
func (c *Client) Collection(name string) *mongo.Collection {
	if c.database == nil {
		return nil
	}
	return c.database.Collection(name)
}

func (c *Client) CreateCollection(ctx context.Context, name string, opts ...*options.CreateCollectionOptions) error {
	if c.database == nil {
		return ErrDisabled
	}
	return c.database.CreateCollection(ctx, name, opts...)
}

func (c *Client) ListCollectionNames(ctx context.Context) ([]string, error) {
	if c.database == nil {
		return nil, ErrDisabled
	}
	return c.database.ListCollectionNames(ctx, bson.D{})
}

func (c *Client) CreateIndexes(ctx context.Context, collection string, models []mongo.IndexModel) error {
	if c.database == nil {
		return ErrDisabled
	}
	_, err := c.Collection(collection).Indexes().CreateMany(ctx, models)
	return err
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return err
	}

	// Lecture de la liste des collections : vérifie les droits sur la base
	if _, err := c.ListCollectionNames(ctx); err != nil {
		return fmt.Errorf("health check list collections failed: %w", err)
	}

	return nil
}
