package client

import (
	"context"
	"database/sql"
	"time"

	"fleetbook/pkg/db/sqlite"
	"fleetbook/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client holds the store connections a process opened. Only one of Mongo and
// SQL is set, depending on the configured driver.
type Client struct {
	Mongo *mongo.Client
	SQL   *sql.DB
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

func (c *Client) SetSQLite(log *logger.Logger, path string) {
	conn, err := sqlite.Open(path)
	if err != nil {
		log.Fatal("Failed to open SQLite database", "error", err, "path", path)
	}
	if err := conn.Ping(); err != nil {
		log.Fatal("Failed to ping SQLite database", "error", err, "path", path)
	}

	log.Info("Successfully opened SQLite database", "path", path)
	c.SQL = conn
}

// Ping checks whichever store is connected.
func (c *Client) Ping(ctx context.Context) error {
	if c.Mongo != nil {
		return c.Mongo.Ping(ctx, nil)
	}
	if c.SQL != nil {
		return c.SQL.PingContext(ctx)
	}
	return nil
}

func (c *Client) GracefulShutdown(ctx context.Context, log *logger.Logger) {
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}
	if c.SQL != nil {
		if err := c.SQL.Close(); err != nil {
			log.Error("Failed to close SQLite database", "error", err)
		}
	}
}
