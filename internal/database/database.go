package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"medicart_back_end/internal/config"
)

// Connections regroupe les clients ouverts au démarrage. Seul le backend
// choisi (scylla ou mongo) est renseigné ; Redis l'est sauf en mémoire.
type Connections struct {
	Scylla *gocql.Session
	Mongo  *mongo.Client
	Redis  *redis.Client
}

// Connect ouvre le backend de persistance et Redis.
func Connect(ctx context.Context, cfg config.Config) (*Connections, error) {
	conns := &Connections{}

	switch cfg.StoreBackend {
	case "memory":
		log.Println("⚠️ STORE_BACKEND=memory : données non persistées, Redis non utilisé")
		return conns, nil
	case "scylla":
		session, err := ConnectScylla(cfg)
		if err != nil {
			return nil, err
		}
		conns.Scylla = session
	case "mongo":
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		conns.Mongo = client
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	rdb, err := ConnectRedis(ctx, cfg)
	if err != nil {
		conns.Close(ctx)
		return nil, err
	}
	conns.Redis = rdb

	log.Println("✅ Toutes les bases de données sont connectées")
	return conns, nil
}

// =============================================
// SCYLLA DB
// =============================================

func newScyllaCluster(cfg config.Config) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = cfg.ScyllaKeyspace
	cluster.Consistency = gocql.Quorum
	// Les LWT (IF ...) passent par Paxos ; LocalSerial suffit en mono-DC.
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.Timeout = cfg.ScyllaTimeout
	cluster.NumConns = cfg.ScyllaNumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

// ConnectScylla ouvre une session sur le keyspace configuré.
func ConnectScylla(cfg config.Config) (*gocql.Session, error) {
	session, err := newScyllaCluster(cfg).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla session for %s: %w", cfg.ScyllaKeyspace, err)
	}
	log.Printf("✅ Session ScyllaDB ouverte pour keyspace '%s'", cfg.ScyllaKeyspace)
	return session, nil
}

// =============================================
// MONGODB
// =============================================

// ConnectMongo crée le client et vérifie la connexion. Les transactions
// exigent un replica set.
func ConnectMongo(ctx context.Context, cfg config.Config) (*mongo.Client, error) {
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is not set")
	}
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Println("✅ Connecté à MongoDB")
	return client, nil
}

// =============================================
// REDIS
// =============================================

func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisHost, err)
	}
	log.Println("✅ Connecté à Redis")
	return rdb, nil
}

// Ping vérifie chaque connexion ouverte.
func (c *Connections) Ping(ctx context.Context) error {
	if c.Scylla != nil {
		if err := c.Scylla.Query("SELECT now() FROM system.local").WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("scylla: %w", err)
		}
	}
	if c.Mongo != nil {
		if err := c.Mongo.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (c *Connections) Close(ctx context.Context) {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil {
			log.Printf("⚠️ Mongo disconnect: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️ Redis close: %v", err)
		}
	}
}
