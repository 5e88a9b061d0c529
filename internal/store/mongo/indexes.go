package mongo

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	productsCollection  = "products"
	movementsCollection = "stock_movements"
	ordersCollection    = "orders"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Un paiement ne produit jamais plus d'une commande.
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "gateway_payment_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_gateway_payment_unique"),
		},
	},
	// Une intention de paiement ne produit jamais plus d'une commande.
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "gateway_order_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_gateway_order_unique"),
		},
	},
	{
		CollectionName: ordersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "customer_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_customer_created"),
		},
	},
	{
		CollectionName: movementsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_movement_product_created"),
		},
	},
}

// EnsureIndexes crée les index requis ; CreateOne est idempotent pour un index identique.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for _, idx := range requiredIndexes {
		name, err := s.db.Collection(idx.CollectionName).Indexes().CreateOne(ctx, idx.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idx.CollectionName, err)
		}
		log.Printf("✅ Index %s.%s prêt", idx.CollectionName, name)
	}
	return nil
}
