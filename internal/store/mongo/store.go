// Package mongo implémente les stores produits et commandes sur MongoDB.
// Le commit d'une commande s'exécute dans une transaction multi-documents
// (replica set requis).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"medicart_back_end/internal/models"
	"medicart_back_end/internal/store"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) products() *mongo.Collection  { return s.db.Collection(productsCollection) }
func (s *Store) movements() *mongo.Collection { return s.db.Collection(movementsCollection) }
func (s *Store) orders() *mongo.Collection    { return s.db.Collection(ordersCollection) }

// RunInTx exécute fn dans une transaction. Le driver peut rejouer fn sur
// erreur transitoire : fn ne doit avoir d'effet que via ctx.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if store.InTx(ctx) {
		return fn(ctx)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.WithoutCancel(ctx))

	_, err = session.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		return nil, fn(store.WithTx(txCtx))
	})
	return err
}

// --- produits ---

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var doc productDoc
	err := s.products().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	p := doc.toModel()
	return &p, nil
}

func (s *Store) GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.products().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, d := range docs {
		out[d.ID] = d.toModel()
	}
	return out, nil
}

func (s *Store) adjustStock(ctx context.Context, filter bson.M, update bson.M) (int, error) {
	var doc productDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.products().FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Stock, nil
}

// DecrementStock filtre sur stock >= qty : la mise à jour est conditionnelle côté serveur.
func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	stock, err := s.adjustStock(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		p, getErr := s.GetProduct(ctx, id)
		if getErr != nil {
			return 0, getErr
		}
		return p.Stock, store.ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock %s: %w", id, err)
	}
	return stock, nil
}

func (s *Store) IncrementStock(ctx context.Context, id string, qty int) (int, error) {
	stock, err := s.adjustStock(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}, "$set": bson.M{"updated_at": time.Now()}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment stock %s: %w", id, err)
	}
	return stock, nil
}

// SetStock lit la valeur remplacée dans le même FindOneAndUpdate.
func (s *Store) SetStock(ctx context.Context, id string, stock int) (int, error) {
	var doc productDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := s.products().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stock": stock, "updated_at": time.Now()}},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("set stock %s: %w", id, err)
	}
	return doc.Stock, nil
}

func (s *Store) RecordMovement(ctx context.Context, m models.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.movements().InsertOne(ctx, movementDoc{
		ID:        m.ID,
		ProductID: m.ProductID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		PrevStock: m.PrevStock,
		NewStock:  m.NewStock,
		Reason:    m.Reason,
		OrderID:   m.OrderID,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("record movement %s: %w", m.ProductID, err)
	}
	return nil
}

func (s *Store) ListMovements(ctx context.Context, productID string, limit int) ([]models.StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.movements().Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list movements %s: %w", productID, err)
	}
	defer cursor.Close(ctx)

	var docs []movementDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}
	out := make([]models.StockMovement, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.StockMovement{
			ID:        d.ID,
			ProductID: d.ProductID,
			Type:      models.MovementType(d.Type),
			Quantity:  d.Quantity,
			PrevStock: d.PrevStock,
			NewStock:  d.NewStock,
			Reason:    d.Reason,
			OrderID:   d.OrderID,
			UserID:    d.UserID,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// --- commandes ---

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.orders().InsertOne(ctx, orderToDoc(order))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicatePayment
	}
	if err != nil {
		return fmt.Errorf("insert order %s: %w", order.ID, err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	var doc orderDoc
	err := s.orders().FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	o := doc.toModel()
	return &o, nil
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) FindOrderByPayment(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"gateway_payment_id": paymentID})
}

func (s *Store) FindOrderByGatewayOrder(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"gateway_order_id": gatewayOrderID})
}

func (s *Store) DeleteOrder(ctx context.Context, order *models.Order) error {
	res, err := s.orders().DeleteOne(ctx, bson.M{"_id": order.ID})
	if err != nil {
		return fmt.Errorf("delete order %s: %w", order.ID, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.orders().Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", customerID, err)
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	out := make([]models.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, from, to models.DeliveryStatus, payment models.PaymentStatus) error {
	res, err := s.orders().UpdateOne(ctx,
		bson.M{"_id": id, "delivery_status": string(from)},
		bson.M{"$set": bson.M{
			"delivery_status": string(to),
			"payment_status":  string(payment),
			"updated_at":      time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.FindOrder(ctx, id); err != nil {
		return err
	}
	return store.ErrStatusConflict
}
