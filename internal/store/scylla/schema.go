// Package scylla implémente les stores produits et commandes sur ScyllaDB.
// Les écritures de stock passent toutes par des LWT pour rester
// linéarisables entre elles.
package scylla

import (
	"fmt"
	"log"

	"github.com/gocql/gocql"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id text PRIMARY KEY,
		name text,
		price_cents bigint,
		stock int,
		image_url text,
		pharmacy_id text,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id text,
		id timeuuid,
		type text,
		quantity int,
		prev_stock int,
		new_stock int,
		reason text,
		order_id text,
		user_id text,
		created_at timestamp,
		PRIMARY KEY ((product_id), id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id text PRIMARY KEY,
		customer_id text,
		customer_email text,
		items text,
		total_cents bigint,
		currency text,
		payment_status text,
		delivery_status text,
		delivery_address text,
		gateway_order_id text,
		gateway_payment_id text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_customer (
		customer_id text,
		created_at timestamp,
		order_id text,
		PRIMARY KEY ((customer_id), created_at, order_id)
	) WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
	`CREATE TABLE IF NOT EXISTS orders_by_payment (
		gateway_payment_id text PRIMARY KEY,
		order_id text
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_gateway_order (
		gateway_order_id text PRIMARY KEY,
		order_id text
	)`,
}

// EnsureSchema crée les tables manquantes dans le keyspace de la session.
// Le keyspace lui-même doit exister.
func EnsureSchema(session *gocql.Session) error {
	for _, stmt := range schema {
		if err := session.Query(stmt).Exec(); err != nil {
			return fmt.Errorf("scylla schema: %w", err)
		}
	}
	log.Println("✅ Schéma ScyllaDB vérifié")
	return nil
}
