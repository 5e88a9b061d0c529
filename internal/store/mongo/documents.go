package mongo

import (
	"time"

	"medicart_back_end/internal/models"
)

type productDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	PriceCents int64     `bson:"price_cents"`
	Stock      int       `bson:"stock"`
	ImageURL   string    `bson:"image_url,omitempty"`
	PharmacyID string    `bson:"pharmacy_id,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func (d productDoc) toModel() models.Product {
	return models.Product{
		ID:         d.ID,
		Name:       d.Name,
		Price:      models.FromMinorUnits(d.PriceCents),
		Stock:      d.Stock,
		ImageURL:   d.ImageURL,
		PharmacyID: d.PharmacyID,
		UpdatedAt:  d.UpdatedAt,
	}
}

type movementDoc struct {
	ID        string    `bson:"_id"`
	ProductID string    `bson:"product_id"`
	Type      string    `bson:"type"`
	Quantity  int       `bson:"quantity"`
	PrevStock int       `bson:"prev_stock"`
	NewStock  int       `bson:"new_stock"`
	Reason    string    `bson:"reason,omitempty"`
	OrderID   string    `bson:"order_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

type orderItemDoc struct {
	ProductID  string `bson:"product_id"`
	Name       string `bson:"name"`
	Quantity   int    `bson:"quantity"`
	PriceCents int64  `bson:"price_cents"`
}

type orderDoc struct {
	ID               string                 `bson:"_id"`
	CustomerID       string                 `bson:"customer_id"`
	CustomerEmail    string                 `bson:"customer_email,omitempty"`
	Items            []orderItemDoc         `bson:"items"`
	TotalCents       int64                  `bson:"total_cents"`
	Currency         string                 `bson:"currency"`
	PaymentStatus    string                 `bson:"payment_status"`
	DeliveryStatus   string                 `bson:"delivery_status"`
	DeliveryAddress  models.DeliveryAddress `bson:"delivery_address"`
	GatewayOrderID   string                 `bson:"gateway_order_id"`
	GatewayPaymentID string                 `bson:"gateway_payment_id"`
	CreatedAt        time.Time              `bson:"created_at"`
	UpdatedAt        time.Time              `bson:"updated_at"`
}

func orderToDoc(o *models.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDoc{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			PriceCents: models.ToMinorUnits(it.PriceAtPurchase),
		})
	}
	return orderDoc{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		CustomerEmail:    o.CustomerEmail,
		Items:            items,
		TotalCents:       models.ToMinorUnits(o.TotalPrice),
		Currency:         o.Currency,
		PaymentStatus:    string(o.PaymentStatus),
		DeliveryStatus:   string(o.DeliveryStatus),
		DeliveryAddress:  o.DeliveryAddress,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func (d orderDoc) toModel() models.Order {
	items := make([]models.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.OrderItem{
			ProductID:       it.ProductID,
			Name:            it.Name,
			Quantity:        it.Quantity,
			PriceAtPurchase: models.FromMinorUnits(it.PriceCents),
		})
	}
	return models.Order{
		ID:               d.ID,
		CustomerID:       d.CustomerID,
		CustomerEmail:    d.CustomerEmail,
		Items:            items,
		TotalPrice:       models.FromMinorUnits(d.TotalCents),
		Currency:         d.Currency,
		PaymentStatus:    models.PaymentStatus(d.PaymentStatus),
		DeliveryStatus:   models.DeliveryStatus(d.DeliveryStatus),
		DeliveryAddress:  d.DeliveryAddress,
		GatewayOrderID:   d.GatewayOrderID,
		GatewayPaymentID: d.GatewayPaymentID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
