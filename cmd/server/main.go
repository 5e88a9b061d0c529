package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"medicart_back_end/internal/cache"
	"medicart_back_end/internal/config"
	"medicart_back_end/internal/database"
	"medicart_back_end/internal/events"
	"medicart_back_end/internal/handlers"
	"medicart_back_end/internal/metrics"
	"medicart_back_end/internal/middleware"
	"medicart_back_end/internal/routes"
	"medicart_back_end/internal/services/cart"
	"medicart_back_end/internal/services/checkout"
	"medicart_back_end/internal/services/inventory"
	"medicart_back_end/internal/services/orders"
	"medicart_back_end/internal/services/payment"
	"medicart_back_end/internal/store"
	"medicart_back_end/internal/store/memory"
	mongostore "medicart_back_end/internal/store/mongo"
	"medicart_back_end/internal/store/scylla"
	"medicart_back_end/internal/utils"
)

// backend regroupe les implémentations de stockage retenues au démarrage.
type backend struct {
	products store.ProductStore
	orders   store.OrderStore
	tx       store.TxRunner
	carts    store.CartStore
	staging  store.StagingStore
	locker   store.Locker
	limiter  middleware.Limiter
}

func buildBackend(ctx context.Context, cfg config.Config, conns *database.Connections) (backend, error) {
	var b backend

	switch {
	case conns.Scylla != nil:
		if cfg.ScyllaCreateSchema {
			if err := scylla.EnsureSchema(conns.Scylla); err != nil {
				return b, err
			}
		}
		b.products = scylla.NewProductStore(conns.Scylla)
		b.orders = scylla.NewOrderStore(conns.Scylla)
		b.tx = store.NoTx{}
	case conns.Mongo != nil:
		ms := mongostore.New(conns.Mongo, cfg.MongoDatabase)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return b, err
		}
		b.products, b.orders, b.tx = ms, ms, ms
	default:
		mem := memory.New()
		b.products, b.orders, b.tx = mem, mem, store.NoTx{}
		b.carts, b.staging, b.locker = mem, mem, memory.NewLocker()
		return b, nil
	}

	b.carts = cache.NewCartStore(conns.Redis)
	b.staging = cache.NewStagingStore(conns.Redis)
	b.locker = cache.NewLocker(conns.Redis)
	b.limiter = cache.NewRateLimiter(conns.Redis)
	return b, nil
}

func main() {
	config.Load()
	cfg := config.FromEnv()

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET manquant")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conns, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Connexion aux bases impossible: %v", err)
	}
	defer conns.Close(context.Background())

	b, err := buildBackend(ctx, cfg, conns)
	if err != nil {
		log.Fatalf("❌ Initialisation du stockage: %v", err)
	}

	signingSecret := cfg.SigningSecret
	if signingSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("❌ PAYMENT_SIGNING_SECRET manquant")
		}
		signingSecret = uuid.NewString()
		log.Println("⚠️ PAYMENT_SIGNING_SECRET vide, secret éphémère généré")
	}
	signer := payment.NewSigner(signingSecret)

	var gateway payment.Gateway
	var sandbox *payment.SandboxGateway
	switch {
	case cfg.StripeSecretKey != "":
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey)
		log.Println("✅ Stripe initialisé")
	case cfg.IsProduction():
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	default:
		sandbox = payment.NewSandboxGateway(signer)
		gateway = sandbox
		log.Println("⚠️ STRIPE_SECRET_KEY vide, passerelle sandbox utilisée")
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	notifier := utils.NewNotifier(utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	m := metrics.New()

	ledger := inventory.NewLedger(b.products)
	carts := cart.NewService(b.carts, b.products, b.locker)
	orderSvc := orders.NewService(b.orders, ledger, publisher, notifier)
	co := checkout.New(checkout.Deps{
		Carts:      carts,
		Ledger:     ledger,
		Products:   b.products,
		Orders:     orderSvc,
		Staging:    b.staging,
		Locker:     b.locker,
		Tx:         b.tx,
		Gateway:    gateway,
		Signer:     signer,
		Publisher:  publisher,
		Notifier:   notifier,
		Metrics:    m,
		Currency:   cfg.Currency,
		StagingTTL: cfg.StagingTTL,
	})

	h := &handlers.Handler{
		Carts:         carts,
		Checkout:      co,
		Orders:        orderSvc,
		Ledger:        ledger,
		Publisher:     publisher,
		Metrics:       m,
		WebhookSecret: cfg.StripeWebhookSecret,
		Sandbox:       sandbox,
		Ping:          conns.Ping,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(r, h, routes.Options{
		JWTSecret:         cfg.JWTSecret,
		Limiter:           b.limiter,
		CheckoutRateLimit: cfg.CheckoutRateLimit,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("🚀 Serveur MediCart lancé sur le port %s (stockage %s, passerelle %s)", cfg.Port, cfg.StoreBackend, gateway.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🔌 Arrêt en cours...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Arrêt du serveur: %v", err)
	}
}
