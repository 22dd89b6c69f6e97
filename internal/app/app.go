package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/catalogsync/internal/config"
	"github.com/davicafu/catalogsync/internal/inventory/application"
	"github.com/davicafu/catalogsync/internal/inventory/domain"
	inboundEvents "github.com/davicafu/catalogsync/internal/inventory/infra/inbound/events"
	inboundHttp "github.com/davicafu/catalogsync/internal/inventory/infra/inbound/http"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/audit"
	mongoStore "github.com/davicafu/catalogsync/internal/inventory/infra/outbound/db/mongodb"
	pgStore "github.com/davicafu/catalogsync/internal/inventory/infra/outbound/db/postgres"
	sqliteStore "github.com/davicafu/catalogsync/internal/inventory/infra/outbound/db/sqlite"
	outboundEvents "github.com/davicafu/catalogsync/internal/inventory/infra/outbound/events"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/lock"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/remote"
	"github.com/davicafu/catalogsync/internal/inventory/infra/outbound/storefront"
	sharedDomain "github.com/davicafu/catalogsync/internal/shared/domain"
	sharedEvents "github.com/davicafu/catalogsync/internal/shared/infra/events"
	"github.com/davicafu/catalogsync/internal/shared/infra/metrics"
	mongoOutbox "github.com/davicafu/catalogsync/internal/shared/infra/platform/db/mongodb"
	pgOutbox "github.com/davicafu/catalogsync/internal/shared/infra/platform/db/postgres"
	sqliteOutbox "github.com/davicafu/catalogsync/internal/shared/infra/platform/db/sqlite"
	"github.com/davicafu/catalogsync/internal/shared/infra/relayer"
	"github.com/davicafu/catalogsync/internal/shared/infra/utils"
)

// Reintentos al conectar con la base de datos en el arranque; en
// contenedores la base suele levantarse después que el servicio.
const (
	connectAttempts = 5
	connectDelay    = 2 * time.Second
)

// stores agrupa los adaptadores de persistencia del driver elegido.
type stores struct {
	products   domain.MetaStore
	categories domain.MetaStore
	deleted    domain.DeletedItemStore
	outbox     sharedDomain.OutboxRepository
}

// App es la raíz de composición: construye y conecta todos los adaptadores.
type App struct {
	Config     *config.Config
	Keys       domain.MetaKeys
	Dispatcher *application.Dispatcher
	Trigger    *application.TriggerService
	Pending    *application.PendingQuery
	Relayer    *relayer.Worker

	consumer    *inboundEvents.DescriptorConsumer
	kafkaReader *kafka.Reader
	stockLock   domain.StockLock
	log         *zap.Logger
	closers     []func() error
}

// New conecta almacenamiento, lock, auditoría, cliente remoto y transporte
// según la configuración.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	keys := domain.DefaultMetaKeys(cfg.MetaKeyPrefix)
	keys.ProductPending = cfg.ProductPendingKey
	keys.CategoryPending = cfg.CategoryPendingKey
	keys.CategoryID = cfg.CategoryIDKey
	a.Keys = keys

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	// ---------------- Lock de stock ----------------
	a.stockLock = lock.NewInMemoryLock()
	if cfg.UseKafka && cfg.RedisAddr == "" {
		a.Close()
		return nil, fmt.Errorf("redis required with kafka transport: REDIS_ADDR is empty")
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			if cfg.UseKafka {
				// Otra instancia puede reconciliar: un lock local nunca se liberaría.
				a.Close()
				return nil, fmt.Errorf("redis required with kafka transport: %w", err)
			}
			log.Warn("⚠️ Redis no disponible, lock de stock en memoria", zap.Error(err))
		} else {
			a.stockLock = lock.NewRedisLock(rdb, cfg.StockLockName, cfg.StockLockTTL)
			a.closers = append(a.closers, rdb.Close)
			log.Info("✅ Redis conectado, lock de stock distribuido")
		}
	}

	// ---------------- Auditoría ----------------
	var auditLog domain.AuditLogger
	if cfg.LogEvents {
		sinks := audit.Multi{audit.NewZapAuditLogger(log)}
		if cfg.ClickHouseAddr != "" {
			ch, err := audit.NewClickHouseAuditLog(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
			if err != nil {
				log.Warn("⚠️ ClickHouse no disponible, auditoría solo en log", zap.Error(err))
			} else {
				sinks = append(sinks, ch)
				a.closers = append(a.closers, ch.Close)
			}
		}
		auditLog = sinks
	}

	// --------------- Servicios --------------
	client := remote.NewClient(remote.Config{
		BaseURL:        cfg.APIURL,
		MachineID:      cfg.MachineID,
		MachineKey:     cfg.MachineKey,
		IntegratorID:   cfg.IntegratorID,
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
	}, log)
	reconciler := application.NewReconcileService(
		st.products, st.categories, st.deleted,
		storefront.NewMetaStorefront(st.products, keys.Visibility),
		a.stockLock, keys, cfg.DeletedItemsContainer, log,
	)
	a.Dispatcher = application.NewDispatcher(client, reconciler, auditLog, st.outbox, cfg.QueueSize, cfg.Workers, log)
	a.Pending = application.NewPendingQuery(st.products, st.categories, keys)
	a.consumer = inboundEvents.NewDescriptorConsumer(a.Dispatcher, a.Dispatcher, log)
	a.Relayer = relayer.NewOutboxWorker(st.outbox, a.consumer, cfg.OutboxPeriod, cfg.OutboxLimit, log)

	// ---------------- Events ---------------
	var queue domain.EventQueue = a.Dispatcher
	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como transporte de descriptores", zap.String("topic", cfg.KafkaTopic))
		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			Balancer: &kafka.Hash{},
		})
		a.closers = append(a.closers, writer.Close)
		queue = outboundEvents.NewBusQueue(sharedEvents.NewKafkaPublisher(writer, log), log)

		a.kafkaReader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  "catalogsync-dispatcher",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		a.closers = append(a.closers, a.kafkaReader.Close)
	} else {
		log.Info("⚡️ Usando la cola en memoria del dispatcher")
	}
	a.Trigger = application.NewTriggerService(queue, st.products, a.stockLock, keys, cfg.StockLockTimeout, log)

	return a, nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return stores{}, fmt.Errorf("failed to open Postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := utils.Retry(ctx, connectAttempts, connectDelay, db.PingContext); err != nil {
			return stores{}, fmt.Errorf("failed to ping Postgres: %w", err)
		}
		if err := pgStore.InitPostgres(ctx, db); err != nil {
			return stores{}, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		return stores{
			products:   pgStore.NewProductMetaStore(db),
			categories: pgStore.NewCategoryMetaStore(db),
			deleted:    pgStore.NewDeletedItemsPostgres(db),
			outbox:     pgOutbox.NewOutboxRepoPostgres(db),
		}, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return stores{}, fmt.Errorf("failed to connect MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		})
		ping := func(ctx context.Context) error { return mongoStore.Ping(ctx, client) }
		if err := utils.Retry(ctx, connectAttempts, connectDelay, ping); err != nil {
			return stores{}, err
		}
		products := mongoStore.NewProductMetaStore(client, cfg.MongoDB)
		categories := mongoStore.NewCategoryMetaStore(client, cfg.MongoDB)
		for _, s := range []*mongoStore.MetaStoreMongoDB{products, categories} {
			if err := s.EnsureIndexes(ctx); err != nil {
				return stores{}, fmt.Errorf("failed to create MongoDB indexes: %w", err)
			}
		}
		return stores{
			products:   products,
			categories: categories,
			deleted:    mongoStore.NewDeletedItemsMongoDB(client, cfg.MongoDB),
			outbox:     mongoOutbox.NewOutboxRepoMongoDB(client, cfg.MongoDB),
		}, nil

	default:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return stores{}, fmt.Errorf("failed to open SQLite: %w", err)
		}
		// SQLite serializa las escrituras; una conexión evita SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		a.closers = append(a.closers, db.Close)
		if err := sqliteStore.InitSQLite(db); err != nil {
			return stores{}, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		return stores{
			products:   sqliteStore.NewProductMetaStore(db),
			categories: sqliteStore.NewCategoryMetaStore(db),
			deleted:    sqliteStore.NewDeletedItemsSQLite(db),
			outbox:     sqliteOutbox.NewOutboxRepoSQLite(db),
		}, nil
	}
}

// Router monta las rutas HTTP del servicio.
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	inboundHttp.RegisterSyncRoutes(router, inboundHttp.NewSyncHandler(a.Trigger, a.Pending, a.log))
	inboundHttp.RegisterOpsRoutes(router)
	return router
}

// Serve arranca workers, relayer, consumidor Kafka y servidor HTTP. Bloquea
// hasta que ctx se cancele y entonces drena la cola antes de volver.
func (a *App) Serve(ctx context.Context) error {
	metrics.Register()
	// Los workers sobreviven a ctx para que Stop drene la cola.
	a.Dispatcher.Start(context.WithoutCancel(ctx))
	go a.Relayer.Start(ctx)
	if a.kafkaReader != nil {
		sharedEvents.NewConsumerAdapter(a.kafkaReader, a.consumer, a.log).Start(ctx)
	}

	srv := &http.Server{Addr: ":" + a.Config.HTTPPort, Handler: a.Router()}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("🚀 Server running", zap.String("url", "http://localhost:"+a.Config.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("⚠️ Cierre HTTP incompleto", zap.Error(err))
	}
	a.Dispatcher.Stop()
	a.log.Info("🛑 Servicio detenido")
	return serveErr
}

// Send ejecuta un descriptor de forma síncrona, fuera de la cola. Para stock
// toma antes el lock, que la reconciliación libera.
func (a *App) Send(ctx context.Context, d domain.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if d.Kind == domain.StockQuantityUpdated {
		lockCtx, cancel := context.WithTimeout(ctx, a.Config.StockLockTimeout)
		err := a.stockLock.Acquire(lockCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
		}
	}
	return a.Dispatcher.Process(ctx, d)
}

// Close libera conexiones en orden inverso de apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
