package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/cleverdining/datahub/internal/api"
	"github.com/cleverdining/datahub/internal/config"
	"github.com/cleverdining/datahub/internal/db"
	"github.com/cleverdining/datahub/internal/export"
	"github.com/cleverdining/datahub/internal/mirror"
	"github.com/cleverdining/datahub/internal/models"
	"github.com/cleverdining/datahub/internal/notify"
	"github.com/cleverdining/datahub/internal/services"
	"github.com/cleverdining/datahub/internal/session"
	"github.com/cleverdining/datahub/internal/status"
	"github.com/cleverdining/datahub/internal/store"
	"github.com/cleverdining/datahub/internal/stream"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := cfg.Logger
	logger.Printf("🆔 Instance %s", uuid.NewString())

	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		logger.Fatalf("create export dir %q: %v", cfg.ExportDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// -----------------------------
	// Session + authenticated client
	// -----------------------------
	rdb := config.NewRedisClient(cfg.RedisAddr, logger)
	sess := session.NewStore(cfg.SessionFile, rdb, logger)
	if err := sess.Load(); err != nil {
		logger.Fatalf("session restore failed: %v", err)
	}

	client := api.NewClient(cfg.APIBaseURL, sess, logger)

	if !sess.LoggedIn() {
		if cfg.Username == "" || cfg.Password == "" {
			logger.Fatalf("no stored session and no CLEVERDINING_USERNAME/PASSWORD set")
		}
		logger.Println("🔐 Logging in...")
		res, err := client.Login(ctx, cfg.Username, cfg.Password)
		if err != nil {
			logger.Fatalf("login failed: %v", err)
		}
		sess.SetUserInfo(res.User)
	}

	if err := sess.Resolve(ctx, client); err != nil {
		logger.Fatalf("role resolution failed: %v", err)
	}
	role, ok := sess.Role()
	if !ok {
		logger.Fatalf("no usable role in session; cannot select endpoints")
	}

	// -----------------------------
	// Live feed + notifications
	// -----------------------------
	dispatcher := stream.NewDispatcher(logger)
	conn := stream.NewConn(cfg.WSBaseURL, cfg.RestaurantID, sess, dispatcher,
		cfg.ReconnectBase, cfg.ReconnectMax, logger)

	notifier := notify.New(cfg.AMQPURL, sess.Session().UserInfo.Username, rdb, logger)
	go notifier.Run(ctx, dispatcher)

	go func() {
		if err := conn.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Printf("❌ Live feed stopped: %v", err)
		}
	}()

	// -----------------------------
	// Role-scoped store + optional mirror
	// -----------------------------
	var (
		owner *store.OwnerStore
		staff *store.StaffStore
		admin *store.AdminStore
	)

	switch role {
	case models.RoleOwner:
		owner = store.NewOwnerStore(client, sess, logger)
		go owner.Run(ctx, dispatcher)

		if cfg.MirrorEnabled() {
			gdb, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				logger.Fatalf("DB connection failed: %v", err)
			}
			defer db.Close(gdb)

			if err := db.HealthCheck(gdb, 3*time.Second); err != nil {
				logger.Fatalf("DB health check failed: %v", err)
			}
			logger.Println("✅ Database connection healthy.")

			if cfg.AutoMigrate {
				if err := db.AutoMigrate(gdb); err != nil {
					logger.Fatalf("Database migration failed: %v", err)
				}
				logger.Println("✅ Database migrated successfully.")
			}

			runner := mirror.NewRunner(gdb, owner, logger)
			runner.BatchSize = cfg.MirrorBatch
			if err := runner.InitialSync(ctx); err != nil {
				logger.Fatalf("initial sync failed: %v", err)
			}
			go runner.Run(ctx, dispatcher)

			if config.ParseBoolEnv(os.Getenv("RUN_MIRROR_AUDIT")) {
				logger.Println("🧪 Running mirror audit...")
				svc := services.MirrorAuditService{
					DB:     gdb,
					Owner:  owner,
					Logger: logger,
					DryRun: !config.ParseBoolEnv(os.Getenv("MIRROR_AUDIT_LIVE")),
				}
				auditCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
				if err := svc.Run(auditCtx); err != nil {
					logger.Printf("⚠️  Mirror audit failed: %v", err)
				}
				cancel()
			}
		} else {
			if err := owner.FetchAll(ctx); err != nil {
				logger.Printf("⚠️  Initial fetch ended with errors: %v", err)
			}
		}

		if config.ParseBoolEnv(os.Getenv("EXPORT_ON_SYNC")) {
			w := export.NewWriter(cfg.ExportDir, logger)
			if _, err := w.ExportOrders(owner.Orders.Items()); err != nil {
				logger.Printf("⚠️  Orders export failed: %v", err)
			}
			if _, err := w.ExportReservations(owner.Reservations.Items()); err != nil {
				logger.Printf("⚠️  Reservations export failed: %v", err)
			}
		}

	case models.RoleStaff, models.RoleChef:
		staff = store.NewStaffStore(client, sess, logger)
		go staff.Run(ctx, dispatcher)
		if err := staff.FetchAll(ctx); err != nil {
			logger.Printf("⚠️  Initial fetch ended with errors: %v", err)
		}

	case models.RoleAdmin:
		admin = store.NewAdminStore(client, sess, logger)
		go admin.Run(ctx, dispatcher)
		if err := admin.FetchAll(ctx); err != nil {
			logger.Printf("⚠️  Initial fetch ended with errors: %v", err)
		}
	}

	// -----------------------------
	// Status surface
	// -----------------------------
	srv := status.NewServer(cfg.StatusAddr, status.Sources{
		Session:    sess,
		Conn:       conn,
		Dispatcher: dispatcher,
		Notifier:   notifier,
		Owner:      owner,
		Staff:      staff,
		Admin:      admin,
	}, logger)
	go func() {
		if err := srv.Start(); err != nil && ctx.Err() == nil {
			logger.Fatalf("status server failed: %v", err)
		}
	}()

	logger.Printf("✅ Startup complete (role=%s). Watching live feed.", role)
	<-ctx.Done()

	logger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("⚠️  Status server shutdown: %v", err)
	}
	logger.Println("👋 Bye.")
}
