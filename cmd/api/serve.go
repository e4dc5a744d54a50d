package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/config"
	"github.com/cmlabs-hris/leave-engine/internal/domain/audit"
	"github.com/cmlabs-hris/leave-engine/internal/domain/employee"
	"github.com/cmlabs-hris/leave-engine/internal/domain/leave"
	"github.com/cmlabs-hris/leave-engine/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/leave-engine/internal/handler/http"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/database"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/email"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/policyfile"
	"github.com/cmlabs-hris/leave-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-engine/internal/repository/memory"
	"github.com/cmlabs-hris/leave-engine/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/leave-engine/internal/service/leave"
	notificationService "github.com/cmlabs-hris/leave-engine/internal/service/notification"
	"github.com/go-chi/httplog/v3"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Duration("shutdown-timeout", 15*time.Second, "Grace period for in-flight requests and notifications")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// stores groups the persistence the service needs, whichever backend provides it.
type stores struct {
	requests  leave.LeaveRequestRepository
	policies  leave.PolicyProvider
	users     user.Directory
	employees employee.EmployeeRepository
	auditor   audit.Emitter
	close     func()
}

func newLogger(cfg *config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "leave-engine"),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	var s *stores
	switch cfg.App.StoreType {
	case config.StoreTypePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		s = &stores{
			requests:  postgresql.NewLeaveRequestRepository(db),
			policies:  postgresql.NewLeavePolicyRepository(db),
			users:     postgresql.NewUserRepository(db),
			employees: postgresql.NewEmployeeRepository(db),
			auditor:   postgresql.NewAuditRepository(db),
			close:     db.Close,
		}
	case config.StoreTypeMemory:
		users := memory.NewUserStore()
		employees := memory.NewEmployeeStore()
		if err := memory.LoadDirectoryFile(cfg.App.DirectoryFile, users, employees); err != nil {
			return nil, err
		}
		s = &stores{
			requests:  memory.NewLeaveRequestStore(),
			policies:  memory.NewPolicyStore(),
			users:     users,
			employees: employees,
			auditor:   memory.NewAuditLog(memory.DefaultAuditCapacity),
			close:     func() {},
		}
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.App.StoreType)
	}

	if cfg.Leave.PolicySource == config.PolicySourceFile {
		provider, err := policyfile.Load(cfg.Leave.PolicyFile)
		if err != nil {
			s.close()
			return nil, err
		}
		s.policies = provider
	}
	return s, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	st, err := openStores(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()
	hub := sse.NewHub()

	mailer, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("initialize email service: %w", err)
	}
	if cfg.SMTP.Host == "" {
		logger.Warn("SMTP_HOST not set, email notifications are disabled")
	}

	notifications := notificationService.NewNotificationService(hub, m, logger, notificationService.Config{
		WorkerCount:     cfg.Notification.Workers,
		QueueSize:       cfg.Notification.QueueSize,
		DeliveryTimeout: cfg.Notification.Timeout,
	},
		notificationService.NewInAppChannel(hub),
		notificationService.NewEmailChannel(st.users, mailer),
	)

	leaveSvc := leaveService.NewRequestService(
		st.requests,
		leaveService.NewBalanceCalculator(st.policies, st.requests, time.Now),
		leaveService.NewOverlapChecker(st.requests),
		st.users,
		st.employees,
		st.auditor,
		notifications,
		leaveService.Options{
			AuditTimeout:            cfg.Leave.AuditTimeout,
			NotificationTimeout:     cfg.Notification.Timeout,
			RecheckOverlapOnApprove: cfg.Leave.RecheckOverlapOnApprove,
			Logger:                  logger.With("component", "leave"),
			Metrics:                 m,
		},
	)

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("initialize jwt service: %w", err)
	}

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
			Metrics:        m.Handler(),
		},
		JWTService,
		appHTTP.NewLeaveHandler(leaveSvc, st.employees),
		appHTTP.NewNotificationHandler(notifications),
	)

	// Cancelled when shutdown starts so open notification streams return.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server running",
			slog.Int("port", cfg.App.Port),
			slog.String("store", cfg.App.StoreType),
			slog.String("policy_source", cfg.Leave.PolicySource),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown(ctx, logger, server, leaveSvc, notifications)

	if runErr != nil {
		return runErr
	}
	logger.Info("server exited gracefully")
	return nil
}

type waiter interface{ Wait() }

type stopper interface{ Stop() }

// shutdown stops the server, lets in-flight notifications reach the queue,
// then drains it. It also runs when the server failed to start.
func shutdown(ctx context.Context, logger *slog.Logger, server *http.Server, leaveSvc waiter, notifications stopper) {
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
	}

	leaveSvc.Wait()
	notifications.Stop()
}
