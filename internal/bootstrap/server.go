package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jackjohndoe/booking-backend-spring-sub001/api"
	"github.com/jackjohndoe/booking-backend-spring-sub001/config"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Handlers are the route groups mounted under /api/v1.
type Handlers struct {
	Bookings      *api.BookingHandler
	Wallet        *api.WalletHandler
	Escrow        *api.EscrowHandler
	Settlement    *api.SettlementHandler
	Notifications *api.NotificationHandler
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	gatewayCC  *grpc.ClientConn
	httpServer *http.Server
}

// Run starts the gRPC health server and the HTTP API and blocks until the
// context is canceled or a server fails.
func Run(ctx context.Context, cfg *config.Config, handlers Handlers, tokens *auth.TokenService, logger *logrus.Logger) error {
	s, err := newServers(cfg, handlers, tokens, logger)
	if err != nil {
		return err
	}
	defer s.gatewayCC.Close()

	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.WithFields(logrus.Fields{
		"http": cfg.HTTP.Address,
		"grpc": cfg.GRPC.Address,
	}).Info("Servers started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(cfg *config.Config, handlers Handlers, tokens *auth.TokenService, logger *logrus.Logger) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	cc, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial gRPC health: %w", err)
	}
	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(cc)))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(cfg, handlers, tokens, gateway, logger),
	}

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		gatewayCC:  cc,
		httpServer: httpSrv,
	}, nil
}

// NewRouter builds the gin engine. gateway serves /healthz.
func NewRouter(cfg *config.Config, handlers Handlers, tokens *auth.TokenService, gateway http.Handler, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(cfg.HTTP.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	if gateway != nil {
		router.GET("/healthz", gin.WrapH(gateway))
	}

	if cfg.HTTP.SwaggerDir != "" {
		docPath := filepath.Join(cfg.HTTP.SwaggerDir, "doc.json")
		ui := httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))
		router.GET("/swagger/*any", func(c *gin.Context) {
			if c.Param("any") == "/doc.json" {
				c.File(docPath)
				return
			}
			ui.ServeHTTP(c.Writer, c.Request)
		})
	}

	v1 := router.Group("/api/v1", auth.Middleware(tokens))
	if handlers.Bookings != nil {
		handlers.Bookings.Register(v1)
	}
	if handlers.Wallet != nil {
		handlers.Wallet.Register(v1)
	}
	if handlers.Escrow != nil {
		handlers.Escrow.Register(v1)
	}
	if handlers.Settlement != nil {
		handlers.Settlement.Register(v1)
	}
	if handlers.Notifications != nil {
		handlers.Notifications.Register(v1)
	}
	return router
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}
