package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"comichub/internal/archive"
	"comichub/internal/auth"
	"comichub/internal/invalidate"
	"comichub/internal/library"
	"comichub/internal/metadata"
	"comichub/internal/repair"
	"comichub/internal/search"
	"comichub/internal/stats"
	synchub "comichub/internal/sync"
	"comichub/pkg/database"
	"comichub/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	srvCfg := utils.LoadServerConfig()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Live-update fanout; start TCP first so binding errors surface early.
	hub := synchub.NewHub()
	router.GET("/ws", synchub.WSHandler(hub))
	tcpSrv := synchub.NewServer(srvCfg.TCPAddr, hub)
	notifier := synchub.NewNotifier(hub)

	fileRepo := library.NewFileRepo(db)
	seriesRepo := library.NewSeriesRepo(db)
	cache := archive.NewCache(fileRepo, nil)
	linker := library.NewAutoLinker(fileRepo, seriesRepo, nil)
	statsSvc := stats.NewService(db, nil)
	index := search.NewIndex(db)
	sidecar := library.NewSidecarWriter(seriesRepo)

	orch := &invalidate.Orchestrator{
		Files:    fileRepo,
		Series:   seriesRepo,
		Cache:    cache,
		Linker:   linker,
		Stats:    statsSvc,
		Search:   index,
		Notifier: notifier,
		Sidecar:  sidecar,
	}

	job := &repair.Job{
		Files:    fileRepo,
		Series:   seriesRepo,
		Linker:   linker,
		Stats:    statsSvc,
		Notifier: notifier,
		Writer:   cache,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		hubStats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": hubStats.TCPClients,
				"ws_clients":  hubStats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": hubStats.TCPClients,
			"ws_clients":  hubStats.WSClients,
		})
	})

	// Public reads
	library.NewHandler(fileRepo, seriesRepo).RegisterRoutes(router)
	search.NewHandler(index).RegisterRoutes(router)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	auth.NewHandler(auth.NewRepo(db), tokenSvc).RegisterRoutes(router.Group("/auth"))

	// Invalidation and maintenance can rewrite the library; keep them
	// behind auth.
	protected := router.Group("/metadata")
	protected.Use(auth.AuthMiddleware(tokenSvc))
	invalidate.NewHandler(orch).RegisterRoutes(protected)
	metadata.NewHandler(utils.LoadSourceConfig().SourcePriority).RegisterRoutes(protected)

	maintenance := router.Group("/maintenance")
	maintenance.Use(auth.AuthMiddleware(tokenSvc))
	repair.NewHandler(job).RegisterRoutes(maintenance)

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", srvCfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
