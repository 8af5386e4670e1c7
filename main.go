package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"SIGB-backend/internal/catalog"
	"SIGB-backend/internal/circulation"
	"SIGB-backend/internal/opac"
	"SIGB-backend/internal/platform/auth"
	"SIGB-backend/internal/platform/db"
	"SIGB-backend/internal/platform/metrics"
	"SIGB-backend/internal/reports"
	"SIGB-backend/internal/reservations"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	log.Printf("[INFO] mode:%s\n", cfg.Mode)
	if cfg.Mode != "dev" && cfg.Mode != "release" {
		log.Fatal("config mode must be dev or release")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS is only needed while the frontend runs on its own port
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Location"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", metrics.Handler())

	authSvc := auth.NewService(conn, cfg.Auth)
	secret := authSvc.Secret()

	api := r.Group("/api/v1")

	// public: login and the OPAC
	auth.RegisterPublicRoutes(api, authSvc)
	opac.RegisterRoutes(api, opac.NewService(conn))

	// any authenticated user: reservations
	authed := api.Group("", auth.RequireAuth(secret))
	reservations.RegisterRoutes(authed, reservations.NewService(conn))

	// librarian desk: catalog, circulation, reservation lists, reports
	desk := api.Group("", auth.RequireAuth(secret), auth.RequireRole(auth.RoleLibrarian))
	catalog.RegisterRoutes(desk, catalog.NewService(conn))
	circulation.RegisterRoutes(desk, circulation.NewService(conn, cfg.Circulation))
	reservations.RegisterStaffRoutes(desk, reservations.NewService(conn))
	reports.RegisterRoutes(desk, reports.NewService(conn, cfg.Circulation))

	// user administration
	admin := api.Group("", auth.RequireAuth(secret), auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
