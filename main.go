package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/itbasis/go-clock"

	"github.com/GundamTCG/EloBot/config"
	"github.com/GundamTCG/EloBot/db"
	"github.com/GundamTCG/EloBot/internal/auth"
	"github.com/GundamTCG/EloBot/internal/leaderboard"
	"github.com/GundamTCG/EloBot/internal/match"
	"github.com/GundamTCG/EloBot/internal/ws"
	redisPkg "github.com/GundamTCG/EloBot/pkg/redis"
	wsPkg "github.com/GundamTCG/EloBot/pkg/websocket"
)

func main() {
	cfg := config.LoadConfig()

	store, err := db.NewPostgres(cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	rdb := redisPkg.NewRedisClient(cfg.RedisAddr)

	hub := wsPkg.NewHub()
	presenter := ws.NewPresenter(rdb)

	matchService := match.NewService(match.NewRegistry(), store, presenter, clock.New())
	if err := matchService.Reconcile(context.Background()); err != nil {
		log.Fatalf("Failed to reconcile active matches: %v", err)
	}

	worker := ws.NewNotificationWorker(rdb, hub)
	go worker.Run(context.Background())

	authService := auth.NewService(store.Conn(), cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	lbService := leaderboard.NewService(store.Conn())
	lbHandler := leaderboard.NewHandler(lbService, matchService, authService, cfg)

	wsHandler := ws.NewHandler(hub, matchService, authService)

	http.HandleFunc("/api/v1/auth/register", authHandler.Register)
	http.HandleFunc("/api/v1/auth/login", authHandler.Login)
	http.HandleFunc("/api/v1/leaderboard", lbHandler.Leaderboard)
	http.HandleFunc("/api/v1/stats", lbHandler.Stats)
	http.HandleFunc("/api/v1/admin/reset", lbHandler.Reset)
	http.HandleFunc("/api/v1/admin/report", lbHandler.Report)
	http.HandleFunc("/ws", wsHandler.ServeWS)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Elo bot is running!")
	})

	log.Printf("Server started at %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, nil))
}
