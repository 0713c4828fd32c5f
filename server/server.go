package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HipsterFM/cache"
	"HipsterFM/config"
	"HipsterFM/core/auth"
	"HipsterFM/core/catalog"
	"HipsterFM/core/hipster"
	"HipsterFM/core/room"
	"HipsterFM/db"
	"HipsterFM/logger"
	"HipsterFM/model"
	"HipsterFM/repository"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutputPath,
	})

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("数据库连接失败", logger.ErrorField(err))
	}
	defer db.DB.Close()

	// Connect to Redis
	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Redis连接失败", logger.ErrorField(err))
	}
	defer db.CloseRedis()
	logger.Info("Redis连接成功")

	// Initialize database schema
	if err := db.InitDB(); err != nil {
		logger.Fatal("数据库初始化失败", logger.ErrorField(err))
	}

	// GORM 连接，曲库仓库使用
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("GORM连接失败", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.CuratedSong{}); err != nil {
		logger.Fatal("曲库模型迁移失败", logger.ErrorField(err))
	}

	// 曲库为空时写入内置精选列表
	catalogRepo := repository.NewCatalogRepository(db.GormDB)
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := catalogRepo.SeedDefaults(seedCtx, catalog.DefaultCuratedSongs()); err != nil {
		logger.Warn("写入内置曲库失败", logger.ErrorField(err))
	}
	seedCancel()

	// 组装游戏引擎
	roomStore := cache.NewRoomStore(db.RedisClient)
	source := catalog.NewMySQLSource(catalogRepo)
	resolver := catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogTimeout)
	pool := hipster.NewPoolManager(source, resolver, cfg.PoolLowWater, cfg.InjectBatch)
	engine := hipster.NewEngine(roomStore, pool, hipster.Options{
		GuessWindow:     cfg.GuessWindow,
		InterceptWindow: cfg.InterceptWindow,
		SongsPerPlayer:  cfg.SongsPerPlayer,
		CardsToWin:      cfg.CardsToWin,
		MaxPlayers:      cfg.MaxPlayers,
	})

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)

	// WebSocket Hub
	hub := room.NewGameHub()
	go hub.Run()
	defer hub.Stop()

	gameHandler := NewGameHandler(engine, issuer, hub)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 房间生命周期
	router.HandleFunc("/api/rooms", gameHandler.CreateRoomHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{code}/join", gameHandler.JoinRoomHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{code}", gameHandler.AuthMiddleware(gameHandler.GetRoomHandler)).Methods(http.MethodGet)

	// 游戏指令
	router.HandleFunc("/api/rooms/{code}/commands", gameHandler.AuthMiddleware(gameHandler.CommandHandler)).Methods(http.MethodPost)

	// WebSocket
	router.HandleFunc("/ws/rooms/{code}", gameHandler.WSHandler).Methods(http.MethodGet)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("服务启动", logger.String("addr", cfg.ListenAddr))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("服务启动失败", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("服务关闭中...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("服务强制关闭", logger.ErrorField(err))
	}

	logger.Info("服务已停止")
}
