package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// 大部分配置有合理默认值，可通过环境变量覆盖。
type Config struct {
	ListenAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 歌曲元数据查询服务
	CatalogAPIURL  string
	CatalogTimeout time.Duration

	// 房间身份令牌
	JWTSecret string

	// 游戏参数
	GuessWindow     time.Duration // 猜测阶段时限
	InterceptWindow time.Duration // 拦截决定/选择阶段时限
	PoolLowWater    int           // 歌曲池低水位，低于该值触发补充
	InjectBatch     int           // 每次从曲库注入的歌曲数
	SongsPerPlayer  int           // 收集阶段每人贡献的歌曲数
	CardsToWin      int           // 获胜所需时间线长度
	MaxPlayers      int

	// 日志配置
	LogLevel      string
	LogOutputPath string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as seconds or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "hipster"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CatalogAPIURL:  getEnv("CATALOG_API_URL", "https://itunes.apple.com"),
		CatalogTimeout: getEnvDuration("CATALOG_TIMEOUT_SECS", 10*time.Second),

		JWTSecret: getEnv("JWT_SECRET", "hipster-dev-secret"),

		GuessWindow:     getEnvDuration("GUESS_WINDOW_SECS", 60*time.Second),
		InterceptWindow: getEnvDuration("INTERCEPT_WINDOW_SECS", 10*time.Second),
		PoolLowWater:    getEnvInt("POOL_LOW_WATER", 3),
		InjectBatch:     getEnvInt("INJECT_BATCH", 10),
		SongsPerPlayer:  getEnvInt("SONGS_PER_PLAYER", 3),
		CardsToWin:      getEnvInt("CARDS_TO_WIN", 10),
		MaxPlayers:      getEnvInt("MAX_PLAYERS", 8),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogOutputPath: getEnv("LOG_OUTPUT_PATH", ""),
	}
}
