package cmd

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	coreconfig "github.com/kavelar/moviemind/core/config"
	"github.com/kavelar/moviemind/core/database"
	domainCache "github.com/kavelar/moviemind/domains/cache"
	domainDiscovery "github.com/kavelar/moviemind/domains/discovery"
	"github.com/kavelar/moviemind/images"
	"github.com/kavelar/moviemind/infrastructure/valkey"
	"github.com/kavelar/moviemind/pkg/utils"
	"github.com/kavelar/moviemind/providers"
	"github.com/kavelar/moviemind/repository"
	"github.com/kavelar/moviemind/ui/websocket"
	"github.com/kavelar/moviemind/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// Per-provider model defaults, used when AI_MODEL is not set.
const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

var (
	// Usecase
	discoveryUsecase domainDiscovery.IDiscoveryUsecase
	cacheUsecase     domainCache.ICacheUsecase

	// Shared infrastructure, wired once in initApp
	contentStore    domainDiscovery.ContentStore
	contentProvider domainDiscovery.ContentProvider
	imageResolver   *images.Resolver
	imageGenerator  *images.Generator
	vkClient        *valkey.Client
	gormDB          *gorm.DB
	serverID        string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moviemind",
	Short: "AI-generated movie discovery API",
	Long: `MovieMind sits between the movie-discovery frontend and a generative AI
backend. It owns prompt construction, response schema enforcement, the
read-through content cache and the image fallback chain.`,
}

func init() {
	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	// Then initialize other components
	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	pflags := rootCmd.PersistentFlags()

	pflags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	pflags.BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	pflags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/moviemind"`)
	pflags.StringP("basic-auth", "b", "", "basic auth credential for the admin cache endpoints | -b=yourUsername:yourPassword")
	pflags.String("trusted-proxies", "", `trusted proxy IP ranges for reverse proxy deployments --trusted-proxies <string> | example: --trusted-proxies="10.0.0.0/8,172.16.0.0/12"`)
	pflags.String("cache-backend", "", `content cache backend --cache-backend <memory|valkey|sql> | example: --cache-backend=valkey`)
	pflags.String("cache-ttl", "", `content cache time to live --cache-ttl <duration> | example: --cache-ttl=30m`)
	pflags.String("ai-provider", "", `generative backend --ai-provider <gemini|openai> | example: --ai-provider=openai`)
	pflags.String("ai-model", "", `generation model name --ai-model <string> | example: --ai-model=gemini-2.5-flash`)
	pflags.String("image-base-url", "", `base URL completing relative poster paths --image-base-url <string>`)

	// Bound through viper so a flag beats the matching environment variable.
	_ = viper.BindPFlag("app_port", pflags.Lookup("port"))
	_ = viper.BindPFlag("app_debug", pflags.Lookup("debug"))
	_ = viper.BindPFlag("app_base_path", pflags.Lookup("base-path"))
	_ = viper.BindPFlag("app_basic_auth", pflags.Lookup("basic-auth"))
	_ = viper.BindPFlag("app_trusted_proxies", pflags.Lookup("trusted-proxies"))
	_ = viper.BindPFlag("cache_backend", pflags.Lookup("cache-backend"))
	_ = viper.BindPFlag("cache_ttl", pflags.Lookup("cache-ttl"))
	_ = viper.BindPFlag("ai_provider", pflags.Lookup("ai-provider"))
	_ = viper.BindPFlag("ai_model", pflags.Lookup("ai-model"))
	_ = viper.BindPFlag("image_base_url", pflags.Lookup("image-base-url"))
}

// initEnvConfig loads the .env-backed configuration, then applies the viper
// overlay (command-line flags and process environment).
func initEnvConfig() {
	if _, err := coreconfig.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := coreconfig.Global

	viper.AutomaticEnv()

	if envPort := viper.GetString("app_port"); envPort != "" {
		cfg.App.Port = envPort
	}
	if viper.IsSet("app_debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		cfg.App.BasePath = envBasePath
	}
	if envBasicAuth := viper.GetString("app_basic_auth"); envBasicAuth != "" {
		cfg.App.BasicAuth = strings.Split(envBasicAuth, ",")
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		cfg.App.TrustedProxies = strings.Split(envTrustedProxies, ",")
	}
	if envBackend := viper.GetString("cache_backend"); envBackend != "" {
		cfg.Cache.Backend = envBackend
	}
	if envTTL := viper.GetString("cache_ttl"); envTTL != "" {
		if d, err := time.ParseDuration(envTTL); err == nil && d > 0 {
			cfg.Cache.TTL = d
		}
	}
	if envProvider := viper.GetString("ai_provider"); envProvider != "" {
		cfg.AI.Provider = envProvider
	}
	if envModel := viper.GetString("ai_model"); envModel != "" {
		cfg.AI.Model = envModel
	}
	if envImageBase := viper.GetString("image_base_url"); envImageBase != "" {
		cfg.Images.BaseURL = envImageBase
	}
}

func initApp() {
	cfg := coreconfig.Global

	initLogger(cfg)

	ctx := context.Background()

	contentStore = buildContentStore(ctx, cfg)
	contentProvider = buildContentProvider(ctx, cfg)

	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.App.StoragePath)

	imageResolver = images.NewResolver(cfg.Images.BaseURL, cfg.App.BasePath+"/api/v1/images/placeholder")
	imageGenerator = images.NewGenerator(cfg.Images.PlaceholderWidth, cfg.Images.PlaceholderHeight)

	clock := domainDiscovery.SystemClock{}
	discoveryUsecase = usecase.NewDiscoveryService(contentStore, contentProvider, clock, cfg.Cache.TTL, websocket.RefreshBridge{})
	cacheUsecase = usecase.NewCacheService(contentStore, clock, cfg.Cache.TTL, cfg.Cache.Backend)

	logrus.WithFields(logrus.Fields{
		"provider": contentProvider.Name(),
		"backend":  cfg.Cache.Backend,
		"ttl":      cfg.Cache.TTL,
	}).Info("[APP] Content pipeline initialized")
}

func initLogger(cfg *coreconfig.Config) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if cfg.Log.File != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			Compress:   true,
		}))
	}
}

func buildContentStore(ctx context.Context, cfg *coreconfig.Config) domainDiscovery.ContentStore {
	switch cfg.Cache.Backend {
	case "valkey":
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Cache.ValkeyAddress,
			Password:  cfg.Cache.ValkeyPassword,
			DB:        cfg.Cache.ValkeyDB,
			KeyPrefix: cfg.Cache.Prefix,
		})
		if err != nil {
			logrus.Fatalf("Failed to connect to valkey: %v", err)
		}
		vkClient = client
		return repository.NewValkeyContentStore(client)

	case "sql":
		db, err := database.NewDatabase(cfg)
		if err != nil {
			logrus.Fatalf("Failed to open cache database: %v", err)
		}
		gormDB = db
		store := repository.NewSQLContentStore(db)
		if err := store.InitSchema(ctx); err != nil {
			logrus.Fatalf("Failed to migrate cache schema: %v", err)
		}
		return store

	case "memory", "":
		return repository.NewMemoryContentStore()

	default:
		logrus.Fatalf("Unknown CACHE_BACKEND %q (expected memory, valkey or sql)", cfg.Cache.Backend)
		return nil
	}
}

func buildContentProvider(ctx context.Context, cfg *coreconfig.Config) domainDiscovery.ContentProvider {
	switch cfg.AI.Provider {
	case "openai":
		model := cfg.AI.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		provider, err := providers.NewOpenAIContentProvider(cfg.AI.OpenAIAPIKey, model, cfg.AI.ChatModel)
		if err != nil {
			logrus.Fatalf("Failed to initialize openai provider: %v", err)
		}
		return provider

	case "gemini", "":
		model := cfg.AI.Model
		if model == "" {
			model = defaultGeminiModel
		}
		provider, err := providers.NewGeminiContentProvider(ctx, cfg.AI.GeminiAPIKey, model, cfg.AI.ChatModel)
		if err != nil {
			logrus.Fatalf("Failed to initialize gemini provider: %v", err)
		}
		return provider

	default:
		logrus.Fatalf("Unknown AI_PROVIDER %q (expected gemini or openai)", cfg.AI.Provider)
		return nil
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the store connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if vkClient != nil {
		vkClient.Close()
	}
	if gormDB != nil {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
