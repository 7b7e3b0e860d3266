// @title           PM Copilot API
// @version         1.0
// @description     Async chat assistant with knowledge-base retrieval for project management teams
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/data/redisStore"
	"github.com/skondray/pmcopilot/internal/data/store"
	jobmodel "github.com/skondray/pmcopilot/internal/domain/jobModel"
	"github.com/skondray/pmcopilot/internal/handlers"
	"github.com/skondray/pmcopilot/internal/job"
	"github.com/skondray/pmcopilot/internal/rag"
	"github.com/skondray/pmcopilot/internal/rag/embedding"
	"github.com/skondray/pmcopilot/internal/rag/embedding/openaiEmbedding"
	"github.com/skondray/pmcopilot/internal/rag/llm/gemini"
	"github.com/skondray/pmcopilot/internal/rag/tracker"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB/localDB"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB/qdrantDB"
	"github.com/skondray/pmcopilot/internal/server"
	"github.com/skondray/pmcopilot/internal/tools"
	"github.com/skondray/pmcopilot/internal/worker"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

var (
	listenAddr        string
	storageMode       string
	dataDir           string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&storageMode, "storage-mode", defaultStorageMode(), "vector storage backend: local or qdrant")
	flag.StringVar(&dataDir, "data-dir", defaultDataDir(), "directory for local collections and tracking")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	//the concrete pointers are checked before they land in the interface
	//fields, a typed nil would defeat the comparison
	redisJobStore := store.GetRedisJobStore(serviceContext)
	redisMessageStore := store.GetRedisMessageStore(serviceContext)
	if redisJobStore == nil || redisMessageStore == nil {
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	} else {
		serviceConfig.JobStore = redisJobStore
		serviceConfig.MessageStore = redisMessageStore
	}
	service := job.InitJobService(serviceConfig)

	//the storage mode picks both the vector backend and where the
	//tracking snapshot lives, so they always fail and recover together
	vectorStore, snapshotStore := initStorage(serviceContext, logger)
	if vectorStore == nil || snapshotStore == nil {
		logger.Error("Vector storage failed to initialize. Shutting down.", "mode", storageMode)
		return
	}
	documentTracker := tracker.NewTracker(snapshotStore)

	embeddingService := openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, os.Getenv("OPENAI_API_KEY"))
	llmProvider := gemini.GetGeminiClient(serviceContext, config.GeminiModelName, os.Getenv("GEMINI_API_KEY"))

	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	cachedEmbedder, err := embedding.Cached(embeddingService, config.EmbeddingCacheSize)
	if err != nil {
		logger.Error("Embedding cache init failed, continuing uncached", "error", err)
		cachedEmbedder = embeddingService
	}

	ragService := rag.NewService(vectorStore, llmProvider, cachedEmbedder, documentTracker)

	//assistant tools over MCP
	mcpServer := tools.NewMCPServer(ragService, tools.NewTeamDirectory(), tools.NewTicketBook())

	handlers.InitJobHandler(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, mcpServer.Handler())

	<-stopExecution
	logger.Info("Server stopped")
}

func defaultStorageMode() string {
	if mode := os.Getenv("STORAGE_MODE"); mode != "" {
		return mode
	}
	return config.DefaultStorageMode
}

func defaultDataDir() string {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		return dir
	}
	return config.DefaultDataDir
}

func initStorage(ctx context.Context, logger *logger_i.Logger) (vectorDB.Store, tracker.SnapshotStore) {
	switch storageMode {
	case config.StorageModeQdrant:
		qdrantStore := qdrantDB.GetQdrantStore(ctx)
		if qdrantStore == nil {
			return nil, nil
		}
		trackerRedis := redisStore.GetRedisStore(ctx, config.RedisTrackerStore)
		if trackerRedis == nil {
			logger.Error("Tracker redis is offline")
			return nil, nil
		}
		return qdrantStore, tracker.NewRedisSnapshotStore(trackerRedis, config.KnowledgeBaseName)

	case config.StorageModeLocal:
		localStore, err := localDB.NewStore(dataDir)
		if err != nil {
			logger.Error("Local store init failed", "error", err, "dir", dataDir)
			return nil, nil
		}
		snapshot, err := tracker.NewFileSnapshotStore(dataDir, config.KnowledgeBaseName)
		if err != nil {
			logger.Error("Tracking snapshot init failed", "error", err, "dir", dataDir)
			return nil, nil
		}
		return localStore, snapshot

	default:
		logger.Error("Unknown storage mode", "mode", storageMode)
		return nil, nil
	}
}
