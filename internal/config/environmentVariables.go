package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth - AUTH_TOKEN env overrides, bypass is for local dev only
	NoAuthBypass = true
	AuthToken    = ""

	//storage mode selects the vector backend at startup: "local" or "qdrant"
	//the same mode decides where the document tracking snapshot lives
	StorageModeLocal   = "local"
	StorageModeQdrant  = "qdrant"
	DefaultStorageMode = StorageModeLocal
	DefaultDataDir     = "pmcopilot_data"

	//the one shared knowledge base every document lands in and every search targets
	KnowledgeBaseName                 = "company-knowledge-base"
	AnswerCacheName                   = "semantic-answer-cache"
	CacheSimilarityCutoff     float32 = 0.97
	EmbeddingDimensionality           = 1536

	//chunking defaults, callers can override per request
	DefaultChunkMaxSize = 1000
	DefaultChunkOverlap = 150

	//search defaults
	DefaultSearchTopK              = 3
	DefaultSearchThreshold float32 = 0.3
	EmbeddingCacheSize             = 4096
	EmbeddingMaxBatchSize          = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	//cap for the brute-force fallback scan, the corpus is thousands of chunks not millions
	QdrantFallbackScanLimit = 8192

	//embeddings
	OpenAIEmbeddingModel = "text-embedding-3-small"

	//llm
	GeminiModelName          = "gemini-2.5-flash-lite-preview-09-2025"
	ModelTemperature float32 = 0.7
	ModelContext             = "You are a project-management assistant for the company. Answer questions about policies, approvals and processes using only the provided context passages. Cite the passages you used. If the context does not cover the question, say you don't know and suggest opening a ticket."

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1
	RedisTrackerStore = 2

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)
