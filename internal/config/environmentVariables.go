package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internal in-memory store
	TRACE_ID_KEY                    = "traceId"
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	//auth - the bearer token the front-end sends; override with AUTH_TOKEN
	NoAuthBypass = true
	AuthToken    = ""

	//embeddings
	//the collection name is derived from the embedding model so two models
	//never share one index - mixing them breaks the similarity geometry
	EmbeddingOutputDimensionality int32 = 1536
	IndexCollectionPrefix               = "report-index"
	AnswerCachePrefix                   = "answer-cache"
	CacheSimilarityCutoff               = 0.97

	//ingestion
	SourceDocsDir   = "data"
	ChunkWindow     = 1000
	ChunkOverlap    = 400 //a fact spanning a window boundary stays intact in at least one chunk
	IngestBatchSize = 100

	//retrieval
	RetrieveTopK     = 5
	SnippetMaxLen    = 600
	TruncationMarker = "..."

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
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second

	//pipeline - each stage gets its own bounded timeout so a dead
	//completion service surfaces as a failure instead of a hang
	StageTimeout        = 30 * time.Second
	RetrievalTimeout    = 15 * time.Second
	JobExecutionTimeout = 60 * time.Second

	//llm
	LLMProvider           = "gemini" //or "openai", override with LLM_PROVIDER
	GeminiModelName       = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel  = "gemini-embedding-001"
	OpenAIModelName       = "gpt-4o-mini"
	OpenAIEmbeddingModel  = "text-embedding-3-small"
	ModelTemperature      = 0.2
	GoogleEmbeddingAPIKey = "" //override with GOOGLE_API_KEY
	OpenAIAPIKey          = "" //override with OPENAI_API_KEY

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//redis timeouts
	RedisJobStoreTTL     = 24 * time.Hour
	RedisMessageStoreTTL = 24 * time.Hour
)
