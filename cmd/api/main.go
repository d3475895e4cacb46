// @title           Report Chat API
// @version         1.0
// @description     Asynchronous question answering over an indexed policy report.
// @termsOfService  http://swagger.io/terms/

// @contact.name    maintainers

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

	"github.com/joho/godotenv"
	"github.com/mapleproto/reportchat/internal/config"
	"github.com/mapleproto/reportchat/internal/data/store"
	jobmodel "github.com/mapleproto/reportchat/internal/domain/jobModel"
	"github.com/mapleproto/reportchat/internal/handlers"
	"github.com/mapleproto/reportchat/internal/job"
	"github.com/mapleproto/reportchat/internal/rag"
	"github.com/mapleproto/reportchat/internal/rag/embedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/googleEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/embedding/openaiEmbedding"
	"github.com/mapleproto/reportchat/internal/rag/llm"
	"github.com/mapleproto/reportchat/internal/rag/llm/gemini"
	"github.com/mapleproto/reportchat/internal/rag/llm/openaiLLM"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB/memstore"
	"github.com/mapleproto/reportchat/internal/rag/vectorDB/qdrantDB"
	"github.com/mapleproto/reportchat/internal/server"
	"github.com/mapleproto/reportchat/internal/worker"
	"github.com/mapleproto/reportchat/pkg/logger_i"
)

var (
	listenAddr        string
	indexBackend      string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&indexBackend, "index", "qdrant", "vector index backend: qdrant or memory")
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

	jobStore := store.GetRedisJobStore(serviceContext)
	messageStore := store.GetRedisMessageStore(serviceContext)
	if jobStore == nil || messageStore == nil {
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			logger.Error("Redis stores are offline and fallback is disabled")
			return
		}
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.MessageStore = store.InitMessageStore()
	} else {
		serviceConfig.JobStore = jobStore
		serviceConfig.MessageStore = messageStore
	}
	service := job.InitJobService(serviceConfig)

	index := buildIndex(serviceContext, logger)
	embeddingService, llmProvider := buildProviders(serviceContext, logger)

	if index == nil || embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "Index", index != nil, "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	ragService := rag.NewService(index, llmProvider, embeddingService)

	handlers.InitJobHandler(service)

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
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func buildIndex(ctx context.Context, logger *logger_i.Logger) vectorDB.Index {
	if indexBackend == "memory" {
		logger.Info("Using in-process vector index, data will not survive a restart")
		return memstore.NewStore()
	}
	client := qdrantDB.GetQdrantClient(ctx)
	if client == nil {
		return nil
	}
	return client
}

// buildProviders selects the completion and embedding backend from
// LLM_PROVIDER. Both stages share one provider; the embedder must match the
// model the index was built with.
func buildProviders(ctx context.Context, logger *logger_i.Logger) (embedding.Embedder, llm.Provider) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = config.LLMProvider
	}

	switch provider {
	case "openai":
		apikey := os.Getenv("OPENAI_API_KEY")
		if apikey == "" {
			apikey = config.OpenAIAPIKey
		}
		return openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, apikey),
			openaiLLM.GetOpenAIClient(config.OpenAIModelName, apikey)
	case "gemini":
		apikey := os.Getenv("GOOGLE_API_KEY")
		if apikey == "" {
			apikey = config.GoogleEmbeddingAPIKey
		}
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, apikey),
			gemini.GetGeminiClient(ctx, config.GeminiModelName, apikey)
	default:
		logger.Error("Unknown LLM provider", "provider", provider)
		return nil, nil
	}
}
