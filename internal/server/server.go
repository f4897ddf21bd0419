package server

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/SamBoyd/OpenBacklog-sub002/internal/config"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/driver"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/llm"
	"github.com/SamBoyd/OpenBacklog-sub002/internal/proposal"
)

type Server struct {
	Store    *driver.BacklogStore
	Proposer *proposal.Proposer
	Ranker   llm.RankerClient

	sessions *sessionRegistry
}

func NewServer() *Server {
	dbURI := os.Getenv("MEMGRAPH_URI")
	if dbURI == "" {
		dbURI = "bolt://localhost:7687"
	}
	dbUser := os.Getenv("MEMGRAPH_USER")
	dbPass := os.Getenv("MEMGRAPH_PASSWORD")

	d, err := driver.NewMemgraphDriver(dbURI, dbUser, dbPass)
	if err != nil {
		log.Fatalf("Failed to connect to Memgraph: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override config with env vars if present
	if envProvider := os.Getenv("LLM_PROVIDER"); envProvider != "" {
		cfg.LLM.Provider = envProvider
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		cfg.LLM.Model = envModel
	}
	if envAPIKey := os.Getenv("LLM_API_KEY"); envAPIKey != "" {
		cfg.LLM.APIKey = envAPIKey
	}
	if envBaseURL := os.Getenv("LLM_BASE_URL"); envBaseURL != "" {
		cfg.LLM.BaseURL = envBaseURL
	}

	// Default to Ollama if provider is empty
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	llmClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	return &Server{
		Store:    driver.NewBacklogStore(d),
		Proposer: proposal.NewProposer(llmClient, cfg.Prompts),
		Ranker:   llm.NewSimpleLLMRanker(llmClient),
		sessions: newSessionRegistry(),
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/initiatives/:id", s.GetInitiative)
	r.POST("/initiatives/:id/propose", s.Propose)
	r.GET("/roadmap", s.Roadmap)

	r.POST("/sessions/:id/resolve", s.Resolve)
	r.POST("/sessions/:id/rollback", s.Rollback)
	r.POST("/sessions/:id/accept-all", s.AcceptAll)
	r.POST("/sessions/:id/reject-all", s.RejectAll)
	r.POST("/sessions/:id/rollback-all", s.RollbackAll)
	r.GET("/sessions/:id/state", s.State)
	r.GET("/sessions/:id/preview", s.Preview)
	r.GET("/sessions/:id/resolved", s.Resolved)
	r.POST("/sessions/:id/save", s.Save)
	r.DELETE("/sessions/:id", s.Discard)

	return r
}
