// Command graphrag-admin wires the full pipeline together and serves both
// the question-answering endpoint and the admin schema-refresh endpoint.
// Stage logic itself is a library concern (Pipeline.Ask); this binary only
// owns process lifecycle, collaborator construction, and HTTP routing,
// grounded on the teacher's thin-main style across its cmd/ entry points.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/paladugusuresh/graphrag/internal/adminapi"
	"github.com/paladugusuresh/graphrag/internal/audit"
	"github.com/paladugusuresh/graphrag/internal/config"
	"github.com/paladugusuresh/graphrag/internal/embedding"
	"github.com/paladugusuresh/graphrag/internal/executor"
	"github.com/paladugusuresh/graphrag/internal/llm"
	"github.com/paladugusuresh/graphrag/internal/logging"
	"github.com/paladugusuresh/graphrag/internal/pipeline"
	"github.com/paladugusuresh/graphrag/internal/planner"
	"github.com/paladugusuresh/graphrag/internal/querygen"
	"github.com/paladugusuresh/graphrag/internal/queryapi"
	"github.com/paladugusuresh/graphrag/internal/ratelimit"
	"github.com/paladugusuresh/graphrag/internal/retriever"
	"github.com/paladugusuresh/graphrag/internal/schema"
	"github.com/paladugusuresh/graphrag/internal/schemaembed"
	"github.com/paladugusuresh/graphrag/internal/semanticmap"
	"github.com/paladugusuresh/graphrag/internal/summariser"
	"github.com/paladugusuresh/graphrag/internal/vectorstore"
)

func main() {
	logger, err := logging.New()
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(".env")
	if err != nil {
		logger.Fatal("config: load failed", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		logger.Fatal("neo4j: driver init failed", zap.Error(err))
	}
	ctx := context.Background()
	defer driver.Close(ctx)

	qdrantClient, err := qdrant.NewClient(qdrantConfig(cfg.QdrantAddr))
	if err != nil {
		logger.Fatal("qdrant: client init failed", zap.Error(err))
	}

	var llmProvider llm.Provider
	var embedProvider embedding.Provider
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("no OpenAI API key configured, running with the offline embedding stub only")
		embedProvider = embedding.NewDevStub()
	} else {
		openaiLLM, err := llm.NewOpenAIProvider(cfg.OpenAIAPIKey, "")
		if err != nil {
			logger.Fatal("llm: openai provider init failed", zap.Error(err))
		}
		llmProvider = openaiLLM

		openaiEmbed, err := embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, "")
		if err != nil {
			logger.Fatal("embedding: openai provider init failed", zap.Error(err))
		}
		embedProvider = openaiEmbed
	}

	catalog := schema.NewCatalog(driver, "")
	schemaIndex := vectorstore.NewSchemaIndex(qdrantClient, "schema_terms")
	chunkIndex := vectorstore.NewChunkIndex(qdrantClient, "chunks")
	embedder := schemaembed.New(schemaIndex, embedProvider, nil)

	if allowList, _, err := catalog.Refresh(ctx); err != nil {
		logger.Warn("schema catalog: initial refresh failed, starting with an empty allow-list", zap.Error(err))
	} else if err := embedder.Refresh(ctx, allowList); err != nil {
		logger.Warn("schema embedder: initial refresh failed", zap.Error(err))
	}

	mapper := semanticmap.New(schemaIndex, embedProvider, cfg.Policy.RetrieverTopK)

	pl := planner.New(planner.Config{
		Provider:     llmProvider,
		Mapper:       mapper,
		MinMapScore:  cfg.Policy.SemanticMapThreshold,
		DefaultLimit: cfg.Policy.MaxCypherResults,
	})
	generator := querygen.New(llmProvider)
	exec := executor.New(driver, "")
	ret := retriever.New(chunkIndex, embedProvider, driver, "")
	summ := summariser.New(llmProvider)

	auditSink, err := audit.Open(cfg.AuditLogPath)
	if err != nil {
		logger.Fatal("audit: open sink failed", zap.Error(err))
	}
	defer auditSink.Close()

	limiter := ratelimit.New(ratelimit.NewMemStore(), cfg.Policy.LLMRateLimitPerMinute)

	p := pipeline.New(cfg.Policy, catalog, pl, generator, exec, ret, summ, auditSink, limiter, logger)

	mux := http.NewServeMux()
	mux.Handle("/query", queryapi.Handler(p, logger))
	mux.Handle("/admin/", adminapi.Handler(cfg, adminapi.Refresher{Catalog: catalog, Embedder: embedder}, logger))

	addr := listenAddr()
	logger.Info("listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func qdrantConfig(addr string) *qdrant.Config {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return &qdrant.Config{Host: addr, Port: 6334}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 6334
	}
	return &qdrant.Config{Host: host, Port: port}
}

func listenAddr() string {
	if v := os.Getenv("GRAPHRAG_ADMIN_ADDR"); v != "" {
		return v
	}
	return ":8090"
}
