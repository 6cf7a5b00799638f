// Package config loads process configuration from a .env file and the
// environment into a typed Config. Configuration loading itself is an
// external collaborator (§1 scope boundary); this package only defines the
// shape the core consumes and a thin loader so the core can be exercised
// standalone.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Policy bundles the runtime limits named in the GLOSSARY: timeout,
// max_cypher_results, max_traversal_depth, llm_rate_limit_per_minute, plus
// the semantic-mapping and retriever policy knobs the spec's Open Questions
// call out as configurable rather than hard-coded.
type Policy struct {
	Timeout                time.Duration
	RequestBudget           time.Duration
	MaxCypherResults        int
	MaxTraversalDepth       int
	LLMRateLimitPerMinute   int
	SemanticMapThreshold    float64
	RetrieverTopK           int
	RetrieverSimilarityFloor float64
}

// DefaultPolicy matches the defaults named throughout spec.md §4 and §8.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:                  10 * time.Second,
		RequestBudget:            30 * time.Second,
		MaxCypherResults:         25,
		MaxTraversalDepth:        2,
		LLMRateLimitPerMinute:    60,
		SemanticMapThreshold:     0.7,
		RetrieverTopK:            5,
		RetrieverSimilarityFloor: 0.0,
	}
}

// Mode is the runtime write-gate: writes are only ever permitted when Mode
// is Admin AND AllowWrites is true (§6 Admin surface).
type Mode string

const (
	ModeReadOnly Mode = "read_only"
	ModeAdmin    Mode = "admin"
)

// Config is the full set of process-level settings the core needs to be
// wired up. HTTP listen addresses, health endpoints, and process supervision
// are out of scope (§1) and intentionally absent here.
type Config struct {
	Policy Policy

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	QdrantAddr string

	OpenAIAPIKey string

	Mode        Mode
	AllowWrites bool
	AdminToken  string

	AuditLogPath string
}

// Load reads a .env file (if present; a missing file is not an error) then
// overlays process environment variables, matching the precedence godotenv
// callers in the retrieval pack rely on.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	cfg := &Config{
		Policy:        DefaultPolicy(),
		Neo4jURI:      getenv("GRAPHRAG_NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     getenv("GRAPHRAG_NEO4J_USER", "neo4j"),
		Neo4jPassword: os.Getenv("GRAPHRAG_NEO4J_PASSWORD"),
		QdrantAddr:    getenv("GRAPHRAG_QDRANT_ADDR", "localhost:6334"),
		OpenAIAPIKey:  os.Getenv("GRAPHRAG_OPENAI_API_KEY"),
		Mode:          Mode(getenv("GRAPHRAG_MODE", string(ModeReadOnly))),
		AllowWrites:   getenvBool("GRAPHRAG_ALLOW_WRITES", false),
		AdminToken:    os.Getenv("GRAPHRAG_ADMIN_TOKEN"),
		AuditLogPath:  getenv("GRAPHRAG_AUDIT_LOG_PATH", "./audit.jsonl"),
	}

	if v := os.Getenv("GRAPHRAG_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.Timeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("GRAPHRAG_MAX_CYPHER_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.MaxCypherResults = n
		}
	}
	if v := os.Getenv("GRAPHRAG_MAX_TRAVERSAL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.MaxTraversalDepth = n
		}
	}
	if v := os.Getenv("GRAPHRAG_LLM_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Policy.LLMRateLimitPerMinute = n
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// CanWrite reports whether the process is currently permitted to perform a
// graph mutation (only the admin schema-refresh path ever checks this).
func (c *Config) CanWrite() bool {
	return c.Mode == ModeAdmin && c.AllowWrites
}
