package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
	"sync/atomic"

	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/observability"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/platform/qdrant"
)

// VectorStore is the qdrant surface used by retrieval and seeding.
type VectorStore interface {
	steps.VectorIndex
	steps.SeedIndex
	VerifyReady(ctx context.Context) error
	Collection() string
}

var newQdrantStore = func(log *logger.Logger, cfg qdrant.Config) (VectorStore, error) {
	return qdrant.NewStore(log, cfg)
}

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorNotReady            VectorProviderBootstrapErrorCode = "not_ready"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code       VectorProviderBootstrapErrorCode
	Collection string
	Cause      error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector store bootstrap failed"
	}
	return fmt.Sprintf("vector store bootstrap failed (code=%s collection=%q): %v", e.Code, e.Collection, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

type vectorStoreHandle struct {
	store VectorStore
}

// VectorProvider builds the qdrant store on first use and memoizes it. A
// failed build is not memoized; concurrent first calls may both build, and
// the first stored handle wins.
type VectorProvider struct {
	log     *logger.Logger
	cfg     qdrant.Config
	metrics *observability.Metrics

	handle atomic.Pointer[vectorStoreHandle]
}

func NewVectorProvider(log *logger.Logger, cfg qdrant.Config, metrics *observability.Metrics) *VectorProvider {
	return &VectorProvider{
		log:     log.With("service", "VectorProvider"),
		cfg:     cfg,
		metrics: metrics,
	}
}

func (p *VectorProvider) Index(ctx context.Context) (steps.VectorIndex, error) {
	return p.Store(ctx)
}

// Store returns the memoized store, building and readiness-checking it if
// needed.
func (p *VectorProvider) Store(ctx context.Context) (VectorStore, error) {
	if h := p.handle.Load(); h != nil {
		return h.store, nil
	}

	vs, err := p.build()
	if err != nil {
		return nil, err
	}
	if err := vs.VerifyReady(ctx); err != nil {
		classified := classifyVectorProviderBootstrapError(p.cfg.Collection, err)
		p.log.Warn("Vector store not ready", "collection", p.cfg.Collection, "error_code", vectorProviderBootstrapErrorCode(classified), "error", err)
		return nil, classified
	}

	p.handle.CompareAndSwap(nil, &vectorStoreHandle{store: vs})
	h := p.handle.Load()
	p.log.Info("Vector store ready", "url", p.cfg.URL, "collection", p.cfg.Collection, "vector_dim", p.cfg.VectorDim)
	return h.store, nil
}

// Unverified builds a fresh, unmemoized store without the readiness check.
// Seeding uses it because the collection may not exist yet.
func (p *VectorProvider) Unverified() (VectorStore, error) {
	return p.build()
}

func (p *VectorProvider) build() (VectorStore, error) {
	vs, err := newQdrantStore(p.log, p.cfg)
	if err != nil {
		classified := classifyVectorProviderBootstrapError(p.cfg.Collection, err)
		p.log.Error("Vector store bootstrap failed", "collection", p.cfg.Collection, "error_code", vectorProviderBootstrapErrorCode(classified), "error", err)
		return nil, classified
	}
	return instrumentVectorStore(vs, p.metrics), nil
}

func classifyVectorProviderBootstrapError(collection string, err error) error {
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Collection: collection, Cause: err}
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var opErr *qdrant.OperationError
	if errors.As(err, &opErr) {
		switch opErr.Code {
		case qdrant.OperationErrorTransportFailed, qdrant.OperationErrorTimeout:
			return wrap(VectorProviderBootstrapErrorConnectFailed)
		default:
			return wrap(VectorProviderBootstrapErrorNotReady)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorProviderInitFailed
}
