package rpc_handlers

import (
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/xrplgo/goxrpld/internal/core/protocolfeature"
	"github.com/xrplgo/goxrpld/internal/rpc/rpc_types"
)

// FeatureMethod handles the feature RPC method: reports the catalog's
// protocol features and, for each, whether the node's activation log has
// turned it on.
// Reference: rippled Feature.cpp
type FeatureMethod struct {
	catalog *protocolfeature.Catalog
	manager *protocolfeature.Manager

	// renderCache fronts Feature.ToJSON. A catalog entry's identity
	// fields never change once inserted, so the only thing that can
	// invalidate a cached rendering is its activation status; the cache
	// keys on that explicitly rather than trying to invalidate in place.
	renderCache *lru.Cache[renderCacheKey, protocolfeature.FeatureJSON]
}

type renderCacheKey struct {
	digest  protocolfeature.Digest
	active  bool
	atBlock uint32
}

// NewFeatureMethod constructs a FeatureMethod backed by catalog and
// manager. manager may be nil, in which case every feature reports as
// inactive.
func NewFeatureMethod(catalog *protocolfeature.Catalog, manager *protocolfeature.Manager) (*FeatureMethod, error) {
	cache, err := lru.New[renderCacheKey, protocolfeature.FeatureJSON](len(catalog.Features()) + 16)
	if err != nil {
		return nil, err
	}
	return &FeatureMethod{catalog: catalog, manager: manager, renderCache: cache}, nil
}

func (m *FeatureMethod) render(f *protocolfeature.Feature) protocolfeature.FeatureJSON {
	var active bool
	var atBlock uint32
	if m.manager != nil && f.Builtin != nil {
		atBlock, active = m.manager.ActivatedAt(f.Builtin.Code)
	}

	key := renderCacheKey{digest: f.FeatureDigest, active: active, atBlock: atBlock}
	if cached, ok := m.renderCache.Get(key); ok {
		return cached
	}
	rendered := f.ToJSON(active, atBlock)
	m.renderCache.Add(key, rendered)
	return rendered
}

func (m *FeatureMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	var request struct {
		Feature string `json:"feature,omitempty"`
	}
	if params != nil {
		_ = json.Unmarshal(params, &request)
	}

	if request.Feature != "" {
		return m.handleSingleFeature(request.Feature)
	}

	response := make(map[string]protocolfeature.FeatureJSON, len(m.catalog.Features()))
	for _, f := range m.catalog.Features() {
		response[f.FeatureDigest.String()] = m.render(f)
	}
	return response, nil
}

// handleSingleFeature looks up a single feature by codename or hex
// digest.
func (m *FeatureMethod) handleSingleFeature(feature string) (interface{}, *rpc_types.RpcError) {
	var f *protocolfeature.Feature

	for _, candidate := range m.catalog.Features() {
		if candidate.Builtin != nil && candidate.Builtin.Codename == feature {
			f = candidate
			break
		}
	}

	if f == nil {
		if digest, err := protocolfeature.DigestFromHex(feature); err == nil {
			f = m.catalog.Feature(digest)
		}
	}

	if f == nil {
		return nil, rpc_types.RpcErrorInvalidParams("Feature not found: " + feature)
	}

	return map[string]protocolfeature.FeatureJSON{
		f.FeatureDigest.String(): m.render(f),
	}, nil
}

func (m *FeatureMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}

func (m *FeatureMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1, rpc_types.ApiVersion2, rpc_types.ApiVersion3}
}
