package schema

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/paladugusuresh/graphrag/internal/errcode"
)

// Catalog is C1: it extracts labels/relationships/properties from the graph
// store and publishes an AllowList snapshot atomically. Readers call
// Current() and hold the returned pointer for the life of their request;
// no lock is ever held across I/O (§5, §9).
type Catalog struct {
	driver   neo4j.DriverWithContext
	database string
	current  atomic.Pointer[AllowList]
}

// NewCatalog builds a Catalog bound to driver. Current() returns nil until
// the first successful Refresh.
func NewCatalog(driver neo4j.DriverWithContext, database string) *Catalog {
	return &Catalog{driver: driver, database: database}
}

// Current returns the most recently published AllowList, or nil if Refresh
// has never succeeded.
func (c *Catalog) Current() *AllowList {
	return c.current.Load()
}

// Refresh queries the graph store's schema introspection calls, computes
// the new fingerprint, and publishes it atomically if it changed (§4.1
// idempotence: an unchanged fingerprint triggers no downstream work, i.e.
// Refresh still succeeds but the pointer swap is skipped so nothing
// observes a "new" snapshot with identical content).
func (c *Catalog) Refresh(ctx context.Context) (*AllowList, bool, error) {
	labels, relationships, properties, err := c.introspect(ctx)
	if err != nil {
		return nil, false, errcode.New("schema_catalog", errcode.SchemaUnavailable, err)
	}

	next := NewAllowList(labels, relationships, properties)

	if prev := c.current.Load(); prev != nil && prev.Fingerprint == next.Fingerprint {
		return prev, false, nil
	}

	c.current.Store(next)
	return next, true, nil
}

type introspectionSnapshot struct {
	labels        []string
	relationships []string
	properties    map[string][]string
}

func (c *Catalog) introspect(ctx context.Context) (labels, relationships []string, properties map[string][]string, err error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap := introspectionSnapshot{properties: map[string][]string{}}

		labelRes, err := tx.Run(ctx, "CALL db.labels() YIELD label RETURN label", nil)
		if err != nil {
			return nil, fmt.Errorf("list labels: %w", err)
		}
		labelRecords, err := labelRes.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect labels: %w", err)
		}
		for _, rec := range labelRecords {
			if v, ok := rec.Get("label"); ok {
				if s, ok := v.(string); ok {
					snap.labels = append(snap.labels, s)
				}
			}
		}

		relRes, err := tx.Run(ctx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType", nil)
		if err != nil {
			return nil, fmt.Errorf("list relationship types: %w", err)
		}
		relRecords, err := relRes.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect relationship types: %w", err)
		}
		for _, rec := range relRecords {
			if v, ok := rec.Get("relationshipType"); ok {
				if s, ok := v.(string); ok {
					snap.relationships = append(snap.relationships, s)
				}
			}
		}

		propRes, err := tx.Run(ctx,
			"CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName RETURN nodeLabels, propertyName", nil)
		if err != nil {
			return nil, fmt.Errorf("list node type properties: %w", err)
		}
		propRecords, err := propRes.Collect(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect node type properties: %w", err)
		}
		for _, rec := range propRecords {
			nodeLabelsVal, _ := rec.Get("nodeLabels")
			propNameVal, _ := rec.Get("propertyName")
			propName, ok := propNameVal.(string)
			if !ok {
				continue
			}
			nodeLabels, ok := nodeLabelsVal.([]any)
			if !ok {
				continue
			}
			for _, nl := range nodeLabels {
				if label, ok := nl.(string); ok {
					snap.properties[label] = append(snap.properties[label], propName)
				}
			}
		}

		return snap, nil
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("schema: introspect: %w", err)
	}

	snap := result.(introspectionSnapshot)
	return snap.labels, snap.relationships, snap.properties, nil
}
