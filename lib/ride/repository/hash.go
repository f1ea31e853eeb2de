package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ValentinKolb/dRide/lib/ride/model"
	"github.com/ValentinKolb/dRide/lib/ride/router"
)

// hashStore stores json encoded entities of one kind in the region's hash collection
type hashStore[T any] struct {
	router *router.Router
	kind   router.EntityKind
}

func (s hashStore[T]) save(ctx context.Context, region model.Region, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return model.Internal(fmt.Sprintf("failed to encode %s %s", s.kind, id), err)
	}
	// writes always go to the master, whatever consistency the caller asked for
	if err := s.router.Master(region).HSet(ctx, CollectionKey(s.kind, region), id, data); err != nil {
		return model.Internal(fmt.Sprintf("failed to save %s %s", s.kind, id), err)
	}
	return nil
}

func (s hashStore[T]) find(ctx context.Context, region model.Region, id string, consistency model.ConsistencyLevel) (*T, bool, error) {
	data, ok, err := s.router.Resolve(region, consistency, s.kind).HGet(ctx, CollectionKey(s.kind, region), id)
	if err != nil {
		return nil, false, model.Internal(fmt.Sprintf("failed to load %s %s", s.kind, id), err)
	}
	if !ok {
		return nil, false, nil
	}
	entity := new(T)
	if err := json.Unmarshal(data, entity); err != nil {
		return nil, false, model.Internal(fmt.Sprintf("failed to decode %s %s", s.kind, id), err)
	}
	return entity, true, nil
}

// findAll returns all entities ordered by id
func (s hashStore[T]) findAll(ctx context.Context, region model.Region, consistency model.ConsistencyLevel) ([]T, error) {
	fields, err := s.router.Resolve(region, consistency, s.kind).HGetAll(ctx, CollectionKey(s.kind, region))
	if err != nil {
		return nil, model.Internal(fmt.Sprintf("failed to list %s", s.kind), err)
	}

	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entities := make([]T, 0, len(ids))
	for _, id := range ids {
		var entity T
		if err := json.Unmarshal(fields[id], &entity); err != nil {
			return nil, model.Internal(fmt.Sprintf("failed to decode %s %s", s.kind, id), err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (s hashStore[T]) delete(ctx context.Context, region model.Region, id string) error {
	if err := s.router.Master(region).HDel(ctx, CollectionKey(s.kind, region), id); err != nil {
		return model.Internal(fmt.Sprintf("failed to delete %s %s", s.kind, id), err)
	}
	return nil
}
