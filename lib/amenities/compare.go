package amenities

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Entity is one externally chosen comparison subject.
type Entity struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type EntityResult struct {
	Entity    Entity
	Amenities []string
	// Unique holds amenities present here and absent from every other
	// selected entity.
	Unique []string
}

type Result struct {
	Entities []EntityResult
	// Common is the intersection across all selected entities.
	Common []string
	// Union is every amenity seen on any selected entity.
	Union []string
	// AgreementRate is |Common| / |Union|, 0 when the union is empty.
	AgreementRate float64
}

// Compare builds a feature-parity view across 2 or 3 entities. Amenity
// sets are fetched fresh on every call; a failed fetch degrades that
// entity to an empty set.
func Compare(ctx context.Context, provider PageProvider, entities []Entity) (Result, error) {
	ctx, span := tracer.Start(ctx, "Compare")
	defer span.End()

	if len(entities) < 2 || len(entities) > 3 {
		err := fmt.Errorf("can only compare 2 or 3 entities, got %d", len(entities))
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	sets := make([][]string, len(entities))
	var wg sync.WaitGroup
	for i, entity := range entities {
		wg.Add(1)
		go func(i int, entity Entity) {
			defer wg.Done()
			content, err := provider.FetchPage(ctx, entity.URL)
			if err != nil {
				slog.WarnContext(ctx, "failed to fetch amenities", "entity", entity.Name, "err", err)
				return
			}
			sets[i] = Extract(content)
		}(i, entity)
	}
	wg.Wait()

	result := Result{Entities: make([]EntityResult, len(entities))}
	counts := map[string]int{}
	for _, set := range sets {
		for _, label := range set {
			counts[label]++
		}
	}

	for label, n := range counts {
		result.Union = append(result.Union, label)
		if n == len(entities) {
			result.Common = append(result.Common, label)
		}
	}
	sort.Strings(result.Union)
	sort.Strings(result.Common)

	for i, entity := range entities {
		er := EntityResult{Entity: entity, Amenities: sets[i]}
		for _, label := range sets[i] {
			if counts[label] == 1 {
				er.Unique = append(er.Unique, label)
			}
		}
		result.Entities[i] = er
	}

	if len(result.Union) > 0 {
		result.AgreementRate = float64(len(result.Common)) / float64(len(result.Union))
	}

	span.SetAttributes(
		attribute.Int("common", len(result.Common)),
		attribute.Int("union", len(result.Union)),
	)
	return result, nil
}
