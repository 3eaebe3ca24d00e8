package services

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/tutorhub/tutorhub-api/internal/apierr"
	"github.com/tutorhub/tutorhub-api/internal/db"
	"github.com/tutorhub/tutorhub-api/internal/query"
)

// ListSpec is the per-endpoint configuration of a list route.
type ListSpec struct {
	Collection   string
	DefaultLimit int64
	MaxLimit     int64
	DefaultSort  bson.D
	BaseFilter   bson.M
}

// ListParams are the raw q, sort, limit and offset query parameters.
type ListParams struct {
	Q      string
	Sort   string
	Limit  string
	Offset string
}

type ListResult struct {
	Items      []bson.M `json:"items"`
	Total      int64    `json:"total"`
	Limit      int64    `json:"limit"`
	Offset     int64    `json:"offset"`
	Collection string   `json:"collection"`
}

type CollectionService struct {
	store db.Store
}

func NewCollectionService(store db.Store) *CollectionService {
	return &CollectionService{store: store}
}

// List runs the page query and the count concurrently; the count is not
// taken from the same snapshot as the page.
func (s *CollectionService) List(ctx context.Context, spec ListSpec, p ListParams) (*ListResult, error) {
	filter, err := query.ParseFilter(p.Q)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "bad_query", err)
	}
	sort, err := query.ParseSort(p.Sort)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "bad_sort", err)
	}
	if len(sort) == 0 {
		sort = spec.DefaultSort
	}
	filter = mergeFilters(spec.BaseFilter, filter)
	limit, offset := query.Paginate(p.Limit, p.Offset, spec.DefaultLimit, spec.MaxLimit)

	res := &ListResult{Limit: limit, Offset: offset, Collection: spec.Collection}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.store.Find(gctx, spec.Collection, filter, db.FindOptions{Sort: sort, Skip: offset, Limit: limit})
		res.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.store.Count(gctx, spec.Collection, filter)
		res.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list %s: %w", spec.Collection, err)
	}
	if res.Items == nil {
		res.Items = []bson.M{}
	}
	return res, nil
}

// SearchFilter matches term as a case-insensitive literal in any of fields.
func SearchFilter(term string, fields ...string) bson.M {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := make([]bson.M, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: pattern})
	}
	return bson.M{"$or": or}
}

func mergeFilters(base, filter bson.M) bson.M {
	switch {
	case len(base) == 0:
		return filter
	case len(filter) == 0:
		return base
	}
	return bson.M{"$and": []bson.M{base, filter}}
}

func idString(v interface{}) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
