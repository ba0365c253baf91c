package elastic

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
	"github.com/traustid/arosenius-api/internal/core/query"
)

// Verify interface compliance
var _ driven.SearchBackend = (*SearchBackend)(nil)

// maxResultWindow caps the ranked id list retrieved per search; it matches
// the index's default index.max_result_window. Matches past the cap are not
// retrievable and do not count toward the result total.
const maxResultWindow = 10000

// SearchBackend renders query plans to the Elasticsearch query DSL
type SearchBackend struct {
	client *Client
}

// NewSearchBackend creates a new SearchBackend
func NewSearchBackend(client *Client) *SearchBackend {
	return &SearchBackend{client: client}
}

// Capabilities declares full predicate support: the index keeps per-image
// color candidates as a nested structure
func (b *SearchBackend) Capabilities() query.Capabilities {
	return query.Capabilities{
		ColorFilter:      true,
		PaletteHistogram: true,
	}
}

type obj = map[string]interface{}

// Search renders and executes a plan, returning the full ordered id list
func (b *SearchBackend) Search(ctx context.Context, plan query.Plan) ([]string, error) {
	boolQuery := renderBool(plan.Predicates)

	body := obj{
		"size":    maxResultWindow,
		"_source": false,
	}

	switch plan.Sort {
	case query.SortInsertionOrder:
		body["query"] = boolQuery
		body["sort"] = []obj{{"insert_id": "asc"}}
	case query.SortRelevance:
		body["query"] = renderScored(boolQuery, plan.Seed)
		body["sort"] = []interface{}{"_score", obj{"_id": "asc"}}
	default:
		body["query"] = boolQuery
		body["sort"] = []obj{{"_id": "asc"}}
	}

	var resp searchResponse
	if err := b.client.do(ctx, http.MethodPost, "/_search", body, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		names = append(names, hit.ID)
	}
	return names, nil
}

// renderBool translates the plan predicates into a bool query.
func renderBool(predicates []query.Predicate) obj {
	var filter, must, mustNot []obj

	for _, pred := range predicates {
		switch p := pred.(type) {
		case query.PublishedOnly:
			filter = append(filter, obj{"term": obj{"published": true}})
		case query.NotDeleted:
			filter = append(filter, obj{"term": obj{"deleted": false}})
		case query.FacetAnyOf:
			filter = append(filter, obj{"terms": obj{p.Facet.DocumentField(): p.Values}})
		case query.Prefix:
			field := "collection.museum"
			if p.Field == query.FieldBundle {
				field = "bundle"
			}
			filter = append(filter, obj{"prefix": obj{field: p.Value}})
		case query.YearIs:
			filter = append(filter, obj{"prefix": obj{"item_date_string": p.Year}})
		case query.InsertIDAtLeast:
			filter = append(filter, obj{"range": obj{"insert_id": obj{"gte": p.N}}})
		case query.ArchiveMaterial:
			terms := obj{"terms": obj{"type": domain.ArchiveMaterialCategories()}}
			if p.Mode == domain.ArchiveMaterialOnly {
				mustNot = append(mustNot, terms)
			} else {
				filter = append(filter, terms)
			}
		case query.ColorNear:
			filter = append(filter, renderColor(p))
		case query.TextMatch:
			must = append(must, renderText(p.Query))
		}
	}

	boolBody := obj{}
	if len(filter) > 0 {
		boolBody["filter"] = filter
	}
	if len(must) > 0 {
		boolBody["must"] = must
	}
	if len(mustNot) > 0 {
		boolBody["must_not"] = mustNot
	}
	return obj{"bool": boolBody}
}

// renderColor builds the nested query over per-image color candidates: every
// present channel must fall within the tolerance band and the candidate's
// confidence must sit inside the accepted score range.
func renderColor(p query.ColorNear) obj {
	path := "images.googleVisionColors"
	var ranges []obj

	channel := func(field string, want *float64) {
		if want == nil {
			return
		}
		ranges = append(ranges, obj{"range": obj{
			path + ".color." + field: obj{
				"gte": *want - p.Tolerance,
				"lte": *want + p.Tolerance,
			},
		}})
	}
	channel("hue", p.Hue)
	channel("saturation", p.Saturation)
	channel("lightness", p.Lightness)

	ranges = append(ranges, obj{"range": obj{
		path + ".score": obj{"gte": query.MinColorScore, "lte": query.MaxColorScore},
	}})

	return obj{"nested": obj{
		"path":  path,
		"query": obj{"bool": obj{"filter": ranges}},
	}}
}

// renderText builds the weighted free-text disjunction: each field of the
// weighted set matches at word-boundary prefixes and contributes its boost.
func renderText(text string) obj {
	var should []obj
	for _, field := range domain.TextFields() {
		should = append(should, obj{
			"match_phrase_prefix": obj{
				field.IndexField: obj{
					"query": text,
					"boost": field.Weight,
				},
			},
		})
	}
	return obj{"bool": obj{
		"should":               should,
		"minimum_should_match": 1,
	}}
}

// renderScored wraps the filter query in two scoring layers: genre promotion
// (first matching entry only) and the seeded pseudo-random tie-breaker.
func renderScored(boolQuery obj, seed uint64) obj {
	var genreFunctions []obj
	for _, promo := range domain.GenrePromotions() {
		genreFunctions = append(genreFunctions, obj{
			"filter": obj{"term": obj{"genre": promo.Genre}},
			"weight": promo.Weight,
		})
	}

	promoted := obj{"function_score": obj{
		"query":      boolQuery,
		"functions":  genreFunctions,
		"score_mode": "first",
		"boost_mode": "sum",
	}}

	return obj{"function_score": obj{
		"query": promoted,
		"functions": []obj{{
			"random_score": obj{
				"seed":  strconv.FormatUint(seed, 10),
				"field": "_seq_no",
			},
			"weight": domain.TieBreakerSpread,
		}},
		"boost_mode": "sum",
	}}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// aggregationBody wraps aggs with the implicit not-deleted filter and no hits.
func aggregationBody(aggs obj) obj {
	return obj{
		"size":  0,
		"query": obj{"bool": obj{"filter": []obj{{"term": obj{"deleted": false}}}}},
		"aggs":  aggs,
	}
}

type bucketsResponse struct {
	Aggregations map[string]aggResult `json:"aggregations"`
}

type aggResult struct {
	Buckets []bucket `json:"buckets"`
}

type bucket struct {
	Key      interface{} `json:"key"`
	DocCount int         `json:"doc_count"`
}

// FacetCounts returns the distinct values and record counts of one facet
func (b *SearchBackend) FacetCounts(ctx context.Context, facet domain.FacetType, sortOrder driven.FacetCountSort) ([]domain.FacetCount, error) {
	order := obj{"_key": "asc"}
	if sortOrder == driven.SortByCount {
		order = obj{"_count": "desc"}
	}

	body := aggregationBody(obj{
		"values": obj{"terms": obj{
			"field": facet.DocumentField(),
			"size":  10000,
			"order": order,
		}},
	})

	return b.termCounts(ctx, body, "values")
}

// Museums returns non-empty museums ordered by record count descending
func (b *SearchBackend) Museums(ctx context.Context) ([]domain.FacetCount, error) {
	body := aggregationBody(obj{
		"museums": obj{"terms": obj{
			"field": "collection.museum",
			"size":  10000,
			"order": obj{"_count": "desc"},
		}},
	})
	return b.termCounts(ctx, body, "museums")
}

// tagCloudExcluded names never appear in the tag cloud regardless of counts.
var tagCloudExcluded = []string{"GKMs diabildssamling", "Skepplandamaterialet"}

// tagCloudThreshold is the minimum record count for a tag-cloud entry.
const tagCloudThreshold = 5

// TagCloud returns the combined facet and museum view above the threshold
func (b *SearchBackend) TagCloud(ctx context.Context) ([]domain.TagCloudEntry, error) {
	aggs := obj{}
	for _, facet := range domain.Facets() {
		if facet == domain.FacetCategory {
			continue
		}
		aggs[string(facet)] = obj{"terms": obj{
			"field":         facet.DocumentField(),
			"size":          10000,
			"min_doc_count": tagCloudThreshold,
			"exclude":       tagCloudExcluded,
		}}
	}
	aggs["museum"] = obj{"terms": obj{
		"field":         "collection.museum",
		"size":          10000,
		"min_doc_count": tagCloudThreshold,
		"exclude":       tagCloudExcluded,
	}}

	var resp bucketsResponse
	if err := b.client.do(ctx, http.MethodPost, "/_search", aggregationBody(aggs), &resp); err != nil {
		return nil, err
	}

	var entries []domain.TagCloudEntry
	for name, agg := range resp.Aggregations {
		for _, bk := range agg.Buckets {
			entries = append(entries, domain.TagCloudEntry{
				Type:  name,
				Value: fmt.Sprintf("%v", bk.Key),
				Count: bk.DocCount,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries, nil
}

// YearHistogram counts records per year over the plan's filtered set
func (b *SearchBackend) YearHistogram(ctx context.Context, plan query.Plan) ([]domain.YearCount, error) {
	body := obj{
		"size":  0,
		"query": renderBool(plan.Predicates),
		"aggs": obj{
			"years": obj{"terms": obj{
				// Undated records carry no item_date_string at all; the
				// script must skip them rather than throw.
				"script": obj{
					"source": "doc['item_date_string'].size() == 0 || doc['item_date_string'].value.length() < 4 ? null : doc['item_date_string'].value.substring(0, 4)",
				},
				"size":  1000,
				"order": obj{"_key": "asc"},
			}},
		},
	}

	var resp bucketsResponse
	if err := b.client.do(ctx, http.MethodPost, "/_search", body, &resp); err != nil {
		return nil, err
	}

	agg := resp.Aggregations["years"]
	out := make([]domain.YearCount, 0, len(agg.Buckets))
	for _, bk := range agg.Buckets {
		out = append(out, domain.YearCount{
			Year:  fmt.Sprintf("%v", bk.Key),
			Count: bk.DocCount,
		})
	}
	return out, nil
}

// Exhibitions returns the distinct serialized exhibitions, sorted
func (b *SearchBackend) Exhibitions(ctx context.Context) ([]domain.FacetCount, error) {
	body := aggregationBody(obj{
		"exhibitions": obj{"terms": obj{
			"field": "exhibitions",
			"size":  10000,
			"order": obj{"_key": "asc"},
		}},
	})
	return b.termCounts(ctx, body, "exhibitions")
}

// PageTypes returns the distinct non-empty image side values
func (b *SearchBackend) PageTypes(ctx context.Context) ([]domain.FacetCount, error) {
	body := aggregationBody(obj{
		"sides": obj{"terms": obj{
			"field": "images.page.side",
			"size":  1000,
			"order": obj{"_key": "asc"},
		}},
	})
	return b.termCounts(ctx, body, "sides")
}

// ColorHistogram groups image colors hue → saturation (→ lightness). The
// dominant source aggregates over the derived per-image best colors, the
// palette source over the full nested candidate lists.
func (b *SearchBackend) ColorHistogram(ctx context.Context, source domain.ColorSource, threeLevel bool) ([]domain.ColorBucket, error) {
	path := "dominantColors"
	colorPrefix := "dominantColors."
	if source == domain.ColorSourcePalette {
		path = "images.googleVisionColors"
		colorPrefix = "images.googleVisionColors.color."
	}

	lightness := obj{}
	if threeLevel {
		lightness = obj{
			"lightness": obj{"terms": obj{
				"field": colorPrefix + "lightness",
				"size":  1000,
				"order": obj{"_key": "asc"},
			}},
		}
	}

	body := aggregationBody(obj{
		"colors": obj{
			"nested": obj{"path": path},
			"aggs": obj{
				"hue": obj{
					"terms": obj{
						"field": colorPrefix + "hue",
						"size":  1000,
						"order": obj{"_key": "asc"},
					},
					"aggs": obj{
						"saturation": obj{
							"terms": obj{
								"field": colorPrefix + "saturation",
								"size":  1000,
								"order": obj{"_key": "asc"},
							},
							"aggs": lightness,
						},
					},
				},
			},
		},
	})

	var resp rawAggResponse
	if err := b.client.do(ctx, http.MethodPost, "/_search", body, &resp); err != nil {
		return nil, err
	}

	return parseColorBuckets(resp, threeLevel), nil
}

// rawAggResponse keeps the nested aggregation tree as raw maps; the color
// histogram is the only consumer of deep nesting.
type rawAggResponse struct {
	Aggregations struct {
		Colors struct {
			Hue struct {
				Buckets []hueBucket `json:"buckets"`
			} `json:"hue"`
		} `json:"colors"`
	} `json:"aggregations"`
}

type hueBucket struct {
	Key        float64 `json:"key"`
	Saturation struct {
		Buckets []satBucket `json:"buckets"`
	} `json:"saturation"`
}

type satBucket struct {
	Key       float64 `json:"key"`
	Lightness struct {
		Buckets []struct {
			Key float64 `json:"key"`
		} `json:"buckets"`
	} `json:"lightness"`
}

func parseColorBuckets(resp rawAggResponse, threeLevel bool) []domain.ColorBucket {
	var out []domain.ColorBucket
	for _, hue := range resp.Aggregations.Colors.Hue.Buckets {
		bucket := domain.ColorBucket{Hue: hue.Key}
		for _, sat := range hue.Saturation.Buckets {
			sb := domain.SaturationBucket{Saturation: sat.Key}
			if threeLevel {
				for _, l := range sat.Lightness.Buckets {
					sb.Lightness = append(sb.Lightness, l.Key)
				}
			}
			bucket.Saturations = append(bucket.Saturations, sb)
		}
		out = append(out, bucket)
	}
	return out
}

func (b *SearchBackend) termCounts(ctx context.Context, body obj, name string) ([]domain.FacetCount, error) {
	var resp bucketsResponse
	if err := b.client.do(ctx, http.MethodPost, "/_search", body, &resp); err != nil {
		return nil, err
	}

	agg := resp.Aggregations[name]
	out := make([]domain.FacetCount, 0, len(agg.Buckets))
	for _, bk := range agg.Buckets {
		out = append(out, domain.FacetCount{
			Value: fmt.Sprintf("%v", bk.Key),
			Count: bk.DocCount,
		})
	}
	return out, nil
}
