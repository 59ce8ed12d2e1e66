package ingest

import "fmt"

// ItemKind distinguishes what a per-item outcome refers to.
type ItemKind string

const (
	// ItemEntity marks the outcome of one entity upsert.
	ItemEntity ItemKind = "entity"
	// ItemRelationship marks the outcome of one edge creation.
	ItemRelationship ItemKind = "relationship"
)

// ItemResult records the outcome of persisting a single entity or
// relationship. One failed item never aborts a batch; failures are
// gathered here for the caller.
type ItemResult struct {
	Kind ItemKind
	// Key identifies the item: the natural key for entities,
	// "from-[TYPE]->to" for relationships.
	Key string
	Err error
}

// Failed reports whether the item failed to persist.
func (r ItemResult) Failed() bool { return r.Err != nil }

func (r ItemResult) String() string {
	if r.Err == nil {
		return fmt.Sprintf("%s %s: ok", r.Kind, r.Key)
	}
	return fmt.Sprintf("%s %s: %v", r.Kind, r.Key, r.Err)
}

// Report aggregates per-item outcomes of one ingestion run.
type Report struct {
	Items []ItemResult
}

func (r *Report) add(kind ItemKind, key string, err error) {
	r.Items = append(r.Items, ItemResult{Kind: kind, Key: key, Err: err})
}

// Failures returns only the failed items.
func (r *Report) Failures() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Succeeded reports whether every item persisted.
func (r *Report) Succeeded() bool { return len(r.Failures()) == 0 }
