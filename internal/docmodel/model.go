package docmodel

import (
	"context"
	"fmt"

	"github.com/civicdeck/backend/internal/clockx"
	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/docstore"
	"github.com/civicdeck/backend/internal/logging"
)

// Model does the heavy lifting for reading and writing one collection of
// documents. It is bound to a collection name, a field schema (merged over
// the default id/createdAt/updatedAt rules), and the names of any custom
// date fields that need timestamp conversion beyond the standard pair.
type Model struct {
	store           docstore.Store
	col             docstore.Collection
	collection      string
	schema          Schema
	otherDateFields []string
	clock           clockx.Clock
	log             logging.Logger
}

// WriteOptions tweaks create/update behavior.
type WriteOptions struct {
	// ReturnDoc re-reads the document after the write and returns it.
	ReturnDoc bool

	// UseTransaction wraps an update in a read-merge-validate-write
	// transaction. Only meaningful for Update.
	UseTransaction bool
}

// NewModel builds a model for one collection. The entity schema is merged
// over DefaultSchema, so id/createdAt/updatedAt rules are always present.
func NewModel(store docstore.Store, collection string, schema Schema, otherDateFields []string, clock clockx.Clock, log logging.Logger) *Model {
	return &Model{
		store:           store,
		col:             store.Collection(collection),
		collection:      collection,
		schema:          DefaultSchema().Merge(schema),
		otherDateFields: otherDateFields,
		clock:           clock,
		log:             log.With("collection", collection),
	}
}

// Collection returns the collection name the model is bound to.
func (m *Model) Collection() string { return m.collection }

// Schema returns a copy of the full merged schema.
func (m *Model) Schema() Schema { return m.schema.Merge(nil) }

// NowMillis returns the model clock's current time in epoch milliseconds.
func (m *Model) NowMillis() int64 { return clockx.Millis(m.clock.Now()) }

// validateAndPrepareForCreate validates against the given schema, converts
// custom date fields to storage timestamps, and stamps both standard
// timestamps to "now".
func (m *Model) validateAndPrepareForCreate(ctx context.Context, rec Record, schema Schema) (Record, error) {
	validated, err := schema.Validate(rec)
	if err != nil {
		return nil, err
	}

	prepared := ConvertMillisToTimestamps(ctx, validated, m.otherDateFields, m.log)

	now := ToStorageTimestamp(m.NowMillis())
	prepared[FieldCreatedAt] = now
	prepared[FieldUpdatedAt] = now

	return prepared, nil
}

// validateAndPrepareForUpdate validates against the given (partial) schema,
// converts custom date fields, and stamps updatedAt to "now".
func (m *Model) validateAndPrepareForUpdate(ctx context.Context, patch Record, schema Schema) (Record, error) {
	validated, err := schema.Validate(patch)
	if err != nil {
		return nil, err
	}

	prepared := ConvertMillisToTimestamps(ctx, validated, m.otherDateFields, m.log)
	prepared[FieldUpdatedAt] = ToStorageTimestamp(m.NowMillis())

	return prepared, nil
}

// Create writes a new document. If the caller did not supply an id, one is
// generated. A caller-supplied id that collides with an existing document
// silently overwrites it: the underlying write is an unconditional set, not
// a conditional insert.
//
// Returns the new id, and the freshly-read document when opts.ReturnDoc is
// set.
func (m *Model) Create(ctx context.Context, rec Record, opts *WriteOptions) (string, Record, error) {
	if opts == nil {
		opts = &WriteOptions{}
	}

	// id stays in the create schema: it is stamped below and must
	// validate. Only the server-assigned timestamps are excluded.
	createSchema := m.schema.Without(FieldCreatedAt, FieldUpdatedAt)

	id, _ := rec[FieldID].(string)
	if id == "" {
		id = m.col.NewID()
	}

	candidate := make(Record, len(rec)+1)
	for k, v := range rec {
		candidate[k] = v
	}
	candidate[FieldID] = id

	prepared, err := m.validateAndPrepareForCreate(ctx, candidate, createSchema)
	if err != nil {
		return "", nil, err
	}

	if err := m.col.Set(ctx, id, prepared); err != nil {
		return "", nil, err
	}

	if opts.ReturnDoc {
		doc, err := m.Get(ctx, id)
		return id, doc, err
	}
	return id, nil, nil
}

// CreateForBatch stages a create into the caller-supplied batch instead of
// executing it. The returned id is assigned once the batch commits. An
// optional targetID pins the write to a specific document id, overriding
// any id in the record.
func (m *Model) CreateForBatch(ctx context.Context, rec Record, batch docstore.Batch, targetID ...string) (string, error) {
	createSchema := m.schema.Without(FieldCreatedAt, FieldUpdatedAt)

	id, _ := rec[FieldID].(string)
	if len(targetID) > 0 && targetID[0] != "" {
		id = targetID[0]
	}
	if id == "" {
		id = m.col.NewID()
	}

	candidate := make(Record, len(rec)+1)
	for k, v := range rec {
		candidate[k] = v
	}
	candidate[FieldID] = id

	prepared, err := m.validateAndPrepareForCreate(ctx, candidate, createSchema)
	if err != nil {
		return "", err
	}

	batch.Set(m.collection, id, prepared)
	return id, nil
}

// Update merges a partial update into the document. Only the supplied
// fields are validated: the schema used is the full schema minus every
// field not present in the patch, so a partial update is never rejected for
// omitting required fields it does not touch. Fields absent from the patch
// are preserved in storage.
//
// Without UseTransaction the write is a merge-set, which means updating a
// nonexistent document silently creates it. With UseTransaction the update
// becomes a read-merge-revalidate-write transaction that fails with
// common.ErrNotFound when the document does not exist, and the full
// combined record is re-validated against the complete schema. The store
// re-runs the transaction body transparently on write conflicts.
func (m *Model) Update(ctx context.Context, id string, patch Record, opts *WriteOptions) (Record, error) {
	if opts == nil {
		opts = &WriteOptions{}
	}

	if opts.UseTransaction {
		err := m.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			doc, err := tx.Get(ctx, m.collection, id)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("update %s/%s: %w", m.collection, id, common.ErrNotFound)
			}

			current, err := m.FromStorageDoc(ctx, doc)
			if err != nil {
				return err
			}

			combined := make(Record, len(current)+len(patch))
			for k, v := range current {
				combined[k] = v
			}
			for k, v := range patch {
				combined[k] = v
			}

			validated, err := m.schema.Validate(combined)
			if err != nil {
				return err
			}

			prepared := ConvertMillisToTimestamps(ctx, validated, m.otherDateFields, m.log)
			if created, ok := validated[FieldCreatedAt].(int64); ok {
				prepared[FieldCreatedAt] = ToStorageTimestamp(created)
			}
			prepared[FieldUpdatedAt] = ToStorageTimestamp(m.NowMillis())

			tx.MergeSet(m.collection, id, prepared)
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		updateSchema := m.schema.Without(absentFields(m.schema, patch)...)

		prepared, err := m.validateAndPrepareForUpdate(ctx, patch, updateSchema)
		if err != nil {
			return nil, err
		}

		if err := m.col.MergeSet(ctx, id, prepared); err != nil {
			return nil, err
		}
	}

	if opts.ReturnDoc {
		return m.Get(ctx, id)
	}
	return nil, nil
}

// UpdateForBatch stages a non-transactional update into the batch, with the
// same partial validation and updatedAt stamping as Update.
func (m *Model) UpdateForBatch(ctx context.Context, id string, patch Record, batch docstore.Batch) error {
	updateSchema := m.schema.Without(absentFields(m.schema, patch)...)

	prepared, err := m.validateAndPrepareForUpdate(ctx, patch, updateSchema)
	if err != nil {
		return err
	}

	batch.MergeSet(m.collection, id, prepared)
	return nil
}

// Get fetches a document by id. Returns (nil, nil) when the document does
// not exist.
func (m *Model) Get(ctx context.Context, id string) (Record, error) {
	doc, err := m.col.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return m.FromStorageDoc(ctx, doc)
}

// GetOneBy fetches the single document whose field equals value. Zero
// matches return (nil, nil). More than one match is an invariant violation
// and fails with common.ErrMultipleResults.
func (m *Model) GetOneBy(ctx context.Context, field string, value any) (Record, error) {
	results, err := m.Query(ctx, []docstore.Where{{Field: field, Op: "==", Value: value}}, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	if len(results) > 1 {
		return nil, fmt.Errorf("%s.%s == %v: %w", m.collection, field, value, common.ErrMultipleResults)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// GetBy fetches all documents whose field equals value; nil when none match.
func (m *Model) GetBy(ctx context.Context, field string, value any) ([]Record, error) {
	return m.Query(ctx, []docstore.Where{{Field: field, Op: "==", Value: value}}, nil, nil, 0)
}

// GetAll fetches the entire collection, optionally ordered.
func (m *Model) GetAll(ctx context.Context, orderBy ...docstore.Order) ([]Record, error) {
	return m.Query(ctx, nil, orderBy, nil, 0)
}

// GetAllAndOrderBy fetches the entire collection ordered by one field
// ascending.
func (m *Model) GetAllAndOrderBy(ctx context.Context, field string) ([]Record, error) {
	return m.Query(ctx, nil, []docstore.Order{{Field: field}}, nil, 0)
}

// Query is the general query primitive. Where clauses combine with AND.
//
// The underlying query engine only applies startAfter and limit when an
// order is present: supplying either without orderBy is silently ignored.
// That coupling is a documented constraint of the engine, so this method
// preserves it and logs a warning rather than failing.
func (m *Model) Query(ctx context.Context, where []docstore.Where, orderBy []docstore.Order, startAfter []any, limit int) ([]Record, error) {
	if len(orderBy) == 0 && (limit > 0 || len(startAfter) > 0) {
		m.log.Warn(ctx, "limit/startAfter ignored without orderBy", "limit", limit)
		limit = 0
		startAfter = nil
	}

	docs, err := m.col.Query(ctx, docstore.Query{
		Where:      where,
		OrderBy:    orderBy,
		StartAfter: startAfter,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	if len(docs) == 0 {
		return nil, nil
	}

	out := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := m.FromStorageDoc(ctx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (m *Model) Delete(ctx context.Context, id string) error {
	return m.col.Delete(ctx, id)
}

// FromStorageDoc normalizes a raw storage document into the application
// shape: id injected from the document identity, standard and custom date
// fields converted to epoch milliseconds, everything else untouched.
//
// The standard pair is converted leniently (a non-timestamp value passes
// through), custom date fields are strict.
func (m *Model) FromStorageDoc(ctx context.Context, doc *docstore.Doc) (Record, error) {
	rec := make(Record, len(doc.Data)+1)
	for k, v := range doc.Data {
		rec[k] = v
	}
	rec[FieldID] = doc.ID

	for _, field := range []string{FieldCreatedAt, FieldUpdatedAt} {
		if millis, err := FromStorageTimestamp(rec[field]); err == nil {
			rec[field] = millis
		}
	}

	if len(m.otherDateFields) > 0 {
		converted, err := ConvertTimestampsToMillis(ctx, rec, m.otherDateFields, m.log)
		if err != nil {
			return nil, err
		}
		rec = converted
	}

	return rec, nil
}

// absentFields lists the schema fields not present in the patch; removing
// them from the schema yields the partial-update schema.
func absentFields(schema Schema, patch Record) []string {
	var out []string
	for _, field := range schema.Fields() {
		if _, ok := patch[field]; !ok {
			out = append(out, field)
		}
	}
	return out
}
