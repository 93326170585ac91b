package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmfmock/tmfmockd/internal/id"
	"github.com/tmfmock/tmfmockd/pkg/hub"
	"github.com/tmfmock/tmfmockd/pkg/schema"
)

// Resource holds the records of one resource type. Records keep insertion
// order; server-assigned IDs come from a monotonic per-resource counter and
// are never reused, even after delete or when callers supply their own IDs.
type Resource struct {
	mu        sync.RWMutex
	typ       *schema.ResourceType
	validator *schema.RecordValidator
	records   map[string]map[string]any
	order     []string
	ids       *id.Sequence
	seed      []map[string]any
	seedStart uint64
	eventSeq  atomic.Uint64
	sink      EventSink
	observer  Observer
}

func newResource(typ *schema.ResourceType, sink EventSink, observer Observer) (*Resource, error) {
	validator, err := schema.NewRecordValidator(typ)
	if err != nil {
		return nil, fmt.Errorf("compiling validator for %q: %w", typ.Name, err)
	}

	r := &Resource{
		typ:       typ,
		validator: validator,
		sink:      sink,
		observer:  observer,
		seedStart: 1,
	}

	for i, raw := range typ.SeedData {
		rec, err := normalizeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("seed record %d for %q: %w", i, typ.Name, err)
		}
		if stringField(rec, typ.IDField) == "" {
			return nil, fmt.Errorf("seed record %d for %q has no %q", i, typ.Name, typ.IDField)
		}
		if err := validator.Validate(rec); err != nil {
			return nil, fmt.Errorf("seed record %d for %q: %w", i, typ.Name, err)
		}
		r.seed = append(r.seed, rec)

		// Seeds with numeric IDs push the counter past them so assigned
		// IDs never collide with seeded ones.
		if n, ok := id.NumericValue(stringField(rec, typ.IDField)); ok && n >= r.seedStart {
			r.seedStart = n + 1
		}
	}

	if err := r.loadSeed(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resource) loadSeed() error {
	r.records = make(map[string]map[string]any, len(r.seed))
	r.order = r.order[:0]

	for i, rec := range r.seed {
		recID := stringField(rec, r.typ.IDField)
		if _, exists := r.records[recID]; exists {
			return fmt.Errorf("duplicate ID %q in seed data for %q at index %d", recID, r.typ.Name, i)
		}
		r.records[recID] = cloneRecord(rec)
		r.order = append(r.order, recID)
	}

	r.ids = id.NewSequence(r.seedStart)
	return nil
}

// Name returns the resource type name.
func (r *Resource) Name() string {
	return r.typ.Name
}

// Type returns the resource type definition.
func (r *Resource) Type() *schema.ResourceType {
	return r.typ
}

// Count returns the number of records currently held.
func (r *Resource) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// List returns records in insertion order, narrowed by the filter.
func (r *Resource) List(filter *Filter) ([]map[string]any, error) {
	start := time.Now()

	c, err := compileFilter(r.typ.Name, filter)
	if err != nil {
		r.observer.OnError(r.typ.Name, "list", err)
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]map[string]any, 0, len(r.order))
	for _, recID := range r.order {
		ok, err := c.matches(r.typ.Name, r.records[recID])
		if err != nil {
			r.observer.OnError(r.typ.Name, "list", err)
			return nil, err
		}
		if ok {
			out = append(out, cloneRecord(r.records[recID]))
		}
	}

	r.observer.OnList(r.typ.Name, len(out), time.Since(start))
	return out, nil
}

// Get returns a single record by ID.
func (r *Resource) Get(recID string) (map[string]any, error) {
	start := time.Now()

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[recID]
	if !ok {
		err := &NotFoundError{Resource: r.typ.Name, ID: recID}
		r.observer.OnError(r.typ.Name, "get", err)
		return nil, err
	}

	r.observer.OnRead(r.typ.Name, recID, time.Since(start))
	return cloneRecord(rec), nil
}

// Create stores a new record. A caller-supplied ID is kept if free;
// otherwise the next counter value is assigned. Emits a created event.
func (r *Resource) Create(record map[string]any) (map[string]any, error) {
	start := time.Now()

	rec, err := normalizeRecord(record)
	if err != nil {
		verr := &ValidationError{Resource: r.typ.Name, Message: err.Error()}
		r.observer.OnError(r.typ.Name, "create", verr)
		return nil, verr
	}

	if err := r.checkIDKind(rec, "create"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recID := stringField(rec, r.typ.IDField)
	if recID != "" {
		if _, exists := r.records[recID]; exists {
			cerr := &ConflictError{Resource: r.typ.Name, ID: recID}
			r.observer.OnError(r.typ.Name, "create", cerr)
			return nil, cerr
		}
	} else {
		for {
			recID = r.ids.Next()
			if _, exists := r.records[recID]; !exists {
				break
			}
		}
		rec[r.typ.IDField] = recID
	}

	r.synthesizeHref(rec, recID)

	if err := r.validate(rec); err != nil {
		r.observer.OnError(r.typ.Name, "create", err)
		return nil, err
	}

	r.records[recID] = rec
	r.order = append(r.order, recID)

	snapshot := cloneRecord(rec)
	r.emit(hub.KindCreated, recID, snapshot)
	r.observer.OnCreate(r.typ.Name, recID, time.Since(start))
	return cloneRecord(rec), nil
}

// Update replaces a record wholesale. The body may repeat the identifier but
// must not change it. Emits an updated event.
func (r *Resource) Update(recID string, record map[string]any) (map[string]any, error) {
	start := time.Now()

	rec, err := normalizeRecord(record)
	if err != nil {
		verr := &ValidationError{Resource: r.typ.Name, Message: err.Error()}
		r.observer.OnError(r.typ.Name, "update", verr)
		return nil, verr
	}

	if err := r.checkIDKind(rec, "update"); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[recID]; !ok {
		nerr := &NotFoundError{Resource: r.typ.Name, ID: recID}
		r.observer.OnError(r.typ.Name, "update", nerr)
		return nil, nerr
	}

	if bodyID := stringField(rec, r.typ.IDField); bodyID != "" && bodyID != recID {
		verr := &ValidationError{Resource: r.typ.Name, Field: r.typ.IDField, Message: "identifier is immutable"}
		r.observer.OnError(r.typ.Name, "update", verr)
		return nil, verr
	}
	rec[r.typ.IDField] = recID

	r.synthesizeHref(rec, recID)

	if err := r.validate(rec); err != nil {
		r.observer.OnError(r.typ.Name, "update", err)
		return nil, err
	}

	r.records[recID] = rec

	r.emit(hub.KindUpdated, recID, cloneRecord(rec))
	r.observer.OnUpdate(r.typ.Name, recID, time.Since(start))
	return cloneRecord(rec), nil
}

// Patch merges the given fields into an existing record. The merge is
// shallow: a nested object value replaces the stored one wholesale. Emits an
// updated event.
func (r *Resource) Patch(recID string, fields map[string]any) (map[string]any, error) {
	start := time.Now()

	patch, err := normalizeRecord(fields)
	if err != nil {
		verr := &ValidationError{Resource: r.typ.Name, Message: err.Error()}
		r.observer.OnError(r.typ.Name, "patch", verr)
		return nil, verr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[recID]
	if !ok {
		nerr := &NotFoundError{Resource: r.typ.Name, ID: recID}
		r.observer.OnError(r.typ.Name, "patch", nerr)
		return nil, nerr
	}

	if bodyID, present := patch[r.typ.IDField]; present {
		s, ok := bodyID.(string)
		if !ok {
			verr := &ValidationError{Resource: r.typ.Name, Field: r.typ.IDField, Message: "identifier must be a string"}
			r.observer.OnError(r.typ.Name, "patch", verr)
			return nil, verr
		}
		if s != recID {
			verr := &ValidationError{Resource: r.typ.Name, Field: r.typ.IDField, Message: "identifier is immutable"}
			r.observer.OnError(r.typ.Name, "patch", verr)
			return nil, verr
		}
	}

	merged := cloneRecord(existing)
	for field, value := range patch {
		merged[field] = value
	}
	merged[r.typ.IDField] = recID

	if err := r.validate(merged); err != nil {
		r.observer.OnError(r.typ.Name, "patch", err)
		return nil, err
	}

	r.records[recID] = merged

	r.emit(hub.KindUpdated, recID, cloneRecord(merged))
	r.observer.OnUpdate(r.typ.Name, recID, time.Since(start))
	return cloneRecord(merged), nil
}

// Delete removes a record. The deleted event carries the last state of the
// record. The record's ID is never reassigned.
func (r *Resource) Delete(recID string) error {
	start := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[recID]
	if !ok {
		nerr := &NotFoundError{Resource: r.typ.Name, ID: recID}
		r.observer.OnError(r.typ.Name, "delete", nerr)
		return nerr
	}

	delete(r.records, recID)
	for i, oid := range r.order {
		if oid == recID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.emit(hub.KindDeleted, recID, cloneRecord(existing))
	r.observer.OnDelete(r.typ.Name, recID, time.Since(start))
	return nil
}

// Reset restores the seed snapshot and rewinds the ID counter to its
// seed-derived start. The event sequence is left alone so sequence numbers
// stay monotonic across resets.
func (r *Resource) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// The seed snapshot was checked at construction and is never mutated,
	// so reloading it cannot fail.
	_ = r.loadSeed()
}

// synthesizeHref fills the conventional href field on records whose type
// declares one (or is open), mirroring how TMF APIs self-link records.
func (r *Resource) synthesizeHref(rec map[string]any, recID string) {
	if !r.typ.Open() && !r.typ.HasField("href") {
		return
	}
	if stringField(rec, "href") == "" {
		rec["href"] = r.typ.BasePath + "/" + recID
	}
}

func (r *Resource) validate(rec map[string]any) error {
	if err := r.validator.Validate(rec); err != nil {
		return &ValidationError{Resource: r.typ.Name, Message: err.Error()}
	}
	return nil
}

// checkIDKind rejects a present identifier that is not a string. A numeric
// identifier would read as absent through stringField and be silently
// replaced with a counter-assigned ID.
func (r *Resource) checkIDKind(rec map[string]any, operation string) error {
	v, present := rec[r.typ.IDField]
	if !present {
		return nil
	}
	if _, ok := v.(string); !ok {
		verr := &ValidationError{Resource: r.typ.Name, Field: r.typ.IDField, Message: "identifier must be a string"}
		r.observer.OnError(r.typ.Name, operation, verr)
		return verr
	}
	return nil
}

// emit publishes one event for a completed mutation. Callers hold the write
// lock, so enqueue order matches mutation order and per-subscriber delivery
// is FIFO.
func (r *Resource) emit(kind, recID string, snapshot map[string]any) {
	if r.sink == nil {
		return
	}
	r.sink.Publish(hub.Event{
		ID:       id.UUID(),
		Sequence: r.eventSeq.Add(1),
		Kind:     kind,
		Resource: r.typ.Name,
		RecordID: recID,
		Time:     time.Now(),
		Record:   snapshot,
	})
}
