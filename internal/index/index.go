// Package index is the in-memory inverted index: BM25+ term scoring over
// string properties, value and numeric postings for where-clauses, and
// geo points for radius queries.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kailas-cloud/ftsearch/internal/domain"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection"
	"github.com/kailas-cloud/ftsearch/internal/domain/collection/field"
	"github.com/kailas-cloud/ftsearch/internal/domain/document"
	"github.com/kailas-cloud/ftsearch/internal/domain/geo"
	"github.com/kailas-cloud/ftsearch/internal/domain/search/result"
	"github.com/kailas-cloud/ftsearch/internal/tokenizer"
)

// textIndex holds the postings of one string property.
type textIndex struct {
	postings map[string]map[result.InternalID]int
	dict     []string
	lengths  map[result.InternalID]int
	total    int
}

func newTextIndex() *textIndex {
	return &textIndex{
		postings: make(map[string]map[result.InternalID]int),
		lengths:  make(map[result.InternalID]int),
	}
}

func (t *textIndex) add(id result.InternalID, tokens []string) {
	t.lengths[id] = len(tokens)
	t.total += len(tokens)
	for _, tok := range tokens {
		docs, ok := t.postings[tok]
		if !ok {
			docs = make(map[result.InternalID]int)
			t.postings[tok] = docs
			i := sort.SearchStrings(t.dict, tok)
			t.dict = append(t.dict, "")
			copy(t.dict[i+1:], t.dict[i:])
			t.dict[i] = tok
		}
		docs[id]++
	}
}

func (t *textIndex) remove(id result.InternalID, tokens []string) {
	t.total -= t.lengths[id]
	delete(t.lengths, id)
	for _, tok := range tokens {
		docs, ok := t.postings[tok]
		if !ok {
			continue
		}
		delete(docs, id)
		if len(docs) == 0 {
			delete(t.postings, tok)
			if i := sort.SearchStrings(t.dict, tok); i < len(t.dict) && t.dict[i] == tok {
				t.dict = append(t.dict[:i], t.dict[i+1:]...)
			}
		}
	}
}

func (t *textIndex) avgLength() float64 {
	if len(t.lengths) == 0 {
		return 0
	}
	return float64(t.total) / float64(len(t.lengths))
}

// entry remembers what a document contributed, for removal.
type entry struct {
	tokens map[string][]string
	values map[string][]string
}

// Index is safe for concurrent use: searches share a read lock,
// mutations take the write lock.
type Index struct {
	mu        sync.RWMutex
	schema    collection.Collection
	tokenizer *tokenizer.Tokenizer
	live      *roaring.Bitmap
	text      map[string]*textIndex
	values    map[string]map[string]*roaring.Bitmap
	numbers   map[string]map[result.InternalID][]float64
	points    map[string]map[result.InternalID]geo.Point
	entries   map[result.InternalID]*entry
	listeners []func()
}

// New creates an empty index over schema.
func New(schema collection.Collection, tok *tokenizer.Tokenizer) *Index {
	idx := &Index{
		schema:    schema,
		tokenizer: tok,
		live:      roaring.New(),
		text:      make(map[string]*textIndex),
		values:    make(map[string]map[string]*roaring.Bitmap),
		numbers:   make(map[string]map[result.InternalID][]float64),
		points:    make(map[string]map[result.InternalID]geo.Point),
		entries:   make(map[result.InternalID]*entry),
	}
	for _, f := range schema.Fields() {
		idx.prepare(f)
	}
	return idx
}

func (idx *Index) prepare(f field.Field) {
	name := f.Name()
	switch f.FieldType().Scalar() {
	case field.String:
		idx.text[name] = newTextIndex()
		idx.values[name] = make(map[string]*roaring.Bitmap)
	case field.Enum, field.Boolean:
		idx.values[name] = make(map[string]*roaring.Bitmap)
	case field.Number:
		idx.numbers[name] = make(map[result.InternalID][]float64)
	case field.GeoPoint:
		idx.points[name] = make(map[result.InternalID]geo.Point)
	}
}

// Schema returns the current schema.
func (idx *Index) Schema() collection.Collection {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.schema
}

// OnSchemaChange registers fn to run after AddFields changes the schema.
func (idx *Index) OnSchemaChange(fn func()) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.listeners = append(idx.listeners, fn)
}

// AddFields extends the schema. Existing documents are not re-indexed.
func (idx *Index) AddFields(fields ...field.Field) error {
	idx.mu.Lock()
	next, err := collection.New(idx.schema.Name(), append(append([]field.Field(nil), idx.schema.Fields()...), fields...))
	if err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	idx.schema = next
	for _, f := range fields {
		idx.prepare(f)
	}
	listeners := append([]func(){}, idx.listeners...)
	idx.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// SearchablePropertiesWithTypes maps every term-searchable property to its type.
func (idx *Index) SearchablePropertiesWithTypes(_ context.Context) (map[string]field.Type, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make(map[string]field.Type)
	for _, f := range idx.schema.Fields() {
		if f.FieldType().IsString() {
			out[f.Name()] = f.FieldType()
		}
	}
	return out, nil
}

// SearchableProperties lists term-searchable properties in schema order.
func (idx *Index) SearchableProperties(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []string
	for _, f := range idx.schema.Fields() {
		if f.FieldType().IsString() {
			out = append(out, f.Name())
		}
	}
	return out, nil
}

// VectorProperties lists vector-typed properties.
func (idx *Index) VectorProperties(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.schema.VectorProperties(), nil
}

// Count returns the number of live documents.
func (idx *Index) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return int(idx.live.GetCardinality()), nil
}

// Insert validates doc against the schema and indexes it under id.
// Absent or null properties are skipped.
func (idx *Index) Insert(_ context.Context, id result.InternalID, doc document.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.live.Contains(uint32(id)) {
		return fmt.Errorf("internal id %d: %w", id, domain.ErrAlreadyExists)
	}
	for _, f := range idx.schema.Fields() {
		v, ok := doc.Get(f.Name())
		if !ok || v.IsNull() {
			continue
		}
		if err := validate(f, v); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
		}
	}

	e := &entry{tokens: make(map[string][]string), values: make(map[string][]string)}
	for _, f := range idx.schema.Fields() {
		v, ok := doc.Get(f.Name())
		if !ok || v.IsNull() {
			continue
		}
		if err := idx.insertValue(id, f, v, e); err != nil {
			return err
		}
	}
	idx.entries[id] = e
	idx.live.Add(uint32(id))
	return nil
}

func (idx *Index) insertValue(id result.InternalID, f field.Field, v document.Value, e *entry) error {
	name := f.Name()
	elems := []document.Value{v}
	if f.FieldType().IsArray() {
		elems = v.Elems()
	}

	switch f.FieldType().Scalar() {
	case field.String:
		var tokens []string
		for _, el := range elems {
			s, _ := el.AsString()
			toks, err := idx.tokenizer.Tokenize(s, "", false)
			if err != nil {
				return err
			}
			tokens = append(tokens, toks...)
			e.values[name] = append(e.values[name], s)
		}
		idx.text[name].add(id, tokens)
		e.tokens[name] = tokens
	case field.Enum, field.Boolean:
		for _, el := range elems {
			k, _ := el.Key()
			e.values[name] = append(e.values[name], k)
		}
	case field.Number:
		nums := make([]float64, 0, len(elems))
		for _, el := range elems {
			n, _ := el.AsNumber()
			nums = append(nums, n)
		}
		idx.numbers[name][id] = nums
	case field.GeoPoint:
		p, _ := toPoint(v)
		idx.points[name][id] = p
	}

	for _, k := range e.values[name] {
		bm, ok := idx.values[name][k]
		if !ok {
			bm = roaring.New()
			idx.values[name][k] = bm
		}
		bm.Add(uint32(id))
	}
	return nil
}

// Remove drops id from every posting list.
func (idx *Index) Remove(_ context.Context, id result.InternalID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.entries[id]
	if !ok {
		return fmt.Errorf("internal id %d: %w", id, domain.ErrDocumentNotFound)
	}
	for name, tokens := range e.tokens {
		idx.text[name].remove(id, tokens)
	}
	for name, keys := range e.values {
		for _, k := range keys {
			if bm, ok := idx.values[name][k]; ok {
				bm.Remove(uint32(id))
				if bm.IsEmpty() {
					delete(idx.values[name], k)
				}
			}
		}
	}
	for _, nums := range idx.numbers {
		delete(nums, id)
	}
	for _, pts := range idx.points {
		delete(pts, id)
	}
	delete(idx.entries, id)
	idx.live.Remove(uint32(id))
	return nil
}

func validate(f field.Field, v document.Value) error {
	t := f.FieldType()
	if t == field.Vector {
		elems := v.Elems()
		if v.Kind() != document.KindArray || len(elems) != f.Dims() {
			return fmt.Errorf("%s: expected vector of %d numbers", f.Name(), f.Dims())
		}
		for _, el := range elems {
			if el.Kind() != document.KindNumber {
				return fmt.Errorf("%s: vector elements must be numbers", f.Name())
			}
		}
		return nil
	}
	if t.IsArray() {
		if v.Kind() != document.KindArray {
			return fmt.Errorf("%s: expected %s", f.Name(), t)
		}
		for _, el := range v.Elems() {
			if !scalarMatches(t.Scalar(), el) {
				return fmt.Errorf("%s: expected %s", f.Name(), t)
			}
		}
		return nil
	}
	if t == field.GeoPoint {
		if _, ok := toPoint(v); !ok {
			return fmt.Errorf("%s: expected {lat, lon} within range", f.Name())
		}
		return nil
	}
	if !scalarMatches(t, v) {
		return fmt.Errorf("%s: expected %s, got %s", f.Name(), t, v.Kind())
	}
	return nil
}

func scalarMatches(t field.Type, v document.Value) bool {
	switch t {
	case field.String:
		return v.Kind() == document.KindString
	case field.Number:
		return v.Kind() == document.KindNumber
	case field.Boolean:
		return v.Kind() == document.KindBool
	case field.Enum:
		return v.Kind() == document.KindString || v.Kind() == document.KindNumber
	}
	return false
}

func toPoint(v document.Value) (geo.Point, bool) {
	if v.Kind() != document.KindObject {
		return geo.Point{}, false
	}
	lat, ok1 := v.Fields()["lat"].AsNumber()
	lon, ok2 := v.Fields()["lon"].AsNumber()
	if !ok1 || !ok2 || !geo.ValidateCoordinates(lat, lon) {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}
