// Copyright 2019 The Go Cloud Development Kit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package firequery

import (
	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/internal/gcerr"
)

// A Cursor marks a position in a query's sort order: one value per ordering,
// in ordering order, and a flag stating whether the position is before or
// after the matching documents.
//
// A Cursor is only meaningful relative to the orderings of the query it was
// built against; it is never re-attached to a query with different orderings.
type Cursor struct {
	Values []*pb.Value
	Before bool
}

func (c *Cursor) toProto() *pb.Cursor {
	if c == nil {
		return nil
	}
	return &pb.Cursor{Values: c.Values, Before: c.Before}
}

// StartAt returns a new Query that specifies that results should start at the
// position of the given values, inclusive.
//
// With a single *DocumentSnapshot argument the position is that document's,
// and the cursor values are read from the snapshot; otherwise vals supply one
// value per ordering, primary sort key first, and at most one value per
// ordering. For an ordering on DocumentID, the value must be a document ID
// string relative to the query's collection or a *DocumentRef that is a
// direct child of it.
//
// Calling StartAt overrides a previous StartAt or StartAfter call.
func (q Query) StartAt(vals ...interface{}) Query {
	return q.cursorQuery(vals, true, true)
}

// StartAfter returns a new Query that specifies that results should start
// just after the position of the given values. See Query.StartAt for how the
// values are interpreted.
//
// Calling StartAfter overrides a previous StartAt or StartAfter call.
func (q Query) StartAfter(vals ...interface{}) Query {
	return q.cursorQuery(vals, false, true)
}

// EndBefore returns a new Query that specifies that results should end just
// before the position of the given values. See Query.StartAt for how the
// values are interpreted.
//
// Calling EndBefore overrides a previous EndAt or EndBefore call.
func (q Query) EndBefore(vals ...interface{}) Query {
	return q.cursorQuery(vals, true, false)
}

// EndAt returns a new Query that specifies that results should end at the
// position of the given values, inclusive. See Query.StartAt for how the
// values are interpreted.
//
// Calling EndAt overrides a previous EndAt or EndBefore call.
func (q Query) EndAt(vals ...interface{}) Query {
	return q.cursorQuery(vals, false, false)
}

// cursorQuery attaches a cursor at the start or end position. Building a
// cursor from a snapshot may extend the orderings; the cursor and the new
// ordering list are installed together, so the cursor's length can never
// exceed the installed orderings.
func (q Query) cursorQuery(vals []interface{}, before, start bool) Query {
	if q.err != nil {
		return q
	}
	var (
		c      *Cursor
		orders []Ordering
		err    error
	)
	if len(vals) == 1 {
		if snap, ok := vals[0].(*DocumentSnapshot); ok {
			if snap == nil {
				q.err = gcerr.Newf(gcerr.InvalidArgument, nil, "nil document snapshot in a cursor")
				return q
			}
			c, orders, err = q.cursorFromSnapshot(snap, before)
		}
	}
	if c == nil && err == nil {
		c, err = q.cursorFromValues(vals, before)
		orders = q.orders
	}
	if err != nil {
		q.err = err
		return q
	}
	q.orders = orders
	if start {
		q.startCursor = c
	} else {
		q.endCursor = c
	}
	return q
}

// cursorFromValues builds a cursor from explicit values, resolving document
// IDs against the query's collection.
func (q Query) cursorFromValues(vals []interface{}, before bool) (*Cursor, error) {
	if len(vals) == 0 {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "a cursor requires at least one value")
	}
	if len(vals) > len(q.orders) {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "too many cursor values: got %d, query has %d orderings", len(vals), len(q.orders))
	}
	pvs := make([]*pb.Value, len(vals))
	for i, v := range vals {
		if q.orders[i].Field.isDocumentID() {
			dr, err := q.docRefForID(v)
			if err != nil {
				return nil, err
			}
			pvs[i] = &pb.Value{ValueType: &pb.Value_ReferenceValue{ReferenceValue: dr.Path}}
			continue
		}
		pv, err := q.c.codec.EncodeValue(v)
		if err != nil {
			return nil, err
		}
		if q.c.codec.IsDeleteSentinel(pv) || q.c.codec.IsServerTimestampSentinel(pv) {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "Delete and ServerTimestamp sentinel values cannot be used in a cursor")
		}
		pvs[i] = pv
	}
	return &Cursor{Values: pvs, Before: before}, nil
}

// docRefForID resolves a cursor value for an ordering on DocumentID.
func (q Query) docRefForID(v interface{}) (*DocumentRef, error) {
	switch x := v.(type) {
	case string:
		return q.coll.docForPath(x)
	case *DocumentRef:
		if !q.coll.equal(x.Parent) {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "document %q is not a direct child of collection %q", x.Path, q.coll.Path)
		}
		return x, nil
	default:
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "expected a document ID string or *DocumentRef for %q, got %T", documentID, v)
	}
}

// cursorFromSnapshot builds a cursor at ds's position in q's sort order,
// returning the cursor together with the ordering list it is relative to.
//
// If the query has no orderings, each non-equality filter contributes an
// implicit ascending ordering on its field, in filter order: a field used in
// a range filter must also be a sort key for the cursor position to be
// well-defined. An ordering on DocumentID is then appended if absent,
// following the direction of the last ordering, so that the cursor names a
// unique position even between documents with equal sort-key values.
func (q Query) cursorFromSnapshot(ds *DocumentSnapshot, before bool) (*Cursor, []Ordering, error) {
	if ds.Ref == nil || !q.coll.equal(ds.Ref.Parent) {
		return nil, nil, gcerr.Newf(gcerr.FailedPrecondition, nil, "snapshot document is not in collection %q", q.coll.Path)
	}
	orders := q.orders[:len(q.orders):len(q.orders)]
	if len(orders) == 0 && len(q.filters) > 0 {
		for _, f := range q.filters {
			if !isEqualityFilter(f) {
				orders = append(orders, Ordering{Field: f.field(), Dir: Asc})
			}
		}
	}
	hasDocID := false
	for _, o := range orders {
		if o.Field.isDocumentID() {
			hasDocID = true
			break
		}
	}
	if !hasDocID {
		dir := Asc
		if len(orders) > 0 {
			dir = orders[len(orders)-1].Dir
		}
		orders = append(orders, Ordering{Field: DocumentID, Dir: dir})
	}
	pvs := make([]*pb.Value, len(orders))
	for i, ord := range orders {
		if ord.Field.isDocumentID() {
			pvs[i] = &pb.Value{ValueType: &pb.Value_ReferenceValue{ReferenceValue: ds.Ref.Path}}
			continue
		}
		pv, err := ds.value(ord.Field)
		if err != nil {
			return nil, nil, err
		}
		pvs[i] = pv
	}
	return &Cursor{Values: pvs, Before: before}, orders, nil
}
