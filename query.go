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
	"bytes"
	"hash/fnv"

	"github.com/claudiu04/firequery/internal/gcerr"
	"google.golang.org/protobuf/proto"
)

// Query represents a query over the documents of a collection.
//
// A Query value is immutable: every builder method returns a new Query and
// never modifies its receiver, so Query values are safe to share, reuse and
// call concurrently. Slices held by a Query are never written to once
// published; untouched slices are shared between a Query and its
// derivatives.
type Query struct {
	c           *Client
	coll        *CollectionRef
	selection   []FieldPath // nil means the full document
	filters     []Filter
	orders      []Ordering
	offset      int32
	limit       *int32
	startCursor *Cursor
	endCursor   *Cursor
	tx          []byte
	err         error
}

// Query creates a new Query over the collection.
func (cr *CollectionRef) Query() Query {
	if cr == nil {
		return Query{err: gcerr.Newf(gcerr.InvalidArgument, nil, "query of a nil collection reference")}
	}
	return Query{c: cr.c, coll: cr}
}

// Err returns the error from the first failed builder call in the chain that
// produced q, if any. Terminal methods like Documents and GetAll also return
// it.
func (q Query) Err() error { return q.err }

// Where returns a new Query that filters the set of results.
// Valid ops are: "=", ">", "<", ">=", "<=".
// Filtering with "=" against a nil or NaN value produces a null or NaN test;
// those values cannot be used with any other operator.
// Multiple Where calls compose with AND.
func (q Query) Where(fp, op string, value interface{}) Query {
	if q.err != nil {
		return q
	}
	pfp, err := ParseFieldPath(fp)
	if err != nil {
		q.err = err
		return q
	}
	return q.WherePath(pfp, op, value)
}

// WherePath is like Where, but with a parsed FieldPath.
func (q Query) WherePath(fp FieldPath, op string, value interface{}) Query {
	if q.err != nil {
		return q
	}
	f, err := newFilter(q.c.codec, fp, op, value)
	if err != nil {
		q.err = err
		return q
	}
	q.filters = appendShared(q.filters, f)
	return q
}

// OrderBy returns a new Query that specifies the order in which results are
// returned. A Query can have multiple OrderBy specifications; the first acts
// as the primary sort key, with later ones breaking ties.
//
// OrderBy fails if the query already has a start or end cursor: cursors are
// relative to the orderings in place when they are built.
func (q Query) OrderBy(fp string, dir Direction) Query {
	if q.err != nil {
		return q
	}
	pfp, err := ParseFieldPath(fp)
	if err != nil {
		q.err = err
		return q
	}
	return q.OrderByPath(pfp, dir)
}

// OrderByPath is like OrderBy, but with a parsed FieldPath.
func (q Query) OrderByPath(fp FieldPath, dir Direction) Query {
	if q.err != nil {
		return q
	}
	if q.startCursor != nil || q.endCursor != nil {
		q.err = gcerr.Newf(gcerr.FailedPrecondition, nil, "cannot add an ordering to a query with a start or end cursor")
		return q
	}
	if err := fp.validate(); err != nil {
		q.err = err
		return q
	}
	if dir != Asc && dir != Desc {
		q.err = gcerr.Newf(gcerr.InvalidArgument, nil, "direction must be Asc or Desc")
		return q
	}
	q.orders = appendShared(q.orders, Ordering{Field: fp, Dir: dir})
	return q
}

// Select returns a new Query that specifies the field paths to return.
// With no arguments, the query returns only the documents' identifiers.
func (q Query) Select(fps ...string) Query {
	if q.err != nil {
		return q
	}
	parsed, err := parseFieldPaths(fps)
	if err != nil {
		q.err = err
		return q
	}
	return q.SelectPaths(parsed...)
}

// SelectPaths is like Select, but with parsed FieldPaths.
func (q Query) SelectPaths(fps ...FieldPath) Query {
	if q.err != nil {
		return q
	}
	if len(fps) == 0 {
		// An empty projection is meaningless; every result must at
		// least be identifiable.
		q.selection = []FieldPath{DocumentID}
		return q
	}
	sel := make([]FieldPath, len(fps))
	for i, fp := range fps {
		if err := fp.validate(); err != nil {
			q.err = err
			return q
		}
		sel[i] = fp
	}
	q.selection = sel
	return q
}

// Offset returns a new Query that specifies the number of initial results to
// skip. n must not be negative.
func (q Query) Offset(n int) Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = gcerr.Newf(gcerr.InvalidArgument, nil, "offset value of %d must not be negative", n)
		return q
	}
	q.offset = int32(n)
	return q
}

// Limit returns a new Query that limits the results to at most n documents.
// n must not be negative. A query without a limit returns all matches; a
// limit of zero is distinct from no limit and returns nothing.
func (q Query) Limit(n int) Query {
	if q.err != nil {
		return q
	}
	if n < 0 {
		q.err = gcerr.Newf(gcerr.InvalidArgument, nil, "limit value of %d must not be negative", n)
		return q
	}
	lim := int32(n)
	q.limit = &lim
	return q
}

// Transaction returns a new Query that runs inside the transaction with the
// given ID.
func (q Query) Transaction(id []byte) Query {
	if q.err != nil {
		return q
	}
	q.tx = id
	return q
}

// Equal reports whether q and r would request the same results: they have
// equal collections, projections, filters, orderings, offsets, limits and
// cursors. An unset limit is distinct from any set limit, including zero.
// Queries carrying an error are never equal.
func (q Query) Equal(r Query) bool {
	if q.err != nil || r.err != nil {
		return false
	}
	if !q.coll.equal(r.coll) {
		return false
	}
	qp, err1 := q.toProto()
	rp, err2 := r.toProto()
	if err1 != nil || err2 != nil {
		return false
	}
	return proto.Equal(qp, rp) && bytes.Equal(q.tx, r.tx)
}

// Hash returns a hash of q consistent with Equal: equal queries hash
// equally. It fails if q carries a builder error.
func (q Query) Hash() (uint64, error) {
	p, err := q.toProto()
	if err != nil {
		return 0, err
	}
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(p)
	if err != nil {
		return 0, gcerr.Newf(gcerr.Internal, err, "marshaling query for hashing")
	}
	h := fnv.New64a()
	h.Write([]byte(q.coll.Path))
	h.Write([]byte{0})
	h.Write(b)
	h.Write(q.tx)
	return h.Sum64(), nil
}

// appendShared appends x to s without writing to s's backing array, so slices
// shared with other Query values are never mutated.
func appendShared[T any](s []T, x T) []T {
	return append(s[:len(s):len(s)], x)
}
