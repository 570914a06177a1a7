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
	"testing"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/driver"
	"github.com/claudiu04/firequery/gcerrors"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/testing/protocmp"
)

// snapshotForTest builds a snapshot of a document in coll with the given
// fields, as if it had been returned by a query.
func snapshotForTest(t *testing.T, coll *CollectionRef, id string, fields map[string]*pb.Value) *DocumentSnapshot {
	t.Helper()
	ds, err := newDocumentSnapshot(coll.c, &pb.Document{
		Name:   coll.Path + "/" + id,
		Fields: fields,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestCursorFromValues(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	q := coll.Query().OrderBy("a", Asc).OrderBy("b", Desc)
	for _, test := range []struct {
		desc string
		q    Query
		want *pb.Cursor
	}{
		{
			"one value per ordering",
			q.StartAt(1, "x"),
			&pb.Cursor{Values: []*pb.Value{intval(1), strval("x")}, Before: true},
		},
		{
			"fewer values than orderings",
			q.StartAfter(1),
			&pb.Cursor{Values: []*pb.Value{intval(1)}, Before: false},
		},
		{
			"a later call overrides an earlier one",
			q.StartAt(1).StartAfter(2),
			&pb.Cursor{Values: []*pb.Value{intval(2)}, Before: false},
		},
		{
			"document ID by string",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt("abc"),
			&pb.Cursor{Values: []*pb.Value{refval(coll.Path + "/abc")}, Before: true},
		},
		{
			"document ID by reference",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt(coll.Doc("abc")),
			&pb.Cursor{Values: []*pb.Value{refval(coll.Path + "/abc")}, Before: true},
		},
	} {
		if err := test.q.Err(); err != nil {
			t.Fatalf("%s: %v", test.desc, err)
		}
		p, err := test.q.toProto()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(p.StartAt, test.want, protocmp.Transform()); diff != "" {
			t.Errorf("%s: %s", test.desc, diff)
		}
	}
}

func TestCursorFromValuesErrors(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	other := c.Collection("lobbies")
	q := coll.Query().OrderBy("a", Asc)
	for _, test := range []struct {
		desc string
		q    Query
		code gcerrors.ErrorCode
	}{
		{"no values", q.StartAt(), gcerrors.InvalidArgument},
		{"more values than orderings", q.StartAt(1, 2), gcerrors.InvalidArgument},
		{"no orderings at all", coll.Query().EndAt(1), gcerrors.InvalidArgument},
		{"delete sentinel", q.StartAt(driver.Delete), gcerrors.InvalidArgument},
		{"server timestamp sentinel", q.EndAt(driver.ServerTimestamp), gcerrors.InvalidArgument},
		{"document ID of the wrong type",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt(3),
			gcerrors.InvalidArgument},
		{"document reference in another collection",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt(other.Doc("abc")),
			gcerrors.InvalidArgument},
		{"document reference in a subcollection",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt(coll.Doc("abc").Collection("messages").Doc("m1")),
			gcerrors.InvalidArgument},
		{"document path naming a collection",
			coll.Query().OrderByPath(DocumentID, Asc).StartAt("abc/messages"),
			gcerrors.InvalidArgument},
	} {
		err := test.q.Err()
		if err == nil {
			t.Errorf("%s: got nil, want error", test.desc)
			continue
		}
		if c := gcerrors.Code(err); c != test.code {
			t.Errorf("%s: got code %s, want %s", test.desc, c, test.code)
		}
	}
}

func TestCursorFromSnapshot(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	ds := snapshotForTest(t, coll, "abc", map[string]*pb.Value{
		"score": intval(12),
		"name":  strval("quiet"),
	})
	docRef := refval(coll.Path + "/abc")

	for _, test := range []struct {
		desc       string
		q          Query
		wantCursor *pb.Cursor
		wantOrders []*pb.StructuredQuery_Order
	}{
		{
			// No orderings and no filters: the only sort key is the
			// document identifier.
			"bare query",
			coll.Query().StartAt(ds),
			&pb.Cursor{Values: []*pb.Value{docRef}, Before: true},
			[]*pb.StructuredQuery_Order{order("__name__", Asc)},
		},
		{
			// An explicit ordering gets a document-identifier
			// tie-break in the same direction.
			"explicit ascending ordering",
			coll.Query().OrderBy("score", Asc).StartAfter(ds),
			&pb.Cursor{Values: []*pb.Value{intval(12), docRef}, Before: false},
			[]*pb.StructuredQuery_Order{order("score", Asc), order("__name__", Asc)},
		},
		{
			"explicit descending ordering",
			coll.Query().OrderBy("score", Desc).EndBefore(ds),
			&pb.Cursor{Values: []*pb.Value{intval(12), docRef}, Before: true},
			[]*pb.StructuredQuery_Order{order("score", Desc), order("__name__", Desc)},
		},
		{
			// With no orderings, each range filter contributes an
			// implicit ascending ordering; equality filters do not.
			"implicit ordering from range filter",
			coll.Query().Where("name", EqualOp, "quiet").Where("score", ">", 10).StartAt(ds),
			&pb.Cursor{Values: []*pb.Value{intval(12), docRef}, Before: true},
			[]*pb.StructuredQuery_Order{order("score", Asc), order("__name__", Asc)},
		},
		{
			// An existing ordering on the document identifier is
			// left alone.
			"explicit document ID ordering",
			coll.Query().OrderByPath(DocumentID, Desc).EndAt(ds),
			&pb.Cursor{Values: []*pb.Value{docRef}, Before: false},
			[]*pb.StructuredQuery_Order{order("__name__", Desc)},
		},
	} {
		if err := test.q.Err(); err != nil {
			t.Fatalf("%s: %v", test.desc, err)
		}
		p, err := test.q.toProto()
		if err != nil {
			t.Fatal(err)
		}
		got := p.StartAt
		if got == nil {
			got = p.EndAt
		}
		if diff := cmp.Diff(got, test.wantCursor, protocmp.Transform()); diff != "" {
			t.Errorf("%s: cursor: %s", test.desc, diff)
		}
		if diff := cmp.Diff(p.OrderBy, test.wantOrders, protocmp.Transform()); diff != "" {
			t.Errorf("%s: orderings: %s", test.desc, diff)
		}
	}
}

func TestCursorFromSnapshotPreservesBase(t *testing.T) {
	// The orderings a snapshot cursor installs must not leak into other
	// queries derived from the same base.
	c := testClient(t)
	coll := c.Collection("rooms")
	ds := snapshotForTest(t, coll, "abc", map[string]*pb.Value{"score": intval(12)})

	base := coll.Query().OrderBy("score", Asc)
	_ = base.StartAt(ds)
	p, err := base.toProto()
	if err != nil {
		t.Fatal(err)
	}
	want := []*pb.StructuredQuery_Order{order("score", Asc)}
	if diff := cmp.Diff(p.OrderBy, want, protocmp.Transform()); diff != "" {
		t.Errorf("base orderings changed: %s", diff)
	}
}

func TestCursorFromSnapshotErrors(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	other := c.Collection("lobbies")

	// A snapshot of a document outside the collection.
	ds := snapshotForTest(t, other, "abc", map[string]*pb.Value{"score": intval(12)})
	err := coll.Query().StartAt(ds).Err()
	if err == nil {
		t.Fatal("foreign snapshot: got nil, want error")
	}
	if c := gcerrors.Code(err); c != gcerrors.FailedPrecondition {
		t.Errorf("foreign snapshot: got code %s, want FailedPrecondition", c)
	}

	// A nil snapshot is rejected, not dereferenced.
	for _, test := range []struct {
		desc string
		q    Query
	}{
		{"StartAt", coll.Query().StartAt((*DocumentSnapshot)(nil))},
		{"StartAfter", coll.Query().StartAfter((*DocumentSnapshot)(nil))},
		{"EndBefore", coll.Query().EndBefore((*DocumentSnapshot)(nil))},
		{"EndAt", coll.Query().EndAt((*DocumentSnapshot)(nil))},
	} {
		err := test.q.Err()
		if err == nil {
			t.Errorf("%s with nil snapshot: got nil, want error", test.desc)
			continue
		}
		if c := gcerrors.Code(err); c != gcerrors.InvalidArgument {
			t.Errorf("%s with nil snapshot: got code %s, want InvalidArgument", test.desc, c)
		}
	}

	// A snapshot missing a field named by an ordering.
	ds = snapshotForTest(t, coll, "abc", map[string]*pb.Value{"score": intval(12)})
	err = coll.Query().OrderBy("name", Asc).StartAt(ds).Err()
	if err == nil {
		t.Fatal("missing field: got nil, want error")
	}
	if c := gcerrors.Code(err); c != gcerrors.NotFound {
		t.Errorf("missing field: got code %s, want NotFound", c)
	}
}

func order(fp string, dir Direction) *pb.StructuredQuery_Order {
	return &pb.StructuredQuery_Order{
		Field:     &pb.StructuredQuery_FieldReference{FieldPath: fp},
		Direction: pb.StructuredQuery_Direction(dir),
	}
}
