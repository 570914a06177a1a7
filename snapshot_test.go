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
	"github.com/claudiu04/firequery/gcerrors"
	"github.com/google/go-cmp/cmp"
)

func TestSnapshotData(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	ds := snapshotForTest(t, coll, "abc", map[string]*pb.Value{
		"score": intval(12),
		"meta": {ValueType: &pb.Value_MapValue{MapValue: &pb.MapValue{
			Fields: map[string]*pb.Value{"owner": strval("pat")},
		}}},
	})
	got, err := ds.Data()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"score": int64(12),
		"meta":  map[string]interface{}{"owner": "pat"},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Error(diff)
	}
}

func TestSnapshotDataAt(t *testing.T) {
	c := testClient(t)
	coll := c.Collection("rooms")
	ds := snapshotForTest(t, coll, "abc", map[string]*pb.Value{
		"score": intval(12),
		"meta": {ValueType: &pb.Value_MapValue{MapValue: &pb.MapValue{
			Fields: map[string]*pb.Value{"owner": strval("pat")},
		}}},
	})
	v, err := ds.DataAt("meta.owner")
	if err != nil {
		t.Fatal(err)
	}
	if v != "pat" {
		t.Errorf("got %v, want pat", v)
	}

	// Missing fields, and paths descending through a non-map value.
	for _, fp := range []string{"nope", "meta.nope", "score.deeper"} {
		_, err := ds.DataAt(fp)
		if err == nil {
			t.Errorf("%q: got nil, want error", fp)
			continue
		}
		if c := gcerrors.Code(err); c != gcerrors.NotFound {
			t.Errorf("%q: got code %s, want NotFound", fp, c)
		}
	}
}
