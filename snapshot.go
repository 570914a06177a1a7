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
	"time"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/internal/gcerr"
	tspb "google.golang.org/protobuf/types/known/timestamppb"
)

// A DocumentSnapshot contains one document's data and metadata, read at a
// particular time. It can be passed back to StartAt and the other cursor
// methods to resume a query at the document's position.
type DocumentSnapshot struct {
	// Ref refers to the document.
	Ref *DocumentRef

	// CreateTime is the time the document was created.
	CreateTime time.Time

	// UpdateTime is the time the document was last changed.
	UpdateTime time.Time

	// ReadTime is the time this snapshot was read.
	ReadTime time.Time

	c     *Client
	proto *pb.Document
}

func newDocumentSnapshot(c *Client, pdoc *pb.Document, readTime *tspb.Timestamp) (*DocumentSnapshot, error) {
	ref, err := c.docRefFromPath(pdoc.Name)
	if err != nil {
		return nil, err
	}
	ds := &DocumentSnapshot{
		Ref:   ref,
		c:     c,
		proto: pdoc,
	}
	if pdoc.CreateTime != nil {
		ds.CreateTime = pdoc.CreateTime.AsTime()
	}
	if pdoc.UpdateTime != nil {
		ds.UpdateTime = pdoc.UpdateTime.AsTime()
	}
	if readTime != nil {
		ds.ReadTime = readTime.AsTime()
	}
	return ds, nil
}

// Data returns the document's fields decoded into Go values.
func (ds *DocumentSnapshot) Data() (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(ds.proto.Fields))
	for k, pv := range ds.proto.Fields {
		v, err := ds.c.codec.DecodeValue(pv)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// DataAt returns the value of the field at the given dot-separated path,
// decoded into a Go value.
func (ds *DocumentSnapshot) DataAt(fp string) (interface{}, error) {
	pfp, err := ParseFieldPath(fp)
	if err != nil {
		return nil, err
	}
	pv, err := ds.value(pfp)
	if err != nil {
		return nil, err
	}
	return ds.c.codec.DecodeValue(pv)
}

// value returns the wire value at fp, descending through sub-documents.
func (ds *DocumentSnapshot) value(fp FieldPath) (*pb.Value, error) {
	fields := ds.proto.Fields
	for i, c := range fp {
		pv, ok := fields[c]
		if !ok {
			return nil, ds.missingField(fp)
		}
		if i == len(fp)-1 {
			return pv, nil
		}
		mv := pv.GetMapValue()
		if mv == nil {
			return nil, ds.missingField(fp)
		}
		fields = mv.Fields
	}
	return nil, ds.missingField(fp)
}

func (ds *DocumentSnapshot) missingField(fp FieldPath) error {
	return gcerr.Newf(gcerr.NotFound, nil, "document %q has no field %q", ds.Ref.Path, fp.toServiceFieldPath())
}

// A QuerySnapshot is the result of running a query at a single point in
// time: the matching documents, in query order, and the time they were read.
type QuerySnapshot struct {
	// Documents holds the matching documents, in the order determined by
	// the query.
	Documents []*DocumentSnapshot

	// ReadTime is the time at which the documents were read.
	ReadTime time.Time
}
