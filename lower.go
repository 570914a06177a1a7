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
	"path"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/internal/gcerr"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// toProto lowers the query to its canonical wire descriptor.
func (q Query) toProto() (*pb.StructuredQuery, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.coll == nil {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "query has no collection")
	}
	p := &pb.StructuredQuery{
		From:   []*pb.StructuredQuery_CollectionSelector{{CollectionId: q.coll.ID}},
		Offset: q.offset,
	}
	if q.selection != nil {
		p.Select = &pb.StructuredQuery_Projection{}
		for _, fp := range q.selection {
			p.Select.Fields = append(p.Select.Fields, fieldRef(fp))
		}
	}
	// If there is only one filter, use it directly. Otherwise, construct
	// a CompositeFilter in filter order: AND is commutative, but the
	// serialized descriptor must be deterministic.
	var pfs []*pb.StructuredQuery_Filter
	for _, f := range q.filters {
		pfs = append(pfs, f.toProto())
	}
	if len(pfs) == 1 {
		p.Where = pfs[0]
	} else if len(pfs) > 1 {
		p.Where = &pb.StructuredQuery_Filter{
			FilterType: &pb.StructuredQuery_Filter_CompositeFilter{CompositeFilter: &pb.StructuredQuery_CompositeFilter{
				Op:      pb.StructuredQuery_CompositeFilter_AND,
				Filters: pfs,
			}},
		}
	}
	for _, ord := range q.orders {
		p.OrderBy = append(p.OrderBy, ord.toProto())
	}
	if q.limit != nil {
		p.Limit = &wrapperspb.Int32Value{Value: *q.limit}
	}
	p.StartAt = q.startCursor.toProto()
	p.EndAt = q.endCursor.toProto()
	return p, nil
}

// runQueryRequest wraps the lowered query in a request addressed to the
// collection's parent resource.
func (q Query) runQueryRequest() (*pb.RunQueryRequest, error) {
	sq, err := q.toProto()
	if err != nil {
		return nil, err
	}
	req := &pb.RunQueryRequest{
		Parent:    path.Dir(q.coll.Path),
		QueryType: &pb.RunQueryRequest_StructuredQuery{StructuredQuery: sq},
	}
	if q.tx != nil {
		req.ConsistencySelector = &pb.RunQueryRequest_Transaction{Transaction: q.tx}
	}
	return req, nil
}
