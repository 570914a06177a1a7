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
)

// Direction is the sort direction for result ordering.
type Direction int32

const (
	// Asc sorts results from smallest to largest.
	Asc Direction = Direction(pb.StructuredQuery_ASCENDING)
	// Desc sorts results from largest to smallest.
	Desc Direction = Direction(pb.StructuredQuery_DESCENDING)
)

// An Ordering is a single sort key: a field and a direction. A query's
// orderings compose as a multi-key sort, first ordering first.
type Ordering struct {
	Field FieldPath
	Dir   Direction
}

func (o Ordering) toProto() *pb.StructuredQuery_Order {
	return &pb.StructuredQuery_Order{
		Field:     fieldRef(o.Field),
		Direction: pb.StructuredQuery_Direction(o.Dir),
	}
}

func fieldRef(fp FieldPath) *pb.StructuredQuery_FieldReference {
	return &pb.StructuredQuery_FieldReference{FieldPath: fp.toServiceFieldPath()}
}
