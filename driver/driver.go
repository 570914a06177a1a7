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

// Package driver defines interfaces to be implemented by the value codec and
// the query transport, which are used by the firequery package to build and
// execute queries. Application code should use package firequery.
package driver // import "github.com/claudiu04/firequery/driver"

import (
	"context"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
)

// A Codec converts Go values to and from their Firestore wire representation.
type Codec interface {
	// EncodeValue encodes x as a Firestore value.
	//
	// Valid values are nil, booleans, strings, integers, floating-point
	// numbers, byte slices, time.Time, proto timestamps, *latlng.LatLng,
	// and slices and string-keyed maps of valid values. The write
	// sentinels Delete and ServerTimestamp encode to distinguished values
	// recognized by the sentinel predicates below.
	EncodeValue(x interface{}) (*pb.Value, error)

	// DecodeValue decodes v into the most appropriate Go type.
	DecodeValue(v *pb.Value) (interface{}, error)

	// IsDeleteSentinel reports whether v is the encoding of the Delete
	// write sentinel.
	IsDeleteSentinel(v *pb.Value) bool

	// IsServerTimestampSentinel reports whether v is the encoding of the
	// ServerTimestamp write sentinel.
	IsServerTimestampSentinel(v *pb.Value) bool
}

// A Runner executes lowered queries against the backing service.
type Runner interface {
	// RunQuery issues req and returns a stream of responses. The returned
	// stream is valid until ctx is canceled.
	RunQuery(ctx context.Context, req *pb.RunQueryRequest) (ResultStream, error)
}

// A ResultStream is a single pass over the responses to one query.
//
// A response may carry a document, a read time, both, or neither; responses
// with no document report partial progress and keep the stream alive.
type ResultStream interface {
	// Recv returns the next response. It returns io.EOF when the stream
	// is complete.
	Recv() (*pb.RunQueryResponse, error)
}
