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
	"context"
	"errors"
	"io"

	"github.com/claudiu04/firequery/driver"
	"github.com/claudiu04/firequery/internal/gcerr"
	tspb "google.golang.org/protobuf/types/known/timestamppb"
)

// Documents runs the query and returns an iterator over the matching
// documents. Each call issues a fresh request, so the same Query can be run
// any number of times.
//
// Always call Stop on the iterator.
func (q Query) Documents(ctx context.Context) *DocumentIterator {
	req, err := q.runQueryRequest()
	if err != nil {
		return &DocumentIterator{err: err}
	}
	ctx, cancel := context.WithCancel(ctx)
	ctx, span := q.c.tracer.Start(ctx, "Query.Documents")
	stream, err := q.c.runner.RunQuery(withResourceHeader(ctx, q.c.dbPath), req)
	q.c.tracer.End(span, err)
	if err != nil {
		cancel()
		return &DocumentIterator{err: q.c.wrapError(err)}
	}
	return &DocumentIterator{
		c:      q.c,
		stream: stream,
		cancel: cancel,
	}
}

// GetAll runs the query and returns all matching documents as a single
// snapshot.
func (q Query) GetAll(ctx context.Context) (*QuerySnapshot, error) {
	it := q.Documents(ctx)
	defer it.Stop()
	var docs []*DocumentSnapshot
	for {
		ds, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, ds)
	}
	if it.readTime == nil {
		// The service reports a read time on at least one response of
		// every complete stream, even an empty one.
		return nil, gcerr.Newf(gcerr.Internal, nil, "query stream completed without a read time")
	}
	return &QuerySnapshot{Documents: docs, ReadTime: it.readTime.AsTime()}, nil
}

// DocumentIterator iterates over the documents matching one run of a query.
//
// Always call Stop on the iterator.
type DocumentIterator struct {
	c      *Client
	stream driver.ResultStream
	// We call cancel to make sure the stream doesn't leak resources.
	// We don't need to call it if Recv() returns a non-nil error.
	// See https://godoc.org/google.golang.org/grpc#ClientConn.NewStream.
	cancel   func()
	readTime *tspb.Timestamp
	err      error
}

// Next returns the next document snapshot. It returns io.EOF when there are
// no more documents.
// Once Next returns an error, it will always return the same error.
func (it *DocumentIterator) Next() (*DocumentSnapshot, error) {
	if it.err != nil {
		return nil, it.err
	}
	for {
		res, err := it.stream.Recv()
		if err != nil {
			it.err = it.c.wrapError(err)
			return nil, it.err
		}
		// Any response may carry the read time, including ones
		// reporting only partial progress.
		if it.readTime == nil && res.ReadTime != nil {
			it.readTime = res.ReadTime
		}
		// No document => partial progress; keep receiving.
		if res.Document == nil {
			continue
		}
		ds, err := newDocumentSnapshot(it.c, res.Document, res.ReadTime)
		if err != nil {
			it.err = err
			it.cancel()
			return nil, it.err
		}
		return ds, nil
	}
}

// Stop stops the iterator, releasing the underlying stream. Calling Next on
// a stopped iterator returns io.EOF, or the error Next previously returned.
func (it *DocumentIterator) Stop() {
	if it.cancel != nil {
		it.cancel()
	}
	if it.err == nil {
		it.err = io.EOF
	}
}

// wrapError classifies an error from the stream, preserving io.EOF and
// already-classified errors.
func (c *Client) wrapError(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var gerr *gcerr.Error
	if errors.As(err, &gerr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return gcerr.New(gcerr.Canceled, err, 2, "query canceled")
	}
	return gcerr.New(gcerr.GRPCCode(err), err, 2, "query execution")
}
