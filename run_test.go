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
	"io"
	"testing"
	"time"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/driver"
	"github.com/claudiu04/firequery/gcerrors"
	"google.golang.org/grpc/metadata"
	tspb "google.golang.org/protobuf/types/known/timestamppb"
)

// fakeRunner replays a fixed sequence of responses for every query.
type fakeRunner struct {
	responses []*pb.RunQueryResponse
	calls     int
	lastReq   *pb.RunQueryRequest
	lastMD    metadata.MD
}

func (r *fakeRunner) RunQuery(ctx context.Context, req *pb.RunQueryRequest) (driver.ResultStream, error) {
	r.calls++
	r.lastReq = req
	r.lastMD, _ = metadata.FromOutgoingContext(ctx)
	return &fakeStream{ctx: ctx, responses: r.responses}, nil
}

type fakeStream struct {
	ctx       context.Context
	responses []*pb.RunQueryResponse
}

func (s *fakeStream) Recv() (*pb.RunQueryResponse, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.responses) == 0 {
		return nil, io.EOF
	}
	res := s.responses[0]
	s.responses = s.responses[1:]
	return res, nil
}

var testReadTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func doc(path string, fields map[string]*pb.Value) *pb.RunQueryResponse {
	return &pb.RunQueryResponse{
		Document: &pb.Document{Name: path, Fields: fields},
		ReadTime: tspb.New(testReadTime),
	}
}

// heartbeat is a response reporting partial progress: no document, and
// possibly no read time either.
func heartbeat(readTime *tspb.Timestamp) *pb.RunQueryResponse {
	return &pb.RunQueryResponse{ReadTime: readTime}
}

func runnerClient(t *testing.T, responses []*pb.RunQueryResponse) (*Client, *fakeRunner) {
	t.Helper()
	r := &fakeRunner{responses: responses}
	c, err := NewClientWithRunner(r, "projects/P/databases/(default)", nil)
	if err != nil {
		t.Fatal(err)
	}
	return c, r
}

func TestGetAll(t *testing.T) {
	const collPath = "projects/P/databases/(default)/documents/rooms"
	c, _ := runnerClient(t, []*pb.RunQueryResponse{
		heartbeat(nil),
		doc(collPath+"/a", map[string]*pb.Value{"score": intval(1)}),
		heartbeat(tspb.New(testReadTime)),
		doc(collPath+"/b", map[string]*pb.Value{"score": intval(2)}),
	})
	qs, err := c.Collection("rooms").Query().GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(qs.Documents); got != 2 {
		t.Fatalf("got %d documents, want 2", got)
	}
	if got, want := qs.Documents[0].Ref.ID, "a"; got != want {
		t.Errorf("got first document %q, want %q", got, want)
	}
	if got, want := qs.Documents[1].Ref.ID, "b"; got != want {
		t.Errorf("got second document %q, want %q", got, want)
	}
	if !qs.ReadTime.Equal(testReadTime) {
		t.Errorf("got read time %v, want %v", qs.ReadTime, testReadTime)
	}
	v, err := qs.Documents[0].DataAt("score")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Errorf("got score %v, want 1", v)
	}
}

func TestGetAllEmpty(t *testing.T) {
	// An empty result still carries the read time, reported by a response
	// with no document.
	c, _ := runnerClient(t, []*pb.RunQueryResponse{heartbeat(tspb.New(testReadTime))})
	qs, err := c.Collection("rooms").Query().GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(qs.Documents) != 0 {
		t.Errorf("got %d documents, want 0", len(qs.Documents))
	}
	if !qs.ReadTime.Equal(testReadTime) {
		t.Errorf("got read time %v, want %v", qs.ReadTime, testReadTime)
	}
}

func TestGetAllMissingReadTime(t *testing.T) {
	// A stream that completes without ever reporting a read time is a
	// service bug, reported as an internal error.
	c, _ := runnerClient(t, nil)
	_, err := c.Collection("rooms").Query().GetAll(context.Background())
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if got := gcerrors.Code(err); got != gcerrors.Internal {
		t.Errorf("got code %s, want Internal", got)
	}
}

func TestDocumentsRestartable(t *testing.T) {
	// Each Documents call issues a fresh request.
	c, r := runnerClient(t, []*pb.RunQueryResponse{heartbeat(tspb.New(testReadTime))})
	q := c.Collection("rooms").Query().Where("score", ">", 10)
	for i := 1; i <= 3; i++ {
		it := q.Documents(context.Background())
		if _, err := it.Next(); err != io.EOF {
			t.Fatalf("run %d: got %v, want io.EOF", i, err)
		}
		it.Stop()
		if r.calls != i {
			t.Fatalf("after run %d: runner called %d times", i, r.calls)
		}
	}
}

func TestDocumentsResourceHeader(t *testing.T) {
	c, r := runnerClient(t, nil)
	it := c.Collection("rooms").Query().Documents(context.Background())
	defer it.Stop()
	if got := r.lastMD.Get("google-cloud-resource-prefix"); len(got) != 1 || got[0] != c.dbPath {
		t.Errorf("got resource header %v, want [%q]", got, c.dbPath)
	}
}

func TestIteratorStop(t *testing.T) {
	c, _ := runnerClient(t, []*pb.RunQueryResponse{
		doc("projects/P/databases/(default)/documents/rooms/a", nil),
		heartbeat(tspb.New(testReadTime)),
	})
	it := c.Collection("rooms").Query().Documents(context.Background())
	if _, err := it.Next(); err != nil {
		t.Fatal(err)
	}
	it.Stop()
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("Next after Stop: got %v, want io.EOF", err)
	}
	// Stop is idempotent.
	it.Stop()
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("Next after second Stop: got %v, want io.EOF", err)
	}
}

func TestDocumentsCancellation(t *testing.T) {
	c, _ := runnerClient(t, []*pb.RunQueryResponse{
		doc("projects/P/databases/(default)/documents/rooms/a", nil),
	})
	ctx, cancel := context.WithCancel(context.Background())
	it := c.Collection("rooms").Query().Documents(ctx)
	defer it.Stop()
	cancel()
	_, err := it.Next()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if got := gcerrors.Code(err); got != gcerrors.Canceled {
		t.Errorf("got code %s, want Canceled", got)
	}
	// The error is sticky.
	if _, err2 := it.Next(); err2 != err {
		t.Errorf("second Next: got %v, want the same error", err2)
	}
}

func TestDocumentsBuilderError(t *testing.T) {
	c, r := runnerClient(t, nil)
	it := c.Collection("rooms").Query().Limit(-1).Documents(context.Background())
	defer it.Stop()
	_, err := it.Next()
	if err == nil {
		t.Fatal("got nil, want error")
	}
	if got := gcerrors.Code(err); got != gcerrors.InvalidArgument {
		t.Errorf("got code %s, want InvalidArgument", got)
	}
	if r.calls != 0 {
		t.Errorf("runner called %d times for an erroneous query", r.calls)
	}
}
