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

// Package firequery builds and runs structured queries over the documents of
// a Firestore-style database.
//
// A Query is assembled through a chain of builder calls, each of which
// returns a new immutable Query:
//
//	q := client.Collection("rooms").Query().
//		Where("score", ">", 10).
//		OrderBy("score", firequery.Asc).
//		Limit(50)
//
// Cursors position a query within its sort order. They can be built from
// explicit field values or from a document snapshot returned by an earlier
// query; see the StartAt, StartAfter, EndAt and EndBefore methods.
//
// Queries are executed by lowering them to the service's structured query
// form and streaming back matching documents; see Query.Documents and
// Query.GetAll.
//
// # Errors
//
// Errors returned by this package can be examined with gcerrors.Code. Builder
// methods report an invalid call through the returned Query: the first
// failing call records its error, later calls pass it through, and terminal
// methods (and Query.Err) return it.
package firequery // import "github.com/claudiu04/firequery"

import (
	"context"
	"os"
	"regexp"

	vkit "cloud.google.com/go/firestore/apiv1"
	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/driver"
	"github.com/claudiu04/firequery/internal/gcerr"
	"github.com/claudiu04/firequery/internal/otel"
	"github.com/claudiu04/firequery/internal/useragent"
	"github.com/google/wire"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Dial returns a gRPC client to use with NewClient, and a clean-up function
// to close the client after use.
// If the 'FIRESTORE_EMULATOR_HOST' environment variable is set the client
// connects to the emulator by overriding the default endpoint.
func Dial(ctx context.Context, opts ...option.ClientOption) (*vkit.Client, func(), error) {
	opts = append([]option.ClientOption{
		useragent.ClientOption("firequery"),
	}, opts...)
	if host := os.Getenv("FIRESTORE_EMULATOR_HOST"); host != "" {
		conn, err := grpc.DialContext(ctx, host, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts,
			option.WithEndpoint(host),
			option.WithGRPCConn(conn),
		)
	}
	c, err := vkit.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

// Set holds Wire providers for this package.
var Set = wire.NewSet(
	Dial,
	NewClient,
)

const pkgName = "github.com/claudiu04/firequery"

// A Client builds and runs queries against the collections of one database.
type Client struct {
	runner driver.Runner
	codec  driver.Codec
	tracer *otel.Tracer
	dbPath string // e.g. "projects/P/databases/(default)"
}

// Options contains optional arguments to the client constructors.
type Options struct {
	// Codec converts Go values to their wire representation.
	// Defaults to driver.NewCodec().
	Codec driver.Codec
}

var databaseResourceIDRE = regexp.MustCompile(`^projects/[^/]+/databases/[^/]+$`)

// DatabaseResourceID constructs a database resource ID from a project ID,
// using the default database. See the NewClient example for use.
func DatabaseResourceID(projectID string) string {
	return "projects/" + projectID + "/databases/(default)"
}

// NewClient creates a Client for the database named by dbResourceID, which
// must be of the form "projects/<projectID>/databases/<databaseID>".
func NewClient(client *vkit.Client, dbResourceID string, opts *Options) (*Client, error) {
	return newClient(vkitRunner{client}, dbResourceID, opts)
}

// NewClientWithRunner is like NewClient but uses an arbitrary query runner.
// It is intended for tests and alternative transports.
func NewClientWithRunner(runner driver.Runner, dbResourceID string, opts *Options) (*Client, error) {
	return newClient(runner, dbResourceID, opts)
}

func newClient(runner driver.Runner, dbResourceID string, opts *Options) (*Client, error) {
	if runner == nil {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "a query runner must be provided")
	}
	if !databaseResourceIDRE.MatchString(dbResourceID) {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "bad database resource ID %q; must match %v",
			dbResourceID, databaseResourceIDRE)
	}
	if opts == nil {
		opts = &Options{}
	}
	codec := opts.Codec
	if codec == nil {
		codec = driver.NewCodec()
	}
	return &Client{
		runner: runner,
		codec:  codec,
		tracer: otel.NewTracer(pkgName, otel.ProviderName(runner)),
		dbPath: dbResourceID,
	}, nil
}

// vkitRunner adapts the gRPC client to driver.Runner.
type vkitRunner struct {
	c *vkit.Client
}

func (r vkitRunner) RunQuery(ctx context.Context, req *pb.RunQueryRequest) (driver.ResultStream, error) {
	return r.c.RunQuery(ctx, req)
}

// resourcePrefixHeader is the name of the metadata header used to indicate
// the resource being operated on.
const resourcePrefixHeader = "google-cloud-resource-prefix"

// withResourceHeader returns a new context that includes resource in a special header.
// The service uses the resource header for routing.
func withResourceHeader(ctx context.Context, resource string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md[resourcePrefixHeader] = []string{resource}
	return metadata.NewOutgoingContext(ctx, md)
}
