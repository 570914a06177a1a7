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
	"strings"

	"github.com/claudiu04/firequery/internal/gcerr"
)

// A CollectionRef refers to a collection of documents in the database.
type CollectionRef struct {
	c *Client

	// Parent is the document owning this collection, or nil for a
	// top-level collection.
	Parent *DocumentRef

	// Path is the full resource path of the collection, e.g.
	// "projects/P/databases/(default)/documents/States/Wisconsin/cities".
	Path string

	// ID is the last component of the path.
	ID string
}

// A DocumentRef refers to a single document in a collection.
type DocumentRef struct {
	// Parent is the collection holding the document.
	Parent *CollectionRef

	// Path is the full resource path of the document.
	Path string

	// ID is the last component of the path.
	ID string
}

// Collection returns a reference to the collection at the given path, which
// may name a top-level collection, like "States", or a path to a nested
// collection, like "States/Wisconsin/cities".
// Collection returns nil if the path is empty, has an even number of
// components, or contains an empty component.
func (c *Client) Collection(p string) *CollectionRef {
	parts := strings.Split(p, "/")
	if len(parts)%2 == 0 {
		return nil
	}
	for _, s := range parts {
		if s == "" {
			return nil
		}
	}
	coll := &CollectionRef{c: c, ID: parts[0], Path: c.dbPath + "/documents/" + parts[0]}
	for i := 1; i < len(parts); i += 2 {
		coll = coll.Doc(parts[i]).Collection(parts[i+1])
	}
	return coll
}

// Doc returns a reference to the document with the given ID in the
// collection, or nil if the ID is empty or contains a '/'.
func (cr *CollectionRef) Doc(id string) *DocumentRef {
	if cr == nil || id == "" || strings.Contains(id, "/") {
		return nil
	}
	return &DocumentRef{Parent: cr, ID: id, Path: cr.Path + "/" + id}
}

// Collection returns a reference to the collection with the given ID under
// the document, or nil if the ID is empty or contains a '/'.
func (dr *DocumentRef) Collection(id string) *CollectionRef {
	if dr == nil || id == "" || strings.Contains(id, "/") {
		return nil
	}
	return &CollectionRef{c: dr.Parent.c, Parent: dr, ID: id, Path: dr.Path + "/" + id}
}

// equal reports whether the two references refer to the same collection of
// the same client.
func (cr *CollectionRef) equal(other *CollectionRef) bool {
	if cr == nil || other == nil {
		return cr == other
	}
	return cr.c == other.c && cr.Path == other.Path
}

// docForPath resolves a relative document path like "abc" or
// "abc/messages/m1" to a document under cr.
func (cr *CollectionRef) docForPath(relPath string) (*DocumentRef, error) {
	parts := strings.Split(relPath, "/")
	if len(parts)%2 == 0 {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "path %q refers to a collection, not a document", relPath)
	}
	for _, s := range parts {
		if s == "" {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "path %q contains an empty component", relPath)
		}
	}
	ref := cr.Doc(parts[0])
	for i := 1; i < len(parts); i += 2 {
		ref = ref.Collection(parts[i]).Doc(parts[i+1])
	}
	return ref, nil
}

// docRefFromPath converts a full document resource path, as returned by the
// service, back into a DocumentRef.
func (c *Client) docRefFromPath(p string) (*DocumentRef, error) {
	prefix := c.dbPath + "/documents/"
	rel := strings.TrimPrefix(p, prefix)
	if rel == p {
		return nil, gcerr.Newf(gcerr.Internal, nil, "document name %q is not in database %q", p, c.dbPath)
	}
	parts := strings.Split(rel, "/")
	if len(parts)%2 != 0 {
		return nil, gcerr.Newf(gcerr.Internal, nil, "document name %q refers to a collection", p)
	}
	for _, s := range parts {
		if s == "" {
			return nil, gcerr.Newf(gcerr.Internal, nil, "document name %q contains an empty component", p)
		}
	}
	ref := c.Collection(parts[0]).Doc(parts[1])
	for i := 2; i < len(parts); i += 2 {
		ref = ref.Collection(parts[i]).Doc(parts[i+1])
	}
	return ref, nil
}
