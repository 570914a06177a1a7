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
	"bytes"
	"regexp"
	"strings"

	"github.com/claudiu04/firequery/internal/gcerr"
)

// A FieldPath is a non-empty sequence of non-empty field names that refers to
// a value in a document, possibly inside sub-documents.
type FieldPath []string

// documentID is the name the service reserves for a document's own identifier.
const documentID = "__name__"

// DocumentID is the field path for the document's own identifier. It can be
// used in orderings and cursors like any other field path.
var DocumentID = FieldPath{documentID}

// ParseFieldPath parses a dot-separated string into a FieldPath.
// Other than the separating dots, the string must not contain any of the
// runes "˜*/[]".
func ParseFieldPath(s string) (FieldPath, error) {
	if s == "" {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "empty field path")
	}
	fp := FieldPath(strings.Split(s, "."))
	if err := fp.validate(); err != nil {
		return nil, err
	}
	return fp, nil
}

// invalidRunes are not permitted in unquoted field names.
const invalidRunes = "~*/[]"

func (fp FieldPath) validate() error {
	if len(fp) == 0 {
		return gcerr.Newf(gcerr.InvalidArgument, nil, "empty field path")
	}
	for _, c := range fp {
		if c == "" {
			return gcerr.Newf(gcerr.InvalidArgument, nil, "field path %v contains an empty component", []string(fp))
		}
		if strings.ContainsAny(c, invalidRunes) {
			return gcerr.Newf(gcerr.InvalidArgument, nil, "field path component %q contains a rune from %q", c, invalidRunes)
		}
	}
	return nil
}

// Equal reports whether fp and other refer to the same field.
func (fp FieldPath) Equal(other FieldPath) bool {
	if len(fp) != len(other) {
		return false
	}
	for i, c := range fp {
		if c != other[i] {
			return false
		}
	}
	return true
}

func (fp FieldPath) isDocumentID() bool {
	return len(fp) == 1 && fp[0] == documentID
}

func (fp FieldPath) String() string { return fp.toServiceFieldPath() }

// toServiceFieldPath converts fp into the form the service expects: a string
// of dot-separated components, some of which may be quoted.
func (fp FieldPath) toServiceFieldPath() string {
	cs := make([]string, len(fp))
	for i, c := range fp {
		cs[i] = toServiceFieldPathComponent(c)
	}
	return strings.Join(cs, ".")
}

// Google SQL syntax for an unquoted field.
var unquotedFieldRE = regexp.MustCompile("^[A-Za-z_][A-Za-z_0-9]*$")

// toServiceFieldPathComponent returns a string that represents key and is a valid
// field path component. Components must be quoted with backticks if they don't
// match the above regexp.
func toServiceFieldPathComponent(key string) string {
	if unquotedFieldRE.MatchString(key) {
		return key
	}
	var buf bytes.Buffer
	buf.WriteRune('`')
	for _, r := range key {
		if r == '`' || r == '\\' {
			buf.WriteRune('\\')
		}
		buf.WriteRune(r)
	}
	buf.WriteRune('`')
	return buf.String()
}

// parseFieldPaths parses each element of fps, rejecting duplicates.
func parseFieldPaths(fps []string) ([]FieldPath, error) {
	parsed := make([]FieldPath, 0, len(fps))
	seen := map[string]bool{}
	for _, s := range fps {
		fp, err := ParseFieldPath(s)
		if err != nil {
			return nil, err
		}
		svc := fp.toServiceFieldPath()
		if seen[svc] {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "duplicate field path %q", s)
		}
		seen[svc] = true
		parsed = append(parsed, fp)
	}
	return parsed, nil
}
