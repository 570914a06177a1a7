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
	"math"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/driver"
	"github.com/claudiu04/firequery/internal/gcerr"
)

// EqualOp is the name of the equality operator.
// It is defined here to avoid confusion between "=" and "==".
const EqualOp = "="

var validOp = map[string]bool{
	EqualOp: true,
	">":     true,
	"<":     true,
	">=":    true,
	"<=":    true,
}

// A Filter is a single query predicate. It is either a ComparisonFilter or a
// UnaryFilter. A query's filters are combined with AND.
type Filter interface {
	field() FieldPath
	isEquality() bool
	toProto() *pb.StructuredQuery_Filter
}

// A ComparisonFilter compares a field against a value.
// Valid ops are: "=", ">", "<", ">=", "<=".
type ComparisonFilter struct {
	Field FieldPath
	Op    string
	Value *pb.Value
}

func (f ComparisonFilter) field() FieldPath { return f.Field }

func (f ComparisonFilter) isEquality() bool { return f.Op == EqualOp }

func (f ComparisonFilter) toProto() *pb.StructuredQuery_Filter {
	var fop pb.StructuredQuery_FieldFilter_Operator
	switch f.Op {
	case "<":
		fop = pb.StructuredQuery_FieldFilter_LESS_THAN
	case "<=":
		fop = pb.StructuredQuery_FieldFilter_LESS_THAN_OR_EQUAL
	case ">":
		fop = pb.StructuredQuery_FieldFilter_GREATER_THAN
	case ">=":
		fop = pb.StructuredQuery_FieldFilter_GREATER_THAN_OR_EQUAL
	case EqualOp:
		fop = pb.StructuredQuery_FieldFilter_EQUAL
	default:
		fop = pb.StructuredQuery_FieldFilter_OPERATOR_UNSPECIFIED
	}
	return &pb.StructuredQuery_Filter{
		FilterType: &pb.StructuredQuery_Filter_FieldFilter{
			FieldFilter: &pb.StructuredQuery_FieldFilter{
				Field: fieldRef(f.Field),
				Op:    fop,
				Value: f.Value,
			},
		},
	}
}

// UnaryOp is the operator of a UnaryFilter.
type UnaryOp int

const (
	// IsNull tests whether the field is null.
	IsNull UnaryOp = iota
	// IsNaN tests whether the field is the floating-point NaN value.
	IsNaN
)

// A UnaryFilter tests a field against a null or NaN operand. It is produced
// by filtering with "=" against a nil or NaN value.
type UnaryFilter struct {
	Field FieldPath
	Op    UnaryOp
}

func (f UnaryFilter) field() FieldPath { return f.Field }

func (f UnaryFilter) isEquality() bool { return true }

func (f UnaryFilter) toProto() *pb.StructuredQuery_Filter {
	op := pb.StructuredQuery_UnaryFilter_IS_NULL
	if f.Op == IsNaN {
		op = pb.StructuredQuery_UnaryFilter_IS_NAN
	}
	return &pb.StructuredQuery_Filter{
		FilterType: &pb.StructuredQuery_Filter_UnaryFilter{
			UnaryFilter: &pb.StructuredQuery_UnaryFilter{
				OperandType: &pb.StructuredQuery_UnaryFilter_Field{
					Field: fieldRef(f.Field),
				},
				Op: op,
			},
		},
	}
}

// newFilter builds the filter for a single Where condition. Filtering with
// "=" against nil or NaN produces a UnaryFilter; every other value is encoded
// and produces a ComparisonFilter.
func newFilter(codec driver.Codec, fp FieldPath, op string, value interface{}) (Filter, error) {
	if err := fp.validate(); err != nil {
		return nil, err
	}
	if !validOp[op] {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "invalid filter operator: %q. Use one of: =, >, <, >=, <=", op)
	}
	if value == nil || isNaN(value) {
		if op != EqualOp {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "must use %q when comparing %v", EqualOp, value)
		}
		uop := IsNull
		if value != nil {
			uop = IsNaN
		}
		return UnaryFilter{Field: fp, Op: uop}, nil
	}
	pv, err := codec.EncodeValue(value)
	if err != nil {
		return nil, err
	}
	if codec.IsDeleteSentinel(pv) || codec.IsServerTimestampSentinel(pv) {
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "Delete and ServerTimestamp sentinel values cannot be used in a filter")
	}
	return ComparisonFilter{Field: fp, Op: op, Value: pv}, nil
}

// isEqualityFilter reports whether f can only match a single value of its
// field: any unary filter, or a comparison with "=".
func isEqualityFilter(f Filter) bool { return f.isEquality() }

func isNaN(x interface{}) bool {
	switch x := x.(type) {
	case float32:
		return math.IsNaN(float64(x))
	case float64:
		return math.IsNaN(x)
	default:
		return false
	}
}
