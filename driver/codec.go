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

package driver

// Encoding and decoding between Go values and Firestore protos.

import (
	"reflect"
	"time"

	pb "cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/claudiu04/firequery/internal/gcerr"
	"google.golang.org/genproto/googleapis/type/latlng"
	tspb "google.golang.org/protobuf/types/known/timestamppb"
)

// A Sentinel is a special value with meaning only in write operations.
// Sentinels are never valid in query filters or cursors.
type Sentinel int

const (
	// Delete marks a field for deletion in an update.
	Delete Sentinel = iota
	// ServerTimestamp marks a field to be populated with the time at which
	// the server processes the write.
	ServerTimestamp
)

// The sentinel encodings are recognized by pointer identity, so they must
// never be returned for any ordinary value.
var (
	deleteValue          = &pb.Value{ValueType: &pb.Value_NullValue{}}
	serverTimestampValue = &pb.Value{ValueType: &pb.Value_NullValue{}}
)

var nullValue = &pb.Value{ValueType: &pb.Value_NullValue{}}

// NewCodec returns the default Codec, which encodes to Firestore protos.
func NewCodec() Codec { return protoCodec{} }

type protoCodec struct{}

func (protoCodec) EncodeValue(x interface{}) (*pb.Value, error) { return encodeValue(x) }

func (protoCodec) DecodeValue(v *pb.Value) (interface{}, error) { return decodeValue(v) }

func (protoCodec) IsDeleteSentinel(v *pb.Value) bool { return v == deleteValue }

func (protoCodec) IsServerTimestampSentinel(v *pb.Value) bool { return v == serverTimestampValue }

var (
	typeOfGoTime         = reflect.TypeOf(time.Time{})
	typeOfProtoTimestamp = reflect.TypeOf((*tspb.Timestamp)(nil))
	typeOfLatLng         = reflect.TypeOf((*latlng.LatLng)(nil))
)

// encodeValue encodes a Go value as a Firestore Value.
// The Firestore proto definition for Value is a oneof of various types,
// including basic types like string as well as lists and maps.
func encodeValue(x interface{}) (*pb.Value, error) {
	switch x := x.(type) {
	case nil:
		return nullValue, nil
	case Sentinel:
		if x == Delete {
			return deleteValue, nil
		}
		return serverTimestampValue, nil
	case *pb.Value:
		return x, nil
	case time.Time:
		return &pb.Value{ValueType: &pb.Value_TimestampValue{TimestampValue: tspb.New(x)}}, nil
	case *tspb.Timestamp:
		if x == nil {
			return nullValue, nil
		}
		return &pb.Value{ValueType: &pb.Value_TimestampValue{TimestampValue: x}}, nil
	case *latlng.LatLng:
		if x == nil {
			return nullValue, nil
		}
		return &pb.Value{ValueType: &pb.Value_GeoPointValue{GeoPointValue: x}}, nil
	case []byte:
		return &pb.Value{ValueType: &pb.Value_BytesValue{BytesValue: x}}, nil
	}
	return encodeReflect(reflect.ValueOf(x))
}

func encodeReflect(v reflect.Value) (*pb.Value, error) {
	switch v.Kind() {
	case reflect.Bool:
		return &pb.Value{ValueType: &pb.Value_BooleanValue{BooleanValue: v.Bool()}}, nil
	case reflect.String:
		return &pb.Value{ValueType: &pb.Value_StringValue{StringValue: v.String()}}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &pb.Value{ValueType: &pb.Value_IntegerValue{IntegerValue: v.Int()}}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &pb.Value{ValueType: &pb.Value_IntegerValue{IntegerValue: int64(v.Uint())}}, nil
	case reflect.Float32, reflect.Float64:
		return &pb.Value{ValueType: &pb.Value_DoubleValue{DoubleValue: v.Float()}}, nil
	case reflect.Slice, reflect.Array:
		vals := make([]*pb.Value, v.Len())
		for i := 0; i < v.Len(); i++ {
			e, err := encodeValue(v.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			vals[i] = e
		}
		return &pb.Value{ValueType: &pb.Value_ArrayValue{ArrayValue: &pb.ArrayValue{Values: vals}}}, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "map key type %s is not a string", v.Type().Key())
		}
		fields := make(map[string]*pb.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			e, err := encodeValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			fields[iter.Key().String()] = e
		}
		return &pb.Value{ValueType: &pb.Value_MapValue{MapValue: &pb.MapValue{Fields: fields}}}, nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nullValue, nil
		}
		return encodeValue(v.Elem().Interface())
	default:
		return nil, gcerr.Newf(gcerr.InvalidArgument, nil, "cannot encode type %s as a query value", v.Type())
	}
}

// decodeValue decodes a Firestore value into the most appropriate Go type.
// Reference values decode to their document resource path.
func decodeValue(v *pb.Value) (interface{}, error) {
	switch v := v.ValueType.(type) {
	case *pb.Value_NullValue:
		return nil, nil
	case *pb.Value_BooleanValue:
		return v.BooleanValue, nil
	case *pb.Value_IntegerValue:
		return v.IntegerValue, nil
	case *pb.Value_DoubleValue:
		return v.DoubleValue, nil
	case *pb.Value_StringValue:
		return v.StringValue, nil
	case *pb.Value_BytesValue:
		return v.BytesValue, nil
	case *pb.Value_TimestampValue:
		return v.TimestampValue.AsTime(), nil
	case *pb.Value_ReferenceValue:
		return v.ReferenceValue, nil
	case *pb.Value_GeoPointValue:
		return v.GeoPointValue, nil
	case *pb.Value_ArrayValue:
		s := make([]interface{}, len(v.ArrayValue.Values))
		for i, pv := range v.ArrayValue.Values {
			e, err := decodeValue(pv)
			if err != nil {
				return nil, err
			}
			s[i] = e
		}
		return s, nil
	case *pb.Value_MapValue:
		m := make(map[string]interface{}, len(v.MapValue.Fields))
		for k, pv := range v.MapValue.Fields {
			e, err := decodeValue(pv)
			if err != nil {
				return nil, err
			}
			m[k] = e
		}
		return m, nil
	}
	return nil, gcerr.Newf(gcerr.Internal, nil, "unknown firestore value type %T", v.ValueType)
}
