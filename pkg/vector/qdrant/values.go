package qdrant

import (
	"fmt"

	qpb "github.com/qdrant/go-client/qdrant"
)

// anyToValue converts a Go value into a Qdrant payload value.
func anyToValue(v any) *qpb.Value {
	switch t := v.(type) {
	case nil:
		return &qpb.Value{Kind: &qpb.Value_NullValue{NullValue: qpb.NullValue_NULL_VALUE}}
	case string:
		return &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: t}}
	case bool:
		return &qpb.Value{Kind: &qpb.Value_BoolValue{BoolValue: t}}
	case int:
		return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: int64(t)}}
	case int64:
		return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: t}}
	case uint64:
		return &qpb.Value{Kind: &qpb.Value_IntegerValue{IntegerValue: int64(t)}}
	case float32:
		return &qpb.Value{Kind: &qpb.Value_DoubleValue{DoubleValue: float64(t)}}
	case float64:
		return &qpb.Value{Kind: &qpb.Value_DoubleValue{DoubleValue: t}}
	case []string:
		out := make([]*qpb.Value, 0, len(t))
		for _, item := range t {
			out = append(out, anyToValue(item))
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: out}}}
	case []any:
		out := make([]*qpb.Value, 0, len(t))
		for _, item := range t {
			out = append(out, anyToValue(item))
		}
		return &qpb.Value{Kind: &qpb.Value_ListValue{ListValue: &qpb.ListValue{Values: out}}}
	case map[string]any:
		out := make(map[string]*qpb.Value, len(t))
		for k, item := range t {
			out[k] = anyToValue(item)
		}
		return &qpb.Value{Kind: &qpb.Value_StructValue{StructValue: &qpb.Struct{Fields: out}}}
	default:
		return &qpb.Value{Kind: &qpb.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}

// valueToAny converts a Qdrant payload value back into a plain Go value.
func valueToAny(v *qpb.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.Kind.(type) {
	case *qpb.Value_NullValue:
		return nil
	case *qpb.Value_StringValue:
		return kind.StringValue
	case *qpb.Value_BoolValue:
		return kind.BoolValue
	case *qpb.Value_IntegerValue:
		return kind.IntegerValue
	case *qpb.Value_DoubleValue:
		return kind.DoubleValue
	case *qpb.Value_ListValue:
		out := make([]any, 0, len(kind.ListValue.Values))
		for _, item := range kind.ListValue.Values {
			out = append(out, valueToAny(item))
		}
		return out
	case *qpb.Value_StructValue:
		out := make(map[string]any, len(kind.StructValue.Fields))
		for k, item := range kind.StructValue.Fields {
			out[k] = valueToAny(item)
		}
		return out
	default:
		return nil
	}
}

// payloadToMap converts a Qdrant payload into a plain Go map.
func payloadToMap(payload map[string]*qpb.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}
