package wire

import (
	"encoding/json"
	"time"

	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"

	"github.com/quiverdb/quiver-go/types"
)

// Frames are JSON objects with a "type" discriminator. Values are tagged
// objects: {"t": <type name>, "v": <payload>}. Encoding goes through
// encoding/json on a plain tree; decoding uses jsonparser to avoid
// intermediate allocations on the hot record path.

// EncodeRun encodes a request frame.
func EncodeRun(r *Run) ([]byte, error) {
	params := make(map[string]any, len(r.Params))
	for name, v := range r.Params {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		params[name] = ev
	}
	return json.Marshal(map[string]any{
		"type":   "run",
		"id":     r.ID,
		"query":  r.Query,
		"params": params,
	})
}

// DecodeRun decodes a request frame.
func DecodeRun(data []byte) (*Run, error) {
	typ, err := jsonparser.GetString(data, "type")
	if err != nil {
		return nil, errors.Wrap(err, "request frame has no type")
	}
	if typ != "run" {
		return nil, errors.Newf("unexpected request frame type %q", typ)
	}

	var r Run
	if r.ID, err = jsonparser.GetString(data, "id"); err != nil {
		return nil, errors.Wrap(err, "request frame has no id")
	}
	if r.Query, err = jsonparser.GetString(data, "query"); err != nil {
		return nil, errors.Wrap(err, "request frame has no query")
	}

	r.Params = make(map[string]types.Value)
	err = jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		v, err := decodeValue(value)
		if err != nil {
			return err
		}
		r.Params[string(key)] = v
		return nil
	}, "params")
	if err != nil && !isKeyNotFound(err) {
		return nil, err
	}
	return &r, nil
}

// EncodeMessage encodes a response frame.
func EncodeMessage(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case *Header:
		fields := msg.Fields
		if fields == nil {
			fields = []string{}
		}
		return json.Marshal(map[string]any{"type": "header", "fields": fields})
	case *Record:
		values := make([]any, 0, len(msg.Values))
		for _, v := range msg.Values {
			ev, err := encodeValue(v)
			if err != nil {
				return nil, err
			}
			values = append(values, ev)
		}
		return json.Marshal(map[string]any{"type": "record", "values": values})
	case *Summary:
		meta := msg.Meta
		if meta == nil {
			meta = map[string]string{}
		}
		return json.Marshal(map[string]any{"type": "summary", "meta": meta})
	case *Failure:
		return json.Marshal(map[string]any{"type": "failure", "code": msg.Code, "message": msg.Message})
	}
	return nil, errors.Newf("unsupported message %T", m)
}

// DecodeMessage decodes a response frame.
func DecodeMessage(data []byte) (Message, error) {
	typ, err := jsonparser.GetString(data, "type")
	if err != nil {
		return nil, errors.Wrap(err, "response frame has no type")
	}

	switch typ {
	case "header":
		var h Header
		var inner error
		_, err = jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			s, err := jsonparser.ParseString(value)
			if err != nil {
				inner = err
				return
			}
			h.Fields = append(h.Fields, s)
		}, "fields")
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		return &h, nil

	case "record":
		var rec Record
		var inner error
		_, err = jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			v, err := decodeValue(value)
			if err != nil {
				inner = err
				return
			}
			rec.Values = append(rec.Values, v)
		}, "values")
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		return &rec, nil

	case "summary":
		s := Summary{Meta: make(map[string]string)}
		err = jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			v, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			s.Meta[string(key)] = v
			return nil
		}, "meta")
		if err != nil && !isKeyNotFound(err) {
			return nil, err
		}
		return &s, nil

	case "failure":
		var f Failure
		if f.Code, err = jsonparser.GetString(data, "code"); err != nil {
			return nil, errors.Wrap(err, "failure frame has no code")
		}
		if f.Message, err = jsonparser.GetString(data, "message"); err != nil {
			return nil, errors.Wrap(err, "failure frame has no message")
		}
		return &f, nil
	}
	return nil, errors.Newf("unknown response frame type %q", typ)
}

// EncodeValue encodes a single value as a tagged JSON object.
func EncodeValue(v types.Value) ([]byte, error) {
	ev, err := encodeValue(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// DecodeValue decodes a single tagged JSON object.
func DecodeValue(data []byte) (types.Value, error) {
	return decodeValue(data)
}

func encodeValue(v types.Value) (any, error) {
	switch val := v.(type) {
	case types.NullValue:
		return map[string]any{"t": "null"}, nil
	case types.BoolValue:
		return map[string]any{"t": "bool", "v": bool(val)}, nil
	case types.BigintValue:
		return map[string]any{"t": "bigint", "v": int64(val)}, nil
	case types.DoubleValue:
		return map[string]any{"t": "double", "v": float64(val)}, nil
	case types.TextValue:
		return map[string]any{"t": "text", "v": string(val)}, nil
	case types.TimestampValue:
		return map[string]any{"t": "timestamp", "v": time.Time(val).UTC().Format(time.RFC3339Nano)}, nil
	case types.ListValue:
		els := make([]any, len(val))
		for i, el := range val {
			ev, err := encodeValue(el)
			if err != nil {
				return nil, err
			}
			els[i] = ev
		}
		return map[string]any{"t": "list", "v": els}, nil
	case *types.NodeValue:
		props := make(map[string]any, len(val.Props))
		for name, p := range val.Props {
			ev, err := encodeValue(p)
			if err != nil {
				return nil, err
			}
			props[name] = ev
		}
		labels := val.Labels
		if labels == nil {
			labels = []string{}
		}
		return map[string]any{"t": "node", "v": map[string]any{
			"id":     val.ID,
			"labels": labels,
			"props":  props,
		}}, nil
	}
	return nil, errors.Newf("unsupported value type %s", v.Type())
}

func decodeValue(data []byte) (types.Value, error) {
	typ, err := jsonparser.GetString(data, "t")
	if err != nil {
		return nil, errors.Wrap(err, "value has no type tag")
	}

	switch typ {
	case "null":
		return types.NewNullValue(), nil
	case "bool":
		b, err := jsonparser.GetBoolean(data, "v")
		if err != nil {
			return nil, err
		}
		return types.NewBoolValue(b), nil
	case "bigint":
		i, err := jsonparser.GetInt(data, "v")
		if err != nil {
			return nil, err
		}
		return types.NewBigintValue(i), nil
	case "double":
		f, err := jsonparser.GetFloat(data, "v")
		if err != nil {
			return nil, err
		}
		return types.NewDoubleValue(f), nil
	case "text":
		s, err := jsonparser.GetString(data, "v")
		if err != nil {
			return nil, err
		}
		return types.NewTextValue(s), nil
	case "timestamp":
		s, err := jsonparser.GetString(data, "v")
		if err != nil {
			return nil, err
		}
		ts, err := types.ParseTimestamp(s)
		if err != nil {
			return nil, err
		}
		return types.NewTimestampValue(ts), nil
	case "list":
		var list types.ListValue
		var inner error
		_, err := jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			el, err := decodeValue(value)
			if err != nil {
				inner = err
				return
			}
			list = append(list, el)
		}, "v")
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		return list, nil
	case "node":
		id, err := jsonparser.GetInt(data, "v", "id")
		if err != nil {
			return nil, err
		}
		var labels []string
		var inner error
		_, err = jsonparser.ArrayEach(data, func(value []byte, dt jsonparser.ValueType, _ int, _ error) {
			if inner != nil {
				return
			}
			s, err := jsonparser.ParseString(value)
			if err != nil {
				inner = err
				return
			}
			labels = append(labels, s)
		}, "v", "labels")
		if err != nil {
			return nil, err
		}
		if inner != nil {
			return nil, inner
		}
		props := make(map[string]types.Value)
		err = jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			p, err := decodeValue(value)
			if err != nil {
				return err
			}
			props[string(key)] = p
			return nil
		}, "v", "props")
		if err != nil && !isKeyNotFound(err) {
			return nil, err
		}
		return types.NewNodeValue(id, labels, props), nil
	}
	return nil, errors.Newf("unknown value type tag %q", typ)
}

func isKeyNotFound(err error) bool {
	return errors.Is(err, jsonparser.KeyPathNotFoundError)
}
