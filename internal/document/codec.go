package document

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/pretty"
)

// Format identifies the serialization of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks a format from a file name, defaulting to JSON.
// A trailing .gz extension is ignored; gzip is handled transparently.
func DetectFormat(filename string) Format {
	name := strings.TrimSuffix(filename, ".gz")
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a document in the given format. Gzip-compressed input is
// detected by its magic bytes and decompressed transparently.
func Decode(r io.Reader, format Format) (any, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		return decode(zr, format)
	}
	return decode(br, format)
}

func decode(r io.Reader, format Format) (any, error) {
	if format == FormatYAML {
		return DecodeYAML(r)
	}
	return DecodeJSON(r)
}

// DecodeJSON decodes a single JSON document into the document value model,
// preserving object member order and representing numbers as json.Number.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", keyTok)
			}
			value, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := NewArray()
		for dec.More() {
			elem, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			arr.Append(elem)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// DecodeYAML decodes a single YAML document into the document value model.
// Mapping order is preserved and numeric scalars are normalized to
// json.Number so predicate comparisons behave identically across formats.
func DecodeYAML(r io.Reader) (any, error) {
	var v any
	dec := yaml.NewDecoder(r, yaml.UseOrderedMap())
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	return fromYAML(v)
}

func fromYAML(v any) (any, error) {
	switch value := v.(type) {
	case yaml.MapSlice:
		obj := NewObject()
		for _, item := range value {
			key, ok := item.Key.(string)
			if !ok {
				key = fmt.Sprint(item.Key)
			}
			converted, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			obj.Set(key, converted)
		}
		return obj, nil
	case []any:
		arr := NewArray()
		for _, elem := range value {
			converted, err := fromYAML(elem)
			if err != nil {
				return nil, err
			}
			arr.Append(converted)
		}
		return arr, nil
	case nil, string, bool:
		return value, nil
	case int:
		return json.Number(strconv.Itoa(value)), nil
	case int64:
		return json.Number(strconv.FormatInt(value, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(value, 10)), nil
	case float64:
		return json.Number(strconv.FormatFloat(value, 'f', -1, 64)), nil
	case time.Time:
		return value.Format(time.RFC3339), nil
	default:
		return nil, fmt.Errorf("unsupported YAML value of type %T", v)
	}
}

// MarshalJSON renders the object with members in document order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(o.members[i].Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(o.members[i].Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the array elements in index order.
func (a *Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range a.elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		elem, err := json.Marshal(a.elems[i])
		if err != nil {
			return nil, err
		}
		buf.Write(elem)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// EncodeJSON serializes a document value back to JSON, preserving member
// order. Compact output has no insignificant whitespace; otherwise the
// output is indented.
func EncodeJSON(v any, compact bool) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}
	if compact {
		return pretty.Ugly(data), nil
	}
	return pretty.Pretty(data), nil
}

// EncodeYAML serializes a document value back to YAML, preserving member
// order.
func EncodeYAML(v any) ([]byte, error) {
	data, err := yaml.Marshal(toYAML(v))
	if err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	return data, nil
}

func toYAML(v any) any {
	switch value := v.(type) {
	case *Object:
		ms := make(yaml.MapSlice, 0, value.Len())
		for key, member := range value.All() {
			ms = append(ms, yaml.MapItem{Key: key, Value: toYAML(member)})
		}
		return ms
	case *Array:
		elems := make([]any, 0, value.Len())
		for _, elem := range value.All() {
			elems = append(elems, toYAML(elem))
		}
		return elems
	case json.Number:
		if i, err := value.Int64(); err == nil {
			return i
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return string(value)
	default:
		return v
	}
}
