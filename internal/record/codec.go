package record

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Codec reads and writes a list of records in one format.
type Codec interface {
	Encode(w io.Writer, records []*Fragment) error
	Decode(r io.Reader) ([]*Fragment, error)
	Name() string
}

// CodecFor returns the codec for a format name: json, yaml or msgpack.
func CodecFor(format string) (Codec, error) {
	switch format {
	case "json":
		return JSONCodec{}, nil
	case "yaml", "yml":
		return YAMLCodec{}, nil
	case "msgpack":
		return MsgPackCodec{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// JSONCodec writes indented JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, records []*Fragment) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func (JSONCodec) Decode(r io.Reader) ([]*Fragment, error) {
	var out []*Fragment
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json records: %w", err)
	}
	return out, nil
}

func (JSONCodec) Name() string { return "json" }

// YAMLCodec writes YAML documents.
type YAMLCodec struct{}

func (YAMLCodec) Encode(w io.Writer, records []*Fragment) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLCodec) Decode(r io.Reader) ([]*Fragment, error) {
	var out []*Fragment
	if err := yaml.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode yaml records: %w", err)
	}
	return out, nil
}

func (YAMLCodec) Name() string { return "yaml" }

// MsgPackCodec writes MessagePack.
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(w io.Writer, records []*Fragment) error {
	return msgpack.NewEncoder(w).Encode(records)
}

func (MsgPackCodec) Decode(r io.Reader) ([]*Fragment, error) {
	var out []*Fragment
	if err := msgpack.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode msgpack records: %w", err)
	}
	return out, nil
}

func (MsgPackCodec) Name() string { return "msgpack" }
