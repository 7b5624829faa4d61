package shadercache

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// record is the on-disk shape of one cache entry: a length-prefixed key,
// display name, and bytecode blob, back to back with no file header.
// Integrity is the serializer's problem, not the format's.
type record struct {
	Key      string
	Name     string
	Bytecode []byte
}

// encodeRecords appends each record's three length-delimited fields back
// to back. protowire's Append* helpers write a varint length prefix
// followed by the payload, with no field tag, which is exactly the
// length-prefixed framing the format calls for.
func encodeRecords(records []record) []byte {
	var buf []byte
	for _, r := range records {
		buf = protowire.AppendString(buf, r.Key)
		buf = protowire.AppendString(buf, r.Name)
		buf = protowire.AppendBytes(buf, r.Bytecode)
	}
	return buf
}

func decodeRecords(data []byte) ([]record, error) {
	var out []record
	for len(data) > 0 {
		key, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, fmt.Errorf("shadercache: corrupt key field: %w", protowire.ParseError(n))
		}
		data = data[n:]

		name, n := protowire.ConsumeString(data)
		if n < 0 {
			return nil, fmt.Errorf("shadercache: corrupt name field: %w", protowire.ParseError(n))
		}
		data = data[n:]

		bytecode, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, fmt.Errorf("shadercache: corrupt bytecode field: %w", protowire.ParseError(n))
		}
		data = data[n:]

		out = append(out, record{Key: key, Name: name, Bytecode: append([]byte(nil), bytecode...)})
	}
	return out, nil
}
