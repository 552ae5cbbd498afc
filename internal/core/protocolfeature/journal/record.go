// Copyright (c) 2024-2025. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package journal

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// wireRecord is the on-disk shape of one activation log entry, kept
// separate from protocolfeature.ActivationRecord so the msgpack schema
// (field names, tags) can evolve independently of the in-memory type.
type wireRecord struct {
	FeatureDigest [32]byte `codec:"digest"`
	BlockNum      uint32   `codec:"block_num"`
}

var mpHandle = &codec.MsgpackHandle{}

// encodeRecord serializes rec with msgpack, the compact self-describing
// format the rest of this codebase reaches for whenever it needs a
// schema that can grow new fields without invalidating old records.
func encodeRecord(rec wireRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, mpHandle)
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (wireRecord, error) {
	var rec wireRecord
	dec := codec.NewDecoderBytes(data, mpHandle)
	if err := dec.Decode(&rec); err != nil {
		return wireRecord{}, err
	}
	return rec, nil
}
