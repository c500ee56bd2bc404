package kv

import (
	"bytes"
	"io"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// encode marshals v with kelindar/binary and compresses the result.
func encode(v any) ([]byte, error) {
	raw, err := binary.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	var out bytes.Buffer
	if err := compressData(raw, &out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decode(bb []byte, v any) error {
	var raw bytes.Buffer
	if err := decompressData(bb, &raw); err != nil {
		return err
	}
	return errors.Wrap(binary.Unmarshal(raw.Bytes(), v), "unmarshal")
}

func compressData(inData []byte, out *bytes.Buffer) error {
	encoder, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return errors.Wrap(err, "create zstd encoder")
	}
	if _, err := io.Copy(encoder, bytes.NewReader(inData)); err != nil {
		encoder.Close()
		return errors.Wrap(err, "compress")
	}
	return encoder.Close()
}

func decompressData(inData []byte, out io.Writer) error {
	d, err := zstd.NewReader(bytes.NewReader(inData))
	if err != nil {
		return errors.Wrap(err, "create zstd decoder")
	}
	defer d.Close()

	_, err = io.Copy(out, d)
	return errors.Wrap(err, "decompress")
}
