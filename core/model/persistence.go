package model

import (
	"encoding/gob"
	"io"

	"github.com/cockroachdb/errors"
)

// StreamCodec は一つのストリーム上で複数の値を順に読み書きする。
// ヘッダと本体を分けて書き、ヘッダだけ先に検証したい場合に使う。
type StreamCodec struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

// NewStreamEncoder は書き込み専用の StreamCodec を作成する
func NewStreamEncoder(w io.Writer) *StreamCodec {
	return &StreamCodec{enc: gob.NewEncoder(w)}
}

// NewStreamDecoder は読み込み専用の StreamCodec を作成する
func NewStreamDecoder(r io.Reader) *StreamCodec {
	return &StreamCodec{dec: gob.NewDecoder(r)}
}

// Write は次の値を書き込む
func (c *StreamCodec) Write(v interface{}) error {
	if c.enc == nil {
		return errors.New("stream codec is read-only")
	}
	if err := c.enc.Encode(v); err != nil {
		return errors.Wrapf(err, "failed to encode %T", v)
	}
	return nil
}

// Read は次の値を v に読み込む
func (c *StreamCodec) Read(v interface{}) error {
	if c.dec == nil {
		return errors.New("stream codec is write-only")
	}
	if err := c.dec.Decode(v); err != nil {
		return errors.Wrapf(err, "failed to decode %T", v)
	}
	return nil
}
