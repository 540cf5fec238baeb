package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// MaxDecodedFrame caps the decompressed size of one frame.
const MaxDecodedFrame = 4 << 20

// Frame is one decoded event: {"e": <name>, "d": {...}}.
type Frame struct {
	Event string
	Data  map[string]any
}

type wireFrame struct {
	Event json.RawMessage `json:"e"`
	Data  json.RawMessage `json:"d"`
}

// Decode inflates a zlib frame and splits it into event name and data.
func Decode(raw []byte) (Frame, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Frame{}, decodeError(ErrDecompress, "", err)
	}
	defer zr.Close()

	body, err := io.ReadAll(io.LimitReader(zr, MaxDecodedFrame+1))
	if err != nil {
		return Frame{}, decodeError(ErrDecompress, "", err)
	}
	if len(body) > MaxDecodedFrame {
		return Frame{}, decodeError(ErrDecompress, fmt.Sprintf("exceeds %d bytes", MaxDecodedFrame), nil)
	}

	var wf wireFrame
	if err := json.Unmarshal(body, &wf); err != nil {
		return Frame{}, decodeError(ErrMalformedPayload, "", err)
	}

	var name string
	if len(wf.Event) == 0 || json.Unmarshal(wf.Event, &name) != nil || name == "" {
		return Frame{}, decodeError(ErrMissingEventName, "", nil)
	}

	var data map[string]any
	if len(wf.Data) == 0 || json.Unmarshal(wf.Data, &data) != nil || data == nil {
		return Frame{}, decodeError(ErrMissingEventData, name, nil)
	}

	return Frame{Event: name, Data: data}, nil
}

// Encode is the inverse of Decode, used by game-server clients and tests.
func Encode(f Frame) ([]byte, error) {
	body, err := json.Marshal(map[string]any{"e": f.Event, "d": f.Data})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
