// Package wire encodes per-frame snapshots as CBOR so an out-of-process
// renderer can draw them. Frames are written as a CBOR sequence: each
// frame is one self-delimiting data item.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"

	"github.com/chazu/scratchvm/vm"
)

var log = commonlog.GetLogger("scratchvm.wire")

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalFrame serializes a Snapshot to CBOR bytes.
func MarshalFrame(s *vm.Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalFrame deserializes a Snapshot from CBOR bytes.
func UnmarshalFrame(data []byte) (*vm.Snapshot, error) {
	var s vm.Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("wire: unmarshal frame: %w", err)
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Streams
// ---------------------------------------------------------------------------

// FrameWriter streams snapshots to w. It satisfies vm.Renderer.
type FrameWriter struct {
	enc    *cbor.Encoder
	frames uint64
}

// NewFrameWriter returns a writer encoding frames onto w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{enc: cborEncMode.NewEncoder(w)}
}

// Render encodes one frame.
func (fw *FrameWriter) Render(s *vm.Snapshot) error {
	if err := fw.enc.Encode(s); err != nil {
		return fmt.Errorf("wire: encode frame %d: %w", s.Frame, err)
	}
	fw.frames++
	if fw.frames == 1 {
		log.Debugf("first frame written (%dx%d)", s.Width, s.Height)
	}
	return nil
}

// Frames returns how many frames were written.
func (fw *FrameWriter) Frames() uint64 { return fw.frames }

// FrameReader reads snapshots written by a FrameWriter.
type FrameReader struct {
	dec *cbor.Decoder
}

// NewFrameReader returns a reader decoding frames from r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next frame, or io.EOF after the last one.
func (fr *FrameReader) Next() (*vm.Snapshot, error) {
	var s vm.Snapshot
	if err := fr.dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("wire: decode frame: %w", err)
	}
	return &s, nil
}
