package dispatcher

import (
	"encoding/binary"
	"io"

	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

// Kind is the single-byte discriminant of a wire record (spec.md §4.6/§6:
// "a fixed-size record containing {command_or_request: uint8, tier:
// uint64, error: int32}; only the fields relevant to the kind are read").
type Kind uint8

// Manager -> worker commands.
const (
	KindSolve Kind = iota
	KindForceSolve
	KindSleep
	KindTerminate

	// Worker -> manager requests/reports.
	KindCheck
	KindReportSolved
	KindReportLoaded
	KindReportError
)

// wireSize is the fixed on-wire width of one record: 1 (kind) + 8 (tier)
// + 4 (error) bytes.
const wireSize = 1 + 8 + 4

// Message is one manager<->worker protocol record.
type Message struct {
	Kind  Kind
	Tier  uint64
	Error int32
}

// WriteTo encodes m as a fixed-size wire record.
func (m Message) WriteTo(w io.Writer) error {
	var buf [wireSize]byte
	buf[0] = byte(m.Kind)
	binary.BigEndian.PutUint64(buf[1:9], m.Tier)
	binary.BigEndian.PutUint32(buf[9:13], uint32(m.Error))
	_, err := w.Write(buf[:])
	if err != nil {
		return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write wire message", err)
	}
	return nil
}

// ReadMessage decodes one fixed-size wire record from r.
func ReadMessage(r io.Reader) (Message, error) {
	var buf [wireSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Message{}, err // EOF/closed connection propagated verbatim for caller loop control
	}
	return Message{
		Kind:  Kind(buf[0]),
		Tier:  binary.BigEndian.Uint64(buf[1:9]),
		Error: int32(binary.BigEndian.Uint32(buf[9:13])),
	}, nil
}
