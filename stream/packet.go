// Package stream provides a producer that feeds a ring buffer DMA engine with
// numbered packets, and the helpers to check the packets on the other side.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SeqBytes is the number of leading packet bytes that hold the sequence
// number, in little endian.
const SeqBytes = 8

// ErrCorruptPacket is returned when a packet body does not match its sequence
// number.
var ErrCorruptPacket = errors.New("corrupt packet")

// Payload returns the content of packet seq. The body after the sequence
// number is a pattern derived from seq.
func Payload(seq uint64, length uint64) []byte {
	if length < SeqBytes {
		panic(fmt.Sprintf("packet length %d cannot hold a sequence number",
			length))
	}

	data := make([]byte, length)
	binary.LittleEndian.PutUint64(data, seq)

	for i := uint64(SeqBytes); i < length; i++ {
		data[i] = byte(seq + i)
	}

	return data
}

// SeqOf returns the sequence number of a packet.
func SeqOf(data []byte) uint64 {
	return binary.LittleEndian.Uint64(data[:SeqBytes])
}

// Verify checks a whole packet and returns its sequence number.
func Verify(data []byte) (uint64, error) {
	if len(data) < SeqBytes {
		return 0, fmt.Errorf("%w: %d bytes", ErrCorruptPacket, len(data))
	}

	seq := SeqOf(data)

	for i := SeqBytes; i < len(data); i++ {
		if data[i] != byte(seq+uint64(i)) {
			return seq, fmt.Errorf("%w: seq %d, byte %d",
				ErrCorruptPacket, seq, i)
		}
	}

	return seq, nil
}
