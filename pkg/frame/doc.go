// Package frame provides the sensor network wire protocol: the resynchronizing
// frame parser, the record slot layout and a frame encoder.
package frame

// A frame on the wire:
//
//   0x03 0xEF 0xAF LEN DST SRC TYPE PAYLOAD... CHECKSUM
//
// LEN is the total frame length from the first preamble byte through the
// checksum, between MinFrameLength and MaxFrameLength. The XOR of every byte
// of the frame, including CHECKSUM, is zero.
//
// The parser is fed one byte at a time and keeps its state between calls.
// Errors never stop it: a bad preamble, bad length or bad checksum closes an
// error record and the parser scans forward for the next preamble.
//
// Producer: sensor network gateway over RS232
// Consumer: dispatcher
