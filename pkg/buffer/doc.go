// Package buffer provides the fixed-capacity byte buffers and the two-buffer
// handoff used between the serial drivers, the frame parser and the
// dispatcher.
package buffer

// A Pair holds exactly two Buffers. One is filled by a producer (the put
// buffer) while the other is drained by a consumer (the get buffer). When the
// producer closes the put buffer and the consumer has released the get
// buffer, the roles are swapped without copying any bytes.
//
// Visibility is at whole-buffer granularity: nothing written to the put
// buffer is observable by the consumer until the buffer is closed and
// swapped.
//
// Producer: serial receive path or frame parser
// Consumer: frame parser, dispatcher or serial transmit path
