// Package serio moves bytes between a serial port and buffer pairs.
//
// A UART owns the port and exposes one received byte at a time, like the
// data register of a hardware UART. The drivers wrap a UART with an input
// pair feeding the frame parser and an output pair feeding the transmitter:
//
//   - Polled: every operation is non-blocking and driven by a loop.
//   - Interrupt: receive and transmit run as notification handlers which
//     mask themselves while they cannot make progress.
//   - Blocking: producer and consumer goroutines wait on counting permits.
package serio
