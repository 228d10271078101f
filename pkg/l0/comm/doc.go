// Package comm provides the OpenRover serial protocol support.
package comm

// The protocol is communicated between the OpenRover firmware and the host
// over a peer-to-peer serial link (57600 8N1).
//
// Host to device, fixed 7 bytes:
//
//	[0xFD][left][right][flipper][verb][arg][checksum]
//
// Device to host, only as the reply to GET_DATA:
//
//	[0xFD][key][payload...][checksum]
//
// where the payload length depends on the key (see package data) and the
// checksum covers all bytes except the sync byte.
//
// There's no request identifier. Replies are sent in the order requests are
// received, so a reader must match them positionally. A corrupted or
// dropped byte is recovered by dropping bytes until a frame validates again.
//
// Every command frame carries the motor state and the firmware stops the
// motors if no frame arrives for a while, so the host must keep sending.
