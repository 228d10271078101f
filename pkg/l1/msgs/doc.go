// Package msgs defines the messages exchanged with a rover controller
// over the message queue.
//
// Every message travels inside a Typed envelope carrying the type ID, a
// sequence number correlating command replies, and the protobuf encoded
// message. The highest bit of the type ID tells events (from the rover)
// apart from commands (to the rover). Replies to commands are commands
// with TypeIDMaskReply set.
package msgs
