// Package udp implements the UDP transport layer of the netleaf stack.
//
// The package sits between an application above and the internet-layer
// dispatcher below (tcpip.Network). It provides:
//   - Per-port connection registration with wildcard (port 0) matching
//   - Ephemeral port assignment from a persistent cursor
//   - Datagram transmission with header framing and checksum
//   - Datagram reception with validation and demultiplexing
//
// Sending is callback-inverted so the application writes its payload
// directly into the pre-reserved transmit buffer: the application calls
// Stack.RequestSend, the stack acquires a buffer and invokes the
// connection's SendData callback with the writable region, and the
// callback emits the datagram with Stack.Send or Stack.SendTo. The
// buffer is released on every exit path of RequestSend unless an emit
// call took ownership of it.
//
// A Stack is single-threaded and callback-driven: all work happens
// synchronously inside the call that triggers it, nothing blocks, and
// no operation retries internally.
package udp
