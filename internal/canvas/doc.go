// Package canvas binds the browser canvas to the editor over socket.io.
//
// Inbound events carry reactflow change objects as JSON. Each event is
// decoded by a Dispatcher into one editor command; the resulting Reply is
// either broadcast to every connected canvas (state) or sent back to the
// client that asked (save_result, command_error, sync).
package canvas
