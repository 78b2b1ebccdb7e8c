// Package transport defines the global play/pause/stop, tempo and song
// position state that the engine broadcasts to every module once per block.
//
// A [Controller] is the single authoritative writer: control threads post
// commands and tempo changes to it without locking, and the audio thread calls
// [Controller.Begin] at the top of each block to obtain the [State] for that
// block and [Controller.Advance] after rendering. Modules receive their copy
// through a [Cell], which publishes a State wait-free for the writer.
package transport
