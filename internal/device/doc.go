// Package device connects a graph processor to an audio driver.
//
// Renderer is the driver-independent part: it converts float32 device
// buffers, advances the transport and calls ProcessBlock. Stream drives a
// Renderer from a PortAudio callback.
package device
