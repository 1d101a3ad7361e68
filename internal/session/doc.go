// Package session activates replay mode and wires its parts together.
//
// Activate is the single entrypoint: it validates the time context against
// the replay policy, loads the dataset into a fresh reconstruction engine,
// binds a playback controller to the activated range, and forwards the frame
// at every cursor change to a render Sink. Each Session owns its engine and
// controller, so independent sessions can run side by side.
package session
