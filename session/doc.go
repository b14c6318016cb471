// Package session maps session ids onto stored scoping dialogues. Each call to
// Manager.Send loads the snapshot for an id, advances it through the controller and
// saves it back, holding a per-id lock for the whole round trip.
package session
