/*
Package user defines the application identity bound to a relay connection.

A User exists only while its connection is registered and joined. Every join issues
a new User with a fresh ID, so identities are never reused across rooms.
*/
package user

// User is the client identity a connection carries inside one room.
type User struct {
	// ID is unique per join and never reused.
	ID string `json:"id"`

	// Username is the display name shown to peers.
	Username string `json:"username"`

	// RoomCode is the room this identity belongs to.
	RoomCode string `json:"roomCode"`
}

// IsZero reports whether u is the empty identity.
func (u User) IsZero() bool {
	return u.ID == ""
}
