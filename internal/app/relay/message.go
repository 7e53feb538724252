package relay

import (
	"encoding/json"

	"cursorrelay/internal/app/user"
	"cursorrelay/internal/pkg/errs"
)

// MessageType is the "type" discriminator carried by every wire message.
type MessageType string

// Client to server.
const (
	TypeJoin  MessageType = "join"
	TypeMouse MessageType = "mouse"
	TypePing  MessageType = "ping"
)

// Server to client. TypeMouse is reused for relayed positions.
const (
	TypeJoined    MessageType = "joined"
	TypePeerJoin  MessageType = "peer-join"
	TypePeerLeave MessageType = "peer-leave"
	TypePong      MessageType = "pong"
)

// inboundMessage is the union of every client message. Pointer fields tell
// "absent" apart from a zero value.
type inboundMessage struct {
	Type     MessageType `json:"type"`
	RoomCode *string     `json:"roomCode"`
	Username *string     `json:"username"`
	X        *float64    `json:"x"`
	Y        *float64    `json:"y"`
}

// JoinedMessage confirms a join to the joining connection only.
type JoinedMessage struct {
	Type     MessageType `json:"type"`
	ClientID string      `json:"clientId"`
	RoomCode string      `json:"roomCode"`
}

// MouseMessage is a peer's position update. T is the server time in Unix milliseconds.
type MouseMessage struct {
	Type     MessageType `json:"type"`
	ID       string      `json:"id"`
	Username string      `json:"username"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	T        int64       `json:"t"`
}

// PeerJoinMessage announces a new room member.
type PeerJoinMessage struct {
	Type     MessageType `json:"type"`
	ID       string      `json:"id"`
	Username string      `json:"username"`
}

// PeerLeaveMessage announces that a member left or was evicted.
type PeerLeaveMessage struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id"`
}

// PongMessage answers an application-level ping.
type PongMessage struct {
	Type MessageType `json:"type"`
}

func newJoined(u user.User) JoinedMessage {
	return JoinedMessage{Type: TypeJoined, ClientID: u.ID, RoomCode: u.RoomCode}
}

func newPeerJoin(u user.User) PeerJoinMessage {
	return PeerJoinMessage{Type: TypePeerJoin, ID: u.ID, Username: u.Username}
}

func newPeerLeave(u user.User) PeerLeaveMessage {
	return PeerLeaveMessage{Type: TypePeerLeave, ID: u.ID}
}

// decodeInbound parses a client frame and checks the fields its type requires.
func decodeInbound(data []byte) (inboundMessage, *errs.CustomError) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, errs.NewError(errs.ErrInvalidJSONFormat)
	}

	switch msg.Type {
	case TypeJoin:
		if msg.RoomCode == nil || *msg.RoomCode == "" {
			return msg, errs.NewError(errs.ErrMissingField, string(msg.Type), "roomCode")
		}
	case TypeMouse:
		if msg.X == nil {
			return msg, errs.NewError(errs.ErrMissingField, string(msg.Type), "x")
		}
		if msg.Y == nil {
			return msg, errs.NewError(errs.ErrMissingField, string(msg.Type), "y")
		}
	case TypePing:
	default:
		return msg, errs.NewError(errs.ErrUnknownMessageType, string(msg.Type))
	}

	return msg, nil
}
