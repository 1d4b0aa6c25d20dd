package waha

import (
	"encoding/json"

	utils "InmoCRM/pkg/utills"
)

// ChatID is a gateway chat/message identifier. Depending on the gateway
// version it arrives either as a raw string ("549112233@c.us") or as a
// serialized object; both forms decode into the same canonical string so
// nothing past this boundary has to care.
type ChatID string

func (c *ChatID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = ChatID(s)
		return nil
	}
	var obj struct {
		ID         string `json:"id"`
		User       string `json:"user"`
		Serialized string `json:"_serialized"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Serialized != "":
		*c = ChatID(obj.Serialized)
	case obj.ID != "":
		*c = ChatID(obj.ID)
	default:
		*c = ChatID(obj.User)
	}
	return nil
}

func (c ChatID) String() string { return string(c) }

// Phone returns the normalized digits of the identifier.
func (c ChatID) Phone() string { return utils.NormalizePhone(string(c)) }

// Identity is the authenticated account ("me") reported by the gateway.
type Identity struct {
	ID       string `json:"id"`
	PushName string `json:"pushName"`
}

// Session is the raw session document returned by the gateway.
type Session struct {
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Me     *Identity `json:"me"`
}

// State maps the session's raw status plus identity into the internal enum.
func (s Session) State() SessionState {
	return MapState(s.Status, s.Me != nil && s.Me.ID != "")
}

// ChatPreview is the last-message summary embedded in a chat listing.
type ChatPreview struct {
	ID        ChatID `json:"id"`
	Body      string `json:"body"`
	FromMe    bool   `json:"fromMe"`
	Timestamp int64  `json:"timestamp"` // seconds since epoch
}

// Chat is one entry of the gateway chat list.
type Chat struct {
	ID          ChatID       `json:"id"`
	Name        string       `json:"name"`
	Picture     string       `json:"picture"`
	UnreadCount int          `json:"unreadCount"`
	LastMessage *ChatPreview `json:"lastMessage"`
}

// Message is one entry of a chat's message history.
type Message struct {
	ID        ChatID `json:"id"`
	ChatID    ChatID `json:"chatId"`
	From      ChatID `json:"from"`
	To        ChatID `json:"to"`
	Body      string `json:"body"`
	FromMe    bool   `json:"fromMe"`
	Timestamp int64  `json:"timestamp"`
	HasMedia  bool   `json:"hasMedia"`
	AckName   string `json:"ackName"`
}

// SendResult is the gateway response to an outbound send.
type SendResult struct {
	ID ChatID `json:"id"`
}
