package models

// Notification is one outbound chat message.
type Notification struct {
	Channel  string
	Username string
	Icon     string
	Text     string
}
