package mailbox

// Message is one entry in a mailbox.
type Message struct {
	// Type is a caller-defined tag.
	Type int
	// Payload is handed to the receiver as-is.
	Payload any
	// Origin is the sender's own mailbox, where a reply should go. It may be
	// nil for one-way messages.
	Origin *Mailbox
}

// HasOrigin reports whether the message can be replied to.
func (m Message) HasOrigin() bool {
	return m.Origin != nil
}
