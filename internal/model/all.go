package model

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Faculty{},
		&Subject{},
		&DocumentType{},
		&User{},
		&Document{},
		&Rating{},
		&Comment{},
		&Notification{},
		&Conversation{},
		&ConversationMessage{},
	}
}
