package response

type Error struct {
	Error string `json:"error" example:"message"`
}

type Enqueue struct {
	QueueIDs []string `json:"queue_ids"`
}

type Trigger struct {
	Triggered bool   `json:"triggered"`
	Table     string `json:"table,omitempty"`
}

type Signup struct {
	UserID string `json:"user_id"`
	Synced bool   `json:"synced"`
}
