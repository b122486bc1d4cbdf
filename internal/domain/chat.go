package domain

// Роли сообщений чата
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Ограничения на батч сообщений
const (
	MaxChatMessages      = 50
	MaxChatContentLength = 5000
	// ChatHistoryWindow сколько последних сообщений уходит провайдеру
	ChatHistoryWindow = 10
)

// ChatMessage одно сообщение диалога
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
