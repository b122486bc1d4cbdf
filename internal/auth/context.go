package auth

import "github.com/gin-gonic/gin"

const identityContextKey = "auth.identity"

// Identity проверенная идентичность пользователя из ID-токена
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	DisplayName   string
}

// SetIdentity сохраняет идентичность в контексте запроса
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(identityContextKey, id)
}

// IdentityFrom возвращает идентичность запроса, если запрос аутентифицирован
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// UIDFrom возвращает uid запроса или пустую строку для анонимного запроса
func UIDFrom(c *gin.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return id.SubjectID
	}
	return ""
}
