package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validationMessage возвращает клиентское сообщение по первому нарушению.
// Ошибки разбора JSON получают сообщение по умолчанию.
func validationMessage(err error, fieldMessages map[string]string, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		// Поле может быть вложенным (dive), берем имя листа
		if msg, ok := fieldMessages[verrs[0].Field()]; ok {
			return msg
		}
	}
	return fallback
}
