package shopify

import (
	"fmt"
	"strings"
)

// HTTPError ответ Admin API или прокси со статусом вне 2xx.
type HTTPError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shopify api error: %d %s", e.Status, e.StatusText)
}

// Attempt результат одной попытки в цепочке транспортов.
type Attempt struct {
	Transport string
	Err       error
}

// ChainError возвращается, когда все транспорты цепочки исчерпаны.
// Содержит ошибку каждой попытки в порядке выполнения.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	var b strings.Builder
	b.WriteString("all transports failed")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "; %s: %v", a.Transport, a.Err)
	}
	return b.String()
}

// Last возвращает ошибку последней попытки, nil если попыток не было.
func (e *ChainError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// FirstHTTP возвращает первый типизированный HTTP-статус из попыток.
// Используется для подсказок пользователю при тесте подключения.
func (e *ChainError) FirstHTTP() (*HTTPError, bool) {
	for _, a := range e.Attempts {
		if httpErr, ok := a.Err.(*HTTPError); ok {
			return httpErr, true
		}
	}
	return nil, false
}
