package domain

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки хранилища. Нулевое количество бакетов — не ошибка, а пустой график.
var (
	// ErrConnectivity — хранилище недоступно (отказ соединения, таймаут, 5xx, открытый CB).
	ErrConnectivity = errors.New("datastore unreachable")
	// ErrQueryRejected — хранилище отклонило запрос (4xx, кроме 429).
	ErrQueryRejected = errors.New("datastore rejected query")
	// ErrMalformedResponse — ответ не соответствует ожидаемой форме агрегации.
	ErrMalformedResponse = errors.New("malformed aggregation response")
	// ErrInvalidDays — длина окна вне допустимого диапазона.
	ErrInvalidDays = errors.New("invalid days")
)

// ThrottleError — хранилище перегружено (429). Повторять не раньше RetryAfter.
// Cause оборачивает ErrConnectivity, поэтому ретраи и CB считают его недоступностью.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error {
	return e.Cause
}
