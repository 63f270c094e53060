package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/olivere/elastic/v7"
	"github.com/xela07ax/ddos-dashboard/internal/domain"
)

// ThrottleBackoff — пауза перед повтором после 429: olivere не отдает заголовок Retry-After.
const ThrottleBackoff = time.Second

// classify сводит ошибки olivere/net/json к таксономии domain.
// Отмена контекста вызывающим возвращается как есть.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var esErr *es.Error
	if errors.As(err, &esErr) {
		if esErr.Status == http.StatusTooManyRequests {
			return &domain.ThrottleError{
				RetryAfter: ThrottleBackoff,
				Cause:      fmt.Errorf("%w: status %d: %v", domain.ErrConnectivity, esErr.Status, err),
			}
		}
		if esErr.Status >= 500 {
			return fmt.Errorf("%w: status %d: %v", domain.ErrConnectivity, esErr.Status, err)
		}
		return fmt.Errorf("%w: status %d: %v", domain.ErrQueryRejected, esErr.Status, err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	// Сетевые ошибки, ErrNoClient, таймауты и прочие сбои обмена
	return fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
}

// decode разбирает сырую агрегацию и проверяет её форму.
func decode[T interface{ Validate() error }](name string, raw json.RawMessage, dst T) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: aggregation %q missing", domain.ErrMalformedResponse, name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: aggregation %q: %v", domain.ErrMalformedResponse, name, err)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("%w: aggregation %q: %v", domain.ErrMalformedResponse, name, err)
	}
	return nil
}
