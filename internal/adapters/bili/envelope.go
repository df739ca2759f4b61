package bili

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bnema/bilibackup/internal/domain"
)

var errEmptyData = errors.New("response data is empty")

// Caller is the slice of Client the pagination helpers need.
type Caller interface {
	Execute(ctx context.Context, req Request) ([]byte, error)
	Humanize(ctx context.Context) error
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(op string, body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s response: %w", op, err)
	}
	return env, nil
}

// callRaw returns the envelope's data, nil when the server sent none.
func callRaw(ctx context.Context, c Caller, req Request) (json.RawMessage, error) {
	body, err := c.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(req.op(), body)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &domain.RemoteError{Code: env.Code, Message: env.Message}
	}
	if isNull(env.Data) {
		return nil, nil
	}
	return env.Data, nil
}

// Call decodes the envelope's data into T. Missing data is a remote error.
func Call[T any](ctx context.Context, c Caller, req Request) (T, error) {
	var out T

	data, err := callRaw(ctx, c, req)
	if err != nil {
		return out, err
	}
	if data == nil {
		return out, fmt.Errorf("%s: %w: %w", req.op(), domain.ErrRemote, errEmptyData)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s data: %w", req.op(), err)
	}
	return out, nil
}

// Invoke runs a mutation whose data is irrelevant.
func Invoke(ctx context.Context, c Caller, req Request) error {
	_, err := callRaw(ctx, c, req)
	return err
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
