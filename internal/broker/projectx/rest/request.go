package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
)

func (c *Client) doRequest(ctx context.Context, path string, body any, auth bool, out any) error {
	if auth && c.token == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	status, err := c.post(ctx, path, body, auth, out)
	if err != nil {
		return err
	}

	// Session tokens expire; re-authenticate once and retry.
	if auth && status == http.StatusUnauthorized {
		if err := c.Login(ctx); err != nil {
			return err
		}
		if status, err = c.post(ctx, path, body, auth, out); err != nil {
			return err
		}
	}

	if status >= 400 {
		return fmt.Errorf("Неуспешный статус ответа шлюза: %d", status)
	}

	if ok, code, msg := extractEnvelope(out); ok {
		return fmt.Errorf("Ошибка шлюза ProjectX: %s (code=%d)", msg, code)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, auth bool, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("Не удалось подготовить тело запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("Не удалось создать запрос: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("Ошибка запроса: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("Не удалось прочитать ответ: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("Не удалось разобрать ответ: %w", err)
	}

	return resp.StatusCode, nil
}

// extractEnvelope reports whether out carries a failed gateway envelope.
func extractEnvelope(v any) (failed bool, code int, msg string) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return false, 0, ""
	}

	successField := rv.FieldByName("Success")
	codeField := rv.FieldByName("ErrorCode")
	msgField := rv.FieldByName("ErrorMessage")

	if !successField.IsValid() || successField.Kind() != reflect.Bool || successField.Bool() {
		return false, 0, ""
	}

	if codeField.IsValid() {
		code = int(codeField.Int())
	}
	msg = "нет описания"
	if msgField.IsValid() && !msgField.IsNil() {
		msg = msgField.Elem().String()
	}
	return true, code, msg
}
