package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"RagBot/app/restclient"
	urest "RagBot/app/utils/restclient"
)

var _ Backend = &CustomBackend{}

// CustomBackend posts the prompt to a self-hosted endpoint that answers with
// a gateway envelope whose body is itself a JSON document. Failures after
// configuration come back as text, never as an error.
type CustomBackend struct {
	guard     configGuard
	client    restclient.Interface
	authToken string
}

type customRequest struct {
	Prompt    string `json:"prompt"`
	AuthToken string `json:"auth_token"`
}

type customEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type customBody struct {
	Response *string `json:"response"`
}

func NewCustomBackend() *CustomBackend {
	return &CustomBackend{}
}

func (b *CustomBackend) Configure(_ context.Context, opts Options) error {
	if opts.Endpoint == "" {
		return errors.New("custom: endpoint must not be empty")
	}
	return b.use(urest.NewRestClient(opts.Endpoint, nil), opts.AuthToken)
}

func (b *CustomBackend) use(client restclient.Interface, authToken string) error {
	return b.guard.configure(func() error {
		b.client = client
		b.authToken = authToken
		return nil
	})
}

func (b *CustomBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := b.guard.ready(); err != nil {
		return "", err
	}

	raw, status, err := b.client.Post(ctx, "", customRequest{Prompt: prompt, AuthToken: b.authToken}, nil)
	if err != nil {
		return fmt.Sprintf("Error calling the API: %v", err), nil
	}
	if !urest.IsSuccess(status) {
		return fmt.Sprintf("Error calling the API: %v", &urest.StatusError{Status: status, Body: string(raw)}), nil
	}

	var envelope customEnvelope
	if err = json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Sprintf("Error parsing the API response: %v", err), nil
	}
	if envelope.StatusCode != 0 && !urest.IsSuccess(envelope.StatusCode) {
		return fmt.Sprintf("Error calling the API: %v", &urest.StatusError{Status: envelope.StatusCode, Body: envelope.Body}), nil
	}

	var body customBody
	if err = json.Unmarshal([]byte(envelope.Body), &body); err != nil {
		return fmt.Sprintf("Error parsing the API response: %v", err), nil
	}
	if body.Response == nil {
		return "Error parsing the API response: missing \"response\" field", nil
	}
	return *body.Response, nil
}
