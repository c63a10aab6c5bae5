package models

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	urest "RagBot/app/utils/restclient"
)

type mockInvoker struct {
	mock.Mock
}

func (m *mockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*bedrockruntime.InvokeModelOutput)
	return out, args.Error(1)
}

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) == 1 {
		if t, ok := parts[0].(genai.Text); ok {
			f.prompt = string(t)
		}
	}
	return f.resp, f.err
}

func TestUnconfiguredBackends(t *testing.T) {
	for _, name := range []string{ProviderGemini, ProviderAnyLLM, ProviderTitan, ProviderClaude, ProviderCustom, ProviderLMStudio} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name)
			require.NoError(t, err)
			_, err = b.GenerateContent(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrNotConfigured)
		})
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("gpt-j")
	assert.Error(t, err)
}

func TestConfigureOnce(t *testing.T) {
	ctx := context.Background()

	custom := NewCustomBackend()
	require.NoError(t, custom.Configure(ctx, Options{Endpoint: "http://localhost:9"}))
	assert.ErrorIs(t, custom.Configure(ctx, Options{Endpoint: "http://localhost:9"}), ErrAlreadyConfigured)

	lm := NewLMStudioBackend()
	require.NoError(t, lm.Configure(ctx, Options{}))
	assert.ErrorIs(t, lm.Configure(ctx, Options{}), ErrAlreadyConfigured)

	titan := NewTitanBackend()
	require.NoError(t, titan.use(&mockInvoker{}, DefaultTitanModel))
	assert.ErrorIs(t, titan.use(&mockInvoker{}, DefaultTitanModel), ErrAlreadyConfigured)
}

func TestFailedConfigureLeavesBackendUnconfigured(t *testing.T) {
	ctx := context.Background()

	g := NewGeminiBackend()
	require.Error(t, g.Configure(ctx, Options{}))
	_, err := g.GenerateContent(ctx, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	a := NewAnyLLMBackend()
	require.Error(t, a.Configure(ctx, Options{SubProvider: "openai"}), "model is required")
	require.Error(t, a.Configure(ctx, Options{SubProvider: "watson", Model: "m"}))
	_, err = a.GenerateContent(ctx, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)

	c := NewCustomBackend()
	require.Error(t, c.Configure(ctx, Options{}))
	_, err = c.GenerateContent(ctx, "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTitanWireFormat(t *testing.T) {
	inv := &mockInvoker{}
	inv.On("InvokeModel", mock.Anything, mock.MatchedBy(func(in *bedrockruntime.InvokeModelInput) bool {
		return *in.ModelId == DefaultTitanModel &&
			*in.ContentType == "application/json" &&
			*in.Accept == "application/json" &&
			string(in.Body) == `{"inputText":"hi","textGenerationConfig":{"maxTokenCount":8192,"stopSequences":[],"temperature":0,"topP":1}}`
	})).Return(&bedrockruntime.InvokeModelOutput{
		Body: []byte(`{"inputTextTokenCount":1,"results":[{"tokenCount":2,"outputText":"hello there","completionReason":"FINISH"}]}`),
	}, nil)

	b := NewTitanBackend()
	require.NoError(t, b.use(inv, DefaultTitanModel))
	out, err := b.GenerateContent(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	inv.AssertExpectations(t)
}

func TestClaudeWireFormat(t *testing.T) {
	var sent *bedrockruntime.InvokeModelInput
	inv := &mockInvoker{}
	inv.On("InvokeModel", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*bedrockruntime.InvokeModelInput) }).
		Return(&bedrockruntime.InvokeModelOutput{Body: []byte(`{"completion":" Paris.","stop_reason":"stop_sequence"}`)}, nil)

	b := NewClaudeBackend()
	require.NoError(t, b.use(inv, DefaultClaudeModel))
	out, err := b.GenerateContent(context.Background(), "Capital of France?")
	require.NoError(t, err)
	assert.Equal(t, " Paris.", out)

	require.NotNil(t, sent)
	assert.Equal(t, "*/*", *sent.Accept)
	assert.Equal(t, DefaultClaudeModel, *sent.ModelId)
	assert.JSONEq(t, `{
		"prompt": "\n\nHuman: Capital of France?\n\nAssistant:",
		"max_tokens_to_sample": 3000,
		"temperature": 0.5,
		"top_k": 250,
		"top_p": 1,
		"stop_sequences": ["\n\nHuman:"],
		"anthropic_version": "bedrock-2023-05-31"
	}`, string(sent.Body))
}

func TestBedrockErrors(t *testing.T) {
	inv := &mockInvoker{}
	inv.On("InvokeModel", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()
	inv.On("InvokeModel", mock.Anything, mock.Anything).Return(&bedrockruntime.InvokeModelOutput{Body: []byte(`{"results":[]}`)}, nil).Once()

	b := NewTitanBackend()
	require.NoError(t, b.use(inv, DefaultTitanModel))

	_, err := b.GenerateContent(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Contains(t, err.Error(), "throttled")

	_, err = b.GenerateContent(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestCustomBackend(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		prefix   string
	}{
		{
			name:     "nested response",
			status:   http.StatusOK,
			body:     `{"statusCode": 200, "body": "{\"response\": \"It is X.\"}"}`,
			expected: "It is X.",
		},
		{
			name:   "malformed outer json",
			status: http.StatusOK,
			body:   `{"statusCode": 200, "body": `,
			prefix: "Error parsing the API response:",
		},
		{
			name:   "malformed inner json",
			status: http.StatusOK,
			body:   `{"statusCode": 200, "body": "not json"}`,
			prefix: "Error parsing the API response:",
		},
		{
			name:   "missing response field",
			status: http.StatusOK,
			body:   `{"statusCode": 200, "body": "{\"answer\": \"x\"}"}`,
			prefix: "Error parsing the API response:",
		},
		{
			name:   "http failure",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			prefix: "Error calling the API:",
		},
		{
			name:   "upstream failure in envelope",
			status: http.StatusOK,
			body:   `{"statusCode": 500, "body": "boom"}`,
			prefix: "Error calling the API:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received customRequest
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				raw, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(raw, &received)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			b := NewCustomBackend()
			require.NoError(t, b.Configure(context.Background(), Options{Endpoint: ts.URL, AuthToken: "secret"}))
			out, err := b.GenerateContent(context.Background(), "What is X?")
			require.NoError(t, err)

			if tt.prefix != "" {
				assert.True(t, strings.HasPrefix(out, tt.prefix), out)
			} else {
				assert.Equal(t, tt.expected, out)
			}
			assert.Equal(t, customRequest{Prompt: "What is X?", AuthToken: "secret"}, received)
		})
	}
}

func TestCustomBackendUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	b := NewCustomBackend()
	require.NoError(t, b.Configure(context.Background(), Options{Endpoint: url}))
	out, err := b.GenerateContent(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Error calling the API:"), out)
}

func TestLMStudioBackend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer lm-key", r.Header.Get("Authorization"))
		var req requestPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "local-model", req.Model)
		assert.Equal(t, []Message{{Role: "user", Content: "ping"}}, req.Messages)

		_, _ = w.Write([]byte(`{"id":"1","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"pong"}}]}`))
	}))
	defer ts.Close()

	b := NewLMStudioBackend()
	require.NoError(t, b.Configure(context.Background(), Options{BaseURL: ts.URL, APIKey: "lm-key", Model: "local-model"}))
	out, err := b.GenerateContent(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestLMStudioBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	b := NewLMStudioBackend()
	require.NoError(t, b.Configure(context.Background(), Options{BaseURL: ts.URL}))
	_, err := b.GenerateContent(context.Background(), "ping")
	require.ErrorIs(t, err, ErrGeneration)

	var se *urest.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}

func TestGeminiGenerateContent(t *testing.T) {
	gen := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello, "), genai.Text("world")}},
		}},
	}}
	b := NewGeminiBackend()
	b.model = gen
	b.guard.done = true

	out, err := b.GenerateContent(context.Background(), "greet")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", out)
	assert.Equal(t, "greet", gen.prompt)
}

func TestGeminiErrors(t *testing.T) {
	b := NewGeminiBackend()
	b.guard.done = true

	b.model = &fakeGenerator{err: errors.New("quota exceeded")}
	_, err := b.GenerateContent(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGeneration)

	b.model = &fakeGenerator{resp: &genai.GenerateContentResponse{}}
	_, err = b.GenerateContent(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestCompletionParams(t *testing.T) {
	p := completionParams("gpt-4o-mini", "prompt text")
	assert.Equal(t, "gpt-4o-mini", p.Model)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, "user", p.Messages[0].Role)
	assert.Equal(t, "prompt text", p.Messages[0].ContentString())
}
