package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/money3x/councilflow/provider"
	"github.com/money3x/councilflow/types"
)

func chatHandler(t *testing.T, reply string, capture *chatRequest) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: reply}})
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func testConfig(baseURL string) provider.Config {
	return provider.Config{
		Identifier: "gpt",
		APIKey:     "sk-test",
		BaseURL:    baseURL,
		Model:      "gpt-4o",
	}
}

func TestGenerate(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(chatHandler(t, "generated text", &captured))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)

	got, err := p.Generate(context.Background(), "write something")
	require.NoError(t, err)
	assert.Equal(t, "generated text", got)

	assert.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 1, "no system message before role assignment")
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "write something", captured.Messages[0].Content)
}

func TestGenerate_RoleAndSpecialtiesInSystemPrompt(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(chatHandler(t, "ok", &captured))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)
	require.NoError(t, p.SetRole("reviewer"))
	require.NoError(t, p.SetSpecialties([]string{"fact_checking", "style"}))

	_, err := p.Generate(context.Background(), "review this")
	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[0].Content, "reviewer")
	assert.Contains(t, captured.Messages[0].Content, "fact_checking, style")
	assert.Equal(t, "review this", captured.Messages[1].Content)
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      types.ErrorCode
		wantRetryable bool
	}{
		{
			name:          "server error retryable",
			status:        http.StatusInternalServerError,
			body:          `{"error":{"message":"backend exploded"}}`,
			wantCode:      types.ErrUpstreamError,
			wantRetryable: true,
		},
		{
			name:          "rate limited retryable",
			status:        http.StatusTooManyRequests,
			body:          "slow down",
			wantCode:      types.ErrUpstreamError,
			wantRetryable: true,
		},
		{
			name:          "gateway timeout",
			status:        http.StatusGatewayTimeout,
			body:          "",
			wantCode:      types.ErrUpstreamTimeout,
			wantRetryable: true,
		},
		{
			name:          "unauthorized not retryable",
			status:        http.StatusUnauthorized,
			body:          `{"error":{"message":"bad key"}}`,
			wantCode:      types.ErrProviderUnavailable,
			wantRetryable: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := New(testConfig(srv.URL), nil)
			_, err := p.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.GetErrorCode(err))
			assert.Equal(t, tt.wantRetryable, types.IsRetryable(err))
		})
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)
	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, types.ErrUpstreamError, types.GetErrorCode(err))
}

func TestProbeHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)
	require.NoError(t, p.ProbeHealth(context.Background()))
}

func TestProbeHealth_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"maintenance"}}`))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)
	err := p.ProbeHealth(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrHealthCheck, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "maintenance")
}

func TestConstructor_RequiresBaseURL(t *testing.T) {
	ctor := Constructor(nil)

	_, err := ctor(context.Background(), provider.Config{Identifier: "gpt", APIKey: "k"})
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))

	p, err := ctor(context.Background(), testConfig("https://api.example"))
	require.NoError(t, err)
	assert.Equal(t, "gpt", p.Name())
}

func TestReadErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("plain failure text"))
	}))
	defer srv.Close()

	p := New(testConfig(srv.URL), nil)
	_, err := p.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain failure text", "non-JSON bodies pass through raw")
}
