package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeFromEvent(t *testing.T) {
	env, err := EnvelopeFromEvent(json.RawMessage(`{"httpMethod":"POST"}`))
	require.NoError(t, err)
	assert.Nil(t, env.Body)

	env, err = EnvelopeFromEvent(json.RawMessage(`{"body":"{\"update_id\":1}"}`))
	require.NoError(t, err)
	require.NotNil(t, env.Body)
	assert.Equal(t, `{"update_id":1}`, *env.Body)

	encoded := base64.StdEncoding.EncodeToString([]byte(`{"update_id":2}`))
	env, err = EnvelopeFromEvent(json.RawMessage(`{"body":"` + encoded + `","isBase64Encoded":true}`))
	require.NoError(t, err)
	assert.Equal(t, `{"update_id":2}`, *env.Body)

	_, err = EnvelopeFromEvent(json.RawMessage(`{"body":"%%%","isBase64Encoded":true}`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandleLambda(t *testing.T) {
	f := newFixture(t)

	resp, err := f.handler.HandleLambda(context.Background(), json.RawMessage(`{"resource":"/"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"error":"Invalid request format: 'body' key missing."}`, resp.Body)

	body, _ := json.Marshal(`{"update_id":9,"message":{"chat":{"id":4242},"text":"hello"}}`)
	resp, err = f.handler.HandleLambda(context.Background(), json.RawMessage(`{"body":`+string(body)+`}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Requesting contact info for unverified user."}`, resp.Body)
}

func TestRouter(t *testing.T) {
	f := newFixture(t, chatID)
	router := NewRouter(f.handler, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"update_id":1,"message":{"chat":{"id":4242},"text":"/start"}}`))
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Command processed for verified user."}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDecodedUpdateIsReused(t *testing.T) {
	ctx := withDecodedUpdate(context.Background(),
		NewEnvelope(`{"update_id":5,"message":{"chat":{"id":77},"text":"help"}}`))

	// A second envelope is ignored once the chain holds a decoded update.
	ctx = withDecodedUpdate(ctx, NewEnvelope(`not json`))
	msg, err := messageFrom(ctx, Envelope{})
	require.NoError(t, err)
	assert.Equal(t, int64(77), msg.ChatID)
	assert.Equal(t, 5, msg.UpdateID)
	assert.Equal(t, "help", msg.Text)

	_, err = messageFrom(context.Background(), Envelope{})
	assert.ErrorIs(t, err, ErrValidation)
}
