package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signClerkPayload(secret, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s.%s.%s", id, timestamp, string(body))))
	return "v1," + hex.EncodeToString(mac.Sum(nil))
}

func TestClerkWebhookRejectsMissingSignature(t *testing.T) {
	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	handler := NewWebhookHandler(nil)

	body := []byte(`{"type": "user.created", "data": {}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	handler := NewWebhookHandler(nil)

	body := []byte(`{"type": "user.created", "data": {}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signClerkPayload("some-other-secret", "msg_1", "1700000000", body))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestClerkWebhookAcceptsValidSignature(t *testing.T) {
	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	handler := NewWebhookHandler(nil)

	// An event type the handler ignores, so no database is touched.
	body := []byte(`{"type": "session.created", "data": {}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signClerkPayload("whsec_test", "msg_1", "1700000000", body))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "success")
}

func TestClerkWebhookRejectsMalformedBody(t *testing.T) {
	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	handler := NewWebhookHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()

	handler.HandleClerkWebhook(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
