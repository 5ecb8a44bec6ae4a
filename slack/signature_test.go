package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func signedRequest(t *testing.T, body, timestamp, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-slack-request-timestamp", timestamp)
	req.Header.Set("x-slack-signature", signature)
	return req
}

func TestVerifySignatureAcceptsValidRequest(t *testing.T) {
	body := "command=%2Fpoll&text=Lunch"
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	var seenBody string
	handler := VerifySignature(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		seenBody = r.PostForm.Get("command")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, body, ts, sign(testSecret, ts, body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/poll", seenBody, "body must be readable downstream")
}

func TestVerifySignatureRejectsBadSignature(t *testing.T) {
	body := "command=%2Fpoll"
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	handler := VerifySignature(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, body, ts, sign("wrong-secret", ts, body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	signature := sign(testSecret, ts, "command=%2Fpoll")

	handler := VerifySignature(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, "command=%2Fadd-quote", ts, signature))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	body := "command=%2Fpoll"
	stale := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)

	handler := VerifySignature(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, body, stale, sign(testSecret, stale, body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckSignatureMissingHeaders(t *testing.T) {
	err := checkSignature(testSecret, http.Header{}, []byte("x"), time.Now())
	assert.Error(t, err)
}
