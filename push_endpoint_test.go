package main

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func pushTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/pubsub", pushPubSubHandler())
	return r
}

func postPush(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pubsub", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	pushTestRouter().ServeHTTP(w, req)
	return w
}

// Malformed push deliveries must be acked (204), never retried.
func TestPushEndpointAcksMalformedEnvelope(t *testing.T) {
	if w := postPush(t, "not json"); w.Code != http.StatusNoContent {
		t.Errorf("non-json body: status = %d, want 204", w.Code)
	}
}

func TestPushEndpointAcksMalformedPayload(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte("not a push message"))
	body := `{"message":{"data":"` + data + `","id":"m-1"},"subscription":"s"}`
	if w := postPush(t, body); w.Code != http.StatusNoContent {
		t.Errorf("garbage payload: status = %d, want 204", w.Code)
	}
}

func TestPushEndpointAcksMissingRequiredFields(t *testing.T) {
	// valid JSON payload but no company_id/type: poisoned, ack it
	data := base64.StdEncoding.EncodeToString([]byte(`{"employee_id":7}`))
	body := `{"message":{"data":"` + data + `","id":"m-2"},"subscription":"s"}`
	if w := postPush(t, body); w.Code != http.StatusNoContent {
		t.Errorf("incomplete payload: status = %d, want 204", w.Code)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example , https://b.example ,, ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("splitAndTrim = %#v", got)
	}
	if out := splitAndTrim(""); len(out) != 0 {
		t.Fatalf("splitAndTrim(\"\") = %#v, want empty", out)
	}
}
