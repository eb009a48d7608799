package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kairanet/kairan-backend/internal/config"
	"github.com/kairanet/kairan-backend/internal/services"
)

func webhookApp(secret string) *fiber.App {
	cfg := &config.Config{LineChannelSecret: secret}
	h := NewWebhookHandler(&services.IdentityService{}, cfg)
	app := fiber.New()
	app.Post("/api/webhooks/line", h.HandleLine)
	return app
}

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := webhookApp("secret")

	req := httptest.NewRequest("POST", "/api/webhooks/line", strings.NewReader(`{"events":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", "forged")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	app := webhookApp("secret")

	req := httptest.NewRequest("POST", "/api/webhooks/line", strings.NewReader(`{"events":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestWebhookAcceptsSignedEmptyBatch(t *testing.T) {
	app := webhookApp("secret")
	body := `{"destination":"xxx","events":[]}`

	req := httptest.NewRequest("POST", "/api/webhooks/line", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signBody("secret", body))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(out), "received") {
		t.Errorf("body = %s", out)
	}
}

func TestWebhookRejectsMalformedSignedPayload(t *testing.T) {
	app := webhookApp("secret")
	body := `{"events":`

	req := httptest.NewRequest("POST", "/api/webhooks/line", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Signature", signBody("secret", body))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
