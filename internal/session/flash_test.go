package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestFlashRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	flash, err := NewFlash("test-secret")
	if err != nil {
		t.Fatalf("NewFlash: %v", err)
	}

	setRec := httptest.NewRecorder()
	setCtx, _ := gin.CreateTestContext(setRec)
	setCtx.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
	if err := flash.Set(setCtx, "No file selected."); err != nil {
		t.Fatalf("Set: %v", err)
	}
	cookie := findCookie(t, setRec.Result().Cookies(), FlashCookie)

	popRec := httptest.NewRecorder()
	popCtx, _ := gin.CreateTestContext(popRec)
	popCtx.Request = httptest.NewRequest(http.MethodGet, "/upload", nil)
	popCtx.Request.AddCookie(cookie)

	if got := flash.Pop(popCtx); got != "No file selected." {
		t.Fatalf("expected flash message, got %q", got)
	}
	cleared := findCookie(t, popRec.Result().Cookies(), FlashCookie)
	if cleared.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got max-age %d", cleared.MaxAge)
	}
}

func TestFlashRejectsForeignSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issuer, _ := NewFlash("other-secret")
	reader, _ := NewFlash("test-secret")

	setRec := httptest.NewRecorder()
	setCtx, _ := gin.CreateTestContext(setRec)
	setCtx.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
	if err := issuer.Set(setCtx, "forged"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	popCtx, _ := gin.CreateTestContext(httptest.NewRecorder())
	popCtx.Request = httptest.NewRequest(http.MethodGet, "/upload", nil)
	popCtx.Request.AddCookie(findCookie(t, setRec.Result().Cookies(), FlashCookie))

	if got := reader.Pop(popCtx); got != "" {
		t.Fatalf("expected forged flash to be dropped, got %q", got)
	}
}

func TestFlashExpires(t *testing.T) {
	gin.SetMode(gin.TestMode)

	flash, _ := NewFlash("test-secret")
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	flash.now = func() time.Time { return issued }

	setRec := httptest.NewRecorder()
	setCtx, _ := gin.CreateTestContext(setRec)
	setCtx.Request = httptest.NewRequest(http.MethodPost, "/upload", nil)
	if err := flash.Set(setCtx, "stale"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	flash.now = func() time.Time { return issued.Add(time.Hour) }
	popCtx, _ := gin.CreateTestContext(httptest.NewRecorder())
	popCtx.Request = httptest.NewRequest(http.MethodGet, "/upload", nil)
	popCtx.Request.AddCookie(findCookie(t, setRec.Result().Cookies(), FlashCookie))

	if got := flash.Pop(popCtx); got != "" {
		t.Fatalf("expected expired flash to be dropped, got %q", got)
	}
}

func TestNewFlashRequiresSecret(t *testing.T) {
	if _, err := NewFlash("  "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}
