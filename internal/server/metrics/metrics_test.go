package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/post/user_post/{username}", 200, 10*time.Millisecond)
	m.RecordRequest("GET", "/post/user_post/{username}", 200, 10*time.Millisecond)
	m.RecordRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/post/user_post/{username}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestCounters(t *testing.T) {
	m := New()
	m.AuthEvent("login", "rejected")
	m.Mail("failed")
	m.Mail("failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MailTotal.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Mail("sent")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `blog_mail_total{result="sent"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
