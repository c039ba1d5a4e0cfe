package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendorai/avp/internal/config"
)

func TestNewModes(t *testing.T) {
	n, err := New(config.EmailConfig{Mode: "none"})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, n)

	n, err = New(config.EmailConfig{Mode: "smtp", SMTPHost: "smtp.example.com"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)

	n, err = New(config.EmailConfig{Mode: "api", APIURL: "http://example.com"})
	require.NoError(t, err)
	assert.IsType(t, &APINotifier{}, n)

	_, err = New(config.EmailConfig{Mode: "pigeon"})
	assert.Error(t, err)
}

func TestBuildMessageCarriesOnlyLink(t *testing.T) {
	msg, err := BuildMessage("reports@tendorai.com", "owner@acme.test", "Acme <Print>", "https://tendorai.com/aeo-report/abc")
	require.NoError(t, err)

	assert.Equal(t, "Your AI Visibility Report for Acme <Print>", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://tendorai.com/aeo-report/abc"`)
	assert.Contains(t, msg.HTML, "Acme &lt;Print&gt;")
	assert.Contains(t, msg.Text, "https://tendorai.com/aeo-report/abc")
}

func TestAPINotifier(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewAPINotifier(config.EmailConfig{From: "reports@tendorai.com", APIURL: srv.URL, APIKey: "k"})
	err := n.SendReportLink(context.Background(), "owner@acme.test", "Acme", "https://x/aeo-report/1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, "owner@acme.test", got.To)
	assert.Equal(t, "reports@tendorai.com", got.From)
	assert.Contains(t, got.Text, "https://x/aeo-report/1")
}

func TestAPINotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad sender", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	n := NewAPINotifier(config.EmailConfig{APIURL: srv.URL})
	err := n.SendReportLink(context.Background(), "a@b.test", "Acme", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
