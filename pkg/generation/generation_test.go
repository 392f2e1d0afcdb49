package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/correct-essay", r.URL.Path)
		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, "u1", fields["user_id"])
		assert.Equal(t, "Tema", fields["theme"])

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"total_score":900,"feedback":"bom"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client(), zerolog.Nop())
	res, err := c.Generate(context.Background(), "/correct-essay", map[string]any{"theme": "Tema", "user_id": "u1"})
	require.NoError(t, err)
	assert.False(t, res.IsFile())
	assert.Equal(t, float64(900), res.Fields["total_score"])
	assert.Equal(t, "bom", res.String("feedback"))
	assert.Equal(t, "", res.String("missing"))
}

func TestGenerate_File(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="planilha.xlsx"`)
		_, _ = w.Write([]byte("PK\x03\x04"))
	}))
	defer srv.Close()

	res, err := New(srv.URL, srv.Client(), zerolog.Nop()).Generate(context.Background(), "/generate-spreadsheet", map[string]any{"description": "vendas"})
	require.NoError(t, err)
	assert.True(t, res.IsFile())
	assert.Equal(t, "planilha.xlsx", res.FileName)
	assert.Equal(t, []byte("PK\x03\x04"), res.File)
}

func TestGenerate_InsufficientCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"Créditos insuficientes. Faça upgrade para o PRO."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), zerolog.Nop()).Generate(context.Background(), "/summarize-text", nil)
	require.Error(t, err)
	assert.True(t, IsInsufficientCredits(err))
	assert.Equal(t, "Créditos insuficientes. Faça upgrade para o PRO.", err.Error())
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"model overloaded"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), zerolog.Nop()).Generate(context.Background(), "/generate-prompt", nil)
	var genErr *Error
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, http.StatusInternalServerError, genErr.Status)
	assert.Equal(t, "model overloaded", genErr.Message)
	assert.False(t, IsInsufficientCredits(err))
}

func TestGenerate_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), zerolog.Nop()).Generate(context.Background(), "/generate-prompt", nil)
	assert.ErrorContains(t, err, "failed to decode")
}
