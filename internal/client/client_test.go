package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedURL returns a URL nothing listens on.
func closedURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "No file provided"})
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename == "bad.csv" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Missing columns: Type"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(UploadResult{
			TotalCount:       strings.Count(string(data), "\n") - 1,
			AvgFlowrate:      1.5,
			TypeDistribution: map[string]int{"Pump": 1},
		})
	})
	mux.HandleFunc("/api/history/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]HistoryItem{{FileName: "a.csv", TotalEquipment: 2}})
	})
	mux.HandleFunc("/api/report/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.3 fake"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FallsBackToSecondEndpoint(t *testing.T) {
	srv := fakeBackend(t)
	dead := closedURL(t)

	c := New([]string{dead, srv.URL + "/"}, "admin", "admin123").WithTimeout(time.Second)
	assert.Equal(t, dead, c.BaseURL())

	result, err := c.UploadBytes(context.Background(), "plant.csv", []byte("h\nr1\nr2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, map[string]int{"Pump": 1}, result.TypeDistribution)

	// the working endpoint is remembered
	assert.Equal(t, srv.URL, c.BaseURL())

	items, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.csv", items[0].FileName)
}

func TestClient_HTTPErrorIsNotRetried(t *testing.T) {
	srv := fakeBackend(t)
	other := fakeBackend(t)

	c := New([]string{srv.URL, other.URL}, "admin", "admin123")
	_, err := c.UploadBytes(context.Background(), "bad.csv", []byte("x\n"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing columns: Type", apiErr.Message)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestClient_AllUnreachable(t *testing.T) {
	c := New([]string{closedURL(t), closedURL(t)}, "admin", "admin123").WithTimeout(time.Second)

	_, err := c.History(context.Background())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_Report(t *testing.T) {
	srv := fakeBackend(t)
	c := New([]string{srv.URL}, "admin", "admin123")

	var buf bytes.Buffer
	n, err := c.Report(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestClient_SlowReportStreamIsNotCutOff(t *testing.T) {
	chunks := []string{"%PDF-1.3\n", "1 0 obj\n", "endobj\n", "trailer\n", "%%EOF\n"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range chunks {
			w.Write([]byte(chunk))
			w.(http.Flusher).Flush()
			time.Sleep(150 * time.Millisecond)
		}
	}))
	t.Cleanup(srv.Close)

	// the whole transfer takes several times the connect timeout
	c := New([]string{srv.URL}, "admin", "admin123").WithTimeout(200 * time.Millisecond)

	var buf bytes.Buffer
	n, err := c.Report(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(chunks, ""), buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

func TestClient_SlowUploadIsNotResent(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	var otherHits atomic.Int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		otherHits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(other.Close)

	c := New([]string{slow.URL, other.URL}, "admin", "admin123").WithTimeout(200 * time.Millisecond)
	_, err := c.UploadBytes(context.Background(), "plant.csv", []byte("h\nr1\n"))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, int32(0), otherHits.Load())
	assert.Equal(t, slow.URL, c.BaseURL())
}

func TestRenderBarChart(t *testing.T) {
	var buf bytes.Buffer
	RenderBarChart(&buf, map[string]int{"Pump": 4, "Valve": 2, "HX": 1}, 8)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Equipment Type Distribution", lines[0])
	assert.Equal(t, "  Pump  | "+strings.Repeat(barGlyph, 8)+" 4", lines[1])
	assert.Equal(t, "  Valve | "+strings.Repeat(barGlyph, 4)+" 2", lines[2])
	assert.Equal(t, "  HX    | "+strings.Repeat(barGlyph, 2)+" 1", lines[3])
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 1, 2, 13, 14, 15, 0, time.UTC)
	require.NoError(t, RenderHistory(&buf, []HistoryItem{{FileName: "a.csv", UploadedAt: at, TotalEquipment: 3, AvgFlowrate: 1.5}}))

	out := buf.String()
	assert.Contains(t, out, "Filename")
	assert.Contains(t, out, "a.csv")
	assert.Contains(t, out, "13:14:15")
}
