package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalogapp "github.com/erp/pos/internal/application/catalog"
	"github.com/erp/pos/internal/infrastructure/docstore"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses an SSE stream onto a channel until the body closes
func readEvents(body *bufio.Reader) <-chan sseEvent {
	out := make(chan sseEvent, 16)
	go func() {
		defer close(out)
		var ev sseEvent
		for {
			line, err := body.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "":
				out <- ev
				ev = sseEvent{}
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed before %q", name)
			if ev.name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
		}
	}
}

func TestProductStreamHandler_Stream(t *testing.T) {
	store := docstore.NewMemoryStore(zap.NewNop())
	repo := persistence.NewDocumentProductRepository(store)
	svc := catalogapp.NewProductService(repo, zap.NewNop(), catalogapp.WithWatcher(repo))

	router := gin.New()
	router.GET("/stream", NewProductStreamHandler(svc, time.Hour, zap.NewNop()).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/stream?search=Co", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(bufio.NewReader(resp.Body))
	nextEvent(t, events, SSEEventConnected)

	var products []catalogapp.ProductResponse
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, SSEEventProducts).data), &products))
	assert.Empty(t, products)

	_, err = svc.Create(ctx, catalogapp.CreateProductRequest{Name: "Cola", Price: dec("1.50"), Quantity: 24})
	require.NoError(t, err)
	_, err = svc.Create(ctx, catalogapp.CreateProductRequest{Name: "Water", Price: dec("0.90"), Quantity: 24})
	require.NoError(t, err)

	// Each change produces a fresh snapshot; wait for the one with Cola in it
	for len(products) != 1 {
		products = nil
		require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, SSEEventProducts).data), &products))
	}
	assert.Equal(t, "Cola", products[0].Name)
}

func TestProductStreamHandler_WatchUnavailable(t *testing.T) {
	store := docstore.NewMemoryStore(zap.NewNop())
	svc := catalogapp.NewProductService(persistence.NewDocumentProductRepository(store), zap.NewNop())

	router := gin.New()
	router.GET("/stream", NewProductStreamHandler(svc, 0, nil).Stream)

	w := serve(router, "/stream")
	assertStatus(t, w, http.StatusNotImplemented)
	assert.Equal(t, "WATCH_UNAVAILABLE", decode(t, w, nil).Error.Code)
}
