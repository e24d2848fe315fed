package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ccdemo/contexts/streaming/word-pipeline/adapters/memory"
	"ccdemo/contexts/streaming/word-pipeline/domain/services"
	"ccdemo/contexts/streaming/word-pipeline/ports"
	"ccdemo/internal/platform/config"
	"ccdemo/internal/platform/messaging"
	"ccdemo/internal/platform/metrics"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type rejectingTransport struct {
	*messaging.Memory
}

func (rejectingTransport) Publish(context.Context, ports.OutboundMessage) error {
	return errors.New("broker unavailable")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMemoryPipelinePersistsWordsInOrder(t *testing.T) {
	logger := discardLogger()
	cfg := config.Config{TopicID: "words", SubscriptionID: "words-sub", OrderingKey: "order"}
	broker := messaging.NewMemory(cfg.TopicID, logger)

	// The durable subscription exists before the first publish.
	pre, err := broker.Subscribe(context.Background(), cfg.SubscriptionID)
	if err != nil {
		t.Fatalf("pre-create subscription: %v", err)
	}
	_ = pre.Close()

	store := memory.NewStore(logger)
	source := services.NewWordSource("never gonna\tgive\n you up")
	publisher := newPublisherApp(cfg, broker, source, metrics.NewRegistry(), logger)
	subscriber := newSubscriberApp(cfg, broker, store, metrics.NewRegistry(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pubDone := make(chan error, 1)
	subDone := make(chan error, 1)
	go func() { pubDone <- publisher.Run(ctx) }()
	go func() { subDone <- subscriber.Run(ctx) }()

	waitFor(t, func() bool { return store.Len() == 5 })
	cancel()

	if err := <-pubDone; err != nil {
		t.Fatalf("publisher: %v", err)
	}
	if err := <-subDone; err != nil {
		t.Fatalf("subscriber: %v", err)
	}

	want := []string{"never", "gonna", "give", "you", "up"}
	rows := store.All()
	for i, row := range rows {
		if row.ID != int64(i+1) || row.Word != want[i] {
			t.Fatalf("row %d: got %d/%q, want %d/%q", i, row.ID, row.Word, i+1, want[i])
		}
	}
}

func TestSubscriberEndsCleanlyWhenBrokerCloses(t *testing.T) {
	logger := discardLogger()
	cfg := config.Config{TopicID: "words", SubscriptionID: "words-sub"}
	broker := messaging.NewMemory(cfg.TopicID, logger)
	store := memory.NewStore(logger)
	subscriber := newSubscriberApp(cfg, broker, store, metrics.NewRegistry(), logger)

	sub, err := broker.Subscribe(context.Background(), cfg.SubscriptionID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = sub.Close()
	for _, word := range []string{"a", "b"} {
		if err := broker.Publish(context.Background(), ports.OutboundMessage{ID: word, Topic: cfg.TopicID, Payload: []byte(word)}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	_ = broker.Close()

	if err := subscriber.Run(context.Background()); err != nil {
		t.Fatalf("expected nil after drained stream, got %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected pending messages to be drained, got %d rows", store.Len())
	}
}

func TestPublisherRunReturnsPublishFailure(t *testing.T) {
	logger := discardLogger()
	cfg := config.Config{TopicID: "words"}
	transport := rejectingTransport{Memory: messaging.NewMemory(cfg.TopicID, logger)}
	publisher := newPublisherApp(cfg, transport, services.NewWordSource("one two"), metrics.NewRegistry(), logger)

	err := publisher.Run(context.Background())
	if err == nil {
		t.Fatal("expected publish failure")
	}
}

func TestPublisherIdlesOnEmptyInput(t *testing.T) {
	logger := discardLogger()
	cfg := config.Config{TopicID: "words"}
	publisher := newPublisherApp(cfg, messaging.NewMemory(cfg.TopicID, logger), services.NewWordSource(" \n\t "), metrics.NewRegistry(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := publisher.Run(ctx); err != nil {
		t.Fatalf("expected idle until cancelled, got %v", err)
	}
}

func TestLoadWordSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rick.txt")
	if err := os.WriteFile(path, []byte("never gonna give"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	source, err := LoadWordSource(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if source.Count() != 3 {
		t.Fatalf("expected 3 words, got %d", source.Count())
	}

	_, err = LoadWordSource(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestBuildSubscriberRequiresSubscriptionAndDatabase(t *testing.T) {
	_, err := BuildSubscriber(context.Background(), config.Config{TopicID: "words"}, discardLogger())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWebUIServesStoredWords(t *testing.T) {
	logger := discardLogger()
	store := memory.NewStore(logger)
	if _, err := store.InsertWord(context.Background(), "hello"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	app := newWebUIApp(config.Config{HTTPPort: 8080}, store, metrics.NewRegistry(), logger)

	rr := httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/words", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `<td class="word">hello</td>`) {
		t.Fatalf("expected stored word in fragment, got %s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	app.server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "ccdemo_word_pages_served_total 1") {
		t.Fatalf("expected page counter in metrics, got %s", rr.Body.String())
	}
}

func TestWebUIDatabaseURLFallsBackToLocalDefault(t *testing.T) {
	if got := webUIDatabaseURL(config.Config{}); got != "postgres://127.0.0.1:5432/wordsdb" {
		t.Fatalf("expected local default, got %q", got)
	}
	explicit := "postgres://db:6543/words"
	if got := webUIDatabaseURL(config.Config{DatabaseURL: explicit}); got != explicit {
		t.Fatalf("expected configured url, got %q", got)
	}
}
