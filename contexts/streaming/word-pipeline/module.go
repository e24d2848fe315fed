package wordpipeline

import (
	"log/slog"
	"time"

	httpadapter "ccdemo/contexts/streaming/word-pipeline/adapters/http"
	"ccdemo/contexts/streaming/word-pipeline/adapters/memory"
	"ccdemo/contexts/streaming/word-pipeline/application/queries"
	"ccdemo/contexts/streaming/word-pipeline/application/workers"
	"ccdemo/contexts/streaming/word-pipeline/ports"
)

// Module is the composition surface for the word pipeline.
// Runtime wiring consumes Handler, Publisher and Consumer; Store is exposed
// for tests/inspection when the in-memory repository is used.
type Module struct {
	Handler   httpadapter.Handler
	Publisher workers.WordPublisher
	Consumer  workers.WordConsumer
	Store     *memory.Store
}

type Dependencies struct {
	Words        ports.WordRepository
	Publisher    ports.MessagePublisher
	IDGenerator  ports.IDGenerator
	Metrics      ports.PipelineMetrics
	Topic        string
	OrderingKey  string
	PublishDelay time.Duration
	Logger       *slog.Logger
}

// NewModule wires the pipeline use cases against explicit ports.
func NewModule(deps Dependencies) Module {
	listWords := queries.ListWordsUseCase{
		Words:   deps.Words,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			ListWords: listWords,
			Logger:    deps.Logger,
		},
		Publisher: workers.WordPublisher{
			Publisher:   deps.Publisher,
			IDGenerator: deps.IDGenerator,
			Metrics:     deps.Metrics,
			Topic:       deps.Topic,
			OrderingKey: deps.OrderingKey,
			Delay:       deps.PublishDelay,
			Logger:      deps.Logger,
		},
		Consumer: workers.WordConsumer{
			Words:   deps.Words,
			Metrics: deps.Metrics,
			Logger:  deps.Logger,
		},
	}
}

// NewInMemoryModule wires the pipeline against the in-memory repository.
func NewInMemoryModule(publisher ports.MessagePublisher, topic string, logger *slog.Logger) Module {
	store := memory.NewStore(logger)
	module := NewModule(Dependencies{
		Words:       store,
		Publisher:   publisher,
		Topic:       topic,
		OrderingKey: workers.DefaultOrderingKey,
		Logger:      logger,
	})
	module.Store = store
	return module
}
