package trajectservice

import (
	"log/slog"

	httpadapter "traject/contexts/assessment-workflow/traject-service/adapters/http"
	"traject/contexts/assessment-workflow/traject-service/adapters/memory"
	"traject/contexts/assessment-workflow/traject-service/adapters/notify"
	"traject/contexts/assessment-workflow/traject-service/application/commands"
	"traject/contexts/assessment-workflow/traject-service/application/queries"
	"traject/contexts/assessment-workflow/traject-service/application/workers"
	"traject/contexts/assessment-workflow/traject-service/domain/entities"
	"traject/contexts/assessment-workflow/traject-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Workers Workers
	Store   *memory.Store
}

// Workers are the module's scheduled entrypoints.
type Workers struct {
	ArchiveExpired workers.ArchiveExpired
	OutboxRelay    workers.OutboxRelay
	Notifications  workers.NotificationDispatcher
}

type Dependencies struct {
	Transactions ports.TransactionRunner
	Reader       ports.TrajectReader
	Outbox       ports.OutboxRepository
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	// Notifier defaults to logging notifications.
	Notifier ports.Notifier

	HistoryCap       int
	ArchiveBatchSize int
	OutboxBatchSize  int
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: deps.Logger}
	}
	advanceStatus := commands.AdvanceStatusUseCase{
		Transactions: deps.Transactions,
		Reader:       deps.Reader,
		IDGenerator:  deps.IDGenerator,
		HistoryCap:   deps.HistoryCap,
		Logger:       deps.Logger,
	}
	provisionTraject := commands.ProvisionTrajectUseCase{
		Transactions: deps.Transactions,
		Reader:       deps.Reader,
		IDGenerator:  deps.IDGenerator,
		Logger:       deps.Logger,
	}
	forceArchive := commands.ForceArchiveUseCase{
		Transactions: deps.Transactions,
		IDGenerator:  deps.IDGenerator,
		HistoryCap:   deps.HistoryCap,
		Logger:       deps.Logger,
	}

	getTraject := queries.GetTrajectUseCase{
		Reader: deps.Reader,
		Logger: deps.Logger,
	}
	listOwnerCases := queries.ListOwnerCasesUseCase{
		Reader: deps.Reader,
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			ProvisionTraject: provisionTraject,
			AdvanceStatus:    advanceStatus,
			GetTraject:       getTraject,
			ListOwnerCases:   listOwnerCases,
			Logger:           deps.Logger,
		},
		Workers: Workers{
			ArchiveExpired: workers.ArchiveExpired{
				Trajects:  deps.Reader,
				Archive:   forceArchive,
				Clock:     deps.Clock,
				BatchSize: deps.ArchiveBatchSize,
				Logger:    deps.Logger,
			},
			OutboxRelay: workers.OutboxRelay{
				Outbox:    deps.Outbox,
				Publisher: deps.Publisher,
				Clock:     deps.Clock,
				BatchSize: deps.OutboxBatchSize,
				Logger:    deps.Logger,
			},
			Notifications: workers.NotificationDispatcher{
				Notifier: notifier,
				Logger:   deps.Logger,
			},
		},
	}
}

// NewInMemoryModule wires the module against the in-memory store. publisher
// may be nil when the outbox relay is not used.
func NewInMemoryModule(users []entities.User, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(users)
	module := NewModule(Dependencies{
		Transactions: store,
		Reader:       store,
		Outbox:       store,
		Publisher:    publisher,
		Clock:        store,
		IDGenerator:  store,
		HistoryCap:   entities.DefaultHistoryCap,
		Logger:       logger,
	})
	module.Store = store
	return module
}
