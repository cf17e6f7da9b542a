package pollengine

import (
	"log/slog"

	httpadapter "pollstack/contexts/engagement/poll-engine/adapters/http"
	"pollstack/contexts/engagement/poll-engine/adapters/memory"
	"pollstack/contexts/engagement/poll-engine/application/commands"
	"pollstack/contexts/engagement/poll-engine/application/identity"
	"pollstack/contexts/engagement/poll-engine/application/queries"
	"pollstack/contexts/engagement/poll-engine/domain/entities"
	"pollstack/contexts/engagement/poll-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Polls           ports.PollRegistry
	Votes           ports.VoteRepository
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	PublicPrefix    string
	DefaultCampaign string
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	resolver := identity.Resolver{
		PublicPrefix:    deps.PublicPrefix,
		DefaultCampaign: deps.DefaultCampaign,
		Clock:           deps.Clock,
		IDGen:           deps.IDGen,
		Logger:          deps.Logger,
	}
	submitUseCase := commands.SubmitUseCase{
		Polls:    deps.Polls,
		Votes:    deps.Votes,
		Identity: resolver,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Polls:    deps.Polls,
		Votes:    deps.Votes,
		Identity: resolver,
		Logger:   deps.Logger,
	}
	combinedUseCase := queries.CombinedUseCase{
		Polls:  deps.Polls,
		Votes:  deps.Votes,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Submissions: submitUseCase,
			Results:     resultsUseCase,
			Combined:    combinedUseCase,
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Poll, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Polls:  store,
		Votes:  store,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}
