package sync

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/cel-go/cel"

	"storepilot/internal/agent"
	"storepilot/internal/catalog"
)

// CatalogService is the storefront surface the orchestrator depends on.
type CatalogService interface {
	TestConnection(ctx context.Context, creds catalog.Credentials) catalog.ConnectionStatus
	GetAllProducts(ctx context.Context, creds catalog.Credentials) ([]catalog.RawProduct, error)
}

// Request describes one sync invocation.
type Request struct {
	Credentials catalog.Credentials

	// Filter is an optional CEL expression selecting which products take
	// part in the sync, e.g. `product.vendor == "Acme"`.
	Filter string
}

// Orchestrator runs the staged sync pipeline. It holds no per-request
// state; each Run gets its own event channel.
type Orchestrator struct {
	catalog CatalogService
	agent   agent.Service
	logger  *slog.Logger
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(catalogSvc CatalogService, agentSvc agent.Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		catalog: catalogSvc,
		agent:   agentSvc,
		logger:  logger.With("component", "sync"),
	}
}

// Run executes the pipeline and returns the channel its events arrive on.
// Events are emitted in order and the channel is closed after the terminal
// event. The channel is unbuffered: the pipeline waits for the consumer to
// take each event before proceeding, so transport backpressure propagates
// naturally. Cancelling ctx stops the pipeline between stages.
func (o *Orchestrator) Run(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		defer func() {
			// A panic anywhere in the pipeline becomes one terminal error
			// event; the consumer never sees a silently closed channel.
			if rec := recover(); rec != nil {
				o.logger.Error("Sync pipeline panic",
					"panic", rec, "stack", string(debug.Stack()))
				emit(ctx, events, Event{
					Type: EventError, Stage: StageSyncing,
					Message: "Internal error", Progress: 100,
				})
			}
		}()
		o.run(ctx, req, events)
	}()
	return events
}

// emit delivers one event, honoring cancellation. Returns false when the
// context ended before delivery; the pipeline must stop in that case.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) run(ctx context.Context, req Request, events chan<- Event) {
	fail := func(stage Stage, msg string) {
		o.logger.Warn("Sync failed", "stage", string(stage), "domain", req.Credentials.Domain, "error", msg)
		emit(ctx, events, Event{Type: EventError, Stage: stage, Message: msg, Progress: 100})
	}

	// Invalid filters are normally rejected by the gateway before the
	// stream opens; compiling here keeps direct callers safe too.
	prg, err := compileFilter(req.Filter)
	if err != nil {
		fail(StageConnecting, err.Error())
		return
	}

	if !emit(ctx, events, Event{
		Type: EventProgress, Stage: StageConnecting, Progress: 5,
		Message: "Connecting to " + req.Credentials.Domain,
	}) {
		return
	}

	status := o.catalog.TestConnection(ctx, req.Credentials)
	if !status.Connected {
		fail(StageConnecting, status.Error)
		return
	}

	if !emit(ctx, events, Event{
		Type: EventProgress, Stage: StageConnecting, Progress: 15,
		Message: "Connected to " + status.ShopName, ShopName: status.ShopName,
	}) {
		return
	}

	if !emit(ctx, events, Event{
		Type: EventProgress, Stage: StageFetching, Progress: 25,
		Message: "Fetching product catalog",
	}) {
		return
	}

	rawProducts, err := o.catalog.GetAllProducts(ctx, req.Credentials)
	if err != nil {
		fail(StageFetching, "Failed to fetch products: "+err.Error())
		return
	}
	rawProducts = catalog.ApplyFilter(prg, rawProducts)
	products := catalog.ProcessProducts(rawProducts)

	result := o.SyncProducts(ctx, products,
		req.Credentials.Domain, req.Credentials.AccessToken, status.ShopName,
		func(stage Stage, message string, progress int) {
			emit(ctx, events, Event{Type: EventProgress, Stage: stage, Message: message, Progress: progress})
		})

	if !result.Success {
		fail(StageSyncing, result.Error)
		return
	}

	o.logger.Info("Sync complete",
		"domain", req.Credentials.Domain,
		"products", result.ProductCount,
		"knowledge_base_id", result.KnowledgeBaseID,
	)

	emit(ctx, events, Event{
		Type:            EventSuccess,
		Stage:           StageDone,
		Message:         fmt.Sprintf("Synced %d products", result.ProductCount),
		Progress:        100,
		ProductCount:    result.ProductCount,
		ShopName:        status.ShopName,
		KnowledgeBaseID: result.KnowledgeBaseID,
		ReplicaUUID:     result.ReplicaUUID,
		UserID:          result.UserID,
	})
}

// SyncProducts pushes an already-processed catalog to the agent platform's
// knowledge base. An empty catalog short-circuits to success with
// ProductCount 0 and performs no platform call. Failures surface in the
// result, never as a panic or retry; retry policy belongs to the caller.
func (o *Orchestrator) SyncProducts(
	ctx context.Context,
	products []catalog.ProcessedProduct,
	domain, accessToken, storeName string,
	onProgress ProgressFunc,
) Result {
	_ = accessToken // credentials authenticate the storefront, not the platform

	if onProgress == nil {
		onProgress = func(Stage, string, int) {}
	}

	if len(products) == 0 {
		o.logger.Info("Nothing to sync", "domain", domain)
		return Result{Success: true, ProductCount: 0}
	}

	if o.agent == nil {
		return Result{Success: false, Error: "agent platform is not configured"}
	}

	onProgress(StagePreparing, "Formatting catalog for the knowledge base", 35)

	payload := agent.KnowledgeBasePayload{
		RawText:        catalog.FormatKnowledgeText(products),
		GeneratedFacts: catalog.GenerateFacts(storeName, products),
	}

	onProgress(StagePreparing, fmt.Sprintf("Prepared %d products", len(products)), 50)
	onProgress(StageSyncing, "Locating store replica", 60)

	replica, err := o.agent.EnsureReplica(ctx, storeName)
	if err != nil {
		return Result{Success: false, Error: "Failed to prepare replica: " + err.Error()}
	}

	onProgress(StageSyncing, "Uploading knowledge base", 80)

	ids, err := o.agent.CreateKnowledgeBase(ctx, replica.UUID, payload)
	if err != nil {
		return Result{Success: false, Error: "Failed to update knowledge base: " + err.Error()}
	}

	return Result{
		Success:         true,
		ProductCount:    len(products),
		KnowledgeBaseID: ids.KnowledgeBaseID,
		ReplicaUUID:     ids.ReplicaUUID,
		UserID:          ids.UserID,
	}
}

// compileFilter wraps catalog.CompileFilter, treating the empty expression
// as no filter.
func compileFilter(expr string) (cel.Program, error) {
	if expr == "" {
		return nil, nil
	}
	return catalog.CompileFilter(expr)
}
