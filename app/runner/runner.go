package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsmon/app/cfg"
	"newsmon/app/config"
	"newsmon/app/feed"
	"newsmon/app/notify"
	"newsmon/app/state"
)

// Result summarizes one pipeline run for logging and the status endpoint.
type Result struct {
	RunID      string    `json:"run_id"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
	Fetched    int       `json:"fetched"`
	AfterRules int       `json:"after_rules"`
	AfterAge   int       `json:"after_age"`
	Selected   int       `json:"selected"`
	Delivered  int       `json:"delivered"`
	Excluded   int       `json:"excluded"`
	Retries    int       `json:"retries"`
	Committed  bool      `json:"committed"`
	DryRun     bool      `json:"dry_run"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Runner sequences one full pipeline pass: read snapshot, fetch, filter by
// rules and age, select, deliver, commit. Stages run strictly in order and
// each consumes only its predecessor's output. Safe operation requires at
// most one concurrent run; the task queue enforces that.
type Runner struct {
	cfg       *cfg.Cfg
	configs   *config.Cache
	store     state.Store
	fetcher   *feed.Fetcher
	summaries *feed.SummaryFiller
	filterer  *feed.Filterer
	selector  *feed.Selector
	sender    *notify.Sender
	admin     *notify.AdminNotifier

	mu   sync.Mutex
	last *Result
}

func NewRunner(c *cfg.Cfg, configs *config.Cache, store state.Store, transport notify.Transport) *Runner {
	client := feed.DefaultHTTPClient()
	admin := notify.NewAdminNotifier(transport, c.AdminChannel)
	resolver := config.NewResolver(configs, c.DefaultChannel)

	r := &Runner{
		cfg:      c,
		configs:  configs,
		store:    store,
		fetcher:  feed.NewFetcher(client, c.UserAgent),
		filterer: feed.NewFilterer(),
		selector: feed.NewSelector(),
		admin:    admin,
	}
	if c.ExtractSummaries {
		r.summaries = feed.NewSummaryFiller(client, c.UserAgent)
	}
	if transport != nil {
		r.sender = notify.NewSender(transport, resolver, admin, c)
	}
	return r
}

// Run executes the pipeline once. A "nothing to do" outcome is success with
// a Reason; an error always means no snapshot was written in this run
// except for the delivered-but-uncommitted write failure case, which the
// error text makes explicit.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	result := Result{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		DryRun:  r.dryRun(),
	}
	log := slog.With("run_id", result.RunID)
	log.Info("Run started", "dry_run", result.DryRun)

	err := r.run(ctx, log, &result)

	result.Finished = time.Now().UTC()
	runDuration.Observe(result.Finished.Sub(result.Started).Seconds())
	switch {
	case err != nil:
		result.Error = err.Error()
		runsTotal.WithLabelValues("error").Inc()
		log.Error("Run failed", "error", err)
	case result.Reason != "":
		runsTotal.WithLabelValues("empty").Inc()
		log.Info("Run finished", "reason", result.Reason)
	default:
		runsTotal.WithLabelValues("success").Inc()
		log.Info("Run finished",
			"delivered", result.Delivered, "committed", result.Committed, "duration", result.Finished.Sub(result.Started))
	}

	r.mu.Lock()
	r.last = &result
	r.mu.Unlock()

	return result, err
}

// Last returns the result of the most recent completed run.
func (r *Runner) Last() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, result *Result) error {
	token, snap, err := r.store.Read(ctx)
	if err != nil {
		r.admin.Notify(ctx, fmt.Sprintf("State read failure: %v", err))
		return err
	}
	log.Debug("Snapshot loaded", "feeds", snap.FeedCount(), "titles", snap.TitleCount())

	subs := r.configs.Get().Subscriptions()

	items, fetchErrs := r.fetcher.Run(ctx, subs)
	result.Fetched = len(items)
	for _, fetchErr := range fetchErrs {
		r.admin.Notify(ctx, fmt.Sprintf("Failed to fetch %s: %v", fetchErr.FeedURL, fetchErr.Err))
	}
	if len(items) == 0 {
		result.Reason = "no items fetched"
		return nil
	}

	// Summaries are filled before the rule filter so allow/deny patterns
	// can match extracted text, at the cost of fetching pages for items a
	// later stage may drop.
	if r.summaries != nil {
		items = r.summaries.Run(ctx, items)
	}

	items = r.filterer.Run(items)
	result.AfterRules = len(items)
	if len(items) == 0 {
		result.Reason = "no items matched rules"
		return nil
	}

	items = feed.FilterRecent(items, r.cfg.MaxAgeDays, time.Now())
	result.AfterAge = len(items)
	if len(items) == 0 {
		result.Reason = "no recent items to process"
		return nil
	}

	selected := r.selector.Run(items, snap, r.cfg.MaxItems)
	result.Selected = len(selected)
	itemsSelected.Add(float64(len(selected)))
	if len(selected) == 0 {
		result.Reason = "no new items to send"
		return nil
	}
	log.Info("Items selected", "selected", len(selected), "candidates", result.AfterAge)

	if len(selected) >= r.cfg.MaxItems {
		r.admin.Notify(ctx, fmt.Sprintf("Overflow: %d new items, posting %d now.", result.AfterAge, len(selected)))
	}

	if result.DryRun {
		for _, item := range selected {
			log.Info("Would send", "chat", item.ChannelRef, "title", item.Title)
		}
		return nil
	}

	delivered, stats, err := r.sender.Run(ctx, selected)
	result.Delivered = len(delivered)
	result.Excluded = stats.Excluded
	result.Retries = stats.Retries
	itemsDelivered.Add(float64(len(delivered)))
	deliveryRetries.Add(float64(stats.Retries))
	if err != nil {
		r.admin.Notify(ctx, fmt.Sprintf("Telegram send failure: %v", err))
		log.Error("Delivery failed, snapshot not updated", "delivered", len(delivered), "error", err)
		return err
	}

	committed, err := r.commit(ctx, token, snap, delivered)
	if err != nil {
		r.admin.Notify(ctx, fmt.Sprintf("State write failure: %v", err))
		return fmt.Errorf("items delivered but snapshot not persisted: %w", err)
	}
	result.Committed = committed

	return nil
}

// commit records the delivered titles in the snapshot and writes it back.
// Only items the transport accepted are recorded; excluded items stay out
// so the next run retries them. The write is skipped when nothing changed.
func (r *Runner) commit(ctx context.Context, token string, snap *state.Snapshot, delivered []feed.SelectedItem) (bool, error) {
	for _, item := range delivered {
		snap.Add(item.FeedURL, item.Title)
	}
	snap.Trim(r.cfg.MaxTitlesPerFeed)

	if !snap.Changed() {
		slog.Debug("Snapshot unchanged, skipping write")
		return false, nil
	}

	if err := r.store.Write(ctx, token, snap); err != nil {
		return false, err
	}
	return true, nil
}

// dryRun reports whether this run skips delivery: requested explicitly, no
// transport (token unset), or nothing to address messages to (no default
// channel and the topics file carries no concrete address). Checked per run
// because a config reload can change the answer.
func (r *Runner) dryRun() bool {
	if r.cfg.DryRun || r.sender == nil {
		return true
	}
	if r.cfg.DefaultChannel != "" {
		return false
	}
	config := r.configs.Get()
	return config == nil || !config.HasAddresses()
}
