package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rental-notifier/models"
	"rental-notifier/storage"
	"rental-notifier/utils"
)

// IndexSource enumerates the listing ids currently on the index page.
type IndexSource interface {
	ListingIDs(ctx context.Context) ([]string, error)
}

// Notifier delivers one chat message.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// PipelineOptions tunes a Pipeline. Zero values fall back to defaults.
type PipelineOptions struct {
	RetryFailed bool
	BaseURL     string
	Username    string
	Icon        string
	Routes      []models.Route
}

// Pipeline runs discovery, extraction, policy and notification for one run.
type Pipeline struct {
	index     IndexSource
	store     storage.Store
	extractor *ListingExtractor
	policy    *NotificationPolicy
	notifier  Notifier
	decisions storage.DecisionWriter
	differ    DiscoveryDiffer
	opts      PipelineOptions
	logger    *utils.Logger
	now       func() time.Time
}

// NewPipeline wires the pipeline. decisions may be nil.
func NewPipeline(index IndexSource, store storage.Store, extractor *ListingExtractor, policy *NotificationPolicy,
	notifier Notifier, decisions storage.DecisionWriter, opts PipelineOptions, logger *utils.Logger) *Pipeline {
	if opts.Username == "" {
		opts.Username = "propertybot"
	}
	if opts.Icon == "" {
		opts.Icon = ":new:"
	}
	return &Pipeline{
		index:     index,
		store:     store,
		extractor: extractor,
		policy:    policy,
		notifier:  notifier,
		decisions: decisions,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Run performs one full pass. The updated known set is persisted before any
// listing is processed; failures on individual listings are logged and
// counted, never returned. notify is forced off when no known set has ever
// been saved.
func (p *Pipeline) Run(ctx context.Context, notify bool) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:         uuid.NewString(),
		StartedAt:     p.now(),
		RejectReasons: make(map[string]int),
	}
	log := p.logger.With("run", report.RunID)

	known, found, err := p.store.LoadKnown(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load known set: %w", err)
	}
	if !found {
		report.FirstRun = true
		if notify {
			log.Warn("[pipeline] First run, notifications disabled for the initial backfill")
		}
		notify = false
	}
	report.NotifyEnabled = notify

	current, err := p.index.ListingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: list index: %w", err)
	}
	report.Discovered = len(current)

	newIDs, updated := p.differ.Diff(current, known)
	report.New = len(newIDs)
	log.Info("[pipeline] %d listings on index, %d known, %d new", len(current), len(known), len(newIDs))

	todo := newIDs
	if p.opts.RetryFailed {
		retry, err := p.store.LoadRetry(ctx)
		if err != nil {
			return nil, fmt.Errorf("pipeline: load retry set: %w", err)
		}
		report.Retried = len(retry)
		todo = utils.NewIDSet(newIDs...).Union(utils.NewIDSet(retry...)).Sorted()
		if len(retry) > 0 {
			log.Info("[pipeline] Retrying %d previously failed listings", len(retry))
		}
	}

	if err := p.store.SaveKnown(ctx, updated); err != nil {
		return nil, fmt.Errorf("pipeline: save known set: %w", err)
	}

	done := utils.NewIDSet()
	for i, id := range todo {
		if err := ctx.Err(); err != nil {
			log.Warn("[pipeline] Interrupted, %d listings not processed", len(todo)-i)
			break
		}
		if p.process(ctx, log, id, notify, report) {
			done.Add(id)
		}
	}

	// Anything not processed successfully, including ids an interrupted run
	// never reached, stays in the retry set.
	if p.opts.RetryFailed {
		pending := utils.NewIDSet(todo...).Difference(done).Sorted()
		if err := p.store.SaveRetry(context.WithoutCancel(ctx), pending); err != nil {
			log.Error("[pipeline] Failed to save retry set: %v", err)
		}
	}

	report.FinishedAt = p.now()
	log.Info("[pipeline] Done: %d extracted, %d cached, %d failed, %d accepted, %d notified",
		report.Extracted, report.Cached, report.Failed, report.Accepted, report.Notified)
	return report, ctx.Err()
}

// process handles one listing and reports whether it was extracted (or
// already stored). Policy and notification outcomes do not affect the result.
func (p *Pipeline) process(ctx context.Context, log *utils.Logger, id string, notify bool, report *models.RunReport) bool {
	l, cached, err := p.extractor.Extract(ctx, id)
	if err == nil && !cached && ctx.Err() != nil {
		err = fmt.Errorf("pipeline: %s interrupted before it was stored: %w", id, ctx.Err())
	}
	if err != nil {
		log.Error("[pipeline] Skipping %s: %v", id, err)
		report.Failed++
		report.FailedIDs = append(report.FailedIDs, id)
		return false
	}

	if cached {
		report.Cached++
	} else {
		if err := p.store.Put(ctx, l); err != nil && !errors.Is(err, storage.ErrExists) {
			log.Error("[pipeline] Failed to store %s: %v", id, err)
			report.Failed++
			report.FailedIDs = append(report.FailedIDs, id)
			return false
		}
		report.Extracted++
	}

	d := p.policy.Decide(l)
	if p.decisions != nil {
		if err := p.decisions.WriteDecision(report.RunID, l, d); err != nil {
			log.Warn("[pipeline] Decision log write failed for %s: %v", id, err)
		}
	}

	if !d.Accepted {
		report.RejectReasons[d.Reason]++
		log.Info("[pipeline] Skipping notification for %s: %s", id, d.Reason)
		return true
	}
	report.Accepted++

	if !notify {
		log.Debug("[pipeline] %s accepted, notifications disabled", id)
		return true
	}

	msg := models.Notification{
		Channel:  d.Channel,
		Username: p.opts.Username,
		Icon:     p.opts.Icon,
		Text:     RenderMessage(l, p.opts.Routes, p.opts.BaseURL),
	}
	if err := p.notifier.Notify(ctx, msg); err != nil {
		log.Error("[pipeline] Notification for %s failed: %v", id, err)
		return true
	}
	report.Notified++
	log.Info("[pipeline] Notified %s to %s", id, d.Channel)
	return true
}

// Debug extracts one listing from the network, bypassing the store, and
// returns it with the decision the policy would make. Nothing is persisted
// and no notification is sent.
func (p *Pipeline) Debug(ctx context.Context, id string) (*models.Listing, models.Decision, error) {
	l, err := p.extractor.ExtractFresh(ctx, id)
	if err != nil {
		return nil, models.Decision{}, fmt.Errorf("pipeline: debug %q: %w", id, err)
	}
	return l, p.policy.Decide(l), nil
}
