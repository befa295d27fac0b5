package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/courseflow/internal/failure"
	"github.com/rpggio/courseflow/internal/notice"
)

// ResolverOptions tunes import requests issued by the resolver.
type ResolverOptions struct {
	DestinationFolder string
}

// Resolver decides whether a course's content can be opened from the local
// store or has to be imported first, and carries out that decision.
type Resolver struct {
	store    Store
	tracker  *Tracker
	nav      Navigator
	notifier Notifier
	opts     ResolverOptions
	logger   *slog.Logger
}

// NewResolver creates a resolver that hands imports to tracker.
func NewResolver(store Store, tracker *Tracker, nav Navigator, notifier Notifier, opts ResolverOptions, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		store:    store,
		tracker:  tracker,
		nav:      nav,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// Decide picks USE_LOCAL only when a local copy exists and is at least as new
// as the version the course points to.
func Decide(ref Reference, local LocalDescriptor) Decision {
	if !local.Available {
		return DecisionStartImport
	}
	if local.PackageVersion < ref.PackageVersion {
		return DecisionStartImport
	}
	return DecisionUseLocal
}

// Resolve looks up ref in the local store and returns the decision without
// acting on it.
func (r *Resolver) Resolve(ctx context.Context, ref Reference) (Decision, error) {
	id := ref.Key()
	if id == "" {
		return "", ErrInvalidReference
	}
	local, err := r.store.DescribeLocal(ctx, id)
	if err != nil {
		return "", fmt.Errorf("describing local content: %w", err)
	}
	return Decide(ref, local), nil
}

// Open resolves ref and either opens it directly or imports it and waits for
// the import to finish. Failures that were already shown to the user are
// reported in the Resolution and also returned as an error.
func (r *Resolver) Open(ctx context.Context, ref Reference) (Resolution, error) {
	id := ref.Key()
	if id == "" {
		return Resolution{}, ErrInvalidReference
	}
	res := Resolution{ContentID: id}

	local, err := r.store.DescribeLocal(ctx, id)
	if err != nil {
		res.Failure = failure.Classify(err)
		if res.Failure == failure.KindNetworkAbsent {
			r.notifier.Notify(ctx, notice.NoInternet)
		} else {
			r.notifier.Notify(ctx, notice.ContentNotAvailable)
		}
		return res, fmt.Errorf("describing local content: %w", err)
	}

	res.Decision = Decide(ref, local)
	r.logger.Debug("content resolved", "content_id", id, "decision", res.Decision,
		"local_version", local.PackageVersion, "wanted_version", ref.PackageVersion)

	if res.Decision == DecisionUseLocal {
		if err := r.nav.OpenContent(ctx, ref); err != nil {
			return res, fmt.Errorf("opening local content: %w", err)
		}
		return res, nil
	}

	// Subscribe before the import starts so no event is missed.
	w := r.tracker.begin(ctx, ref)
	res.Statuses, err = r.store.Import(ctx, r.importRequest(ref))
	if err == nil {
		err = rejected(id, res.Statuses)
	}
	if err != nil {
		kind := failure.Classify(err)
		if kind == failure.KindNetworkAbsent {
			r.notifier.Notify(ctx, notice.NoInternet)
		} else {
			r.notifier.Notify(ctx, notice.CourseNotAvailable)
		}
		r.logger.Warn("content import request failed", "content_id", id, "error", err)

		// The store may still have finished the import before failing the call.
		if r.tracker.drain(ctx, w) {
			res.Import = TrackImported
			return res, nil
		}
		res.Failure = kind
		return res, fmt.Errorf("importing content: %w", err)
	}

	res.Import, err = r.tracker.wait(ctx, w)
	if err != nil {
		res.Failure = failure.Classify(err)
		return res, err
	}
	return res, nil
}

func (r *Resolver) importRequest(ref Reference) ImportRequest {
	return ImportRequest{
		Identifier:        ref.Key(),
		PackageVersion:    ref.PackageVersion,
		DestinationFolder: r.opts.DestinationFolder,
		IsChildContent:    true,
		Correlation:       []Correlation{{ID: ref.Key(), Type: "Course"}},
	}
}

func rejected(id string, statuses []ImportResult) error {
	for _, s := range statuses {
		if s.Identifier != id {
			continue
		}
		if s.Status == ImportNotFound || s.Status == ImportFailed {
			return fmt.Errorf("%w: %s", ErrImportRejected, s.Status)
		}
	}
	return nil
}
