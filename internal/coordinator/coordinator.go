// Package coordinator implements the session and quota machinery behind the
// download bot: token indirection for callback data, a TTL cache of
// subscription verdicts, admission control over concurrent fetches, per-user
// daily quotas and usage analytics. All state is in memory; the process
// starts empty.
//
// The Coordinator façade drives a request through
//
//	gate → token issue → quota → admission → fetch → cleanup
//
// and guarantees that no internal lock is ever held across the blocking
// membership or fetch calls, and that an acquired slot is released on every
// exit path.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"vidgate/entity"
	"vidgate/lib/sl"
)

const sweepInterval = 5 * time.Minute

// MembershipChecker answers whether a user belongs to a channel. Implemented
// by the Telegram gateway glue.
type MembershipChecker interface {
	IsChannelMember(ctx context.Context, channelId int64, userId int64) (entity.MemberStatus, error)
}

// Fetcher retrieves a media file capped at the given vertical resolution and
// returns the local path. May block for a long time; the coordinator bounds
// it with a timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string, height int) (string, error)
}

// Journal persists download events best-effort. A failing journal never
// fails the user-facing flow.
type Journal interface {
	SaveDownload(event *entity.DownloadEvent) error
}

type Config struct {
	MaxConcurrent int
	DailyLimit    int
	CacheTTL      time.Duration
	TokenTTL      time.Duration
	FetchTimeout  time.Duration
	MaxFileSize   int64
	Channels      []entity.Channel
}

type Coordinator struct {
	log       *slog.Logger
	conf      Config
	vault     *TokenVault
	gate      *GateCache
	admission *AdmissionGate
	quota     *QuotaLedger
	analytics *AnalyticsAggregator
	members   MembershipChecker
	fetcher   Fetcher
	journal   Journal
}

func New(conf Config, members MembershipChecker, fetcher Fetcher, journal Journal, log *slog.Logger) *Coordinator {
	return &Coordinator{
		log:       log.With(sl.Module("coordinator")),
		conf:      conf,
		vault:     NewTokenVault(conf.TokenTTL, log),
		gate:      NewGateCache(conf.CacheTTL),
		admission: NewAdmissionGate(conf.MaxConcurrent),
		quota:     NewQuotaLedger(conf.DailyLimit),
		analytics: NewAnalyticsAggregator(),
		members:   members,
		fetcher:   fetcher,
		journal:   journal,
	}
}

func (c *Coordinator) Start() {
	c.vault.StartSweeper(sweepInterval)
}

func (c *Coordinator) Stop() {
	c.vault.Stop()
}

// Allowed reports whether the user currently passes the subscription gate,
// honoring the cached verdict.
func (c *Coordinator) Allowed(ctx context.Context, userId int64) bool {
	c.analytics.OnActivity(userId)
	return c.checkGate(ctx, userId)
}

// Refresh forces a fresh membership check, bypassing the cached verdict.
// Used when the user claims to have just subscribed: a cached denial must
// not block re-verification.
func (c *Coordinator) Refresh(ctx context.Context, userId int64) bool {
	c.analytics.OnActivity(userId)
	return c.verify(ctx, userId)
}

// Submit runs the gate for an inbound URL and, if it passes, issues a token
// the quality keyboard can carry.
func (c *Coordinator) Submit(ctx context.Context, userId int64, url string) (string, error) {
	c.analytics.OnActivity(userId)
	if !c.checkGate(ctx, userId) {
		return "", ErrGateDenied
	}
	return c.vault.Store(url), nil
}

// Result is a successfully fetched file. The caller hands it off and then
// calls Discard to bound disk usage.
type Result struct {
	Path   string
	Url    string
	Height int
	Size   int64
}

func (r *Result) Discard() {
	_ = os.Remove(r.Path)
}

// Download drives a quality selection to a fetched file. Quota is charged as
// soon as the slot is granted, before the fetch outcome is known; a busy
// system never charges quota. The admission slot is released and any partial
// output removed on every failure path.
func (c *Coordinator) Download(ctx context.Context, userId int64, token string, height int) (*Result, error) {
	c.analytics.OnActivity(userId)

	url, ok := c.vault.Resolve(token)
	if !ok {
		return nil, ErrTokenNotFound
	}
	if !c.checkGate(ctx, userId) {
		return nil, ErrGateDenied
	}
	if !c.quota.CanConsume(userId) {
		return nil, ErrQuotaExceeded
	}
	if !c.admission.TryAcquire() {
		return nil, ErrSystemBusy
	}
	defer c.admission.Release()

	count := c.quota.Consume(userId)

	logger := c.log.With(
		sl.User(userId),
		slog.String("url", url),
		slog.Int("height", height),
	)
	logger.Info("starting download", slog.Int("daily_count", count))

	fctx, cancel := context.WithTimeout(ctx, c.conf.FetchTimeout)
	defer cancel()

	path, err := c.fetcher.Fetch(fctx, url, height)
	if err != nil {
		if path != "" {
			_ = os.Remove(path)
		}
		logger.Error("fetch failed", sl.Err(err))
		c.record(&entity.DownloadEvent{
			UserId: userId, Url: url, Height: height,
			Status: entity.DownloadFailed, Error: err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Error("downloaded file missing", sl.Err(err))
		c.record(&entity.DownloadEvent{
			UserId: userId, Url: url, Height: height,
			Status: entity.DownloadFailed, Error: err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, err)
	}
	if info.Size() > c.conf.MaxFileSize {
		_ = os.Remove(path)
		logger.Warn("file over size limit",
			slog.Int64("size", info.Size()),
			slog.Int64("limit", c.conf.MaxFileSize),
		)
		c.record(&entity.DownloadEvent{
			UserId: userId, Url: url, Height: height,
			Status: entity.DownloadOversize, SizeBytes: info.Size(),
		})
		return nil, ErrOversize
	}

	c.analytics.OnDownloadConfirmed(userId)
	c.record(&entity.DownloadEvent{
		UserId: userId, Url: url, Height: height,
		Status: entity.DownloadOk, SizeBytes: info.Size(),
	})
	logger.Info("download complete", slog.Int64("size", info.Size()))

	return &Result{Path: path, Url: url, Height: height, Size: info.Size()}, nil
}

// Remaining returns how many downloads the user may still start today.
func (c *Coordinator) Remaining(userId int64) int {
	return c.quota.Remaining(userId)
}

// QuotaResetIn returns the time until the daily quota rolls over.
func (c *Coordinator) QuotaResetIn() time.Duration {
	return c.quota.ResetIn()
}

// LoadSnapshot reports current admission gate usage.
func (c *Coordinator) LoadSnapshot() Load {
	return c.admission.Load()
}

// Summary aggregates the analytics state.
func (c *Coordinator) Summary() entity.UsageSummary {
	return c.analytics.Summary()
}

// checkGate consults the verdict cache and falls back to a full membership
// check on a miss.
func (c *Coordinator) checkGate(ctx context.Context, userId int64) bool {
	if subscribed, ok := c.gate.Check(userId); ok {
		return subscribed
	}
	return c.verify(ctx, userId)
}

// verify runs the external membership check for every required channel.
// Fail-closed: a non-member status on any channel, or any query failure,
// short-circuits the whole evaluation to "not subscribed". The blocking
// gateway calls run with no coordinator lock held.
func (c *Coordinator) verify(ctx context.Context, userId int64) bool {
	subscribed := true
	for _, channel := range c.conf.Channels {
		status, err := c.members.IsChannelMember(ctx, channel.Id, userId)
		if err != nil {
			c.log.Warn("membership check failed",
				sl.User(userId),
				slog.Int64("channel", channel.Id),
				sl.Err(err),
			)
			subscribed = false
			break
		}
		if !status.Subscribed() {
			subscribed = false
			break
		}
	}
	c.gate.Record(userId, subscribed)
	c.analytics.OnSubscriptionVerdict(userId, subscribed)
	return subscribed
}

// record writes a journal event in the background. Journal failures are
// logged and never propagated.
func (c *Coordinator) record(event *entity.DownloadEvent) {
	if c.journal == nil {
		return
	}
	event.Timestamp = time.Now()
	go func() {
		if err := c.journal.SaveDownload(event); err != nil {
			c.log.Warn("journal write failed", sl.Err(err))
		}
	}()
}
