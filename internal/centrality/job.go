package centrality

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/confrec/confrec/internal/graph"
	"github.com/confrec/confrec/internal/store"
)

// MembershipSource provides the membership set the co-service graph is built from.
type MembershipSource interface {
	ListMemberships(ctx context.Context) ([]store.Membership, error)
}

// JobMetrics provides centralized background job metrics tracking.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// RefreshJobConfig configures the centrality refresh job.
type RefreshJobConfig struct {
	// Interval is the duration between refresh cycles.
	Interval time.Duration
	// Timeout for each refresh cycle.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// DefaultRefreshInterval is the default interval between refresh cycles.
const DefaultRefreshInterval = 5 * time.Minute

// DefaultRefreshTimeout is the default timeout for a single refresh cycle.
const DefaultRefreshTimeout = 30 * time.Second

// jobTypeCentralityRefresh labels this job in the centralized job metrics.
const jobTypeCentralityRefresh = "centrality_refresh"

// RefreshJob periodically rebuilds the co-service graph from the store and
// refreshes the centrality cache when the graph fingerprint changed. This is
// the invalidation path for ingestion writes: the graph is rebuilt whole, not
// incrementally patched, and queries between cycles keep hitting the cache.
type RefreshJob struct {
	config RefreshJobConfig
	source MembershipSource
	cache  *Cache

	mu              sync.Mutex
	running         bool
	stopCh          chan struct{}
	doneCh          chan struct{}
	lastFingerprint string
}

// NewRefreshJob creates a new centrality refresh job.
func NewRefreshJob(config RefreshJobConfig, source MembershipSource, cache *Cache) *RefreshJob {
	if config.Interval == 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRefreshTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &RefreshJob{
		config: config,
		source: source,
		cache:  cache,
	}
}

// Start begins the periodic refresh job.
// Returns immediately; the job runs in a background goroutine.
func (j *RefreshJob) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the refresh job to stop and waits for it to finish.
func (j *RefreshJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *RefreshJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *RefreshJob) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("centrality refresh job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("centrality refresh job stopping due to stop signal")
			return
		case <-ticker.C:
			j.RefreshNow(ctx)
		}
	}
}

// RefreshNow rebuilds the graph and refreshes the cache immediately without
// waiting for the ticker. Used at startup to warm the cache and in tests.
func (j *RefreshJob) RefreshNow(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	start := time.Now()

	memberships, err := j.source.ListMemberships(ctx)
	if err != nil {
		j.config.Logger.Error("failed to load memberships for centrality refresh", "error", err)
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobErrors(jobTypeCentralityRefresh, "store_error")
			j.config.JobMetrics.IncJobsTotal(jobTypeCentralityRefresh, "failure")
		}
		return
	}

	g := graph.Build(memberships)
	res := j.cache.Get(g)

	j.mu.Lock()
	changed := res.Fingerprint != j.lastFingerprint
	j.lastFingerprint = res.Fingerprint
	j.mu.Unlock()

	duration := time.Since(start).Seconds()
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobsTotal(jobTypeCentralityRefresh, "success")
		j.config.JobMetrics.ObserveJobDuration(jobTypeCentralityRefresh, duration)
	}

	if changed {
		j.config.Logger.Info("co-service graph changed",
			"fingerprint", res.Fingerprint,
			"nodes", g.NodeCount(),
			"memberships", len(memberships),
			"duration_seconds", duration)
	} else {
		j.config.Logger.Debug("co-service graph unchanged",
			"fingerprint", res.Fingerprint,
			"duration_seconds", duration)
	}
}
