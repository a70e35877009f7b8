package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"docs-agent/internal/chunker"
	"docs-agent/internal/config"
	"docs-agent/internal/loader"
	"docs-agent/internal/vectorstore"
)

const (
	fetchTimeout   = 30 * time.Second
	rebuildTimeout = 30 * time.Minute
	lastUpdateFile = "last_update.txt"
)

// ErrRefreshInProgress is returned when a refresh is requested while
// another one is still running. Concurrent refreshes are rejected, never
// interleaved.
var ErrRefreshInProgress = errors.New("a refresh is already in progress")

// Refresher periodically fetches fresh documentation snapshots and
// rebuilds the vector index. It is the only writer of the index.
type Refresher struct {
	cfg      *config.Config
	store    *vectorstore.Store
	splitter *chunker.Splitter
	client   *http.Client

	// single-flight guard around one full refresh cycle
	refreshMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a refresher. Start must be called to arm the schedule.
func New(cfg *config.Config, store *vectorstore.Store, splitter *chunker.Splitter) *Refresher {
	return &Refresher{
		cfg:      cfg,
		store:    store,
		splitter: splitter,
		client:   &http.Client{Timeout: fetchTimeout},
	}
}

// Start launches the scheduler loop in the background.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.run()
	log.Info().Str("frequency", r.cfg.Refresh.Frequency).Msg("Data refresher started")
}

// Stop shuts the scheduler down and waits for a running cycle to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	log.Info().Msg("Data refresher stopped")
}

func (r *Refresher) run() {
	defer r.wg.Done()
	for {
		next := r.nextRun(time.Now())
		timer := time.NewTimer(time.Until(next))
		log.Info().Time("next_refresh", next).Msg("Scheduled data refresh")

		select {
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
			if err := r.RefreshAll(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled data refresh failed")
			}
			cancel()
		}
	}
}

// nextRun computes the next scheduled off-peak slot after now: Sunday at
// the configured hour for weekly, the 1st of the month for monthly.
func (r *Refresher) nextRun(now time.Time) time.Time {
	hour := r.cfg.Refresh.Hour
	if strings.ToLower(r.cfg.Refresh.Frequency) == "monthly" {
		next := time.Date(now.Year(), now.Month(), 1, hour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
		return next
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	for next.Weekday() != time.Sunday || !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RefreshAll runs one full refresh cycle: fetch every snapshot, and only
// when all of them succeeded overwrite the local files and the refresh
// timestamp, then rechunk and rebuild the index. It is safe to call at
// any time; a cycle already in progress rejects the call.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	if !r.refreshMu.TryLock() {
		return ErrRefreshInProgress
	}
	defer r.refreshMu.Unlock()

	log.Info().Msg("Starting data refresh")

	fetched, err := r.fetchAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Snapshot fetch failed, keeping previous data")
		return err
	}

	if err := r.writeSnapshots(fetched); err != nil {
		return err
	}

	names := make([]string, 0, len(r.cfg.Data.Snapshots))
	for _, snap := range r.cfg.Data.Snapshots {
		names = append(names, snap.Name)
	}
	docs := loader.LoadSnapshots(r.cfg.Data.Dir, names)
	chunks, err := r.splitter.ChunkAll(docs)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		log.Warn().Msg("No chunks produced from snapshots, skipping rebuild")
		return nil
	}

	if err := r.store.Rebuild(ctx, chunks); err != nil {
		log.Error().Err(err).Msg("Index rebuild failed, previous index kept")
		return err
	}

	log.Info().Msg("Data refresh completed")
	return nil
}

// fetchAll downloads every configured snapshot into memory. Any failure
// aborts the whole fetch before local files are touched.
func (r *Refresher) fetchAll(ctx context.Context) (map[string][]byte, error) {
	fetched := make(map[string][]byte, len(r.cfg.Data.Snapshots))
	for _, snap := range r.cfg.Data.Snapshots {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, snap.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", snap.Name, err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", snap.Name, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", snap.Name, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: status %d", snap.Name, resp.StatusCode)
		}
		log.Info().Str("snapshot", snap.Name).Int("bytes", len(body)).Msg("Downloaded snapshot")
		fetched[snap.Name] = body
	}
	return fetched, nil
}

// writeSnapshots overwrites the local snapshot files and the refresh
// record. Called only after every fetch succeeded.
func (r *Refresher) writeSnapshots(fetched map[string][]byte) error {
	if err := os.MkdirAll(r.cfg.Data.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	for name, body := range fetched {
		path := filepath.Join(r.cfg.Data.Dir, name)
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return fmt.Errorf("failed to write snapshot %s: %w", name, err)
		}
	}
	stamp := time.Now().Format(time.RFC3339)
	stampPath := filepath.Join(r.cfg.Data.Dir, lastUpdateFile)
	if err := os.WriteFile(stampPath, []byte(stamp), 0o644); err != nil {
		return fmt.Errorf("failed to write refresh record: %w", err)
	}
	log.Info().Str("last_update", stamp).Msg("Snapshots updated")
	return nil
}

// LastRefreshedAt reads the persisted refresh record. It is observability
// only; the answering path never consults it.
func (r *Refresher) LastRefreshedAt() (time.Time, error) {
	data, err := os.ReadFile(filepath.Join(r.cfg.Data.Dir, lastUpdateFile))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
}
