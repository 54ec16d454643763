// Package reconciler reclaims orphaned asset files: files under the upload
// root that no menu item references anymore, typically left behind when a
// database write failed after the file landed on disk, or a file deletion
// failed after the row was gone.
package reconciler

import (
	"context"
	"log"
	"path"
	"time"
)

type ReferenceLister interface {
	ListImageHandles(ctx context.Context) ([]string, error)
}

type FileStore interface {
	List() ([]string, error)
	Delete(handle string) error
}

type Reconciler struct {
	refs    ReferenceLister
	files   FileStore
	hour    int
	timeout time.Duration
}

func New(refs ReferenceLister, files FileStore, hour int) *Reconciler {
	return &Reconciler{
		refs:    refs,
		files:   files,
		hour:    hour,
		timeout: time.Minute,
	}
}

// Run sweeps once a day at the configured hour until the context is
// cancelled. It is safe to run concurrently with request traffic: only files
// absent from the authoritative reference set are ever deleted.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(untilNextRun(time.Now(), r.hour))
		select {
		case <-timer.C:
			sweepCtx, cancel := context.WithTimeout(ctx, r.timeout)
			if _, err := r.Sweep(sweepCtx); err != nil {
				log.Printf("reconciler: sweep failed: %v", err)
			}
			cancel()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Sweep deletes every file on disk that no menu item references and returns
// the number of files reclaimed. Individual deletion failures are logged and
// skipped; a failure to enumerate either side aborts the sweep, because
// deleting against a partial reference set could reclaim live files.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	onDisk, err := r.files.List()
	if err != nil {
		return 0, err
	}

	handles, err := r.refs.ListImageHandles(ctx)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		referenced[path.Base(h)] = struct{}{}
	}

	reclaimed := 0
	for _, name := range onDisk {
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := r.files.Delete(name); err != nil {
			log.Printf("reconciler: failed to delete orphan %s: %v", name, err)
			continue
		}
		reclaimed++
	}

	log.Printf("reconciler: reclaimed %d orphaned files", reclaimed)
	return reclaimed, nil
}

func untilNextRun(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
