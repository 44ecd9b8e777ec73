package catalog

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
	"github.com/GriffinCanCode/cardscan/internal/phash"
	"github.com/GriffinCanCode/cardscan/internal/trace"
)

// Options tunes Load.
type Options struct {
	Workers    int
	Extensions []string
}

// LoadStats summarises a Load call.
type LoadStats struct {
	Loaded   int           `json:"loaded"`
	Skipped  int           `json:"skipped"`
	Sets     int           `json:"sets"`
	Duration time.Duration `json:"duration"`
}

type job struct {
	slot int
	set  string
	path string
}

// Load reads root/<set>/<card>.<ext> into a catalog. Each immediate
// subdirectory of root is a set label. Entries keep enumeration order.
// Files that cannot be decoded are logged and skipped; only an unreadable
// root or a cancelled context fails the load.
func Load(ctx context.Context, root string, opts Options) (*Catalog, LoadStats, error) {
	ctx, span := trace.StartSpan(ctx, "catalog.load")
	defer span.End()
	log := trace.Logger(ctx)
	start := time.Now()

	jobs, sets, err := enumerate(ctx, root, opts.Extensions)
	if err != nil {
		return nil, LoadStats{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]*Entry, len(jobs))
	queue := make(chan job)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				entry, err := loadEntry(j)
				if err != nil {
					log.Warn("skipping catalog entry", "path", j.path, "error", err)
					continue
				}
				results[j.slot] = entry
			}
		}()
	}

	cancelled := false
feed:
	for _, j := range jobs {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case queue <- j:
		}
	}
	close(queue)
	wg.Wait()

	if cancelled {
		return nil, LoadStats{}, apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "catalog load cancelled")
	}

	entries := make([]*Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, e)
		}
	}

	stats := LoadStats{
		Loaded:   len(entries),
		Skipped:  len(jobs) - len(entries),
		Sets:     sets,
		Duration: time.Since(start),
	}
	span.SetAttr("loaded", stats.Loaded)
	span.SetAttr("skipped", stats.Skipped)
	log.Info("catalog loaded", "root", root, "loaded", stats.Loaded, "skipped", stats.Skipped,
		"sets", stats.Sets, "duration", stats.Duration)
	return New(entries...), stats, nil
}

// enumerate lists candidate files set by set, in directory order.
func enumerate(ctx context.Context, root string, exts []string) ([]job, int, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	accept := make(map[string]bool, len(exts))
	for _, e := range exts {
		accept[strings.ToLower(e)] = true
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CatalogLoadFailed, "read catalog root").
			WithMetadata("root", root)
	}

	var jobs []job
	sets := 0
	for _, d := range dirs {
		if !d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			continue
		}
		setDir := filepath.Join(root, d.Name())
		files, err := os.ReadDir(setDir)
		if err != nil {
			trace.Logger(ctx).Warn("skipping catalog set", "set", d.Name(), "error", err)
			continue
		}
		sets++
		for _, f := range files {
			if f.IsDir() || !accept[strings.ToLower(filepath.Ext(f.Name()))] {
				continue
			}
			jobs = append(jobs, job{slot: len(jobs), set: d.Name(), path: filepath.Join(setDir, f.Name())})
		}
	}
	return jobs, sets, nil
}

func loadEntry(j job) (*Entry, error) {
	f, err := os.Open(j.path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CatalogLoadFailed, "open card image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ImageDecodeFailed, "decode card image")
	}
	fp, err := phash.Hash(img)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(j.path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return &Entry{
		ID:          j.set + IDSeparator + name,
		Set:         j.set,
		Name:        name,
		Path:        j.path,
		Image:       img,
		Fingerprint: fp,
	}, nil
}
