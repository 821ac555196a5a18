package updates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/domain"
	"github.com/acedatacloud/dashsnap/internal/utils"
)

const legacyFileName = "daily-updates.json"

// Store manages the day-bucket changelog directory: an index document
// listing known days plus one <YYYY-MM-DD>.json bucket per day.
type Store struct {
	indexPath string
	dir       string
	dryRun    bool
	logger    *utils.Logger

	index   *domain.UpdatesIndex
	buckets map[string][]domain.UpdateItem
	urls    map[string]struct{}
	touched map[string]struct{}
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// IndexPath locates the index document; day buckets live next to it.
	IndexPath string

	// DryRun suppresses all writes, including legacy migration.
	DryRun bool

	Logger *utils.Logger
}

// NewStore creates a store rooted at the directory of IndexPath.
func NewStore(opts StoreOptions) *Store {
	path := utils.ExpandPath(opts.IndexPath)
	return &Store{
		indexPath: path,
		dir:       filepath.Dir(path),
		dryRun:    opts.DryRun,
		logger:    opts.Logger,
		buckets:   make(map[string][]domain.UpdateItem),
		urls:      make(map[string]struct{}),
		touched:   make(map[string]struct{}),
	}
}

// Open loads the index and every known day bucket, collecting the URL set
// that defines item identity. When the index is missing but a legacy
// combined document exists one directory up, the legacy items are split
// into day buckets first.
func (s *Store) Open() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create updates directory %s: %w", s.dir, err)
	}

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if err := index.Normalize(); err != nil {
		return fmt.Errorf("updates index %s: %w", s.indexPath, err)
	}
	s.index = index
	s.index.Days = domain.SortedDayKeys(append(index.Days, s.scanDayFiles()...))

	for _, day := range s.index.Days {
		items := s.loadDay(day)
		s.buckets[day] = items
		for _, it := range items {
			if u := strings.TrimSpace(it.URL); u != "" {
				s.urls[u] = struct{}{}
			}
		}
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("dir", s.dir).
			Int("days", len(s.index.Days)).
			Int("urls", len(s.urls)).
			Msg("Updates store loaded")
	}
	return nil
}

func (s *Store) loadIndex() (*domain.UpdatesIndex, error) {
	data, err := os.ReadFile(s.indexPath)
	if errors.Is(err, fs.ErrNotExist) {
		return s.migrateLegacy()
	}
	if err != nil {
		return nil, fmt.Errorf("read updates index %s: %w", s.indexPath, err)
	}
	var index domain.UpdatesIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse updates index %s: %w", s.indexPath, err)
	}
	return &index, nil
}

type legacyItem struct {
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
	Summary string   `json:"summary,omitempty"`
}

type legacyDocument struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Items    []legacyItem `json:"items"`
}

// migrateLegacy splits the old single-document changelog into per-day
// bucket files and builds an index from it. The legacy file is removed
// once the split is written.
func (s *Store) migrateLegacy() (*domain.UpdatesIndex, error) {
	legacyPath := filepath.Join(filepath.Dir(s.dir), legacyFileName)

	data, err := os.ReadFile(legacyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewUpdatesIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy updates %s: %w", legacyPath, err)
	}

	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse legacy updates %s: %w", legacyPath, err)
	}
	if doc.Items == nil {
		return domain.NewUpdatesIndex(), nil
	}

	byDay := make(map[string][]domain.UpdateItem)
	for _, it := range doc.Items {
		day := strings.TrimSpace(it.Date)
		if !domain.IsDayKey(day) {
			continue
		}
		tags := it.Tags
		if tags == nil {
			tags = []string{}
		}
		byDay[day] = append(byDay[day], domain.UpdateItem{
			Title:   it.Title,
			URL:     it.URL,
			Tags:    tags,
			Summary: it.Summary,
		})
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	if !s.dryRun {
		for _, day := range days {
			bucket := &domain.DayBucket{Schema: domain.DaySchemaRef, Date: day, Items: byDay[day]}
			if err := utils.WriteJSONAtomic(s.dayPath(day), bucket); err != nil {
				return nil, fmt.Errorf("write migrated day %s: %w", day, err)
			}
		}
		if err := os.Remove(legacyPath); err != nil && s.logger != nil {
			s.logger.Warn().Err(err).Str("path", legacyPath).Msg("Failed to delete legacy updates file")
		}
	}

	index := domain.NewUpdatesIndex()
	if t := strings.TrimSpace(doc.Title); t != "" {
		index.Title = t
	}
	index.Subtitle = doc.Subtitle
	index.Days = days

	if s.logger != nil {
		s.logger.Info().
			Str("from", legacyPath).
			Int("days", len(days)).
			Msg("Migrated legacy daily updates document")
	}
	return index, nil
}

// scanDayFiles lists the day keys that have a bucket file on disk.
func (s *Store) scanDayFiles() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var days []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		day := strings.TrimSuffix(e.Name(), ".json")
		if domain.IsDayKey(day) {
			days = append(days, day)
		}
	}
	return days
}

// loadDay reads one bucket. A malformed document drops the whole day with
// a warning so a single bad file cannot block the sync.
func (s *Store) loadDay(day string) []domain.UpdateItem {
	path := s.dayPath(day)
	var bucket domain.DayBucket
	if err := utils.ReadJSONFile(path, &bucket); err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.logger != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to load day bucket")
		}
		return nil
	}
	if err := bucket.Normalize(day); err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Invalid day bucket")
		}
		return nil
	}
	return bucket.Items
}

// HasURL reports whether an item with this URL exists anywhere in the store.
func (s *Store) HasURL(url string) bool {
	_, ok := s.urls[strings.TrimSpace(url)]
	return ok
}

// URLCount returns the number of distinct item URLs loaded.
func (s *Store) URLCount() int {
	return len(s.urls)
}

// Days returns the known day keys, newest first.
func (s *Store) Days() []string {
	if s.index == nil {
		return nil
	}
	return append([]string(nil), s.index.Days...)
}

// Items returns the loaded bucket for a day, newest first.
func (s *Store) Items(day string) []domain.UpdateItem {
	return append([]domain.UpdateItem(nil), s.buckets[day]...)
}

// Addition pairs a new update with its occurrence time, which selects the
// day bucket and the position within it.
type Addition struct {
	At   time.Time
	Item domain.UpdateItem
}

// Merge files additions into their day buckets. New items go to the front
// of their bucket, newest first; existing items keep their relative order.
// URLs already present anywhere in the store are skipped. Returns the URLs
// actually added, newest day first.
func (s *Store) Merge(adds []Addition) []string {
	if len(adds) == 0 {
		return nil
	}

	byDay := make(map[string][]Addition)
	for _, add := range adds {
		day := domain.DayKey(add.At)
		byDay[day] = append(byDay[day], add)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	var added []string
	for _, day := range days {
		group := byDay[day]
		sort.SliceStable(group, func(i, j int) bool { return group[i].At.After(group[j].At) })

		inserts := make([]domain.UpdateItem, 0, len(group))
		insertedURLs := make(map[string]struct{}, len(group))
		for _, add := range group {
			url := strings.TrimSpace(add.Item.URL)
			if url == "" {
				continue
			}
			if _, dup := s.urls[url]; dup {
				continue
			}
			inserts = append(inserts, add.Item)
			insertedURLs[url] = struct{}{}
			s.urls[url] = struct{}{}
			added = append(added, url)
		}
		if len(inserts) == 0 {
			continue
		}

		existing := s.buckets[day]
		kept := make([]domain.UpdateItem, 0, len(existing))
		for _, it := range existing {
			if _, replaced := insertedURLs[strings.TrimSpace(it.URL)]; replaced {
				continue
			}
			kept = append(kept, it)
		}
		s.buckets[day] = append(inserts, kept...)
		s.touched[day] = struct{}{}
	}
	return added
}

// TouchedDays returns the days modified by Merge, newest first.
func (s *Store) TouchedDays() []string {
	days := make([]string, 0, len(s.touched))
	for day := range s.touched {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days
}

// Persist writes modified day buckets, then rebuilds the index day list
// from the bucket files actually on disk and writes the index. Buckets go
// first so the index never references a missing day file.
func (s *Store) Persist() error {
	if s.dryRun {
		return nil
	}

	for _, day := range s.TouchedDays() {
		items := s.buckets[day]
		if items == nil {
			items = []domain.UpdateItem{}
		}
		bucket := &domain.DayBucket{Schema: domain.DaySchemaRef, Date: day, Items: items}
		if err := utils.WriteJSONAtomic(s.dayPath(day), bucket); err != nil {
			return fmt.Errorf("write day bucket %s: %w", day, err)
		}
	}

	s.index.Days = domain.SortedDayKeys(s.scanDayFiles())
	if err := utils.WriteJSONAtomic(s.indexPath, s.index); err != nil {
		return fmt.Errorf("write updates index: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug().
			Int("buckets", len(s.touched)).
			Int("days", len(s.index.Days)).
			Msg("Updates store persisted")
	}
	return nil
}

func (s *Store) dayPath(day string) string {
	return filepath.Join(s.dir, day+".json")
}
