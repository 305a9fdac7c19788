package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wtsr/backend/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeEphemeral is an in-memory EphemeralCache that records TTLs and ignores expiry
type fakeEphemeral struct {
	mu       sync.Mutex
	data     map[string]domain.CacheEntry
	ttls     map[string]time.Duration
	getError error
	setError error
	getCalls int
	setCalls int
}

func newFakeEphemeral() *fakeEphemeral {
	return &fakeEphemeral{
		data: make(map[string]domain.CacheEntry),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeEphemeral) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getError != nil {
		return nil, f.getError
	}
	entry, ok := f.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &entry, nil
}

func (f *fakeEphemeral) Set(ctx context.Context, key string, entry *domain.CacheEntry, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.setError != nil {
		return f.setError
	}
	f.data[key] = *entry
	f.ttls[key] = ttl
	return nil
}

func (f *fakeEphemeral) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	delete(f.ttls, key)
	return nil
}

// fakeProductStore is an in-memory ProductRepository
type fakeProductStore struct {
	mu          sync.Mutex
	records     map[string]domain.ProductRecord
	getError    error
	upsertError error
	getCalls    int
	upsertCalls int
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{records: make(map[string]domain.ProductRecord)}
}

func (f *fakeProductStore) Get(ctx context.Context, asin string) (*domain.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getError != nil {
		return nil, f.getError
	}
	record, ok := f.records[asin]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &record, nil
}

func (f *fakeProductStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.upsertError != nil {
		return f.upsertError
	}
	f.records[record.ASIN] = *record
	return nil
}

func (f *fakeProductStore) ListMissingImages(ctx context.Context, limit int) ([]domain.ProductRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ProductRecord
	for _, r := range f.records {
		if !r.HasImage() && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakeProductAPI returns a fixed result per ASIN and counts calls
type fakeProductAPI struct {
	mu      sync.Mutex
	results map[string]*domain.ProductImages
	calls   map[string]int
}

func newFakeProductAPI() *fakeProductAPI {
	return &fakeProductAPI{
		results: make(map[string]*domain.ProductImages),
		calls:   make(map[string]int),
	}
}

func (f *fakeProductAPI) FetchImages(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[asin]++
	images, ok := f.results[asin]
	if !ok {
		return nil, false
	}
	copied := *images
	return &copied, true
}

// staticResolver answers Resolve from a fixed map
type staticResolver struct {
	results map[string]*domain.ProductImages
	calls   []string
}

func (r *staticResolver) Resolve(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	r.calls = append(r.calls, asin)
	images, ok := r.results[asin]
	return images, ok
}

func (r *staticResolver) ForceRefresh(ctx context.Context, asin string) (*domain.ProductImages, bool) {
	return r.Resolve(ctx, asin)
}

func strPtr(s string) *string { return &s }
