package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/HeyImBrandon1/clawding/internal/config"
	"github.com/HeyImBrandon1/clawding/internal/handlers"
	"github.com/HeyImBrandon1/clawding/internal/models"
	"github.com/HeyImBrandon1/clawding/internal/routes"
	"github.com/HeyImBrandon1/clawding/internal/services"
	"github.com/HeyImBrandon1/clawding/pkg/utils"
)

// memStore is an in-memory FeedStore for handler tests.
type memStore struct {
	mu      sync.Mutex
	feeds   map[string]*models.Feed // keyed by slug
	updates []models.Update
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{feeds: make(map[string]*models.Feed)}
}

var errStoreDown = fmt.Errorf("store down")

func (s *memStore) FeedBySlug(_ context.Context, slug string) (*models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	f, ok := s.feeds[slug]
	if !ok {
		return nil, services.ErrFeedNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return false, errStoreDown
	}
	_, ok := s.feeds[slug]
	return ok, nil
}

func (s *memStore) CountFeedsByEmail(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, f := range s.feeds {
		if f.Email == email {
			count++
		}
	}
	return count, nil
}

func (s *memStore) CreateFeed(_ context.Context, slug, tokenHash, email string) (*models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeds[slug]; ok {
		return nil, services.ErrSlugTaken
	}
	f := &models.Feed{
		ID:        uuid.New(),
		Slug:      slug,
		TokenHash: tokenHash,
		Email:     email,
		Status:    models.FeedStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	s.feeds[slug] = f
	cp := *f
	return &cp, nil
}

func (s *memStore) SetFeedStatus(_ context.Context, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.feeds {
		if f.ID == id {
			f.Status = status
			return nil
		}
	}
	return services.ErrFeedNotFound
}

func (s *memStore) UpdateProfile(_ context.Context, id uuid.UUID, xHandle, websiteURL, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.feeds {
		if f.ID == id {
			f.XHandle = xHandle
			f.WebsiteURL = websiteURL
			f.Description = description
			return nil
		}
	}
	return services.ErrFeedNotFound
}

func (s *memStore) CreatePost(_ context.Context, feedID uuid.UUID, projectName, content string) (*models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := models.Update{
		ID:          uuid.New(),
		FeedID:      feedID,
		ProjectName: projectName,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	s.updates = append(s.updates, u)
	for _, f := range s.feeds {
		if f.ID == feedID {
			at := u.CreatedAt
			f.LastPostAt = &at
		}
	}
	return &u, nil
}

func (s *memStore) LatestPost(_ context.Context, feedID uuid.UUID) (*models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Update
	for i := range s.updates {
		u := &s.updates[i]
		if u.FeedID != feedID {
			continue
		}
		if latest == nil || u.CreatedAt.After(latest.CreatedAt) {
			latest = u
		}
	}
	if latest == nil {
		return nil, services.ErrNoPosts
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) DeletePost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.updates {
		if s.updates[i].ID == id {
			s.updates = append(s.updates[:i], s.updates[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) RecentPosts(_ context.Context, feedID uuid.UUID, limit int) ([]models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Update
	for _, u := range s.updates {
		if u.FeedID == feedID {
			out = append(out, u)
		}
	}
	sortUpdatesDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GlobalFeed(_ context.Context, limit, offset int) ([]models.FeedUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySlug := make(map[uuid.UUID]string)
	banned := make(map[uuid.UUID]bool)
	for slug, f := range s.feeds {
		bySlug[f.ID] = slug
		banned[f.ID] = f.Status == models.FeedStatusBanned
	}
	all := append([]models.Update(nil), s.updates...)
	sortUpdatesDesc(all)
	var out []models.FeedUpdate
	for _, u := range all {
		if banned[u.FeedID] {
			continue
		}
		out = append(out, models.FeedUpdate{
			ID: u.ID, Slug: bySlug[u.FeedID], ProjectName: u.ProjectName,
			Content: u.Content, CreatedAt: u.CreatedAt,
		})
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	stats := &models.Stats{TotalCoders: len(s.feeds), TotalPosts: len(s.updates)}
	for _, u := range s.updates {
		if !u.CreatedAt.Before(todayStart) {
			stats.PostsToday++
		}
	}
	return stats, nil
}

func (s *memStore) ActiveCoders(_ context.Context, since time.Time, limit int) ([]models.ActiveCoder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, u := range s.updates {
		if !u.CreatedAt.Before(since) {
			counts[u.FeedID]++
		}
	}
	var out []models.ActiveCoder
	for slug, f := range s.feeds {
		if n := counts[f.ID]; n > 0 && f.Status == models.FeedStatusActive {
			out = append(out, models.ActiveCoder{Slug: slug, PostCount: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostCount != out[j].PostCount {
			return out[i].PostCount > out[j].PostCount
		}
		return out[i].Slug < out[j].Slug
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Profiles(_ context.Context, limit int) ([]models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Feed
	for _, f := range s.feeds {
		if f.Status == models.FeedStatusActive && f.LastPostAt != nil {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastPostAt.After(*out[j].LastPostAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortUpdatesDesc(updates []models.Update) {
	sort.Slice(updates, func(i, j int) bool { return updates[i].CreatedAt.After(updates[j].CreatedAt) })
}

// fakeMailer records dispatched codes and can be told to fail.
type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  bool
	codes map[string]string // (email:slug) → last code
}

type sentMail struct {
	Email, Code, Slug string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{codes: make(map[string]string)}
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mailer down")
	}
	m.sent = append(m.sent, sentMail{Email: email, Code: code, Slug: slug})
	m.codes[email+":"+slug] = code
	return nil
}

func (m *fakeMailer) lastCode(email, slug string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email+":"+slug]
}

// testEnv bundles the full router with its fakes and the backing miniredis.
type testEnv struct {
	router *chi.Mux
	store  *memStore
	mailer *fakeMailer
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AdminToken:  "admin-test-token",
		SiteURL:     "https://clawding.app",
		Environment: "test",
	}
	store := newMemStore()
	mailer := newFakeMailer()
	h := handlers.New(cfg, store,
		services.NewClaimStore(rdb),
		services.NewRateLimiter(rdb),
		mailer,
		services.NewFeedHub(rdb))

	r := chi.NewRouter()
	routes.SetupRoutes(r, h)

	return &testEnv{router: r, store: store, mailer: mailer, mr: mr, rdb: rdb, cfg: cfg}
}

// do issues a JSON request against the router and decodes the response body.
func (e *testEnv) do(t *testing.T, method, path, ip, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if ip != "" {
		req.RemoteAddr = ip + ":12345"
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

// register runs a full claim+verify cycle and returns the issued token.
func (e *testEnv) register(t *testing.T, slug, email, ip string) string {
	t.Helper()

	rec, _ := e.do(t, http.MethodPost, "/api/claim", ip, "", map[string]string{"slug": slug, "email": email})
	require.Equal(t, http.StatusOK, rec.Code, "claim failed: %s", rec.Body.String())

	code := e.mailer.lastCode(email, slug)
	require.NotEmpty(t, code)

	rec, body := e.do(t, http.MethodPost, "/api/claim/verify", ip, "", map[string]string{
		"slug": slug, "email": email, "code": code,
	})
	require.Equal(t, http.StatusOK, rec.Code, "verify failed: %s", rec.Body.String())

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// seedFeed inserts a feed directly with a known token, bypassing the flow.
func (e *testEnv) seedFeed(t *testing.T, slug, email string) (string, *models.Feed) {
	t.Helper()

	token, err := utils.GenerateToken()
	require.NoError(t, err)
	hash, err := utils.HashSecret(token)
	require.NoError(t, err)

	feed, err := e.store.CreateFeed(context.Background(), slug, hash, email)
	require.NoError(t, err)
	return token, feed
}
