package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"github.com/hearthstay/server/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo counts lookups so tests can tell cache hits from database reads
type stubRepo struct {
	repository.ComponentRepository
	byID    map[string]*models.UIComponent
	lookups int
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*models.UIComponent, error) {
	s.lookups++
	if c, ok := s.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, repository.ErrComponentNotFound
}

func (s *stubRepo) GetByName(_ context.Context, name string) (*models.UIComponent, error) {
	s.lookups++
	for _, c := range s.byID {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrComponentNotFound
}

func newStub() *stubRepo {
	return &stubRepo{byID: map[string]*models.UIComponent{
		"abc": {ID: "abc", Name: "promo-banner", ComponentType: "banner", IsActive: true},
	}}
}

func TestResolveDisabledRef(t *testing.T) {
	repo := newStub()
	res := NewResolver(repo, nil).Resolve(context.Background(), Ref{})

	assert.Equal(t, StateIdle, res.State)
	assert.NoError(t, res.Err)
	assert.Nil(t, res.Descriptor)
	assert.Zero(t, repo.lookups)
}

func TestResolveAmbiguousRef(t *testing.T) {
	repo := newStub()
	res := NewResolver(repo, nil).Resolve(context.Background(), Ref{Name: "promo-banner", ID: "abc"})

	assert.Equal(t, StateError, res.State)
	assert.ErrorIs(t, res.Err, ErrAmbiguousRef)
	assert.Zero(t, repo.lookups)
}

func TestResolveByNameAndID(t *testing.T) {
	r := NewResolver(newStub(), nil)
	ctx := context.Background()

	res := r.Resolve(ctx, Ref{Name: "promo-banner"})
	require.Equal(t, StateSuccess, res.State)
	assert.Equal(t, "abc", res.Descriptor.ID)

	res = r.Resolve(ctx, Ref{ID: "abc"})
	require.Equal(t, StateSuccess, res.State)
	assert.Equal(t, "promo-banner", res.Descriptor.Name)
}

func TestResolveNotFound(t *testing.T) {
	res := NewResolver(newStub(), nil).Resolve(context.Background(), Ref{Name: "missing"})

	assert.Equal(t, StateError, res.State)
	assert.ErrorIs(t, res.Err, repository.ErrComponentNotFound)
	assert.Nil(t, res.Descriptor)
}

func TestResolveReadsThroughCache(t *testing.T) {
	logger.InitializeForTest()
	mr := miniredis.RunT(t)
	client := cache.WrapClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer client.Close()

	repo := newStub()
	r := NewResolver(repo, cache.NewComponentCache(client, time.Minute))
	ctx := context.Background()

	first := r.Resolve(ctx, Ref{Name: "promo-banner"})
	require.Equal(t, StateSuccess, first.State)
	assert.Equal(t, 1, repo.lookups)

	second := r.Resolve(ctx, Ref{ID: "abc"})
	require.Equal(t, StateSuccess, second.State)
	assert.Equal(t, 1, repo.lookups, "id lookup served from cache populated by name lookup")
	assert.Equal(t, "promo-banner", second.Descriptor.Name)
}

func TestResolveDegradesWhenCacheFails(t *testing.T) {
	logger.InitializeForTest()
	mr := miniredis.RunT(t)
	client := cache.WrapClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer client.Close()
	mr.SetError("ERR cache offline")

	repo := newStub()
	res := NewResolver(repo, cache.NewComponentCache(client, time.Minute)).Resolve(context.Background(), Ref{ID: "abc"})

	require.Equal(t, StateSuccess, res.State)
	assert.Equal(t, 1, repo.lookups)
}

func TestRefString(t *testing.T) {
	assert.Equal(t, "promo-banner", Ref{Name: "promo-banner"}.String())
	assert.Equal(t, "abc", Ref{ID: "abc"}.String())
	assert.False(t, Ref{}.Enabled())
}
