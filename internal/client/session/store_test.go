package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/client/models"
	"github.com/dmitrijs2005/docvault/internal/client/storage"
	"github.com/dmitrijs2005/docvault/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- fake API client ----

type fakeAPI struct {
	mu    sync.Mutex
	token string

	loginFn    func(email, password string) (*api.AuthResult, error)
	registerFn func(req api.RegisterRequest) (*api.AuthResult, error)
}

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAPI) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*api.AuthResult, error) {
	return f.loginFn(email, password)
}

func (f *fakeAPI) Register(_ context.Context, req api.RegisterRequest) (*api.AuthResult, error) {
	return f.registerFn(req)
}

func (f *fakeAPI) ForgotPassword(context.Context, string) (string, error) { return "", nil }
func (f *fakeAPI) VerifyOTP(context.Context, string, string) error        { return nil }
func (f *fakeAPI) ResetPassword(context.Context, string, string) (string, error) {
	return "", nil
}
func (f *fakeAPI) ListDocuments(context.Context) ([]models.Document, error) { return nil, nil }
func (f *fakeAPI) GetDocument(context.Context, string) (*models.Document, error) {
	return nil, nil
}
func (f *fakeAPI) UploadDocument(context.Context, api.Upload) (*models.Document, error) {
	return nil, nil
}
func (f *fakeAPI) UpdateDocument(context.Context, string, api.Upload) error { return nil }
func (f *fakeAPI) DeleteDocument(context.Context, string) error             { return nil }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authResult(id, token string) *api.AuthResult {
	return &api.AuthResult{
		User:  models.User{Id: id, Email: "a@x.com"},
		Token: token,
	}
}

// ---- tests ----

func TestLogin_SuccessSetsPairAndPersists(t *testing.T) {
	ctx := context.Background()
	f := &fakeAPI{loginFn: func(email, password string) (*api.AuthResult, error) {
		require.Equal(t, "a@x.com", email)
		require.Equal(t, "p", password)
		return authResult("1", "t1"), nil
	}}
	repo := storage.NewMemoryRepository()
	s := NewStore(f, repo, testLogger())

	require.NoError(t, s.Login(ctx, "a@x.com", "p"))

	require.True(t, s.Authenticated())
	require.Equal(t, "1", s.User().Id)
	require.Equal(t, "t1", s.Token())
	require.Equal(t, StatusIdle, s.Status())
	require.Empty(t, s.LastError())
	require.Equal(t, "t1", f.currentToken())

	rawUser, err := repo.Get(ctx, "user")
	require.NoError(t, err)
	require.Contains(t, string(rawUser), `"_id":"1"`)
	rawToken, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "t1", string(rawToken))
}

func TestRegister_SameContractAsLogin(t *testing.T) {
	ctx := context.Background()
	f := &fakeAPI{registerFn: func(req api.RegisterRequest) (*api.AuthResult, error) {
		require.Equal(t, "Alice", req.Name)
		return authResult("2", "t2"), nil
	}}
	repo := storage.NewMemoryRepository()
	s := NewStore(f, repo, testLogger())

	require.NoError(t, s.Register(ctx, api.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "p"}))
	require.True(t, s.Authenticated())
	require.Equal(t, "t2", s.Token())

	rawToken, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "t2", string(rawToken))
}

func TestLogin_FailureSurfacesServerMessage(t *testing.T) {
	f := &fakeAPI{loginFn: func(string, string) (*api.AuthResult, error) {
		return nil, &api.Error{Status: 400, Msg: "Invalid credentials"}
	}}
	s := NewStore(f, storage.NewMemoryRepository(), testLogger())

	err := s.Login(context.Background(), "a@x.com", "wrong")
	require.Error(t, err)
	require.Equal(t, StatusError, s.Status())
	require.Equal(t, "Invalid credentials", s.LastError())
	require.False(t, s.Authenticated())
	require.Empty(t, s.Token())
}

func TestLogin_FailureWithoutMessageUsesFallback(t *testing.T) {
	f := &fakeAPI{loginFn: func(string, string) (*api.AuthResult, error) {
		return nil, api.ErrUnavailable
	}}
	s := NewStore(f, storage.NewMemoryRepository(), testLogger())

	require.Error(t, s.Login(context.Background(), "a@x.com", "p"))
	require.Equal(t, "Login failed", s.LastError())

	f.registerFn = func(api.RegisterRequest) (*api.AuthResult, error) {
		return nil, api.ErrUnavailable
	}
	require.Error(t, s.Register(context.Background(), api.RegisterRequest{}))
	require.Equal(t, "Registration failed", s.LastError())
}

func TestLogout_ClearsEverythingAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := &fakeAPI{loginFn: func(string, string) (*api.AuthResult, error) {
		return authResult("1", "t1"), nil
	}}
	repo := storage.NewMemoryRepository()
	s := NewStore(f, repo, testLogger())

	require.NoError(t, s.Login(ctx, "a@x.com", "p"))
	require.NoError(t, s.Logout(ctx))

	require.False(t, s.Authenticated())
	require.Nil(t, s.User())
	require.Empty(t, s.Token())
	require.Empty(t, f.currentToken())

	rawUser, err := repo.Get(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, rawUser)
	rawToken, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, rawToken)

	// already logged out: still fine
	require.NoError(t, s.Logout(ctx))
}

func TestConcurrentLogins_LastInitiatedWins(t *testing.T) {
	ctx := context.Background()

	startedA := make(chan struct{})
	startedB := make(chan struct{})
	releaseA := make(chan struct{})
	releaseB := make(chan struct{})

	var calls int
	var mu sync.Mutex
	f := &fakeAPI{}
	f.loginFn = func(email, _ string) (*api.AuthResult, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(startedA)
			<-releaseA
			return authResult("A", "tA"), nil
		}
		close(startedB)
		<-releaseB
		return authResult("B", "tB"), nil
	}

	repo := storage.NewMemoryRepository()
	s := NewStore(f, repo, testLogger())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = s.Login(ctx, "a@x.com", "p")
	}()
	// the first call must reach the fake before the second is initiated
	<-startedA

	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = s.Login(ctx, "a@x.com", "p")
	}()
	<-startedB

	// resolve out of order: B (initiated last) first, then A
	close(releaseB)
	close(releaseA)
	wg.Wait()

	require.NoError(t, errs[1])
	require.ErrorIs(t, errs[0], ErrStaleResponse)
	require.Equal(t, "tB", s.Token())
	require.Equal(t, "B", s.User().Id)

	rawToken, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Equal(t, "tB", string(rawToken))
}

func TestLoginResolvingAfterLogout_IsDiscarded(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	started := make(chan struct{})

	f := &fakeAPI{loginFn: func(string, string) (*api.AuthResult, error) {
		close(started)
		<-release
		return authResult("1", "t1"), nil
	}}
	repo := storage.NewMemoryRepository()
	s := NewStore(f, repo, testLogger())

	done := make(chan error, 1)
	go func() { done <- s.Login(ctx, "a@x.com", "p") }()
	<-started

	require.NoError(t, s.Logout(ctx))
	close(release)
	require.ErrorIs(t, <-done, ErrStaleResponse)

	require.False(t, s.Authenticated())
	rawToken, err := repo.Get(ctx, "token")
	require.NoError(t, err)
	require.Nil(t, rawToken)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	f := &fakeAPI{}

	t.Run("valid pair", func(t *testing.T) {
		repo := storage.NewMemoryRepository()
		require.NoError(t, repo.Set(ctx, "user", []byte(`{"_id":"1","email":"a@x.com"}`)))
		require.NoError(t, repo.Set(ctx, "token", []byte("t1")))

		s := NewStore(f, repo, testLogger())
		require.NoError(t, s.Restore(ctx))
		require.True(t, s.Authenticated())
		require.Equal(t, "t1", s.Token())
		require.Equal(t, "t1", f.currentToken())
	})

	t.Run("nothing persisted", func(t *testing.T) {
		s := NewStore(f, storage.NewMemoryRepository(), testLogger())
		require.NoError(t, s.Restore(ctx))
		require.False(t, s.Authenticated())
	})

	t.Run("malformed user is wiped, not fatal", func(t *testing.T) {
		repo := storage.NewMemoryRepository()
		require.NoError(t, repo.Set(ctx, "user", []byte(`{broken`)))
		require.NoError(t, repo.Set(ctx, "token", []byte("t1")))

		s := NewStore(f, repo, testLogger())
		require.NoError(t, s.Restore(ctx))
		require.False(t, s.Authenticated())

		raw, err := repo.Get(ctx, "token")
		require.NoError(t, err)
		require.Nil(t, raw)
	})

	t.Run("half-present pair is wiped", func(t *testing.T) {
		repo := storage.NewMemoryRepository()
		require.NoError(t, repo.Set(ctx, "token", []byte("t1")))

		s := NewStore(f, repo, testLogger())
		require.NoError(t, s.Restore(ctx))
		require.False(t, s.Authenticated())

		raw, err := repo.Get(ctx, "token")
		require.NoError(t, err)
		require.Nil(t, raw)
	})
}

func TestEpoch_AdvancesOnSessionBoundaries(t *testing.T) {
	ctx := context.Background()
	f := &fakeAPI{loginFn: func(string, string) (*api.AuthResult, error) {
		return authResult("1", "t1"), nil
	}}
	s := NewStore(f, storage.NewMemoryRepository(), testLogger())

	e0 := s.Epoch()
	require.NoError(t, s.Login(ctx, "a@x.com", "p"))
	e1 := s.Epoch()
	require.Greater(t, e1, e0)

	require.NoError(t, s.Logout(ctx))
	require.Greater(t, s.Epoch(), e1)

	// a failed login does not change the epoch
	f.loginFn = func(string, string) (*api.AuthResult, error) {
		return nil, errors.New("nope")
	}
	before := s.Epoch()
	require.Error(t, s.Login(ctx, "a@x.com", "p"))
	require.Equal(t, before, s.Epoch())
}
