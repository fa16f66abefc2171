package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/pool"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	"github.com/riskibarqy/pickem/internal/platform/logging"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	testJobToken = "job-secret"
	testSeasonID = "2030-2031"
)

type stubVerifier map[string]account.Principal

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (account.Principal, error) {
	principal, ok := v[token]
	if !ok {
		return account.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/dialog/oauth?state=" + url.QueryEscape(state)
}

func (stubProvider) Exchange(_ context.Context, code string) (usecase.ExternalProfile, error) {
	if code != "good-code" {
		return usecase.ExternalProfile{}, fmt.Errorf("bad code")
	}
	return usecase.ExternalProfile{
		Provider:   "facebook",
		ExternalID: "fb-1",
		Email:      "kim@example.com",
		FirstName:  "Kim",
		LastName:   "Lee",
	}, nil
}

type stubSessions struct{}

func (stubSessions) Issue(principal account.Principal) (string, time.Time, error) {
	return "session-" + principal.AccountID, time.Now().Add(time.Hour), nil
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%03d", g.next), nil
}

type apiEnv struct {
	router      http.Handler
	accountRepo *memory.AccountRepository
	slateID     string
}

// newAPIEnv seeds one season whose first slate kicks off two days from now
// with NO@GB as its only game.
func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	logger := logging.NewNop()

	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	seasonRepo := memory.NewSeasonRepository()
	gameRepo := memory.NewGameRepository()
	poolRepo := memory.NewPoolRepository()
	pickRepo := memory.NewPickRepository()
	accountRepo := memory.NewAccountRepository()

	now := time.Now().UTC()
	kickoff := now.Add(48 * time.Hour)
	slateID := season.SlateKey(testSeasonID, 1)
	_, err := seasonRepo.Upsert(ctx, season.Season{
		ID:        testSeasonID,
		Name:      testSeasonID,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(150 * 24 * time.Hour),
	})
	require.NoError(t, err)
	_, err = seasonRepo.UpsertSlate(ctx, season.Slate{
		ID: slateID, SeasonID: testSeasonID, Ordinal: 1, Name: season.SlateName(1),
		StartAt: kickoff, EndAt: kickoff.Add(5 * time.Hour),
	})
	require.NoError(t, err)
	_, err = gameRepo.Upsert(ctx, game.Game{
		ID: game.Key(slateID, "no", "gb"), SlateID: slateID, SeasonID: testSeasonID,
		HomeTeamID: "gb", AwayTeamID: "no", StartAt: kickoff,
	})
	require.NoError(t, err)

	for _, id := range []string{"acc-manager", "acc-player", "acc-outsider"} {
		_, _, err := accountRepo.UpsertByExternalID(ctx, account.Account{
			ID: id, Email: id + "@example.com", FirstName: id, Provider: "facebook", ExternalID: "fb-" + id,
		})
		require.NoError(t, err)
	}

	ids := &sequenceIDs{}
	seasons := usecase.NewSeasonService(seasonRepo, gameRepo, cache.NewStore(time.Minute), cache.NewLocalGeneration(), season.PolicyEndNotPassed, logger)
	picks := usecase.NewPickService(poolRepo, seasonRepo, gameRepo, teamRepo, pickRepo, accountRepo, 2, logger)
	handler := NewHandler(Services{
		Accounts: usecase.NewAccountService(accountRepo, stubProvider{}, stubSessions{}, ids, logger),
		Teams:    usecase.NewTeamService(teamRepo),
		Seasons:  seasons,
		Pools:    usecase.NewPoolService(poolRepo, seasonRepo, teamRepo, accountRepo, seasons, pool.NewInviteCoder("invite-secret"), ids, logger),
		Picks:    picks,
		Imports:  usecase.NewImportService(teamRepo, seasonRepo, gameRepo, picks, seasons, 2, logger),
	}, false, logger)

	verifier := stubVerifier{
		"tok-manager":  {AccountID: "acc-manager"},
		"tok-player":   {AccountID: "acc-player"},
		"tok-outsider": {AccountID: "acc-outsider"},
	}
	return &apiEnv{
		router:      NewRouter(handler, verifier, logger, true, nil, testJobToken),
		accountRepo: accountRepo,
		slateID:     slateID,
	}
}

func (e *apiEnv) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var envelope map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	}
	return rec, envelope
}

func (e *apiEnv) createPool(t *testing.T, body string) map[string]any {
	t.Helper()
	rec, envelope := e.do(t, http.MethodPost, "/v1/pools", "tok-manager", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return envelope["data"].(map[string]any)
}

func TestRouter_Healthz(t *testing.T) {
	env := newAPIEnv(t)

	rec, envelope := env.do(t, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", envelope["data"].(map[string]any)["status"])
}

func TestRouter_RequiresAuthForPools(t *testing.T) {
	env := newAPIEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/pools", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/pools", "tok-unknown", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_CatalogRoutes(t *testing.T) {
	env := newAPIEnv(t)

	rec, envelope := env.do(t, http.MethodGet, "/v1/teams/GB", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Green Bay Packers", envelope["data"].(map[string]any)["display_name"])

	rec, envelope = env.do(t, http.MethodGet, "/v1/seasons/current", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	current := envelope["data"].(map[string]any)
	assert.Equal(t, testSeasonID, current["season"].(map[string]any)["id"])
	assert.Equal(t, env.slateID, current["slate"].(map[string]any)["id"])

	rec, envelope = env.do(t, http.MethodGet, "/v1/seasons/"+testSeasonID+"/slates/1/games", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	games := envelope["data"].(map[string]any)["games"].([]any)
	require.Len(t, games, 1)
	assert.Equal(t, "gb", games[0].(map[string]any)["home_team_id"])

	rec, _ = env.do(t, http.MethodGet, "/v1/seasons/"+testSeasonID+"/slates/zero/games", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_InviteOnlyPoolFlow(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createPool(t, `{"name":"Office Pool","entry_fee":10,"manager_plays":true}`)
	poolID := created["id"].(string)
	assert.Equal(t, testSeasonID, created["season_id"])
	assert.Equal(t, true, created["invite_only"])

	rec, envelope := env.do(t, http.MethodGet, "/v1/pools/"+poolID, "tok-player", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	preview := envelope["data"].(map[string]any)
	assert.Equal(t, true, preview["preview"])
	assert.Nil(t, preview["entries"], "preview must not leak entries")

	rec, _ = env.do(t, http.MethodPost, "/v1/pools/"+poolID+"/entries", "tok-player", `{"invite_code":"WRONG"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/pools/"+poolID+"/invite-code", "tok-player", "")
	require.Equal(t, http.StatusForbidden, rec.Code, "only the manager reads the code")

	rec, envelope = env.do(t, http.MethodGet, "/v1/pools/"+poolID+"/invite-code", "tok-manager", "")
	require.Equal(t, http.StatusOK, rec.Code)
	code := envelope["data"].(map[string]any)["invite_code"].(string)

	rec, envelope = env.do(t, http.MethodPost, "/v1/pools/"+poolID+"/entries", "tok-player", `{"invite_code":"`+code+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entryID := envelope["data"].(map[string]any)["entry"].(map[string]any)["id"].(string)

	rec, _ = env.do(t, http.MethodPost, "/v1/pools/"+poolID+"/entries", "tok-player", `{"invite_code":"`+code+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "joining twice returns the existing entry")

	rec, envelope = env.do(t, http.MethodGet, "/v1/pools/"+poolID, "tok-player", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := envelope["data"].(map[string]any)
	assert.Equal(t, true, view["is_member"])
	assert.EqualValues(t, 2, view["entry_count"])

	rec, _ = env.do(t, http.MethodPatch, "/v1/pools/"+poolID+"/entries/"+entryID, "tok-player", `{"paid":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, envelope = env.do(t, http.MethodPatch, "/v1/pools/"+poolID+"/entries/"+entryID, "tok-manager", `{"paid":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, envelope["data"].(map[string]any)["paid"])

	rec, envelope = env.do(t, http.MethodGet, "/v1/pools/"+poolID, "tok-manager", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := envelope["data"].(map[string]any)["summary"].(map[string]any)
	assert.EqualValues(t, 10, summary["pot"])
	assert.EqualValues(t, 20, summary["potential_pot"])
}

func TestRouter_PicksAndStandings(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createPool(t, `{"name":"Open Pool","invite_only":false}`)
	poolID := created["id"].(string)

	rec, envelope := env.do(t, http.MethodPost, "/v1/pools/"+poolID+"/entries", "tok-player", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entryID := envelope["data"].(map[string]any)["entry"].(map[string]any)["id"].(string)

	picksPath := "/v1/pools/" + poolID + "/entries/" + entryID + "/picks"
	rec, envelope = env.do(t, http.MethodPut, picksPath+"/"+env.slateID, "tok-player", `{"team_id":"GB"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "gb", envelope["data"].(map[string]any)["team_id"])
	assert.Equal(t, "pending", envelope["data"].(map[string]any)["outcome"])

	rec, _ = env.do(t, http.MethodPut, picksPath+"/"+env.slateID, "tok-manager", `{"team_id":"no"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the entry owner may pick")

	rec, _ = env.do(t, http.MethodPut, picksPath+"/"+env.slateID, "tok-player", `{"team_id":"kc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "team without a game in the slate")

	rec, envelope = env.do(t, http.MethodGet, picksPath, "tok-player", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, envelope["data"].([]any), 1)

	rec, envelope = env.do(t, http.MethodGet, "/v1/pools/"+poolID+"/standings", "tok-player", "")
	require.Equal(t, http.StatusOK, rec.Code)
	standings := envelope["data"].([]any)
	require.Len(t, standings, 1)
	assert.EqualValues(t, 1, standings[0].(map[string]any)["pending"])

	rec, _ = env.do(t, http.MethodGet, "/v1/pools/"+poolID+"/standings", "tok-outsider", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_UpdatePoolManagerOnly(t *testing.T) {
	env := newAPIEnv(t)
	created := env.createPool(t, `{"name":"Office Pool"}`)
	poolID := created["id"].(string)

	body := `{"name":"Renamed","invite_only":false,"entry_fee":5}`
	rec, _ := env.do(t, http.MethodPut, "/v1/pools/"+poolID, "tok-player", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, envelope := env.do(t, http.MethodPut, "/v1/pools/"+poolID, "tok-manager", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", envelope["data"].(map[string]any)["name"])

	rec, _ = env.do(t, http.MethodPut, "/v1/pools/"+poolID, "tok-manager", `{"name":"x","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec, _ = env.do(t, http.MethodGet, "/v1/pools/missing", "tok-manager", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_InternalImportRequiresJobToken(t *testing.T) {
	env := newAPIEnv(t)
	body := `{"records":[{"slug":"hou","place":"Houston","name":"Texans"},{"slug":"","name":"Nobody"}]}`

	rec, _ := env.do(t, http.MethodPost, "/v1/internal/import/teams", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/import/teams", strings.NewReader(body))
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	out := httptest.NewRecorder()
	env.router.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())

	var envelope map[string]any
	require.NoError(t, sonic.Unmarshal(out.Body.Bytes(), &envelope))
	report := envelope["data"].(map[string]any)
	assert.EqualValues(t, 2, report["processed"])
	assert.EqualValues(t, 1, report["unchanged"])
	assert.EqualValues(t, 1, report["skipped"])
}

func TestRouter_ImportOddsWithoutFeed(t *testing.T) {
	env := newAPIEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/import/odds", nil)
	req.Header.Set("X-Internal-Job-Token", testJobToken)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_LoginAndCallback(t *testing.T) {
	env := newAPIEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/auth/login", "", "")
	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	callback := func(code, state string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/callback?code="+code+"&state="+url.QueryEscape(state), nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		out := httptest.NewRecorder()
		env.router.ServeHTTP(out, req)
		return out
	}

	assert.Equal(t, http.StatusUnauthorized, callback("good-code", state, nil).Code, "missing state cookie")
	assert.Equal(t, http.StatusUnauthorized, callback("good-code", "forged", cookies[0]).Code)
	assert.Equal(t, http.StatusUnauthorized, callback("bad-code", state, cookies[0]).Code)

	out := callback("good-code", state, cookies[0])
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	var envelope map[string]any
	require.NoError(t, sonic.Unmarshal(out.Body.Bytes(), &envelope))
	session := envelope["data"].(map[string]any)
	assert.True(t, strings.HasPrefix(session["token"].(string), "session-"))
	assert.Equal(t, true, session["created"])
	assert.Equal(t, "Kim Lee", session["account"].(map[string]any)["display_name"])
}

func TestRouter_Me(t *testing.T) {
	env := newAPIEnv(t)

	rec, envelope := env.do(t, http.MethodGet, "/v1/me", "tok-player", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "acc-player@example.com", envelope["data"].(map[string]any)["email"])
}
