package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/config"
	"github.com/eventhub/backend/internal/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{CORSAllowedOrigins: "*", BcryptCost: 4},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireHours: 24},
	}
}

type api struct {
	t   *testing.T
	srv *Server
}

func newAPI(t *testing.T, cfg *config.Config) *api {
	t.Helper()
	db := memstore.New()
	srv := New(cfg, Stores{
		Users:    db.Users(),
		Events:   db.Events(),
		RSVPs:    db.RSVPs(),
		Comments: db.Comments(),
	}, Deps{}, nil)
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type session struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func (a *api) register(name, email, role string) session {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": name, "email": email, "password": "s3cret!", "role": role,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session](a.t, w)
}

func (a *api) createEvent(token string, body map[string]interface{}) int64 {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/events", token, body)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		Event struct {
			ID int64 `json:"id"`
		} `json:"event"`
	}](a.t, w)
	return resp.Event.ID
}

func eventBody(title, date string, price float64) map[string]interface{} {
	return map[string]interface{}{
		"title": title, "description": "desc", "date": date, "location": "Hall A", "price": price,
	}
}

func path(format string, id int64) string {
	return format + strconv.FormatInt(id, 10)
}

func TestRegisterLoginProfile(t *testing.T) {
	a := newAPI(t, testConfig())

	s := a.register("Sam", "Sam@Example.com", "")
	assert.NotEmpty(t, s.AccessToken)
	assert.Equal(t, "student", s.User.Role)

	w := a.do(http.MethodPost, "/api/register", "", map[string]string{"name": "Sam2", "email": "sam@example.com", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Email already registered"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/register", "", map[string]string{"name": "X", "email": "x@example.com", "password": "x", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/register", "", map[string]string{"email": "y@example.com"})
	assert.JSONEq(t, `{"error":"Missing required fields"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "sam@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPassword := w.Body.String()
	w = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "nobody@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPassword, w.Body.String(), "unknown user and bad password look the same")

	w = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": " SAM@example.com ", "password": "s3cret!"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[session](t, w).AccessToken

	w = a.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":1,"name":"Sam","email":"sam@example.com","role":"student","profile_photo":null}`, w.Body.String())

	w = a.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFreeEventRSVPScenario(t *testing.T) {
	a := newAPI(t, testConfig())
	org := a.register("Olga", "olga@example.com", "organizer")
	stu := a.register("Sam", "sam@example.com", "student")

	eventID := a.createEvent(org.AccessToken, eventBody("Free talk", "2025-06-01T18:00:00Z", 0))

	w := a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{"event_id": eventID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, path("/api/rsvp/", eventID), stu.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rsvp_status":"rsvpd","payment_status":"free"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{"event_id": eventID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Already RSVP'd to this event"}`, w.Body.String())

	w = a.do(http.MethodGet, path("/api/events/", eventID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ev := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, ev["rsvp_count"])
	assert.Equal(t, "Olga", ev["organizer_name"])

	w = a.do(http.MethodDelete, path("/api/rsvp/", eventID), stu.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, path("/api/rsvp/", eventID), stu.AccessToken, nil)
	assert.JSONEq(t, `{"rsvp_status":"not_rsvpd"}`, w.Body.String())
	w = a.do(http.MethodDelete, path("/api/rsvp/", eventID), stu.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaidEventIsPending(t *testing.T) {
	a := newAPI(t, testConfig())
	org := a.register("Olga", "olga@example.com", "organizer")
	stu := a.register("Sam", "sam@example.com", "student")
	eventID := a.createEvent(org.AccessToken, eventBody("Workshop", "2025-06-01", 25.5))

	w := a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{"event_id": eventID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = a.do(http.MethodGet, path("/api/rsvp/", eventID), stu.AccessToken, nil)
	assert.JSONEq(t, `{"rsvp_status":"rsvpd","payment_status":"pending"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{})
	assert.JSONEq(t, `{"error":"Event ID is required"}`, w.Body.String())
	w = a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{"event_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventOwnership(t *testing.T) {
	a := newAPI(t, testConfig())
	owner := a.register("Olga", "olga@example.com", "organizer")
	rival := a.register("Rita", "rita@example.com", "organizer")
	stu := a.register("Sam", "sam@example.com", "student")

	w := a.do(http.MethodPost, "/api/events", stu.AccessToken, eventBody("Nope", "2025-06-01", 0))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only organizers can create events"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/events", owner.AccessToken, eventBody("Bad date", "01/06/2025", 0))
	assert.JSONEq(t, `{"error":"Invalid date format"}`, w.Body.String())
	w = a.do(http.MethodPost, "/api/events", owner.AccessToken, eventBody("Negative", "2025-06-01", -5))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(http.MethodPost, "/api/events", owner.AccessToken, map[string]string{"title": "only title"})
	assert.JSONEq(t, `{"error":"Missing required fields"}`, w.Body.String())

	eventID := a.createEvent(owner.AccessToken, eventBody("Mine", "2025-06-01T10:00:00", 10))

	w = a.do(http.MethodPut, path("/api/events/", eventID), rival.AccessToken, map[string]string{"title": "Stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only the organizer can update this event"}`, w.Body.String())

	w = a.do(http.MethodPut, path("/api/events/", eventID), owner.AccessToken, map[string]interface{}{"title": "", "price": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(http.MethodGet, path("/api/events/", eventID), "", nil)
	ev := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Mine", ev["title"])
	assert.EqualValues(t, 0, ev["price"])

	w = a.do(http.MethodDelete, path("/api/events/", eventID), rival.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodDelete, path("/api/events/", eventID), owner.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, path("/api/events/", eventID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodGet, "/api/events/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventListingOrder(t *testing.T) {
	a := newAPI(t, testConfig())
	org := a.register("Olga", "olga@example.com", "organizer")
	for _, d := range []string{"2025-12-01", "2025-02-01", "2025-07-01"} {
		a.createEvent(org.AccessToken, eventBody("E "+d, d, 0))
	}

	w := a.do(http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]struct {
		Title string `json:"title"`
	}](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, "E 2025-02-01", list[0].Title)
	assert.Equal(t, "E 2025-12-01", list[2].Title)
}

func TestCommentsFlow(t *testing.T) {
	a := newAPI(t, testConfig())
	org := a.register("Olga", "olga@example.com", "organizer")
	stu := a.register("Sam", "sam@example.com", "student")
	eventID := a.createEvent(org.AccessToken, eventBody("Talk", "2025-06-01", 0))
	commentsPath := path("/api/events/", eventID) + "/comments"

	w := a.do(http.MethodPost, commentsPath, stu.AccessToken, map[string]string{"content": "   "})
	assert.JSONEq(t, `{"error":"Comment content is required"}`, w.Body.String())
	w = a.do(http.MethodPost, "/api/events/999/comments", stu.AccessToken, map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPost, commentsPath, stu.AccessToken, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		Comment struct {
			ID       int64  `json:"id"`
			UserName string `json:"user_name"`
		} `json:"comment"`
	}](t, w)
	assert.Equal(t, "Sam", created.Comment.UserName)
	w = a.do(http.MethodPost, commentsPath, org.AccessToken, map[string]string{"content": "second"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodGet, commentsPath, "", nil)
	list := decode[[]struct {
		Content string `json:"content"`
	}](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content, "newest first")

	w = a.do(http.MethodDelete, path("/api/comments/", created.Comment.ID), org.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only the comment author can delete this comment"}`, w.Body.String())
	w = a.do(http.MethodDelete, path("/api/comments/", created.Comment.ID), stu.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodDelete, path("/api/comments/", created.Comment.ID), stu.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrganizerDashboard(t *testing.T) {
	a := newAPI(t, testConfig())
	org := a.register("Olga", "olga@example.com", "organizer")
	rival := a.register("Rita", "rita@example.com", "organizer")
	stu := a.register("Sam", "sam@example.com", "student")
	eventID := a.createEvent(org.AccessToken, eventBody("Mine", "2025-06-01", 5))
	a.createEvent(rival.AccessToken, eventBody("Theirs", "2025-05-01", 0))

	w := a.do(http.MethodGet, "/api/organizer/events", stu.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Only organizers can access this endpoint"}`, w.Body.String())

	w = a.do(http.MethodGet, "/api/organizer/events", org.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[[]map[string]interface{}](t, w)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0]["title"])
	assert.NotContains(t, mine[0], "organizer_name")

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/rsvp", stu.AccessToken, map[string]int64{"event_id": eventID}).Code)

	rosterPath := path("/api/organizer/events/", eventID) + "/rsvps"
	w = a.do(http.MethodGet, rosterPath, rival.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodGet, rosterPath, org.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	roster := decode[[]map[string]interface{}](t, w)
	require.Len(t, roster, 1)
	assert.Equal(t, "sam@example.com", roster[0]["user_email"])
	assert.Equal(t, "pending", roster[0]["payment_status"])

	w = a.do(http.MethodGet, "/api/organizer/events/999/rsvps", org.AccessToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.LoginPer15Minutes = 2
	a := newAPI(t, cfg)

	for i := 0; i < 2; i++ {
		w := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "a@b.c", "password": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "a@b.c", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t, testConfig())

	w := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	a.do(http.MethodGet, "/api/events", "", nil)
	w = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eventhub_http_requests_total")
}

func TestUpdateChecksAccessBeforeBody(t *testing.T) {
	a := newAPI(t, testConfig())
	owner := a.register("Olga", "olga@example.com", "organizer")
	rival := a.register("Rita", "rita@example.com", "organizer")
	eventID := a.createEvent(owner.AccessToken, eventBody("Mine", "2025-06-01", 0))

	malformed := "not an object"
	w := a.do(http.MethodPut, path("/api/events/", eventID+100), rival.AccessToken, malformed)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPut, path("/api/events/", eventID), rival.AccessToken, malformed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodPut, path("/api/events/", eventID), owner.AccessToken, malformed)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOversizedInputIsRejected(t *testing.T) {
	a := newAPI(t, testConfig())
	owner := a.register("Olga", "olga@example.com", "organizer")

	w := a.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": "Long", "email": "long@example.com", "password": strings.Repeat("p", 73),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Password must be at most 72 bytes"}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/register", "", map[string]string{
		"name": strings.Repeat("n", 101), "email": "name@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/events", owner.AccessToken, eventBody(strings.Repeat("t", 201), "2025-06-01", 0))
	assert.JSONEq(t, `{"error":"Title must be at most 200 characters"}`, w.Body.String())
	w = a.do(http.MethodPost, "/api/events", owner.AccessToken, eventBody("Pricey", "2025-06-01", 1e9))
	assert.JSONEq(t, `{"error":"Price must be at most 99999999.99"}`, w.Body.String())

	eventID := a.createEvent(owner.AccessToken, eventBody("Tiny", "2025-06-01", 0.001))
	w = a.do(http.MethodGet, path("/api/events/", eventID), "", nil)
	ev := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 0, ev["price"], "prices are stored to the cent")

	w = a.do(http.MethodPut, path("/api/events/", eventID), owner.AccessToken, map[string]interface{}{"location": strings.Repeat("l", 201)})
	assert.JSONEq(t, `{"error":"Location must be at most 200 characters"}`, w.Body.String())
}
