package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/vanta/internal/model"
)

// recorded is one request seen by the fake API.
type recorded struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func newFakeAPI(t *testing.T, handler http.HandlerFunc) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recorded{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
			Body:     body,
		})
		f.mu.Unlock()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		f.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, NewClient(srv.URL + "/")
}

func (f *fakeAPI) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no request recorded")
	return f.requests[len(f.requests)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestIdentityHeaderAttachedWhenPresent(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Application{})
	})

	_, err := client.ListApplications(context.Background(), RequestOptions{Identity: "user-1"})
	require.NoError(t, err)

	req := fake.last(t)
	assert.Equal(t, "user-1", req.Header.Get(IdentityHeader))
	assert.NotEmpty(t, req.Header.Get("X-Request-Id"))
	assert.Equal(t, "/applications/", req.Path)
}

func TestRequestWithoutIdentityIsStillSent(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing identity", http.StatusUnauthorized)
	})

	_, err := client.ListTasks(context.Background(), RequestOptions{})
	require.Error(t, err)

	assert.Equal(t, 1, fake.count())
	_, present := fake.last(t).Header[IdentityHeader]
	assert.False(t, present)
	assert.True(t, IsUnauthorized(err))
}

func TestErrorCarriesStatusAndBodyText(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, "already tracked\n")
	})

	err := client.FetchJSON(context.Background(), "/x", nil, RequestOptions{})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "already tracked", apiErr.Message)
	assert.Equal(t, "already tracked", UserMessage(err))
}

func TestErrorFallsBackToStatusText(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.LatestDigest(context.Background(), RequestOptions{Identity: "u"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not Found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestErrorUsesDetailEnvelope(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid stage"})
	})

	err := client.FetchJSON(context.Background(), "/x", nil, RequestOptions{})
	assert.Equal(t, "Invalid stage", UserMessage(err))
}

func TestNoContentYieldsAbsentValue(t *testing.T) {
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var out *model.Profile
	require.NoError(t, client.FetchJSON(context.Background(), "/profile/me", &out, RequestOptions{}))
	assert.Nil(t, out)

	require.NoError(t, client.DeleteSearchPref(context.Background(), "p1", RequestOptions{Identity: "u"}))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(base)
	_, err := client.ListApplications(context.Background(), RequestOptions{Identity: "u"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.True(t, Retryable(err))
	assert.Equal(t, "Network error. Please try again.", UserMessage(err))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&Error{Status: 503}))
	assert.False(t, Retryable(&Error{Status: 404}))
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(context.Canceled))
}

func TestFeedTrackAndHide(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "app-9", "title": "PM", "stage": "prospect"})
	})
	ctx := context.Background()
	opts := RequestOptions{Identity: "user-7"}

	app, err := client.TrackJob(ctx, "1", opts)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "app-9", app.ID)

	track := fake.last(t)
	assert.Equal(t, http.MethodPost, track.Method)
	assert.Equal(t, "/applications/", track.Path)
	assert.JSONEq(t, `{"job_posting_id":"1"}`, string(track.Body))
	assert.Equal(t, "user-7", track.Header.Get(IdentityHeader))

	require.NoError(t, client.HideJob(ctx, "1", opts))
	hide := fake.last(t)
	assert.Equal(t, http.MethodPost, hide.Method)
	assert.Equal(t, "/feed/jobs/1/hide", hide.Path)
	assert.JSONEq(t, `{}`, string(hide.Body))
	assert.Equal(t, "user-7", hide.Header.Get(IdentityHeader))
}

func TestFeedPath(t *testing.T) {
	assert.Equal(t, "/feed/jobs", FeedPath(model.FeedFilter{}))
	assert.Equal(t, "/feed/jobs?location=New+York&remote_only=true",
		FeedPath(model.FeedFilter{Location: "New York", RemoteOnly: true}))
	assert.Equal(t, "/feed/jobs?limit=10&page=2", FeedPath(model.FeedFilter{Page: 2, Limit: 10}))
}

func TestUpdateApplicationStageSendsPatch(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "app-1", "title": "SE", "stage": "applied"})
	})

	app, err := client.UpdateApplicationStage(context.Background(), "app-1", model.StageApplied, RequestOptions{Identity: "u"})
	require.NoError(t, err)
	assert.Equal(t, model.StageApplied, app.Stage)

	req := fake.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/applications/app-1", req.Path)
	assert.JSONEq(t, `{"stage":"applied"}`, string(req.Body))
}

func TestAddNoteMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "offer.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%test"), 0o600))

	var (
		gotBody string
		gotFile string
		gotType string
	)
	_, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotBody = r.FormValue("body")
		f, hdr, err := r.FormFile("attachment")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		gotFile = hdr.Filename
		gotType = hdr.Header.Get("Content-Type")
		writeJSON(w, http.StatusCreated, map[string]string{"id": "n1", "created_at": "2024-01-01T00:00:00"})
	})

	note, err := client.AddNote(context.Background(), "app-1", model.NoteInput{
		Body:       "  called recruiter  ",
		Attachment: &model.FileRef{Path: path},
	}, RequestOptions{Identity: "u"})
	require.NoError(t, err)
	assert.Equal(t, "n1", note.ID)
	assert.Equal(t, "called recruiter", gotBody)
	assert.Equal(t, "offer.pdf", gotFile)
	assert.Equal(t, "application/pdf", gotType)
}

func TestAddEmptyNoteSendsNothing(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	_, err := client.AddNote(context.Background(), "app-1", model.NoteInput{Body: "   "}, RequestOptions{Identity: "u"})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 0, fake.count())
}

func TestActOnTaskRejectsUnknownAction(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "t1", "priority": "high"})
	})

	_, err := client.ActOnTask(context.Background(), "t1", "snooze", RequestOptions{Identity: "u"})
	require.Error(t, err)
	assert.Equal(t, 0, fake.count())

	task, err := client.ActOnTask(context.Background(), "t1", model.TaskDefer, RequestOptions{Identity: "u"})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, task.Priority)
	assert.JSONEq(t, `{"action":"defer"}`, string(fake.last(t).Body))
}

func TestDevLogin(t *testing.T) {
	fake, client := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"user_id": "u-42", "email": "ada@x.com"})
	})

	s, err := client.DevLogin(context.Background(), " ada@x.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-42", s.UserID)
	assert.JSONEq(t, `{"email":"ada@x.com"}`, string(fake.last(t).Body))

	_, err = client.DevLogin(context.Background(), "not-an-email")
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 1, fake.count())
}
