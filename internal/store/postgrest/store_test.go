package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflex/internal/domain"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store, err := New(Config{URL: server.URL + "/", APIKey: "anon"})
	require.NoError(t, err)
	return store
}

func TestNewRequiresURLAndKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "anon"})
	assert.Error(t, err)
	_, err = New(Config{URL: "https://example.supabase.co"})
	assert.Error(t, err)
}

func TestListQueriesMostRecentFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/thoughts", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		assert.Equal(t, "*", r.URL.Query().Get("select"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"b","created_at":"2025-01-05T10:00:00.5+00:00","audio_text":"second","mood":"good"},
			{"id":"a","created_at":"2025-01-04T09:00:00+00:00","audio_text":"first","mood":null,"patterns_tagged":["work"]}
		]`))
	})

	thoughts, err := store.List(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, thoughts, 2)
	assert.Equal(t, "b", thoughts[0].ID)
	assert.Equal(t, domain.MoodGood, thoughts[0].Mood)
	assert.Equal(t, domain.MoodNone, thoughts[1].Mood)
	assert.Equal(t, []string{"work"}, thoughts[1].PatternsTagged)
	assert.True(t, thoughts[0].CreatedAt.After(thoughts[1].CreatedAt))
}

func TestListEmptyAndFailure(t *testing.T) {
	t.Parallel()

	empty := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})
	thoughts, err := empty.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, thoughts)
	assert.Empty(t, thoughts)

	failing := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"42P01","message":"relation \"public.thoughts\" does not exist"}`))
	})
	_, err = failing.List(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindStoreReadFailed, domain.KindOf(err, ""))
	assert.Contains(t, err.Error(), "does not exist")
	assert.Contains(t, err.Error(), "42P01")
}

func TestInsertSendsPayloadAndReturnsRow(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 2)
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"n1","created_at":"2025-01-05T10:00:00+00:00","audio_text":"buy milk","mood":"good"}]`))
	})

	thought, err := store.Insert(context.Background(), domain.NewThought{AudioText: "buy milk", Mood: domain.MoodGood})
	require.NoError(t, err)
	assert.Equal(t, "n1", thought.ID)
	assert.Equal(t, map[string]any{"audio_text": "buy milk", "mood": "good"}, <-bodies)

	_, err = store.Insert(context.Background(), domain.NewThought{AudioText: "no mood"})
	require.NoError(t, err)
	body := <-bodies
	value, present := body["mood"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestInsertRejectsEmptyTextWithoutRequest(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Errorf("no request expected")
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := store.Insert(context.Background(), domain.NewThought{AudioText: "  "})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyThought)
	assert.Equal(t, domain.ErrorKindStoreWriteFailed, domain.KindOf(err, ""))
}

func TestInsertFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"42501","message":"new row violates row-level security policy"}`))
	})

	_, err := store.Insert(context.Background(), domain.NewThought{AudioText: "x"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindStoreWriteFailed, domain.KindOf(err, ""))
	assert.Contains(t, err.Error(), "row-level security")
}

func TestDeleteFiltersByID(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.abc", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, store.Delete(context.Background(), " abc "))

	err := store.Delete(context.Background(), "")
	assert.Equal(t, domain.ErrorKindStoreDeleteFailed, domain.KindOf(err, ""))
}

func TestDeleteFailure(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	})

	err := store.Delete(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorKindStoreDeleteFailed, domain.KindOf(err, ""))
	assert.Contains(t, err.Error(), "upstream down")
}
