package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDeliverPostsFullPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(time.Second, 0, testLogger())
	rec := carouselRecord("media-a", "user-1", "cat", "grumpy")

	err := d.Deliver(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.Equal(t, rec.MediaURL, got.MediaURL)
	assert.Equal(t, "image", got.MediaType)
	assert.Equal(t, []string{"cat", "grumpy"}, got.Tags)
	assert.Empty(t, got.Content)
}

func TestWebhookDeliverReferenceSendsLinkOnly(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(time.Second, 0, testLogger())
	rec := carouselRecord("media-a", "user-1", "cat")

	err := d.DeliverReference(context.Background(), srv.URL, rec)
	require.NoError(t, err)

	assert.Equal(t, rec.MediaURL, got.Content)
	assert.Empty(t, got.MediaURL)
	assert.Empty(t, got.Tags)
}

func TestWebhookDeliverOversizeIsRecognizable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(time.Second, 0, testLogger())

	err := d.Deliver(context.Background(), srv.URL, carouselRecord("media-a", "user-1", "cat"))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestWebhookDeliverLocalSizeLimit(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(time.Second, 8, testLogger())

	err := d.Deliver(context.Background(), srv.URL, carouselRecord("media-a", "user-1", "cat"))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.False(t, hit, "oversize payload must not leave the process")
}

func TestWebhookDeliverRejectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewWebhookDeliverer(time.Second, 0, testLogger())

	err := d.Deliver(context.Background(), srv.URL, carouselRecord("media-a", "user-1", "cat"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPayloadTooLarge)
}
