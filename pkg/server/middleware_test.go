/*
Copyright 2025 The AlaudaDevops Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLimiterEnforcesPerClientBudget(t *testing.T) {
	cl := newClientLimiter(2)

	assert.True(t, cl.allow("10.0.0.1"))
	assert.True(t, cl.allow("10.0.0.1"))
	assert.False(t, cl.allow("10.0.0.1"))

	// Other clients have their own budget
	assert.True(t, cl.allow("10.0.0.2"))
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	cl := newClientLimiter(1)
	require.True(t, cl.allow("10.0.0.1"))
	require.False(t, cl.allow("10.0.0.1"))

	// Nothing is idle yet
	assert.Equal(t, 0, cl.evictIdle(time.Now().Add(-time.Minute)))

	// With a future cutoff everything counts as idle; the client then gets
	// a fresh bucket on its next request
	assert.Equal(t, 1, cl.evictIdle(time.Now().Add(time.Minute)))
	assert.True(t, cl.allow("10.0.0.1"))
}

func TestRateLimitMiddlewareRejectsOverBudget(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := rateLimitMiddleware(ctx, true, 1, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	before := testutil.ToFloat64(RateLimitedTotal)

	req := httptest.NewRequest(http.MethodGet, "/v1/changelog", nil)
	req.RemoteAddr = "10.0.0.9:4711"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimitedTotal))
}

func TestRateLimitMiddlewareDisabledPassesThrough(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := rateLimitMiddleware(context.Background(), false, 1, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/v1/changelog", nil)
	req.RemoteAddr = "10.0.0.9:4711"

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLoggingMiddlewareQuietPaths(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	handler := loggingMiddleware(logger, "/health", "/metrics")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, hook.Entries, "health check traffic must not reach the info log")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/changelog", nil))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "/v1/changelog", hook.LastEntry().Data["path"])
}
