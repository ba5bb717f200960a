package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"scoregaps/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factsCSV = "Variable,Subject,Jurisdiction,Year,Grouping,Mean,SD,N,Cohen's d\n" +
	"Gender,LSAT,US,2023,Female,152.1,9.8,60000,-0.11\n"

func TestFetchRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		retries   int
		wantCalls int32
		wantErr   bool
	}{
		{name: "first try", statuses: []int{200}, retries: 5, wantCalls: 1},
		{name: "gateway timeout then ok", statuses: []int{504, 408, 200}, retries: 5, wantCalls: 3},
		{name: "budget exhausted", statuses: []int{504, 504, 504}, retries: 2, wantCalls: 2, wantErr: true},
		{name: "not found is final", statuses: []int{404, 200}, retries: 5, wantCalls: 1, wantErr: true},
		{name: "server error is final", statuses: []int{500, 200}, retries: 5, wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				i := atomic.AddInt32(&calls, 1) - 1
				status := tt.statuses[len(tt.statuses)-1]
				if int(i) < len(tt.statuses) {
					status = tt.statuses[i]
				}
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(factsCSV))
				}
			}))
			defer srv.Close()

			src := New(srv.URL, WithRetries(tt.retries, time.Millisecond))
			table, err := src.Fetch(context.Background())

			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsDataUnavailable(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, table.Len())
		})
	}
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Variable,Subject\nGender,LSAT\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithRetries(3, time.Millisecond)).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsDataUnavailable(err))
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestFetchHonoursCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(srv.URL, WithRetries(5, time.Hour)).Fetch(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsDataUnavailable(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "http:https://example.test/data.csv", New("https://example.test/data.csv").Describe())
}

func TestFetchFinalStatusIsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithRetries(3, time.Millisecond)).Fetch(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeDataUnavailable, errors.GetCode(err))
	assert.True(t, errors.HasCode(err, errors.CodeExternalService))
	assert.Contains(t, err.Error(), "403")
}

func TestTimeoutLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for _, opts := range [][]Option{
		{WithClient(shared), WithTimeout(5 * time.Second)},
		{WithTimeout(5 * time.Second), WithClient(shared)},
	} {
		src := New("https://example.test/data.csv", opts...)
		assert.Equal(t, 5*time.Second, src.client.Timeout)
		assert.NotSame(t, shared, src.client)
	}
	assert.Equal(t, time.Minute, shared.Timeout)

	src := New("https://example.test/data.csv", WithClient(shared))
	assert.Same(t, shared, src.client)
}
