package observe

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const incomingTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestMiddleware_CorrelationID(t *testing.T) {
	installTracer(t)
	m, _ := newTestMetrics(t)

	tests := []struct {
		name    string
		headers map[string]string
		want    string // empty means "a fresh 32-char trace ID"
	}{
		{name: "generated from trace"},
		{
			name:    "continues w3c trace",
			headers: map[string]string{"traceparent": incomingTraceparent},
			want:    "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:    "client header kept",
			headers: map[string]string{CorrelationHeader: "stream-2024-07"},
			want:    "stream-2024-07",
		},
		{
			name: "invalid client header replaced",
			headers: map[string]string{
				"traceparent":     incomingTraceparent,
				CorrelationHeader: "<script>",
			},
			want: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = CorrelationID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/v1/extract", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if tt.want == "" && len(seen) != 32 {
				t.Errorf("generated ID = %q, want a 32-char trace ID", seen)
			}
			if tt.want != "" && seen != tt.want {
				t.Errorf("handler saw %q, want %q", seen, tt.want)
			}
			if got := rec.Header().Get(CorrelationHeader); got != seen {
				t.Errorf("response header = %q, want %q", got, seen)
			}
		})
	}
}

func TestMiddleware_SpanCarriesStatus(t *testing.T) {
	exp := installTracer(t)
	m, _ := newTestMetrics(t)

	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/extract/batch", nil))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	if spans[0].Name != "HTTP POST /v1/extract/batch" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	var status int64
	for _, a := range spans[0].Attributes {
		if a.Key == "http.response.status_code" {
			status = a.Value.AsInt64()
		}
	}
	if status != http.StatusTooManyRequests {
		t.Errorf("status attribute = %d, want 429", status)
	}
}

func TestMiddleware_DurationPerRoute(t *testing.T) {
	installTracer(t)
	m, reader := newTestMetrics(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/vocabulary/{source_id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	h := Middleware(m)(mux)
	for _, id := range []string{"vod-1", "vod-2", "vod-3"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/vocabulary/"+id, nil))
	}

	met := findMetric(collect(t, reader), "lexora.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist := met.Data.(metricdata.Histogram[float64])
	if len(hist.DataPoints) != 1 {
		t.Fatalf("data points = %d, want 1 (one per route)", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 3 {
		t.Errorf("count = %d, want 3", dp.Count)
	}
	if v, _ := dp.Attributes.Value("path"); v.AsString() != "GET /v1/vocabulary/{source_id}" {
		t.Errorf("path = %q", v.AsString())
	}
	if v, _ := dp.Attributes.Value("method"); v.AsString() != http.MethodGet {
		t.Errorf("method = %q", v.AsString())
	}
}

func TestMiddleware_LogsServerErrorsAtWarn(t *testing.T) {
	installTracer(t)
	m, _ := newTestMetrics(t)
	buf := captureLogs(t)

	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/extract", nil))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status=500") {
		t.Errorf("log = %s", out)
	}
	if !strings.Contains(out, "correlation_id=") && !strings.Contains(out, "trace_id=") {
		t.Errorf("log missing request IDs: %s", out)
	}
}
