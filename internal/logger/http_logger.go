package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// MaxBodyLogged limits what we read. 1 << 20 = 1 MiB.
const MaxBodyLogged = 1 << 20

var allowedHeaders = map[string]bool{
	"content-type":   true,
	"user-agent":     true,
	"content-length": true,
	"x-trace-id":     true,
	"traceparent":    true,
	"authorization":  true,
	"set-cookie":     true,
}

func HeaderAttrs(hdr http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(hdr))
	for name, values := range hdr {
		lower := strings.ToLower(name)
		if !allowedHeaders[lower] {
			continue
		}
		joined := strings.Join(values, ", ")
		if strings.Contains(lower, "authorization") || lower == "set-cookie" {
			joined = "***"
		}
		attrs = append(attrs, slog.String("http.header."+lower, joined))
	}
	return attrs
}

// QueryAttrs flattens url.Values into slog.Attrs with "http.query." prefix.
func QueryAttrs(q url.Values) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(q))
	for key, values := range q {
		if len(values) == 0 {
			continue
		}
		joined := strings.Join(values, ",")
		attrs = append(attrs, slog.String("http.query."+key, joined))
	}
	return attrs
}

// formAttrs handles application/x-www-form-urlencoded bodies.
func formAttrs(b []byte) []slog.Attr {
	vals, err := url.ParseQuery(string(b))
	if err != nil {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(vals))
	for k, v := range vals {
		attrs = append(attrs, slog.String("http.body."+k, redactIfNeeded(strings.Join(v, ", "))))
	}
	return attrs
}

// Very naive redactor; plug real regexps here if the form grows secrets.
func redactIfNeeded(s string) string {
	if strings.Contains(strings.ToLower(s), "password") {
		return "***"
	}
	return s
}

// bodyAttrs reads r.Body up to MaxBodyLogged, puts a copy back, and
// produces attrs for loggable content types. Multipart uploads are
// summarized by size only; buffering image payloads into the log
// pipeline would defeat the body cap.
func bodyAttrs(r *http.Request) []slog.Attr {
	if r.Body == nil {
		return nil
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(ct, "multipart/") {
		return []slog.Attr{slog.Int64("http.body.size_bytes", r.ContentLength)}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyLogged))
	if err != nil {
		return nil
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body)) // hand it downstream intact

	if len(body) == 0 {
		return nil
	}

	switch ct {
	case "application/json":
		return []slog.Attr{slog.String("http.body", redactIfNeeded(string(body)))}
	case "application/x-www-form-urlencoded":
		return formAttrs(body)
	default:
		return []slog.Attr{slog.Int("http.body.size_bytes", len(body))}
	}
}

// LogHTTPRequest collects the request metadata, headers, query, and body attrs.
func LogHTTPRequest(ctx context.Context, r *http.Request, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", r.RemoteAddr),
		slog.String("http.method", r.Method),
		slog.String("http.path", r.URL.Path),
	}

	attrs = append(attrs, HeaderAttrs(r.Header)...)
	attrs = append(attrs, QueryAttrs(r.URL.Query())...)
	attrs = append(attrs, bodyAttrs(r)...)

	return attrs
}

// LogHTTPResponse collects response metadata including a buffered body sample.
func LogHTTPResponse(ctx context.Context, req *http.Request, header http.Header, status int, body io.Reader, durationMs int64, direction string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("http.direction", direction),
		slog.String("http.remote_addr", req.RemoteAddr),
		slog.String("http.method", req.Method),
		slog.String("http.path", req.URL.Path),
		slog.Int("http.status", status),
		slog.Int64("duration_ms", durationMs),
	}

	attrs = append(attrs, HeaderAttrs(header)...)

	if body != nil {
		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, body); err == nil && buf.Len() > 0 {
			ct, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
			if ct == "application/json" {
				attrs = append(attrs, slog.String("http.body", buf.String()))
			} else {
				attrs = append(attrs, slog.Int("http.body.size_bytes", buf.Len()))
			}
		}
	}
	return attrs
}
