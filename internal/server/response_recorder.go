package server

import "net/http"

// responseRecorder captures the status code and body size of a response
// for the request metrics. Only the first WriteHeader call counts, which
// matches what net/http sends on the wire.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	bodyBytes  int64
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.statusCode == 0 {
		r.statusCode = statusCode
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bodyBytes += int64(n)
	return n, err
}

func (r *responseRecorder) status() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}
