package runner

import (
	"io"
	"net/http"
	"sync"
	"time"

	"loginload/internal/vu"
)

// recordingTransport records every request a scenario makes. Service time runs from
// sending the request until the response body is closed.
type recordingTransport struct {
	base http.RoundTripper
	r    *Runner
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	info := vu.FromContext(req.Context())

	res := ExperimentResult{
		TimeStamp: start,
		Method:    req.Method,
		URL:       req.URL.String(),
		UserID:    info.ID,
		Iteration: info.Iteration,
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		res.ServiceTime = time.Since(start)
		res.Error = err.Error()
		t.r.recordRequest(res)
		return nil, err
	}

	res.Status = resp.StatusCode
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	resp.Body = &countingBody{
		ReadCloser: resp.Body,
		done: func(n int64) {
			res.Bytes = n
			res.ServiceTime = time.Since(start)
			t.r.recordRequest(res)
		},
	}
	return resp, nil
}

type countingBody struct {
	io.ReadCloser
	n    int64
	once sync.Once
	done func(n int64)
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(func() { b.done(b.n) })
	return err
}
