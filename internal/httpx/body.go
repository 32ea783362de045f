package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ReadBody reads the full request body up to maxBytes, rejecting anything
// larger. Submissions here are raw text bodies, so there is no decoding
// step beyond the size guard.
func ReadBody(r *http.Request, maxBytes int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	defer func() {
		_ = r.Body.Close()
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxBytes)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(body) == 0 {
		return nil, errors.New("request body is empty")
	}
	return body, nil
}
