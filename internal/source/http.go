package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/fitwatch/internal/model"
)

// userAgent is sent on every request; some careers sites reject the Go default.
const userAgent = "Mozilla/5.0 (compatible; fitwatch/1.0)"

// do sends req and returns the response when the status is 200. Any other
// status closes the body and returns a *model.HTTPError.
func do(client *http.Client, req *http.Request, label string) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, model.NewHTTPError(resp, fmt.Errorf("%s: unexpected status %d", label, resp.StatusCode))
	}
	return resp, nil
}

// getJSON fetches url and decodes the JSON body into dst.
func getJSON(ctx context.Context, client *http.Client, url, label string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := do(client, req, label)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}
