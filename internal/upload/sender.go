package upload

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/skyrelay/internal/httputil"
)

// URLPlaceholder marks where the encoded query string is substituted into
// the tracker URL template.
const URLPlaceholder = "{}"

// Sender performs the outbound tracker call: URL-encode the parameters,
// substitute them into the template, GET. The response body is discarded;
// only the status matters.
type Sender struct {
	Client   httputil.Client
	Template string
}

// NewSender creates a Sender. A nil client uses the default standard client.
func NewSender(client httputil.Client, template string) *Sender {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &Sender{Client: client, Template: template}
}

// Send delivers one parameter set. Any transport error or non-2xx status is
// returned for the caller to log; the item is never retried.
func (s *Sender) Send(p Params) error {
	u := strings.Replace(s.Template, URLPlaceholder, p.Encode(), 1)
	resp, err := s.Client.Get(u)
	if err != nil {
		return fmt.Errorf("tracker request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("tracker responded %s", resp.Status)
	}
	return nil
}
