package upload

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/skyrelay/internal/httputil"
)

func TestSenderSubstitutesTemplate(t *testing.T) {
	mock := httputil.NewMockClient()
	s := NewSender(mock, "http://tracker.example.net/track.php?{}")

	err := s.Send(Params{"vehicle": "HORIZON", "pass": "aurora"})
	require.NoError(t, err)

	urls := mock.RequestedURLs()
	require.Len(t, urls, 1)
	assert.Equal(t, "http://tracker.example.net/track.php?pass=aurora&vehicle=HORIZON", urls[0])
}

func TestSenderTransportError(t *testing.T) {
	mock := httputil.NewMockClient()
	mock.AddError(errors.New("connection refused"))
	s := NewSender(mock, "http://tracker.example.net/track.php?{}")

	err := s.Send(Params{"vehicle": "HORIZON"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSenderNon2xxIsError(t *testing.T) {
	mock := httputil.NewMockClient()
	mock.AddResponse(http.StatusBadGateway, "upstream broken")
	s := NewSender(mock, "http://tracker.example.net/track.php?{}")

	err := s.Send(Params{"vehicle": "HORIZON"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSenderAcceptsAny2xx(t *testing.T) {
	mock := httputil.NewMockClient()
	mock.AddResponse(http.StatusNoContent, "")
	s := NewSender(mock, "http://tracker.example.net/track.php?{}")

	assert.NoError(t, s.Send(Params{"vehicle": "HORIZON"}))
}

func TestSenderEncodesJSONDataField(t *testing.T) {
	mock := httputil.NewMockClient()
	s := NewSender(mock, "http://tracker.example.net/track.php?{}")

	require.NoError(t, s.Send(Params{"data": `{"a":1}`}))

	urls := mock.RequestedURLs()
	require.Len(t, urls, 1)
	assert.True(t, strings.HasSuffix(urls[0], "data=%7B%22a%22%3A1%7D"),
		"unexpected URL %s", urls[0])
}
