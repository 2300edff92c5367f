package dockerhub

import "github.com/pkg/errors"

var ErrNotFound = errors.New("repository not found")
var ErrNetwork = errors.New("network failure")
var ErrRateLimited = errors.New("rate limited by the registry")
var ErrMalformedResponse = errors.New("malformed registry response")
var ErrInvalidReference = errors.New("invalid repository reference")
