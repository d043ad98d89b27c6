package stream

import "errors"

var (
	errStartTimeout      = errors.New("no start message received")
	errStartMalformed    = errors.New("start message is not valid JSON")
	errStartMissingCreds = errors.New("start message must include domain and accessToken")
)
