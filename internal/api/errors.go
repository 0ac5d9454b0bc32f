package api

import "errors"

// ErrMissingUserID is returned when user_id is missing from context,
// i.e. a handler ran without AuthMiddleware in front of it.
var ErrMissingUserID = errors.New("missing user_id in context")
