package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Catalog errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrPagination         = fmt.Errorf("pagination failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Interchange and plan errors
	ErrMalformedInterchange = fmt.Errorf("malformed interchange data")
	ErrPlanNotFound         = fmt.Errorf("plan not found")
	ErrPlanConsumed         = fmt.Errorf("plan already consumed")
	ErrLocked               = fmt.Errorf("another commit is in progress")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
