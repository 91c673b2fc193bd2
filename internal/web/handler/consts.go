package handler

const (
	// RootPath is the root path the route group.
	RootPath = "/"

	// APIPath is the prefix of all versioned API routes.
	APIPath = "/api/v1"

	// IDPath is the route suffix of a single entity.
	IDPath = "/:id"

	// ErrNilRCDFatalLogMsg is used if router, cfg or deps var pointer is nil.
	ErrNilRCDFatalLogMsg = "router, cfg or deps is nil"
)
