package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome      = "/"
	RouteDashboard = "/dashboard"

	// Auth Routes - Login, Callback & Logout
	RouteLogin         = "/login"
	RouteLoginCallback = "/login/callback"
	RouteAuthCallback  = "/auth" // alias registered with Discogs by older deployments
	RouteLogout        = "/logout"

	// API Routes (session cookie required)
	RouteAPIProfile            = "/api/profile"
	RouteAPICollection         = "/api/collection"
	RouteAPICollectionRelease  = "/api/collection/{releaseId}"
	RouteAPICollectionInstance = "/api/collection/{releaseId}/instances/{instanceId}"
	RouteAPIWantlist           = "/api/wantlist"
	RouteAPIWantlistRelease    = "/api/wantlist/{releaseId}"

	// System Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
