package observability

// Version is the service version reported by health checks. Overridden at
// build time with -ldflags.
var Version = "dev"
