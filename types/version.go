package types

// Version is the stratum release version.
// Bump on tagged releases; commit hash is injected at build time.
const Version = "0.3.0"
