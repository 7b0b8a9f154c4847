// Package auth verifies bearer tokens presented on WebSocket upgrade
// requests.
//
// Authentication is optional: when no secret is configured the verifier
// accepts every request. With a secret set, clients must present an HS256
// JWT signed with that secret in the Authorization header.
package auth
