// Package authorization owns bearer authentication, user profiles and the
// role/subscription decision table used by every protected operation.
//
// Layering:
// - domain: profile entity, decision table, bearer parsing, errors
// - application: authenticate/authorize queries and profile commands
// - ports: token verifier and profile repository boundaries
// - adapters: jwt verifier, memory, postgres and HTTP handler implementations
// - transport: module-private DTOs for HTTP contracts
//
// Other contexts never import this module. They declare their own
// authorizer/profile ports which internal/app/bootstrap bridges to Module.
package authorization
