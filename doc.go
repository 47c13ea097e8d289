// Package auth provides the authentication and authorization core for a
// project and task tracker: credential verification, JWT issuance and
// validation, per-request identity resolution, and resource scoped access
// checks.
//
// Identity resolution:
//   - Tokens carry the role held at issuance as a hint. Protected routes
//     re-read the user record on every request (see Auther.Authenticate and
//     jwtware's IdentityResolver), so role changes and deleted accounts take
//     effect immediately even while old tokens are still in circulation.
//
// Authorization:
//   - Authorizer combines the global role (developer < leader <
//     administrator) with the identity's relation to a resource. Leading a
//     project implies membership, administrators bypass relation lookups,
//     and store failures always deny.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the
//     authorizer, and the registration command to describe login,
//     impersonation, registration, and access denial events. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before JWTs are signed. Decorators may
//     enrich extension fields such as scopes or metadata while protected
//     claims (sub, iss, aud, exp, etc.) remain immutable.
package auth
