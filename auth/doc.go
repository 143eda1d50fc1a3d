// Package auth implements the authentication core: argon2id password
// hashing, HS256 session tokens with classified validation failures, and
// the local login/registration service.
package auth
