// Package users implements the accounts of the dev API: signup with a
// one-time verification code, login, profile and logout.
package users
