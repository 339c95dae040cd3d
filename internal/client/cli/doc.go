// Package cli provides the interactive HomeFinder command-line client.
//
// It wires configuration, local storage, the API client, the session store
// and the view router behind an interactive REPL. Typical flow: restore the
// saved session in the background, start a connectivity watcher, and execute
// user commands while the session loads.
//
// Key features:
//   - Signup with emailed one-time code, Login / Logout
//   - Role-gated views: /dashboard, /profile, /agent, /admin
//   - Profile editing
//   - Online/offline indicator and token lifetime in the prompt
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
