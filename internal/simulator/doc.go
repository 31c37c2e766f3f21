// Package simulator implements a local messaging endpoint for tests and demos.
//
// The simulator serves two routes on one listener:
//
//   - POST /authentication/sign_in accepts {"client_id", "client_secret"} and,
//     for the configured credentials, answers 200 with a fresh session token in
//     the LWSSO_COOKIE_KEY cookie. Other credentials get 401.
//   - The messaging path (default /messaging/test) upgrades to WebSocket when
//     the request carries a token issued by this server instance, and echoes
//     every text and binary frame back. Unknown tokens get 401 on upgrade.
//
// Tokens live in memory only, so a restarted simulator rejects the tokens of
// its predecessor. Tests use this to exercise re-login after a 401.
//
// With Config.TLS both routes are served over TLS (https and wss). Without
// certificate files a self-signed certificate is generated at startup;
// CertificatePEM returns it for clients to trust.
package simulator
