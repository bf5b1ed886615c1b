// Package channel
// Author: momentics <momentics@gmail.com>
//
// Transport-independent channel machinery: identities, the one-shot
// promise implementation, the guarded close future and the upstream
// event emitters.
//
// Transports embed Base to inherit the shared behavior and add the
// socket-backed parts. Application code reaches this package for the
// Fire* helpers and the future constructors only; everything else flows
// through the api contracts.

package channel
