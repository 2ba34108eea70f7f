// Package pgp verifies detached OpenPGP signatures against a keyring file.
//
// Two verifiers exist: Sqv runs the Sequoia sqv binary, Native verifies in
// process. Both fail closed.
package pgp
