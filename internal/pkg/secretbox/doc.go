// Package secretbox encrypts short secrets (pending passwords) so they can sit
// in the verification store until the owner proves control of the contact.
//
// Ciphertext layout before base64url encoding:
//
//	[0..1]  uint16 key version
//	[2..13] 12-byte nonce
//	[14..]  AES-256-GCM sealed box
//
// The additional data is the SHA-256 of the scope, so a ciphertext only opens
// for the contact and purpose it was sealed for.
package secretbox
