// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts small payloads to age x25519 recipients. The
// credential cache uses it so a token written to disk is unreadable
// without the user's identity file.
//
// Ciphertext is base64-encoded so a sealed file stays printable and
// survives copy-paste. [Seal] encrypts to one or more recipients;
// [Open] decrypts with an identity loaded by [LoadIdentity].
package sealed
