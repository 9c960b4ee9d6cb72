// Package security implements SecurityStore: bcrypt-hashed users and
// Redis-style rule-based command authorization ("+@all", "+get", "-set").
//
// Grounded on _examples/original_source/src/core/security.rs. Retargeted
// from that file's mTLS certificate authority shape (the teacher's original
// pkg/security) to ToriDB's simpler password/rule model; none of the CA,
// secrets-encryption, or certificate-rotation code survives (see DESIGN.md).
package security
