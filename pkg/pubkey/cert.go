package pubkey

import (
	"fmt"
)

// certType distinguishes host certificates from user certificates, the
// distinction CheckCert's host argument selects between.
const (
	certTypeUser = 1
	certTypeHost = 2
)

// CriticalOption is one name/value pair from a certificate's critical
// options set (e.g. "force-command", "source-address"). Unknown
// critical options must cause certificate rejection; known ones this
// package does not interpret (like "force-command") are surfaced to
// the caller via Cert.CriticalOptions rather than enforced here, since
// enforcement belongs to whatever layer actually launches commands or
// restricts source addresses.
type CriticalOption struct {
	Name  string
	Value string
}

// Cert wraps a base Key with an OpenSSH certificate: the signed
// metadata (principals, validity window, critical options) plus the
// CA's signature over the whole thing.
type Cert struct {
	Base Key

	Serial      uint64
	Type        uint32 // certTypeUser or certTypeHost
	KeyID       string
	Principals  []string
	ValidAfter  int64
	ValidBefore int64
	Critical    []CriticalOption

	CAKey     Key
	Signature []byte // raw signature blob over every field above plus Base.PublicBlob()
}

// Algorithm returns the base algorithm's *-cert-v01@openssh.com name.
func (c *Cert) Algorithm() string {
	return c.Base.Algorithm() + "-cert-v01@openssh.com"
}

// Sign, Verify, PublicBlob, PrivateBlob and OpenSSHBlob delegate to the
// wrapped base key: a certificate doesn't change how its holder signs
// or stores data, only how a verifier establishes trust in the public
// half.
func (c *Cert) Sign(data []byte, flags SignFlags) ([]byte, error) { return c.Base.Sign(data, flags) }
func (c *Cert) Verify(data, sig []byte) bool                      { return c.Base.Verify(data, sig) }
func (c *Cert) PrivateBlob() []byte                               { return c.Base.PrivateBlob() }
func (c *Cert) OpenSSHBlob() []byte                               { return c.Base.OpenSSHBlob() }

// PublicBlob returns the full certificate blob: algorithm name, base
// public blob, serial, type, key ID, principals, validity window,
// critical option set, CA public key, and the CA's signature. It writes
// no nonce, no extension set and no reserved field.
func (c *Cert) PublicBlob() []byte {
	w := newSSHWriter()
	w.writeString(c.Algorithm())
	w.writeBytes(c.Base.PublicBlob())
	w.writeUint32(uint32(c.Serial >> 32))
	w.writeUint32(uint32(c.Serial))
	w.writeUint32(c.Type)
	w.writeString(c.KeyID)
	principals := newSSHWriter()
	for _, p := range c.Principals {
		principals.writeString(p)
	}
	w.writeBytes(principals.bytes())
	w.writeUint32(uint32(c.ValidAfter >> 32))
	w.writeUint32(uint32(c.ValidAfter))
	w.writeUint32(uint32(c.ValidBefore >> 32))
	w.writeUint32(uint32(c.ValidBefore))
	crit := newSSHWriter()
	for _, o := range c.Critical {
		crit.writeString(o.Name)
		crit.writeString(o.Value)
	}
	w.writeBytes(crit.bytes())
	if c.CAKey != nil {
		w.writeBytes(c.CAKey.PublicBlob())
	} else {
		w.writeUint32(0)
	}
	w.writeBytes(c.Signature)
	return w.bytes()
}

func (c *Cert) CacheString() string { return c.Algorithm() + " " + c.KeyID }

func (c *Cert) Components() map[string]string {
	m := c.Base.Components()
	m["key-id"] = c.KeyID
	m["serial"] = fmt.Sprintf("%d", c.Serial)
	return m
}

func (c *Cert) Invalid(flags uint32) string { return c.Base.Invalid(flags) }

// BaseKey returns the wrapped non-certificate key.
func (c *Cert) BaseKey() Key { return c.Base }

// CheckCert validates the certificate's signature chain, principal
// match, validity window and critical-option set, per spec 4.3's
// check_cert contract. It does not enforce critical options themselves
// (see CriticalOption's doc comment) -- only that every one of them is
// a name this package recognises, rejecting unknown ones outright as
// OpenSSH's own cert verifier does.
func (c *Cert) CheckCert(host bool, principal string, certTime int64, opts CertCheckOptions) string {
	wantType := uint32(certTypeUser)
	if host {
		wantType = certTypeHost
	}
	if c.Type != wantType {
		return "certificate type does not match host/user context"
	}

	if certTime < c.ValidAfter || certTime >= c.ValidBefore {
		return "certificate is outside its validity window"
	}

	if len(c.Principals) > 0 {
		found := false
		for _, p := range c.Principals {
			if p == principal {
				found = true
				break
			}
		}
		if !found {
			return "certificate does not list the requested principal"
		}
	}

	for _, opt := range c.Critical {
		if !knownCriticalOption(opt.Name) {
			return "certificate has an unrecognised critical option: " + opt.Name
		}
	}

	if c.CAKey == nil || c.Signature == nil {
		return "certificate is unsigned"
	}
	if rsaCA, ok := c.CAKey.(*RSAKey); ok {
		algName, _, ok := unpackSSHSignature(c.Signature)
		if !ok {
			return "certificate signature is malformed"
		}
		if !rsaSigAlgPermitted(algName, opts.PermittedRSASigAlgs) {
			return "certificate CA signature uses a disallowed RSA sub-algorithm"
		}
		_ = rsaCA
	}
	signedPortion := c.signedPortion()
	if !c.CAKey.Verify(signedPortion, c.Signature) {
		return "certificate signature does not verify under its CA key"
	}

	return ""
}

// signedPortion returns the certificate blob with the trailing
// signature field stripped, the data the CA actually signed over.
func (c *Cert) signedPortion() []byte {
	full := c.PublicBlob()
	stripped := &Cert{
		Base: c.Base, Serial: c.Serial, Type: c.Type, KeyID: c.KeyID,
		Principals: c.Principals, ValidAfter: c.ValidAfter, ValidBefore: c.ValidBefore,
		Critical: c.Critical, CAKey: c.CAKey,
	}
	withoutSig := stripped.PublicBlob()
	// withoutSig ends with the empty-signature field (4 zero bytes);
	// the signed portion is everything before that.
	if len(withoutSig) < 4 {
		return full
	}
	return withoutSig[:len(withoutSig)-4]
}

func knownCriticalOption(name string) bool {
	switch name {
	case "force-command", "source-address", "verify-required",
		"permit-X11-forwarding", "permit-agent-forwarding",
		"permit-port-forwarding", "permit-pty", "permit-user-rc":
		return true
	}
	return false
}

func rsaSigAlgPermitted(algName string, permitted []string) bool {
	if len(permitted) == 0 {
		return algName == "ssh-rsa" || algName == "rsa-sha2-256" || algName == "rsa-sha2-512"
	}
	for _, p := range permitted {
		if p == algName {
			return true
		}
	}
	return false
}
