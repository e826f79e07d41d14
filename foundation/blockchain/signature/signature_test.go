package signature_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Hash(t *testing.T) {
	const exp = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

	h := signature.HashString("hello")
	if h != exp {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash([]byte("hello"))
	if h != exp {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_Signing(t *testing.T) {
	t.Log("Given the need to sign and verify transaction hashes.")
	{
		pk, err := signature.GenerateKey(1024)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a private key: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a private key.", success)

		pub, err := signature.EncodePublicKey(&pk.PublicKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the public key: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to encode the public key.", success)

		hash := signature.HashString("1700000000|alice|bob|100|1")

		sig, err := signature.Sign(hash, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the hash: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the hash.", success)

		if err := signature.Verify(hash, sig, pub); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		other := signature.HashString("1700000000|alice|bob|101|1")
		if err := signature.Verify(other, sig, pub); !errors.Is(err, signature.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a signature over different data: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a signature over different data.", success)

		if err := signature.Verify(hash, "zz", pub); !errors.Is(err, signature.ErrInvalidSignature) {
			t.Fatalf("\t%s\tShould reject a signature that is not hex: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a signature that is not hex.", success)

		if err := signature.Verify(hash, sig, "bob"); !errors.Is(err, signature.ErrInvalidKey) {
			t.Fatalf("\t%s\tShould reject a key that can't be decoded: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a key that can't be decoded.", success)
	}
}

func Test_KeyEncoding(t *testing.T) {
	pk, err := signature.GenerateKey(1024)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	pkHex := signature.EncodePrivateKey(pk)
	decoded, err := signature.ParsePrivateKey(pkHex)
	if err != nil {
		t.Fatalf("Should be able to parse the private key: %s", err)
	}

	if !decoded.Equal(pk) {
		t.Fatalf("Should get back the same private key.")
	}

	pubHex, err := signature.EncodePublicKey(&pk.PublicKey)
	if err != nil {
		t.Fatalf("Should be able to encode the public key: %s", err)
	}

	pub, err := signature.ParsePublicKey(pubHex)
	if err != nil {
		t.Fatalf("Should be able to parse the public key: %s", err)
	}

	if !pub.Equal(&pk.PublicKey) {
		t.Fatalf("Should get back the same public key.")
	}

	if _, err := signature.ParsePublicKey(pkHex); !errors.Is(err, signature.ErrInvalidKey) {
		t.Fatalf("Should not accept a private key as a public key: %v", err)
	}
}
