/*
Copyright 2025 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package sign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"os"

	"github.com/hhrutter/pkcs7"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ocsp"
)

// PKCS7Signer is the default Signer, producing a detached CMS/PKCS#7
// SignedData envelope (SubFilter adbe.pkcs7.detached) the way
// pkg/pdfcpu/sign/pkcs7.go validates on the read side. An optional OCSP
// response for the signing certificate is parsed and checked against it,
// mirroring pkg/pdfcpu/sign/revocate.go's use of golang.org/x/crypto/ocsp;
// the response is not embedded in the envelope.
type PKCS7Signer struct {
	Cert       *x509.Certificate
	Key        *rsa.PrivateKey
	OCSPStaple []byte // pre-fetched response from an OCSP responder, optional
}

// WriteDigest implements Signer. It reads the file's signed byte ranges,
// builds a detached PKCS#7 signature over them, and overwrites the
// /Contents placeholder in place with its hex encoding.
func (s *PKCS7Signer) WriteDigest(path string, byteRange []int64, contentsOffset, contentsLength int64) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return errors.Wrapf(err, "pdfcpu: sign: open %s", path)
	}
	defer f.Close()

	signed, err := readByteRange(f, byteRange)
	if err != nil {
		return err
	}

	sd, err := pkcs7.NewSignedData(signed)
	if err != nil {
		return errors.Wrap(err, "pdfcpu: sign: NewSignedData")
	}
	sd.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := sd.AddSigner(s.Cert, cryptoSigner{s.Key}, pkcs7.SignerInfoConfig{}); err != nil {
		return errors.Wrap(err, "pdfcpu: sign: AddSigner")
	}
	sd.Detach()

	if len(s.OCSPStaple) > 0 {
		if _, err := ocsp.ParseResponse(s.OCSPStaple, s.Cert); err != nil {
			return errors.Wrap(err, "pdfcpu: sign: invalid OCSP staple")
		}
	}

	der, err := sd.Finish()
	if err != nil {
		return errors.Wrap(err, "pdfcpu: sign: Finish")
	}

	encoded := make([]byte, hex.EncodedLen(len(der)))
	hex.Encode(encoded, der)

	if int64(len(encoded)) > contentsLength {
		return errors.Errorf("pdfcpu: sign: digest %d hex bytes overflows reserved %d", len(encoded), contentsLength)
	}
	for int64(len(encoded)) < contentsLength {
		encoded = append(encoded, '0')
	}

	if _, err := f.WriteAt(encoded, contentsOffset); err != nil {
		return errors.Wrap(err, "pdfcpu: sign: write digest")
	}

	return nil
}

// readByteRange reads and concatenates the byte spans byteRange names, in
// [offset0, length0, offset1, length1, ...] form, matching /ByteRange.
func readByteRange(f *os.File, byteRange []int64) ([]byte, error) {
	var out []byte
	for i := 0; i+1 < len(byteRange); i += 2 {
		off, n := byteRange[i], byteRange[i+1]
		buf := make([]byte, n)
		if _, err := f.ReadAt(buf, off); err != nil {
			return nil, errors.Wrap(err, "pdfcpu: sign: read byte range")
		}
		out = append(out, buf...)
	}
	return out, nil
}

// cryptoSigner adapts an *rsa.PrivateKey to pkcs7's expected crypto.Signer.
type cryptoSigner struct {
	key *rsa.PrivateKey
}

func (c cryptoSigner) Public() crypto.PublicKey { return &c.key.PublicKey }

func (c cryptoSigner) Sign(rnd []byte, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return rsa.SignPKCS1v15(rand.Reader, c.key, opts.HashFunc(), digest)
}
