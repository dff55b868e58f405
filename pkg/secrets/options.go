// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package secrets

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/document"
)

// KeyType selects the sops key management backend.
type KeyType string

const (
	KeyPGP     KeyType = "pgp"
	KeyGCPKMS  KeyType = "gcp-kms"
	KeyAWSKMS  KeyType = "kms"
	KeyAzureKV KeyType = "azure-kv"
)

// KeyTypes lists the accepted key backends in flag order.
var KeyTypes = []KeyType{KeyPGP, KeyGCPKMS, KeyAWSKMS, KeyAzureKV}

var ErrInvalidArguments = errors.Base("invalid sops arguments")

// 🔧 EncryptOptions maps onto sops encrypt flags.
type EncryptOptions struct {
	InPlace bool
	Output  string

	KeyType KeyType
	KeyID   string

	// EncryptedSuffix defaults to document.SecretSuffix when neither suffix
	// is set, so only keys the loader treats as secrets are encrypted.
	EncryptedSuffix   string
	UnencryptedSuffix string

	Verbose bool
}

// Args builds the sops argument list for path.
func (o EncryptOptions) Args(path string) ([]string, error) {
	if o.InPlace && o.Output != "" {
		return nil, errors.Errorf("%w: --in-place and --output are mutually exclusive", ErrInvalidArguments)
	}
	if o.EncryptedSuffix != "" && o.UnencryptedSuffix != "" {
		return nil, errors.Errorf("%w: --encrypted-suffix and --unencrypted-suffix are mutually exclusive", ErrInvalidArguments)
	}

	args := []string{"--encrypt"}
	args = appendOutput(args, o.InPlace, o.Output)

	if o.KeyID != "" || o.KeyType != "" {
		if !validKeyType(o.KeyType) {
			return nil, errors.Errorf("%w: unknown key type %q", ErrInvalidArguments, o.KeyType)
		}
		if o.KeyID == "" {
			return nil, errors.Errorf("%w: --%s needs a key id", ErrInvalidArguments, o.KeyType)
		}
		args = append(args, "--"+string(o.KeyType), o.KeyID)
	}

	switch {
	case o.UnencryptedSuffix != "":
		args = append(args, "--unencrypted-suffix", o.UnencryptedSuffix)
	case o.EncryptedSuffix != "":
		args = append(args, "--encrypted-suffix", o.EncryptedSuffix)
	default:
		args = append(args, "--encrypted-suffix", document.SecretSuffix)
	}

	if o.Verbose {
		args = append(args, "--verbose")
	}

	return append(args, path), nil
}

// 🔧 DecryptOptions maps onto sops decrypt flags.
type DecryptOptions struct {
	InPlace bool
	Output  string
	Verbose bool
}

// Args builds the sops argument list for path.
func (o DecryptOptions) Args(path string) ([]string, error) {
	if o.InPlace && o.Output != "" {
		return nil, errors.Errorf("%w: --in-place and --output are mutually exclusive", ErrInvalidArguments)
	}

	args := appendOutput([]string{"--decrypt"}, o.InPlace, o.Output)
	if o.Verbose {
		args = append(args, "--verbose")
	}
	return append(args, path), nil
}

func appendOutput(args []string, inPlace bool, output string) []string {
	if inPlace {
		return append(args, "--in-place")
	}
	if output != "" {
		return append(args, "--output", output)
	}
	return args
}

func validKeyType(k KeyType) bool {
	for _, t := range KeyTypes {
		if t == k {
			return true
		}
	}
	return false
}
