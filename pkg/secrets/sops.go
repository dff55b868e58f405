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
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/secretconf/pkg/binary"
	"github.com/walteh/secretconf/pkg/document"
)

// DefaultBinary is the sops executable name.
const DefaultBinary = "sops"

// Exit statuses sops reports for files that are already in the requested
// state. Only the CLI interprets them.
const (
	ExitMetadataNotFound     = 128
	ExitFileAlreadyEncrypted = 203
)

var (
	ErrSopsBinaryNotFound = errors.Base("sops binary not found")
	ErrDecryptionFailed   = errors.Base("decryption failed")
	ErrEncryptionFailed   = errors.Base("encryption failed")
	ErrNilConfig          = errors.Base("cannot decrypt a nil config")
)

// 🔌 Decrypter turns a parsed document into cleartext.
type Decrypter interface {
	Decrypt(ctx context.Context, path string, doc document.Document) (document.Document, error)
}

// ExitError is a sops run that exited non-zero.
type ExitError struct {
	Op     string
	Path   string
	Code   int
	Stderr string

	kind error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: sops --%s %s exited with status %d", e.kind, e.Op, e.Path, e.Code)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.kind
}

// AlreadyEncrypted reports whether sops refused to encrypt an encrypted file.
func (e *ExitError) AlreadyEncrypted() bool {
	return e.Code == ExitFileAlreadyEncrypted
}

// NotEncrypted reports whether sops found no metadata to decrypt with.
func (e *ExitError) NotEncrypted() bool {
	return e.Code == ExitMetadataNotFound && strings.Contains(strings.ToLower(e.Stderr), "metadata not found")
}

// 🔐 Sops runs the sops binary. Resolution tries $PATH and then the
// working directory.
type Sops struct {
	cmd binary.Command
}

var _ Decrypter = (*Sops)(nil)

// New builds a Sops. A nil runner means os/exec; no resolvers means
// binary.DefaultResolvers.
func New(runner binary.Runner, resolvers ...binary.Resolver) *Sops {
	if runner == nil {
		runner = binary.ExecRunner{}
	}
	if len(resolvers) == 0 {
		resolvers = binary.DefaultResolvers()
	}
	return &Sops{cmd: binary.Command{Name: DefaultBinary, Resolvers: resolvers, Runner: runner}}
}

// Decrypt returns doc untouched when it has no sops metadata. Otherwise it
// runs `sops --decrypt path`, parses stdout as YAML and lays the cleartext
// over doc minus its metadata, so keys doc picked up from a base config
// survive.
func (s *Sops) Decrypt(ctx context.Context, path string, doc document.Document) (document.Document, error) {
	if doc == nil {
		return nil, errors.Errorf("%w: %s", ErrNilConfig, path)
	}
	if !doc.IsEncrypted() {
		return doc, nil
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("decrypting config")

	res, err := s.run(ctx, "decrypt", path, []string{"--decrypt", path}, ErrDecryptionFailed)
	if err != nil {
		return nil, err
	}

	cleartext, err := document.DecodeYAML(res.Stdout)
	if err != nil {
		return nil, errors.Errorf("%w: parsing sops output for %s: %s", ErrDecryptionFailed, path, err.Error())
	}

	return document.Merge(doc.WithoutSops(), cleartext.WithoutSops()), nil
}

// Encrypt runs `sops --encrypt` over path.
func (s *Sops) Encrypt(ctx context.Context, path string, opts EncryptOptions) (*binary.Result, error) {
	args, err := opts.Args(path)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "encrypt", path, args, ErrEncryptionFailed)
}

// DecryptFile runs `sops --decrypt` over path for the file-level commands.
func (s *Sops) DecryptFile(ctx context.Context, path string, opts DecryptOptions) (*binary.Result, error) {
	args, err := opts.Args(path)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "decrypt", path, args, ErrDecryptionFailed)
}

func (s *Sops) run(ctx context.Context, op, path string, args []string, kind error) (*binary.Result, error) {
	res, err := s.cmd.Run(ctx, args, nil)
	if err != nil {
		if errors.Is(err, binary.ErrBinaryNotFound) {
			return nil, errors.Errorf("%w: %s", ErrSopsBinaryNotFound, err.Error())
		}
		return nil, errors.Errorf("running sops: %w", err)
	}

	if !res.Success() {
		return res, errors.WithStack(&ExitError{
			Op:     op,
			Path:   path,
			Code:   res.ExitCode,
			Stderr: string(res.Stderr),
			kind:   kind,
		})
	}

	return res, nil
}
