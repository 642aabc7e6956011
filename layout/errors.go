// Copyright 2024 The ink-storage2 Authors
// This file is part of ink-storage2.
//
// ink-storage2 is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ink-storage2 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ink-storage2. If not, see <http://www.gnu.org/licenses/>.

package layout

import (
	goerrors "errors"

	"github.com/pkg/errors"
)

// ErrInvariantViolation marks a trap raised because a structural
// invariant the engine depends on (e.g. BTreeMap's root/len relation)
// was found broken. It is never expected to occur given correct usage;
// production code treats it the same as DecodeFailure — unrecoverable.
var ErrInvariantViolation = goerrors.New("layout: invariant violation")

// Trap panics with err wrapped with a stack trace. Decode failures and
// invariant violations are the only two error classes in the source
// that are not surfaced through the public Option/bool APIs: both are
// modeled here as a contract trap, matching a WebAssembly contract's
// only escape hatch (abnormal termination, which the host treats as a
// rollback).
func Trap(err error) {
	if err == nil {
		return
	}
	panic(errors.WithStack(err))
}

// TrapInvariant panics with ErrInvariantViolation annotated by msg.
func TrapInvariant(msg string) {
	panic(errors.WithStack(errors.Wrap(ErrInvariantViolation, msg)))
}
