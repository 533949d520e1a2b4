// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fixpoint

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/argus-static/argus/analysis/cfg"
)

// ErrCancelled is returned when the cooperative cancellation flag is raised between
// working-set pops. Partial results computed before the flag was raised stay valid.
var ErrCancelled = errors.New("analysis cancelled")

// Cancellation is the cooperative cancellation flag a caller may raise to abort the
// analysis. The zero value is usable; a nil Cancellation never cancels.
type Cancellation struct {
	flag atomic.Bool
}

// Cancel raises the flag.
func (c *Cancellation) Cancel() {
	if c != nil {
		c.flag.Store(true)
	}
}

// Cancelled reports whether the flag was raised.
func (c *Cancellation) Cancelled() bool {
	return c != nil && c.flag.Load()
}

// FixpointError reports that a CFG fixpoint aborted at a node, wrapping the semantic or
// lattice failure that caused it.
type FixpointError struct {
	Node *cfg.Statement
	Err  error
}

func (e *FixpointError) Error() string {
	return fmt.Sprintf("fixpoint failed at %q (%s): %v", e.Node, e.Node.Location(), e.Err)
}

func (e *FixpointError) Unwrap() error { return e.Err }
