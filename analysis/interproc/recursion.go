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

package interproc

import (
	"fmt"

	"github.com/argus-static/argus/internal/funcutil"
)

// Recursion delimits a strongly connected group of mutually recursive analyses: the head
// CFG whose summary is iterated, the invocation token, and the member summaries involved.
// The driver seeds the head summary at bottom and re-runs the members under the same
// token until the head stabilizes.
type Recursion struct {
	Head    string
	Token   string
	members []string
}

func (r *Recursion) addMember(key string) {
	if !funcutil.Contains(r.members, key) {
		r.members = append(r.members, key)
	}
}

// Members returns the summary keys participating in the recursion, innermost first.
func (r *Recursion) Members() []string { return r.members }

func (r *Recursion) String() string {
	return fmt.Sprintf("recursion on %s under [%s] involving %v", r.Head, r.Token, r.members)
}
