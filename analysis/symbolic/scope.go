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

package symbolic

import "fmt"

// ScopeToken identifies one call scope. Pushing a token on an expression marks its
// variables as belonging to the caller of the scoped code; popping the same token restores
// them. Tokens compare by value.
type ScopeToken struct {
	Name string
	Loc  Location
}

// NewScopeToken returns the token for a call to callee happening at loc.
func NewScopeToken(callee string, loc Location) ScopeToken {
	return ScopeToken{Name: callee, Loc: loc}
}

func (t ScopeToken) String() string {
	return fmt.Sprintf("%s@%s", t.Name, t.Loc)
}
