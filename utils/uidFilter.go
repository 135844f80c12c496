// Copyright 2024 The OpenMARL Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

// UIDFilter selects a subset of dataset UIDs, an empty filter selects all
type UIDFilter map[string]struct{}

func NewUIDFilter(selectedUIDs []string) UIDFilter {
	set := make(UIDFilter)
	for _, uid := range selectedUIDs {
		set[uid] = struct{}{}
	}
	return set
}

func (f *UIDFilter) SelectsAll() bool {
	return len(*f) == 0
}

func (f *UIDFilter) Selects(uid string) bool {
	if len(*f) == 0 {
		return true
	}
	_, isSelected := (*f)[uid]
	return isSelected
}
