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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUIDFilterEmptySelectsAll(t *testing.T) {
	filter := NewUIDFilter([]string{})
	assert.True(t, filter.SelectsAll())
	assert.True(t, filter.Selects("anything"))
}

func TestUIDFilterSelectsOnlyGivenUIDs(t *testing.T) {
	filter := NewUIDFilter([]string{"good", "poor"})
	assert.False(t, filter.SelectsAll())
	assert.True(t, filter.Selects("good"))
	assert.True(t, filter.Selects("poor"))
	assert.False(t, filter.Selects("medium"))
}
