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

package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodeCodecRoundTrip(t *testing.T) {
	episode := makeEpisode(4, 3)

	v, err := EncodeEpisode(episode)
	require.NoError(t, err)

	decoded, err := DecodeEpisode(v)
	require.NoError(t, err)
	assert.Equal(t, episode, decoded)
}

func TestEpisodeCodecDeterministic(t *testing.T) {
	episode := makeEpisode(2, 1)

	first, err := EncodeEpisode(episode)
	require.NoError(t, err)
	second, err := EncodeEpisode(episode)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeEpisodeTruncated(t *testing.T) {
	episode := makeEpisode(4, 3)
	v, err := EncodeEpisode(episode)
	require.NoError(t, err)

	_, err = DecodeEpisode(v[:len(v)-3])
	assert.Error(t, err)

	_, err = DecodeEpisode(v[:4])
	assert.Error(t, err)

	_, err = DecodeEpisode([]byte{})
	assert.Error(t, err)
}

func TestDecodeEpisodeEmptyShapeHeader(t *testing.T) {
	// A header full of zeros announces empty arrays, its 16 bytes match the
	// expected size but hold no decodable episode
	_, err := DecodeEpisode(make([]byte, 16))
	assert.Error(t, err)

	episode := makeEpisode(2, 2)
	v, err := EncodeEpisode(episode)
	require.NoError(t, err)

	// Zero out the action dimension announced by the header
	corrupted := append([]byte{}, v[:16]...)
	corrupted[12], corrupted[13], corrupted[14], corrupted[15] = 0, 0, 0, 0
	_, err = DecodeEpisode(corrupted)
	assert.Error(t, err)
}

func TestDecodeEpisodeTrailingGarbage(t *testing.T) {
	episode := makeEpisode(2, 2)
	v, err := EncodeEpisode(episode)
	require.NoError(t, err)

	_, err = DecodeEpisode(append(v, 0xde, 0xad))
	assert.Error(t, err)
}
