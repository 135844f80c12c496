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
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodesFileRoundTrip(t *testing.T) {
	descriptor := &Descriptor{
		Environment: "smac-3m",
		NumAgents:   3,
		StateDim:    2,
		ActionDim:   1,
		Properties:  map[string]string{"quality": "good"},
	}
	episodes := []*Episode{
		makeEpisode(3, 3),
		makeEpisode(5, 3),
	}

	buf := &bytes.Buffer{}
	writer := CreateEpisodesFileWriter(buf)
	require.NoError(t, writer.WriteHeader(descriptor))
	for _, episode := range episodes {
		require.NoError(t, writer.WriteEpisode(episode))
	}
	assert.Equal(t, buf.Len(), writer.Bytes)

	reader := CreateEpisodesFileReader(buf)
	header, err := reader.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, descriptor, header.Descriptor)
	assert.NotZero(t, header.ExportTimestamp)

	for _, episode := range episodes {
		read, err := reader.ReadEpisode()
		require.NoError(t, err)
		assert.Equal(t, episode, read)
	}

	_, err = reader.ReadEpisode()
	assert.Equal(t, io.EOF, err)
}

func TestEpisodesFileReaderRejectsBadMagicValue(t *testing.T) {
	reader := CreateEpisodesFileReader(bytes.NewBufferString("NOTAVAULTFILE000 more bytes"))
	_, err := reader.ReadHeader()
	assert.Error(t, err)

	// The reader stays unusable after a failure
	_, err = reader.ReadEpisode()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestEpisodesFileWriterStateMachine(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := CreateEpisodesFileWriter(buf)

	// Episodes can only follow the header
	err := writer.WriteEpisode(makeEpisode(2, 1))
	assert.Error(t, err)

	require.NoError(t, writer.WriteHeader(&Descriptor{NumAgents: 1, StateDim: 2, ActionDim: 1}))
	err = writer.WriteHeader(&Descriptor{NumAgents: 1, StateDim: 2, ActionDim: 1})
	assert.Error(t, err)
}

func TestEpisodesFileReaderRejectsTruncatedFile(t *testing.T) {
	buf := &bytes.Buffer{}
	writer := CreateEpisodesFileWriter(buf)
	require.NoError(t, writer.WriteHeader(&Descriptor{NumAgents: 1, StateDim: 1, ActionDim: 1}))
	require.NoError(t, writer.WriteEpisode(makeEpisode(2, 1)))

	truncated := buf.Bytes()[:buf.Len()-1]
	reader := CreateEpisodesFileReader(bytes.NewBuffer(truncated))
	_, err := reader.ReadHeader()
	require.NoError(t, err)

	_, err = reader.ReadEpisode()
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}
