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
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/openmarl/vaultscope/version"
)

const magicValue = "OPENMARLVAULT001"

type state int

const (
	expectHeader state = iota
	expectEpisodes
	failure
)

// EpisodesFileHeader opens an episodes file, it carries the shape every
// episode record in the file must match
type EpisodesFileHeader struct {
	Version         string      `yaml:"version"`
	ExportTimestamp uint64      `yaml:"export_timestamp"`
	Descriptor      *Descriptor `yaml:"descriptor"`
}

type EpisodesFileWriter struct {
	writer io.Writer
	state  state
	Bytes  int
}

func CreateEpisodesFileWriter(writer io.Writer) *EpisodesFileWriter {
	return &EpisodesFileWriter{
		writer: writer,
		state:  expectHeader,
		Bytes:  0,
	}
}

func (writer *EpisodesFileWriter) WriteHeader(descriptor *Descriptor) error {
	if writer.state != expectHeader {
		return fmt.Errorf("writer not in the expected state")
	}

	bytesWritten, err := writeMagicValue(writer.writer, magicValue)
	writer.Bytes += bytesWritten
	if err != nil {
		writer.state = failure
		return err
	}

	header := &EpisodesFileHeader{
		Version:         version.Version,
		ExportTimestamp: uint64(time.Now().UnixNano()),
		Descriptor:      descriptor,
	}
	headerV, err := yaml.Marshal(header)
	if err != nil {
		writer.state = failure
		return NewUnexpectedError("unable to serialize the episodes file header (%w)", err)
	}

	bytesWritten, err = writeBlock(writer.writer, headerV)
	writer.Bytes += bytesWritten
	if err != nil {
		writer.state = failure
		return err
	}
	writer.state = expectEpisodes
	return nil
}

func (writer *EpisodesFileWriter) WriteEpisode(episode *Episode) error {
	if writer.state != expectEpisodes {
		return fmt.Errorf("writer not in the expected state")
	}

	episodeV, err := EncodeEpisode(episode)
	if err != nil {
		writer.state = failure
		return err
	}

	bytesWritten, err := writeBlock(writer.writer, episodeV)
	writer.Bytes += bytesWritten
	if err != nil {
		writer.state = failure
		return err
	}
	return nil
}

type EpisodesFileReader struct {
	reader io.Reader
	state  state
}

func CreateEpisodesFileReader(reader io.Reader) *EpisodesFileReader {
	return &EpisodesFileReader{
		reader: reader,
		state:  expectHeader,
	}
}

func (reader *EpisodesFileReader) ReadHeader() (*EpisodesFileHeader, error) {
	if reader.state != expectHeader {
		return nil, fmt.Errorf("reader not in the expected state")
	}
	err := readMagicValue(reader.reader, magicValue)
	if err != nil {
		reader.state = failure
		return nil, err
	}

	headerV, err := readBlock(reader.reader)
	if err != nil {
		reader.state = failure
		return nil, err
	}
	header := &EpisodesFileHeader{}
	err = yaml.Unmarshal(headerV, header)
	if err != nil {
		reader.state = failure
		return nil, NewUnexpectedError("unable to deserialize the episodes file header (%w)", err)
	}
	reader.state = expectEpisodes
	return header, nil
}

// ReadEpisode reads the next episode record, it returns io.EOF once the file
// is exhausted
func (reader *EpisodesFileReader) ReadEpisode() (*Episode, error) {
	if reader.state != expectEpisodes {
		return nil, fmt.Errorf("reader not in the expected state")
	}

	episodeV, err := readBlock(reader.reader)
	if err != nil {
		if err != io.EOF {
			reader.state = failure
		}
		return nil, err
	}
	return DecodeEpisode(episodeV)
}

func writeMagicValue(writer io.Writer, magicValue string) (int, error) {
	magicSize, err := writer.Write([]byte(magicValue))
	return magicSize, err
}

func readMagicValue(reader io.Reader, expectedMagicValue string) error {
	readValue := make([]byte, len(expectedMagicValue))
	_, err := io.ReadFull(reader, readValue)
	if err != nil {
		return fmt.Errorf("unable to read the expected %d bytes magic value (%w)", len(expectedMagicValue), err)
	}
	if string(readValue) != expectedMagicValue {
		return fmt.Errorf("magic value doesn't match, expected [%s], got [%s]", expectedMagicValue, readValue)
	}
	return nil
}

func writeBlock(writer io.Writer, block []byte) (int, error) {
	writtenSize := 0
	size := uint32(len(block))
	err := binary.Write(writer, binary.LittleEndian, &size)
	if err != nil {
		return writtenSize, err
	}
	writtenSize += binary.Size(size)
	blockSize, err := writer.Write(block)
	writtenSize += blockSize
	return writtenSize, err
}

func readBlock(reader io.Reader) ([]byte, error) {
	var size uint32
	err := binary.Read(reader, binary.LittleEndian, &size)
	if err != nil {
		return nil, err
	}

	block := make([]byte, size)
	readSize, err := io.ReadFull(reader, block)
	if err != nil {
		return nil, fmt.Errorf("read %d bytes, expected %d bytes (%w)", readSize, size, err)
	}
	return block, nil
}
