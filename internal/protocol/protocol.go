// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package protocol defines the messages exchanged between the host and a code
// generation engine, and their JSON wire encoding.
//
// Every message travels as an envelope naming the port it belongs to:
//
//	{"port": "print", "value": "Compiling..."}
//
// The same envelope is used by every transport in package engine.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies a message sent from the engine to the host. The value is
// the port name used on the wire.
type Kind string

// The set of engine ports, in a single place to avoid typos.
const (
	// KindPrint carries a line of output for the user.
	KindPrint Kind = "print"
	// KindRequestSourceFiles asks the host to read every source file below a
	// list of source directories.
	KindRequestSourceFiles Kind = "requestReadSourceDirectories"
	// KindParsingError reports that the engine could not parse the sources.
	KindParsingError Kind = "parsingError"
	// KindGeneratedFiles carries the files produced by a successful run.
	KindGeneratedFiles Kind = "generatedFiles"
	// KindExitFailure carries a message to print before failing the run.
	KindExitFailure Kind = "printAndExitFailure"
	// KindExitSuccess carries a message to print before ending the run
	// successfully.
	KindExitSuccess Kind = "printAndExitSuccess"
)

// Host ports.
const (
	// PortInit carries the engine initialization flags. It is always the first
	// message the host sends.
	PortInit = "init"
	// PortReadSourceFiles carries the reply to a KindRequestSourceFiles message.
	PortReadSourceFiles = "readSourceFiles"
)

// ErrUnknownPort is returned when an envelope names a port that is not part of
// the protocol.
var ErrUnknownPort = errors.New("unknown port")

// Terminal reports whether a message of this kind ends the run.
func (k Kind) Terminal() bool {
	switch k {
	case KindParsingError, KindGeneratedFiles, KindExitFailure, KindExitSuccess:
		return true
	}
	return false
}

// SourceFile is the raw text of a source file, keyed by the path it was read
// from.
type SourceFile struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// GeneratedFile is a file the engine wants written to disk.
type GeneratedFile struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// Message is a message received from the engine. Which fields are set depends
// on Kind:
//   - KindPrint, KindParsingError, KindExitFailure, KindExitSuccess: Text
//   - KindRequestSourceFiles: Roots
//   - KindGeneratedFiles: Files
type Message struct {
	Kind  Kind
	Text  string
	Roots []string
	Files []GeneratedFile
}

// Flags is the initialization data handed to the engine when it starts.
type Flags struct {
	// ElmProjectConfig is the parsed project manifest, passed through
	// unmodified.
	ElmProjectConfig map[string]any `json:"elmProjectConfig"`
}

// SourceFiles is the reply to a source file request. All files are sent in a
// single batch.
type SourceFiles struct {
	SourceFiles []SourceFile `json:"sourceFiles"`
}

// HostMessage is a message sent from the host to the engine.
type HostMessage struct {
	Port  string
	Value any
}

// InitMessage returns the first message sent to a newly started engine.
func InitMessage(flags Flags) HostMessage {
	return HostMessage{Port: PortInit, Value: flags}
}

// ReadSourceFilesMessage returns the batched reply to a source file request.
func ReadSourceFilesMessage(files []SourceFile) HostMessage {
	if files == nil {
		files = []SourceFile{}
	}
	return HostMessage{Port: PortReadSourceFiles, Value: SourceFiles{SourceFiles: files}}
}

// Envelope is the wire representation of every message.
type Envelope struct {
	Port  string          `json:"port"`
	Value json.RawMessage `json:"value"`
}

// Envelope encodes the message value for the wire.
func (m HostMessage) Envelope() (*Envelope, error) {
	value, err := json.Marshal(m.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", m.Port, err)
	}
	return &Envelope{Port: m.Port, Value: value}, nil
}

// Decode converts an envelope received from the engine into a Message.
func (e *Envelope) Decode() (Message, error) {
	msg := Message{Kind: Kind(e.Port)}
	var target any
	switch msg.Kind {
	case KindPrint, KindParsingError, KindExitFailure, KindExitSuccess:
		target = &msg.Text
	case KindRequestSourceFiles:
		target = &msg.Roots
	case KindGeneratedFiles:
		target = &msg.Files
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownPort, e.Port)
	}
	if len(e.Value) == 0 {
		return Message{}, fmt.Errorf("%s message has no value", e.Port)
	}
	if err := json.Unmarshal(e.Value, target); err != nil {
		return Message{}, fmt.Errorf("failed to decode %s message: %w", e.Port, err)
	}
	return msg, nil
}

// Encode returns the envelope of a message as the engine would send it. It is
// the inverse of Decode and is used by engines written in Go.
func (m Message) Encode() (*Envelope, error) {
	var value any
	switch m.Kind {
	case KindPrint, KindParsingError, KindExitFailure, KindExitSuccess:
		value = m.Text
	case KindRequestSourceFiles:
		value = nonNil(m.Roots)
	case KindGeneratedFiles:
		value = nonNil(m.Files)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPort, m.Kind)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s message: %w", m.Kind, err)
	}
	return &Envelope{Port: string(m.Kind), Value: data}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
