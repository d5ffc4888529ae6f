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

package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode(t *testing.T) {
	for _, test := range []struct {
		name    string
		data    string
		want    Message
		wantErr bool
	}{
		{
			name: "print",
			data: `{"port":"print","value":"hello"}`,
			want: Message{Kind: KindPrint, Text: "hello"},
		},
		{
			name: "request source directories",
			data: `{"port":"requestReadSourceDirectories","value":["src","vendor"]}`,
			want: Message{Kind: KindRequestSourceFiles, Roots: []string{"src", "vendor"}},
		},
		{
			name: "generated files",
			data: `{"port":"generatedFiles","value":[{"path":"generated/Out.ts","contents":"export {}"}]}`,
			want: Message{Kind: KindGeneratedFiles, Files: []GeneratedFile{{Path: "generated/Out.ts", Contents: "export {}"}}},
		},
		{
			name: "parsing error",
			data: `{"port":"parsingError","value":"unexpected token"}`,
			want: Message{Kind: KindParsingError, Text: "unexpected token"},
		},
		{
			name: "exit failure",
			data: `{"port":"printAndExitFailure","value":"bad elm.json"}`,
			want: Message{Kind: KindExitFailure, Text: "bad elm.json"},
		},
		{
			name: "exit success",
			data: `{"port":"printAndExitSuccess","value":"nothing to do"}`,
			want: Message{Kind: KindExitSuccess, Text: "nothing to do"},
		},
		{
			name:    "wrong value type",
			data:    `{"port":"print","value":["not","a","string"]}`,
			wantErr: true,
		},
		{
			name:    "missing value",
			data:    `{"port":"print"}`,
			wantErr: true,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			var env Envelope
			if err := json.Unmarshal([]byte(test.data), &env); err != nil {
				t.Fatal(err)
			}
			got, err := env.Decode()
			if test.wantErr {
				if err == nil {
					t.Fatalf("Decode() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeUnknownPort(t *testing.T) {
	env := &Envelope{Port: "subscribe", Value: json.RawMessage(`"x"`)}
	_, err := env.Decode()
	if !errors.Is(err, ErrUnknownPort) {
		t.Errorf("Decode() error = %v, want %v", err, ErrUnknownPort)
	}
}

func TestTerminal(t *testing.T) {
	for _, test := range []struct {
		kind Kind
		want bool
	}{
		{KindPrint, false},
		{KindRequestSourceFiles, false},
		{KindParsingError, true},
		{KindGeneratedFiles, true},
		{KindExitFailure, true},
		{KindExitSuccess, true},
		{Kind("other"), false},
	} {
		t.Run(string(test.kind), func(t *testing.T) {
			if got := test.kind.Terminal(); got != test.want {
				t.Errorf("Terminal() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestHostMessageEnvelope(t *testing.T) {
	for _, test := range []struct {
		name string
		msg  HostMessage
		want string
	}{
		{
			name: "init",
			msg: InitMessage(Flags{ElmProjectConfig: map[string]any{
				"type":               "application",
				"source-directories": []any{"src"},
			}}),
			want: `{"port":"init","value":{"elmProjectConfig":{"source-directories":["src"],"type":"application"}}}`,
		},
		{
			name: "source files",
			msg:  ReadSourceFilesMessage([]SourceFile{{Path: "src/A.elm", Contents: "module A exposing (..)"}}),
			want: `{"port":"readSourceFiles","value":{"sourceFiles":[{"path":"src/A.elm","contents":"module A exposing (..)"}]}}`,
		},
		{
			name: "no source files",
			msg:  ReadSourceFilesMessage(nil),
			want: `{"port":"readSourceFiles","value":{"sourceFiles":[]}}`,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			env, err := test.msg.Envelope()
			if err != nil {
				t.Fatal(err)
			}
			got, err := json.Marshal(env)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, string(got)); diff != "" {
				t.Errorf("Envelope() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	msg := Message{Kind: KindRequestSourceFiles, Roots: []string{"src"}}
	env, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := env.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(msg, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
