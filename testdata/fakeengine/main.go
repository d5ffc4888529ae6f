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

// Command fakeengine is a stand-in code generation engine used by the e2e
// tests. It speaks the host protocol over standard input and output and
// writes a declaration file listing the ports it finds.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/elmts/elm-typescript-interop/internal/protocol"
)

const (
	modeGenerate   = "generate"
	modeParseError = "parse-error"
	modeFail       = "fail"
	modeCrash      = "crash"
)

var portDecl = regexp.MustCompile(`(?m)^port\s+(\w+)\s*:`)

type options struct {
	mode   string
	output string
	roots  []string
}

func main() {
	log.SetPrefix("fakeengine: ")
	log.SetFlags(0)
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseOptions(args []string) (*options, error) {
	opts := &options{mode: modeGenerate, output: "src/Main/index.d.ts"}
	for _, arg := range args {
		option, _ := strings.CutPrefix(arg, "--")
		key, value, _ := strings.Cut(option, "=")
		switch key {
		case "mode":
			opts.mode = value
		case "output":
			opts.output = value
		case "roots":
			opts.roots = strings.Split(value, ",")
		default:
			return nil, errors.New("unrecognized option: " + option)
		}
	}
	return opts, nil
}

type conn struct {
	in  *bufio.Scanner
	out *json.Encoder
}

func (c *conn) send(m protocol.Message) error {
	env, err := m.Encode()
	if err != nil {
		return err
	}
	return c.out.Encode(env)
}

func (c *conn) receive(port string, v any) error {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return err
		}
		return fmt.Errorf("stdin closed while waiting for %s", port)
	}
	var env protocol.Envelope
	if err := json.Unmarshal(c.in.Bytes(), &env); err != nil {
		return err
	}
	if env.Port != port {
		return fmt.Errorf("got port %q, want %q", env.Port, port)
	}
	return json.Unmarshal(env.Value, v)
}

func run(opts *options) error {
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 64*1024), 64*1024*1024)
	c := &conn{in: in, out: json.NewEncoder(os.Stdout)}

	var flags protocol.Flags
	if err := c.receive(protocol.PortInit, &flags); err != nil {
		return err
	}
	log.Print("received init, mode ", opts.mode)

	switch opts.mode {
	case modeParseError:
		return c.send(protocol.Message{Kind: protocol.KindParsingError, Text: "Could not parse the port modules."})
	case modeFail:
		return c.send(protocol.Message{Kind: protocol.KindExitFailure, Text: "No port modules found."})
	case modeCrash:
		return errors.New("simulated crash")
	case modeGenerate:
	default:
		return errors.New("unrecognized mode: " + opts.mode)
	}

	roots := opts.roots
	if len(roots) == 0 {
		roots = sourceDirectories(flags)
	}
	if err := c.send(protocol.Message{Kind: protocol.KindPrint, Text: "Generating TypeScript declarations..."}); err != nil {
		return err
	}
	if err := c.send(protocol.Message{Kind: protocol.KindRequestSourceFiles, Roots: roots}); err != nil {
		return err
	}
	var reply protocol.SourceFiles
	if err := c.receive(protocol.PortReadSourceFiles, &reply); err != nil {
		return err
	}
	return c.send(protocol.Message{
		Kind:  protocol.KindGeneratedFiles,
		Files: []protocol.GeneratedFile{{Path: opts.output, Contents: declarations(reply.SourceFiles)}},
	})
}

// sourceDirectories reads "source-directories" from elm.json, falling back to
// ["src"] for manifests without one.
func sourceDirectories(flags protocol.Flags) []string {
	raw, ok := flags.ElmProjectConfig["source-directories"].([]any)
	if !ok {
		return []string{"src"}
	}
	var dirs []string
	for _, d := range raw {
		if s, ok := d.(string); ok {
			dirs = append(dirs, s)
		}
	}
	return dirs
}

func declarations(files []protocol.SourceFile) string {
	var ports []string
	for _, f := range files {
		for _, m := range portDecl.FindAllStringSubmatch(f.Contents, -1) {
			ports = append(ports, m[1])
		}
	}
	sort.Strings(ports)
	var b strings.Builder
	fmt.Fprintf(&b, "// %d source files\n", len(files))
	b.WriteString("export interface Ports {\n")
	for _, p := range ports {
		fmt.Fprintf(&b, "  %s: unknown;\n", p)
	}
	b.WriteString("}\n")
	return b.String()
}
